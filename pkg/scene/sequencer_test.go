package scene

import (
	"slices"
	"testing"
	"time"

	"dreamweaver/pkg/domain"
)

func crystalCaveDream() domain.DreamRequest {
	return domain.DreamRequest{
		Setting:        "Crystal Cave",
		Emotion:        "Mystery",
		Characters:     "a glowing spirit",
		MagicalElement: "Memory Crystal",
	}
}

func TestBuildReturnsFourOrderedScenes(t *testing.T) {
	scenes := Build(crystalCaveDream())
	if len(scenes) != 4 {
		t.Fatalf("expected 4 scenes, got %d", len(scenes))
	}
	wantTypes := []domain.SceneType{domain.SceneSetting, domain.SceneCharacters, domain.SceneMagic, domain.SceneConclusion}
	wantDurations := []int64{8000, 10000, 12000, 8000}
	for i, s := range scenes {
		if s.Type != wantTypes[i] {
			t.Fatalf("scene %d type = %q, want %q", i, s.Type, wantTypes[i])
		}
		if s.DurationMS != wantDurations[i] {
			t.Fatalf("scene %d duration = %d, want %d", i, s.DurationMS, wantDurations[i])
		}
	}
	if total := TotalDuration(scenes); total != 38*time.Second {
		t.Fatalf("total duration = %v, want 38s", total)
	}
}

func TestBuildCrystalCaveScenario(t *testing.T) {
	scenes := Build(crystalCaveDream())
	if scenes[0].Title != "Welcome to Crystal Cave" {
		t.Fatalf("scene 0 title = %q", scenes[0].Title)
	}
	if scenes[1].Title != "You encounter a glowing spirit" {
		t.Fatalf("scene 1 title = %q", scenes[1].Title)
	}
	if scenes[2].Title != "You discover Memory Crystal" {
		t.Fatalf("scene 2 title = %q", scenes[2].Title)
	}
	magic := scenes[2]
	if !slices.Contains(magic.Effects, domain.EffectMagicSparkle) || !slices.Contains(magic.Effects, domain.EffectEnergyPulse) {
		t.Fatalf("magic effects missing sparkle/pulse: %v", magic.Effects)
	}
	if !slices.Contains(magic.Effects, domain.EffectShadowPlay) {
		t.Fatalf("magic effects missing emotion effect: %v", magic.Effects)
	}
	if magic.Background.Intensity != "high" {
		t.Fatalf("magic intensity = %q", magic.Background.Intensity)
	}
	if !slices.Contains(scenes[1].Background.Elements, domain.ElementCharacterSilhouettes) {
		t.Fatalf("characters background missing silhouettes: %v", scenes[1].Background.Elements)
	}
	if !scenes[3].Background.Fade {
		t.Fatalf("conclusion background should fade")
	}
	if len(scenes[0].Background.Elements) != 3 {
		t.Fatalf("setting scene should carry only base elements: %v", scenes[0].Background.Elements)
	}
}

func TestBuildDropsDuplicateEffects(t *testing.T) {
	req := crystalCaveDream()
	req.Emotion = "Adventure"
	magic := Build(req)[2]
	count := 0
	for _, e := range magic.Effects {
		if e == domain.EffectEnergyPulse {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("energy-pulse appears %d times: %v", count, magic.Effects)
	}
}

func TestActiveAt(t *testing.T) {
	scenes := Build(crystalCaveDream())
	total := TotalDuration(scenes)

	s, progress, ok := ActiveAt(scenes, 0)
	if !ok || s.Type != domain.SceneSetting || progress != 0 {
		t.Fatalf("at 0: %q %v %v", s.Type, progress, ok)
	}

	s, progress, _ = ActiveAt(scenes, SettingDuration)
	if s.Type != domain.SceneCharacters || progress != 0 {
		t.Fatalf("boundary should belong to later scene, got %q %v", s.Type, progress)
	}

	s, progress, _ = ActiveAt(scenes, SettingDuration+5*time.Second)
	if s.Type != domain.SceneCharacters || progress != 0.5 {
		t.Fatalf("mid characters: %q %v", s.Type, progress)
	}

	s, _, _ = ActiveAt(scenes, total-time.Millisecond)
	if s.Type != domain.SceneConclusion {
		t.Fatalf("total-1ms should be conclusion, got %q", s.Type)
	}

	s, progress, _ = ActiveAt(scenes, total)
	if s.Type != domain.SceneConclusion || progress != 1 {
		t.Fatalf("at total: %q %v", s.Type, progress)
	}

	s, progress, _ = ActiveAt(scenes, total+time.Hour)
	if s.Type != domain.SceneConclusion || progress != 1 {
		t.Fatalf("past total: %q %v", s.Type, progress)
	}

	s, progress, _ = ActiveAt(scenes, -time.Second)
	if s.Type != domain.SceneSetting || progress != 0 {
		t.Fatalf("negative elapsed: %q %v", s.Type, progress)
	}

	if _, _, ok := ActiveAt(nil, 0); ok {
		t.Fatalf("empty scenes should report ok=false")
	}
}
