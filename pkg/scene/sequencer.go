// Package scene builds the timed scene sequence played for a dream.
package scene

import (
	"time"

	"dreamweaver/pkg/domain"
	"dreamweaver/pkg/theme"
)

// Nominal scene durations.
const (
	SettingDuration    = 8 * time.Second
	CharactersDuration = 10 * time.Second
	MagicDuration      = 12 * time.Second
	ConclusionDuration = 8 * time.Second
)

const conclusionTitle = "Your dream reaches its peak..."

// Build returns the four scenes for a dream in playback order:
// setting, characters, magic, conclusion.
func Build(req domain.DreamRequest) []domain.Scene {
	emotion := theme.EmotionEffects(req.Emotion)
	return []domain.Scene{
		{
			Type:       domain.SceneSetting,
			Title:      "Welcome to " + req.Setting,
			Background: background(req, nil),
			Effects:    union(emotion),
			DurationMS: SettingDuration.Milliseconds(),
		},
		{
			Type:  domain.SceneCharacters,
			Title: "You encounter " + req.Characters,
			Background: background(req, func(b *domain.SceneBackground) {
				b.Elements = append(b.Elements, domain.ElementCharacterSilhouettes, domain.ElementInteractionGlow)
			}),
			Effects:    union(emotion, []domain.EffectTag{domain.EffectCharacterGlow}),
			DurationMS: CharactersDuration.Milliseconds(),
		},
		{
			Type:  domain.SceneMagic,
			Title: "You discover " + req.MagicalElement,
			Background: background(req, func(b *domain.SceneBackground) {
				b.Elements = append(b.Elements, domain.ElementMagicAura, domain.ElementPowerEmanation)
				b.Intensity = "high"
			}),
			Effects:    union(emotion, []domain.EffectTag{domain.EffectMagicSparkle, domain.EffectEnergyPulse}),
			DurationMS: MagicDuration.Milliseconds(),
		},
		{
			Type:  domain.SceneConclusion,
			Title: conclusionTitle,
			Background: background(req, func(b *domain.SceneBackground) {
				b.Elements = append(b.Elements, domain.ElementConclusionGlow)
				b.Fade = true
			}),
			Effects:    []domain.EffectTag{domain.EffectDreamFade, domain.EffectPeacefulGlow},
			DurationMS: ConclusionDuration.Milliseconds(),
		},
	}
}

func background(req domain.DreamRequest, extend func(*domain.SceneBackground)) domain.SceneBackground {
	b := domain.SceneBackground{ThemeDescriptor: theme.Resolve(req.Setting, req.Emotion)}
	if extend != nil {
		extend(&b)
	}
	return b
}

// union concatenates effect lists, keeping the first occurrence of each tag.
func union(lists ...[]domain.EffectTag) []domain.EffectTag {
	seen := make(map[domain.EffectTag]struct{})
	var out []domain.EffectTag
	for _, list := range lists {
		for _, tag := range list {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// TotalDuration sums the scene durations.
func TotalDuration(scenes []domain.Scene) time.Duration {
	var total time.Duration
	for _, s := range scenes {
		total += s.Duration()
	}
	return total
}

// ActiveAt returns the scene playing at elapsed and the progress within it.
// Windows are half-open, so a boundary belongs to the later scene. Elapsed
// times past the end clamp to the last scene at progress 1.
func ActiveAt(scenes []domain.Scene, elapsed time.Duration) (domain.Scene, float64, bool) {
	if len(scenes) == 0 {
		return domain.Scene{}, 0, false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	var start time.Duration
	for _, s := range scenes {
		d := s.Duration()
		if elapsed < start+d {
			return s, float64(elapsed-start) / float64(d), true
		}
		start += d
	}
	return scenes[len(scenes)-1], 1, true
}
