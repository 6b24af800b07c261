// Package theme maps dream settings and emotions to visual theme descriptors.
package theme

import (
	"time"

	"dreamweaver/pkg/domain"
)

// DefaultSetting is used whenever a setting has no styled theme.
const DefaultSetting = "Enchanted Forest"

const (
	fallbackAnimation         = "ken-burns"
	fallbackAnimationDuration = 20 * time.Second
)

type settingStyle struct {
	gradient     string
	elements     []domain.ElementTag
	colors       []string
	fallback     string
	videoThemes  map[string]string
	defaultVideo string
}

var settingStyles = map[string]settingStyle{
	"Enchanted Forest": {
		gradient: "linear-gradient(135deg, #1e3c72 0%, #2a5298 50%, #1e3c72 100%)",
		elements: []domain.ElementTag{domain.ElementFloatingLeaves, domain.ElementTreeSilhouettes, domain.ElementFireflies},
		colors:   []string{"#2d5016", "#4a7c59", "#6b8e23"},
		fallback: "linear-gradient(135deg, #0f2027 0%, #203a43 20%, #2c5364 40%, #1e3c72 60%, #2a5298 80%, #1e3c72 100%)",
		videoThemes: map[string]string{
			"Wonder":    "forest-magical",
			"Peace":     "forest-serene",
			"Adventure": "forest-mystical",
			"Mystery":   "forest-dark",
		},
		defaultVideo: "forest-dreamy",
	},
	"Floating City": {
		gradient: "linear-gradient(135deg, #667eea 0%, #764ba2 50%, #667eea 100%)",
		elements: []domain.ElementTag{domain.ElementFloatingPlatforms, domain.ElementCloudWisps, domain.ElementSkyBuildings},
		colors:   []string{"#4a90e2", "#7b68ee", "#9370db"},
		fallback: "linear-gradient(135deg, #667eea 0%, #764ba2 25%, #f093fb 50%, #f5576c 75%, #667eea 100%)",
		videoThemes: map[string]string{
			"Wonder":    "clouds-ethereal",
			"Adventure": "sky-dynamic",
			"Peace":     "clouds-peaceful",
			"Freedom":   "sky-soaring",
		},
		defaultVideo: "clouds-floating",
	},
	"Crystal Cave": {
		gradient: "linear-gradient(135deg, #2c1810 0%, #8b4513 50%, #2c1810 100%)",
		elements: []domain.ElementTag{domain.ElementCrystalFormations, domain.ElementCaveGlow, domain.ElementMineralSparkles},
		colors:   []string{"#4b0082", "#8a2be2", "#9400d3"},
		fallback: "linear-gradient(135deg, #2c1810 0%, #8b4513 25%, #4b0082 50%, #8a2be2 75%, #2c1810 100%)",
		videoThemes: map[string]string{
			"Mystery": "cave-crystals",
			"Wonder":  "cave-glowing",
			"Magic":   "cave-magical",
			"Peace":   "cave-serene",
		},
		defaultVideo: "cave-ambient",
	},
	"Starlit Ocean": {
		gradient: "linear-gradient(135deg, #0f2027 0%, #203a43 50%, #2c5364 100%)",
		elements: []domain.ElementTag{domain.ElementWaveMotion, domain.ElementStarReflections, domain.ElementMoonGlow},
		colors:   []string{"#1e3c72", "#2a5298", "#4a90e2"},
		fallback: "linear-gradient(135deg, #0f2027 0%, #203a43 25%, #2c5364 50%, #1e3c72 75%, #0f2027 100%)",
		videoThemes: map[string]string{
			"Peace":   "ocean-calm",
			"Wonder":  "ocean-starlit",
			"Mystery": "ocean-deep",
			"Love":    "ocean-romantic",
		},
		defaultVideo: "ocean-waves",
	},
	"Ancient Library": {
		gradient: "linear-gradient(135deg, #3c1810 0%, #8b4513 50%, #3c1810 100%)",
		elements: []domain.ElementTag{domain.ElementFloatingBooks, domain.ElementAncientScrolls, domain.ElementMysticalLight},
		colors:   []string{"#8b4513", "#cd853f", "#daa520"},
		fallback: "linear-gradient(135deg, #3c1810 0%, #8b4513 25%, #cd853f 50%, #daa520 75%, #3c1810 100%)",
		videoThemes: map[string]string{
			"Curiosity": "library-mystical",
			"Wonder":    "library-magical",
			"Nostalgia": "library-vintage",
			"Peace":     "library-quiet",
		},
		defaultVideo: "library-ancient",
	},
	"Cloud Kingdom": {
		gradient: "linear-gradient(135deg, #e0f6ff 0%, #74b9ff 50%, #0984e3 100%)",
		elements: []domain.ElementTag{domain.ElementCloudFormations, domain.ElementSkyCastles, domain.ElementRainbowBridges},
		colors:   []string{"#74b9ff", "#0984e3", "#6c5ce7"},
		fallback: "linear-gradient(135deg, #e0f6ff 0%, #74b9ff 25%, #0984e3 50%, #6c5ce7 75%, #e0f6ff 100%)",
		videoThemes: map[string]string{
			"Wonder":  "sky-kingdom",
			"Freedom": "clouds-soaring",
			"Joy":     "sky-bright",
			"Peace":   "clouds-soft",
		},
		defaultVideo: "sky-dreamy",
	},
}

var emotionEffects = map[string][]domain.EffectTag{
	"Wonder":    {domain.EffectSparkleBurst, domain.EffectGentleGlow},
	"Nostalgia": {domain.EffectSepiaTint, domain.EffectSoftBlur},
	"Adventure": {domain.EffectEnergyPulse, domain.EffectDynamicMovement},
	"Peace":     {domain.EffectCalmWaves, domain.EffectGentleSway},
	"Mystery":   {domain.EffectShadowPlay, domain.EffectFogDrift},
	"Joy":       {domain.EffectRainbowSparkles, domain.EffectBouncyAnimation},
	"Curiosity": {domain.EffectSearchLight, domain.EffectDiscoveryGlow},
	"Love":      {domain.EffectHeartParticles, domain.EffectWarmGlow},
	"Freedom":   {domain.EffectWindEffects, domain.EffectSoaringElements},
	"Magic":     {domain.EffectSpellCircles, domain.EffectEnergyStreams},
}

var defaultEffects = []domain.EffectTag{domain.EffectGentleGlow}

// videoThemeSettings is the reverse index of every video theme key.
var videoThemeSettings = buildVideoThemeIndex()

func buildVideoThemeIndex() map[string]string {
	index := make(map[string]string)
	for setting, style := range settingStyles {
		index[style.defaultVideo] = setting
		for _, key := range style.videoThemes {
			index[key] = setting
		}
	}
	return index
}

func styleFor(setting string) (string, settingStyle) {
	if style, ok := settingStyles[setting]; ok {
		return setting, style
	}
	return DefaultSetting, settingStyles[DefaultSetting]
}

// Resolve returns the theme for a setting and emotion. Unknown settings use
// DefaultSetting; unknown emotions use a single gentle glow.
func Resolve(setting, emotion string) domain.ThemeDescriptor {
	name, style := styleFor(setting)
	return domain.ThemeDescriptor{
		Setting:       name,
		GradientSpec:  style.gradient,
		Elements:      append([]domain.ElementTag(nil), style.elements...),
		Colors:        append([]string(nil), style.colors...),
		Effects:       EmotionEffects(emotion),
		VideoThemeKey: VideoThemeKey(setting, emotion),
	}
}

// EmotionEffects returns the effects tied to an emotion.
func EmotionEffects(emotion string) []domain.EffectTag {
	if effects, ok := emotionEffects[emotion]; ok {
		return append([]domain.EffectTag(nil), effects...)
	}
	return append([]domain.EffectTag(nil), defaultEffects...)
}

// VideoThemeKey maps a setting and emotion to a background video theme key.
func VideoThemeKey(setting, emotion string) string {
	_, style := styleFor(setting)
	if key, ok := style.videoThemes[emotion]; ok {
		return key
	}
	return style.defaultVideo
}

// SettingForVideoTheme returns the setting a video theme key belongs to.
func SettingForVideoTheme(key string) string {
	if setting, ok := videoThemeSettings[key]; ok {
		return setting
	}
	return DefaultSetting
}

// VideoThemeKeys lists every known video theme key.
func VideoThemeKeys() []string {
	keys := make([]string, 0, len(videoThemeSettings))
	for _, setting := range Settings() {
		style, ok := settingStyles[setting]
		if !ok {
			continue
		}
		for _, emotion := range Emotions() {
			if key, ok := style.videoThemes[emotion]; ok {
				keys = append(keys, key)
			}
		}
		keys = append(keys, style.defaultVideo)
	}
	return keys
}

// IsVideoThemeKey reports whether key is a known video theme.
func IsVideoThemeKey(key string) bool {
	_, ok := videoThemeSettings[key]
	return ok
}

// StaticFallback returns the looping gradient used when no video is available.
func StaticFallback(setting string) domain.BackgroundChoice {
	_, style := styleFor(setting)
	return domain.BackgroundChoice{
		Kind:              domain.BackgroundStaticFallback,
		Gradient:          style.fallback,
		Animation:         fallbackAnimation,
		AnimationDuration: fallbackAnimationDuration.String(),
	}
}
