package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownTag indicates a presentation tag outside the declared set.
var ErrUnknownTag = errors.New("unknown tag")

// ElementTag names a background element rendered by the presentation layer.
type ElementTag string

const (
	ElementFloatingLeaves       ElementTag = "floating-leaves"
	ElementTreeSilhouettes      ElementTag = "tree-silhouettes"
	ElementFireflies            ElementTag = "fireflies"
	ElementFloatingPlatforms    ElementTag = "floating-platforms"
	ElementCloudWisps           ElementTag = "cloud-wisps"
	ElementSkyBuildings         ElementTag = "sky-buildings"
	ElementCrystalFormations    ElementTag = "crystal-formations"
	ElementCaveGlow             ElementTag = "cave-glow"
	ElementMineralSparkles      ElementTag = "mineral-sparkles"
	ElementWaveMotion           ElementTag = "wave-motion"
	ElementStarReflections      ElementTag = "star-reflections"
	ElementMoonGlow             ElementTag = "moon-glow"
	ElementFloatingBooks        ElementTag = "floating-books"
	ElementAncientScrolls       ElementTag = "ancient-scrolls"
	ElementMysticalLight        ElementTag = "mystical-light"
	ElementCloudFormations      ElementTag = "cloud-formations"
	ElementSkyCastles           ElementTag = "sky-castles"
	ElementRainbowBridges       ElementTag = "rainbow-bridges"
	ElementCharacterSilhouettes ElementTag = "character-silhouettes"
	ElementInteractionGlow      ElementTag = "interaction-glow"
	ElementMagicAura            ElementTag = "magic-aura"
	ElementPowerEmanation       ElementTag = "power-emanation"
	ElementConclusionGlow       ElementTag = "conclusion-glow"
)

var elementTags = map[ElementTag]struct{}{
	ElementFloatingLeaves: {}, ElementTreeSilhouettes: {}, ElementFireflies: {},
	ElementFloatingPlatforms: {}, ElementCloudWisps: {}, ElementSkyBuildings: {},
	ElementCrystalFormations: {}, ElementCaveGlow: {}, ElementMineralSparkles: {},
	ElementWaveMotion: {}, ElementStarReflections: {}, ElementMoonGlow: {},
	ElementFloatingBooks: {}, ElementAncientScrolls: {}, ElementMysticalLight: {},
	ElementCloudFormations: {}, ElementSkyCastles: {}, ElementRainbowBridges: {},
	ElementCharacterSilhouettes: {}, ElementInteractionGlow: {},
	ElementMagicAura: {}, ElementPowerEmanation: {}, ElementConclusionGlow: {},
}

// Valid reports whether t is a declared element tag.
func (t ElementTag) Valid() bool {
	_, ok := elementTags[t]
	return ok
}

// ParseElementTag converts raw input into a declared element tag.
func ParseElementTag(raw string) (ElementTag, error) {
	t := ElementTag(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: element %q", ErrUnknownTag, raw)
	}
	return t, nil
}

// EffectTag names an animation effect rendered by the presentation layer.
type EffectTag string

const (
	EffectSparkleBurst    EffectTag = "sparkle-burst"
	EffectGentleGlow      EffectTag = "gentle-glow"
	EffectSepiaTint       EffectTag = "sepia-tint"
	EffectSoftBlur        EffectTag = "soft-blur"
	EffectEnergyPulse     EffectTag = "energy-pulse"
	EffectDynamicMovement EffectTag = "dynamic-movement"
	EffectCalmWaves       EffectTag = "calm-waves"
	EffectGentleSway      EffectTag = "gentle-sway"
	EffectShadowPlay      EffectTag = "shadow-play"
	EffectFogDrift        EffectTag = "fog-drift"
	EffectRainbowSparkles EffectTag = "rainbow-sparkles"
	EffectBouncyAnimation EffectTag = "bouncy-animation"
	EffectSearchLight     EffectTag = "search-light"
	EffectDiscoveryGlow   EffectTag = "discovery-glow"
	EffectHeartParticles  EffectTag = "heart-particles"
	EffectWarmGlow        EffectTag = "warm-glow"
	EffectWindEffects     EffectTag = "wind-effects"
	EffectSoaringElements EffectTag = "soaring-elements"
	EffectSpellCircles    EffectTag = "spell-circles"
	EffectEnergyStreams   EffectTag = "energy-streams"
	EffectCharacterGlow   EffectTag = "character-glow"
	EffectMagicSparkle    EffectTag = "magic-sparkle"
	EffectDreamFade       EffectTag = "dream-fade"
	EffectPeacefulGlow    EffectTag = "peaceful-glow"
)

var effectTags = map[EffectTag]struct{}{
	EffectSparkleBurst: {}, EffectGentleGlow: {}, EffectSepiaTint: {}, EffectSoftBlur: {},
	EffectEnergyPulse: {}, EffectDynamicMovement: {}, EffectCalmWaves: {}, EffectGentleSway: {},
	EffectShadowPlay: {}, EffectFogDrift: {}, EffectRainbowSparkles: {}, EffectBouncyAnimation: {},
	EffectSearchLight: {}, EffectDiscoveryGlow: {}, EffectHeartParticles: {}, EffectWarmGlow: {},
	EffectWindEffects: {}, EffectSoaringElements: {}, EffectSpellCircles: {}, EffectEnergyStreams: {},
	EffectCharacterGlow: {}, EffectMagicSparkle: {}, EffectDreamFade: {}, EffectPeacefulGlow: {},
}

// Valid reports whether t is a declared effect tag.
func (t EffectTag) Valid() bool {
	_, ok := effectTags[t]
	return ok
}

// ParseEffectTag converts raw input into a declared effect tag.
func ParseEffectTag(raw string) (EffectTag, error) {
	t := EffectTag(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: effect %q", ErrUnknownTag, raw)
	}
	return t, nil
}
