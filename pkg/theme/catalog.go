package theme

import (
	"math/rand/v2"

	"dreamweaver/pkg/domain"
)

var settings = []string{
	"Enchanted Forest", "Floating City", "Crystal Cave", "Starlit Ocean",
	"Ancient Library", "Cloud Kingdom", "Mystical Garden", "Time Portal",
	"Golden Desert", "Underwater Palace", "Mountain Peak", "Dream Realm",
}

var emotions = []string{
	"Wonder", "Nostalgia", "Adventure", "Peace", "Mystery", "Joy",
	"Curiosity", "Love", "Freedom", "Magic", "Serenity", "Discovery",
}

var magicalElements = []string{
	"Time Portal", "Memory Crystal", "Wish Fountain", "Flying Books",
	"Talking Animals", "Glowing Flowers", "Magic Mirror", "Star Map",
	"Dream Catcher", "Healing Light", "Music Box", "Rainbow Bridge",
}

var characterIdeas = []string{
	"a wise talking owl and mystical forest spirits",
	"a friendly dragon and ancient tree guardians",
	"talking phoenix and robot child",
	"ethereal mermaids and singing crystals",
	"time-traveling cats and cosmic butterflies",
	"gentle giants and laughing stars",
	"magical librarian and floating books",
	"dream weaver and silver unicorn",
	"crystal fairy and rainbow serpent",
	"moon rabbit and starlight dancers",
}

// FeaturedTheme is a curated setting/emotion pair offered for custom videos.
type FeaturedTheme struct {
	Setting  string `json:"setting"`
	Emotion  string `json:"emotion"`
	ThemeKey string `json:"themeKey"`
}

var featuredPairs = [][2]string{
	{"Enchanted Forest", "Wonder"},
	{"Enchanted Forest", "Peace"},
	{"Floating City", "Wonder"},
	{"Floating City", "Adventure"},
	{"Crystal Cave", "Mystery"},
	{"Crystal Cave", "Wonder"},
	{"Starlit Ocean", "Peace"},
	{"Starlit Ocean", "Wonder"},
	{"Ancient Library", "Curiosity"},
	{"Cloud Kingdom", "Wonder"},
}

var voices = []domain.Voice{
	{
		ID:          "21m00Tcm4TlvDq8ikWAM",
		Name:        "Calm Female",
		Description: "Soothing and gentle, perfect for bedtime stories",
		Provider:    domain.VoiceElevenLabs,
		Preview:     "Welcome to your dream world, where magic awaits...",
	},
	{
		ID:          "pNInz6obpgDQGcFmaJgB",
		Name:        "Soft Male",
		Description: "Warm and comforting masculine voice",
		Provider:    domain.VoiceElevenLabs,
		Preview:     "Let me guide you through this enchanted journey...",
	},
	{
		ID:          "EXAVITQu4vr4xnSDxMaL",
		Name:        "Ethereal AI",
		Description: "Mystical and otherworldly narration",
		Provider:    domain.VoiceElevenLabs,
		Preview:     "In the realm of dreams, anything is possible...",
	},
	{
		ID:          "browser-female",
		Name:        "Browser Female",
		Description: "Built-in browser voice (free fallback)",
		Provider:    domain.VoiceBrowser,
		Preview:     "Your dreams come to life with beautiful stories...",
	},
	{
		ID:          "browser-male",
		Name:        "Browser Male",
		Description: "Built-in browser voice (free fallback)",
		Provider:    domain.VoiceBrowser,
		Preview:     "Experience the magic of personalized dreams...",
	},
}

// Settings lists the settings offered by the dream wizard.
func Settings() []string { return append([]string(nil), settings...) }

// Emotions lists the emotions offered by the dream wizard.
func Emotions() []string { return append([]string(nil), emotions...) }

// MagicalElements lists the magical elements offered by the dream wizard.
func MagicalElements() []string { return append([]string(nil), magicalElements...) }

// CharacterIdeas lists suggested character descriptions.
func CharacterIdeas() []string { return append([]string(nil), characterIdeas...) }

// Voices lists the narration voices.
func Voices() []domain.Voice { return append([]domain.Voice(nil), voices...) }

// FindVoice looks up a voice by ID.
func FindVoice(id string) (domain.Voice, bool) {
	for _, v := range voices {
		if v.ID == id {
			return v, true
		}
	}
	return domain.Voice{}, false
}

// FeaturedVideoThemes lists the curated themes shown on the video settings page.
func FeaturedVideoThemes() []FeaturedTheme {
	out := make([]FeaturedTheme, 0, len(featuredPairs))
	for _, pair := range featuredPairs {
		out = append(out, FeaturedTheme{
			Setting:  pair[0],
			Emotion:  pair[1],
			ThemeKey: VideoThemeKey(pair[0], pair[1]),
		})
	}
	return out
}

// RandomDream picks one option of each wizard field. A nil rng uses the
// package-level source.
func RandomDream(rng *rand.Rand) domain.DreamRequest {
	pick := func(options []string) string {
		if rng == nil {
			return options[rand.IntN(len(options))]
		}
		return options[rng.IntN(len(options))]
	}
	return domain.DreamRequest{
		Setting:        pick(settings),
		Emotion:        pick(emotions),
		Characters:     pick(characterIdeas),
		MagicalElement: pick(magicalElements),
	}
}
