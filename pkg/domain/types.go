package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrIncompleteDream indicates a dream request with a missing field.
var ErrIncompleteDream = errors.New("dream request incomplete")

// DreamRequest is the wizard input for one generation cycle.
type DreamRequest struct {
	Setting        string `json:"setting"`
	Emotion        string `json:"emotion"`
	Characters     string `json:"characters"`
	MagicalElement string `json:"magicalElement"`
}

// Validate reports the first empty field.
func (r DreamRequest) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"setting", r.Setting},
		{"emotion", r.Emotion},
		{"characters", r.Characters},
		{"magicalElement", r.MagicalElement},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s required", ErrIncompleteDream, f.name)
		}
	}
	return nil
}

// Normalize trims surrounding whitespace from every field.
func (r DreamRequest) Normalize() DreamRequest {
	return DreamRequest{
		Setting:        strings.TrimSpace(r.Setting),
		Emotion:        strings.TrimSpace(r.Emotion),
		Characters:     strings.TrimSpace(r.Characters),
		MagicalElement: strings.TrimSpace(r.MagicalElement),
	}
}

// ThemeDescriptor is the visual theme derived from a setting and emotion.
type ThemeDescriptor struct {
	Setting       string       `json:"setting"`
	GradientSpec  string       `json:"gradientSpec"`
	Elements      []ElementTag `json:"elements"`
	Colors        []string     `json:"colors"`
	Effects       []EffectTag  `json:"effects"`
	VideoThemeKey string       `json:"videoThemeKey"`
}

type SceneType string

const (
	SceneSetting    SceneType = "setting"
	SceneCharacters SceneType = "characters"
	SceneMagic      SceneType = "magic"
	SceneConclusion SceneType = "conclusion"
)

// SceneBackground extends a theme with scene-specific presentation hints.
type SceneBackground struct {
	ThemeDescriptor
	Intensity string `json:"intensity,omitempty"`
	Fade      bool   `json:"fade,omitempty"`
}

type Scene struct {
	Type       SceneType       `json:"type"`
	Title      string          `json:"title"`
	Background SceneBackground `json:"background"`
	Effects    []EffectTag     `json:"effects"`
	DurationMS int64           `json:"durationMs"`
}

// Duration returns the nominal scene length.
func (s Scene) Duration() time.Duration {
	return time.Duration(s.DurationMS) * time.Millisecond
}

type JournalEntry struct {
	ID             int64        `json:"id"`
	Date           string       `json:"date"`
	UserReflection string       `json:"userReflection"`
	ProcessedEntry string       `json:"processedEntry"`
	OriginalStory  string       `json:"originalStory"`
	Images         []string     `json:"images"`
	DreamData      DreamRequest `json:"dreamData"`
}

// JournalDraft holds the caller-supplied fields of a new entry.
type JournalDraft struct {
	UserReflection string       `json:"userReflection"`
	ProcessedEntry string       `json:"processedEntry"`
	OriginalStory  string       `json:"originalStory"`
	Images         []string     `json:"images"`
	DreamData      DreamRequest `json:"dreamData"`
}

// JournalUpdate carries a partial update. Nil fields are left unchanged.
type JournalUpdate struct {
	UserReflection *string       `json:"userReflection,omitempty"`
	ProcessedEntry *string       `json:"processedEntry,omitempty"`
	OriginalStory  *string       `json:"originalStory,omitempty"`
	Images         []string      `json:"images,omitempty"`
	DreamData      *DreamRequest `json:"dreamData,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u JournalUpdate) Empty() bool {
	return u.UserReflection == nil && u.ProcessedEntry == nil && u.OriginalStory == nil &&
		u.Images == nil && u.DreamData == nil
}

type OverrideStorage string

const (
	StorageInline OverrideStorage = "inline"
	StorageObject OverrideStorage = "object"
)

// VideoOverride is a user-supplied background video for one theme key.
type VideoOverride struct {
	ThemeKey   string          `json:"themeKey"`
	Ref        string          `json:"ref"`
	ObjectKey  string          `json:"objectKey,omitempty"`
	Filename   string          `json:"filename"`
	SizeBytes  int64           `json:"sizeBytes"`
	MimeType   string          `json:"mimeType"`
	Storage    OverrideStorage `json:"storage"`
	UploadedAt time.Time       `json:"uploadedAt"`
}

type BackgroundKind string

const (
	BackgroundOverride       BackgroundKind = "override"
	BackgroundPublicVideo    BackgroundKind = "publicVideo"
	BackgroundStaticFallback BackgroundKind = "staticFallback"
)

// BackgroundChoice is a user override, a public video or a generated static
// fallback.
type BackgroundChoice struct {
	Kind              BackgroundKind `json:"kind"`
	ThemeKey          string         `json:"themeKey"`
	Ref               string         `json:"ref,omitempty"`
	Gradient          string         `json:"gradient,omitempty"`
	Animation         string         `json:"animation,omitempty"`
	AnimationDuration string         `json:"animationDuration,omitempty"`
}

type VoiceProvider string

const (
	VoiceElevenLabs VoiceProvider = "elevenlabs"
	VoiceBrowser    VoiceProvider = "browser"
)

type Voice struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Provider    VoiceProvider `json:"provider"`
	Preview     string        `json:"preview"`
}

// Audio is a validated narration payload.
type Audio struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"-"`
}
