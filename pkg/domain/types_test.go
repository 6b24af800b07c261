package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestDreamRequestValidateReportsFirstMissingField(t *testing.T) {
	req := DreamRequest{Setting: "Crystal Cave", Emotion: "  ", Characters: "a spirit"}
	err := req.Validate()
	if !errors.Is(err, ErrIncompleteDream) {
		t.Fatalf("expected ErrIncompleteDream, got %v", err)
	}
	if !strings.Contains(err.Error(), "emotion") {
		t.Fatalf("expected emotion in error, got %q", err.Error())
	}

	full := DreamRequest{Setting: "Crystal Cave", Emotion: "Mystery", Characters: "a spirit", MagicalElement: "Memory Crystal"}
	if err := full.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseTagsRejectUnknown(t *testing.T) {
	if _, err := ParseElementTag("magic-aura"); err != nil {
		t.Fatalf("parse known element: %v", err)
	}
	if _, err := ParseElementTag("laser-show"); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
	if _, err := ParseEffectTag("energy-pulse"); err != nil {
		t.Fatalf("parse known effect: %v", err)
	}
	if _, err := ParseEffectTag(""); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag for empty effect, got %v", err)
	}
}

func TestJournalUpdateEmpty(t *testing.T) {
	if !(JournalUpdate{}).Empty() {
		t.Fatalf("zero update should be empty")
	}
	text := "edited"
	if (JournalUpdate{ProcessedEntry: &text}).Empty() {
		t.Fatalf("update with a field should not be empty")
	}
}
