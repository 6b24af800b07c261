package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

var mp3Frame = []byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x00}

func TestSynthesizeSendsVoiceSettings(t *testing.T) {
	var got speechBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/voice-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "secret" || r.Header.Get("Accept") != "audio/mpeg" {
			t.Errorf("missing headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(mp3Frame)
	}))
	defer srv.Close()

	n, err := NewElevenLabsNarrator("secret", srv.URL)
	if err != nil {
		t.Fatalf("new narrator: %v", err)
	}
	audio, err := n.Synthesize(context.Background(), SpeechRequest{Text: "Once upon a dream", VoiceID: "voice-1"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if audio.MimeType != "audio/mpeg" {
		t.Fatalf("non-audio content type should be coerced, got %q", audio.MimeType)
	}
	if err := ValidateAudio(audio); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Text != "Once upon a dream" || got.ModelID != "eleven_monolingual_v1" {
		t.Fatalf("unexpected body %+v", got)
	}
	want := voiceSettings{Stability: 0.5, SimilarityBoost: 0.5, Style: 0.5, UseSpeakerBoost: true}
	if got.VoiceSettings != want {
		t.Fatalf("voice settings = %+v", got.VoiceSettings)
	}
}

func TestSynthesizeDefaultsVoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/"+DefaultVoiceID {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(mp3Frame)
	}))
	defer srv.Close()

	n, _ := NewElevenLabsNarrator("secret", srv.URL)
	if _, err := n.Synthesize(context.Background(), SpeechRequest{Text: "hi"}); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
}

func TestSynthesizeQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"status":"quota_exceeded","message":"no credits"}}`))
	}))
	defer srv.Close()

	n, _ := NewElevenLabsNarrator("secret", srv.URL)
	_, err := n.Synthesize(context.Background(), SpeechRequest{Text: "hi"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestSynthesizeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	n, _ := NewElevenLabsNarrator("secret", srv.URL)
	_, err := n.Synthesize(context.Background(), SpeechRequest{Text: "hi"})
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.StatusCode != http.StatusBadGateway || svcErr.Body != "upstream exploded" {
		t.Fatalf("unexpected service error %+v", svcErr)
	}
}

func TestNewElevenLabsNarratorRequiresKey(t *testing.T) {
	if _, err := NewElevenLabsNarrator(" ", ""); err == nil {
		t.Fatalf("expected missing key error")
	}
}
