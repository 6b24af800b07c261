package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"dreamweaver/pkg/domain"
)

// DefaultVoiceID is the calm female narrator.
const DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	elevenLabsModel          = "eleven_monolingual_v1"
	maxAudioBytes            = 20 << 20
	quotaExceededToken       = "quota_exceeded"
)

// SpeechRequest is one narration call. An empty VoiceID uses DefaultVoiceID.
type SpeechRequest struct {
	Text    string
	VoiceID string
}

// ElevenLabsNarrator calls the ElevenLabs text-to-speech API.
type ElevenLabsNarrator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewElevenLabsNarrator constructs a narrator. An empty baseURL uses the
// public endpoint.
func NewElevenLabsNarrator(apiKey, baseURL string) (*ElevenLabsNarrator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultElevenLabsBaseURL
	}
	return &ElevenLabsNarrator{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type speechBody struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize returns the narration audio for req.Text as sent. Callers
// truncate first. A refusal mentioning quota_exceeded wraps
// ErrQuotaExceeded; any other non-2xx is a *ServiceError.
func (n *ElevenLabsNarrator) Synthesize(ctx context.Context, req SpeechRequest) (domain.Audio, error) {
	voice := strings.TrimSpace(req.VoiceID)
	if voice == "" {
		voice = DefaultVoiceID
	}
	body, err := json.Marshal(speechBody{
		Text:    req.Text,
		ModelID: elevenLabsModel,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
			Style:           0.5,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return domain.Audio{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/text-to-speech/"+voice, bytes.NewReader(body))
	if err != nil {
		return domain.Audio{}, err
	}
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", n.apiKey)

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return domain.Audio{}, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svcErr := serviceError("elevenlabs", resp)
		if strings.Contains(svcErr.Body, quotaExceededToken) {
			return domain.Audio{}, fmt.Errorf("%w: %s", ErrQuotaExceeded, svcErr.Body)
		}
		return domain.Audio{}, svcErr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return domain.Audio{}, fmt.Errorf("elevenlabs read audio: %w", err)
	}
	if len(data) > maxAudioBytes {
		return domain.Audio{}, fmt.Errorf("%w: payload over %d bytes", ErrInvalidAudio, maxAudioBytes)
	}
	return domain.Audio{MimeType: audioMediaType(resp.Header.Get("Content-Type")), Data: data}, nil
}

// audioMediaType keeps audio/* content types and coerces everything else to
// audio/mpeg.
func audioMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "audio/") {
		return "audio/mpeg"
	}
	return mediaType
}
