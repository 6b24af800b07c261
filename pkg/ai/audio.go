package ai

import (
	"bytes"
	"fmt"
	"strings"

	"dreamweaver/pkg/domain"
)

// ValidateAudio is the trial load of a narration payload: the media type must
// be audio/* and the data must open with a container signature or an MPEG
// audio frame header.
func ValidateAudio(a domain.Audio) error {
	if len(a.Data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidAudio)
	}
	if !strings.HasPrefix(a.MimeType, "audio/") {
		return fmt.Errorf("%w: media type %q", ErrInvalidAudio, a.MimeType)
	}
	switch {
	case bytes.HasPrefix(a.Data, []byte("ID3")):
		return nil
	case bytes.HasPrefix(a.Data, []byte("OggS")):
		return nil
	case len(a.Data) >= 12 && bytes.HasPrefix(a.Data, []byte("RIFF")) && bytes.Equal(a.Data[8:12], []byte("WAVE")):
		return nil
	case mpegFrameHeader(a.Data):
		return nil
	}
	return fmt.Errorf("%w: unrecognised audio data", ErrInvalidAudio)
}

// mpegFrameHeader checks the 11-bit frame sync plus the version, layer and
// bitrate fields that must not hold reserved values.
func mpegFrameHeader(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	if data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		return false
	}
	version := (data[1] >> 3) & 0x03
	layer := (data[1] >> 1) & 0x03
	bitrate := data[2] >> 4
	sampleRate := (data[2] >> 2) & 0x03
	return version != 0x01 && layer != 0x00 && bitrate != 0x0F && sampleRate != 0x03
}
