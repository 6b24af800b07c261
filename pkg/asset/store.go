// Package asset stores user-supplied background videos keyed by video theme.
package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"dreamweaver/pkg/domain"
	"dreamweaver/pkg/storage"
	"dreamweaver/pkg/store"
)

// DefaultMaxBytes caps a single override video.
const DefaultMaxBytes int64 = 50 << 20

const (
	keyPrefix            = "dream-video-"
	defaultPresignExpiry = 15 * time.Minute
)

var (
	ErrThemeKeyRequired = errors.New("theme key is required")
	ErrUnsupportedMedia = errors.New("override must be a video")
	ErrPayloadTooLarge  = errors.New("video exceeds size limit")
)

// Upload is one incoming override video. Size is the declared length; a
// negative value means unknown.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Options struct {
	// MaxBytes defaults to DefaultMaxBytes.
	MaxBytes int64
	// Objects enables object storage. Without it videos are stored inline as
	// data URIs.
	Objects       storage.ObjectStore
	PresignExpiry time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

// Store persists at most one override per video theme key.
type Store struct {
	kv      store.KV
	objects storage.ObjectStore
	max     int64
	expiry  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewStore(kv store.KV, opts Options) *Store {
	s := &Store{
		kv:      kv,
		objects: opts.Objects,
		max:     opts.MaxBytes,
		expiry:  opts.PresignExpiry,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if s.max <= 0 {
		s.max = DefaultMaxBytes
	}
	if s.expiry <= 0 {
		s.expiry = defaultPresignExpiry
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MaxBytes reports the configured size limit.
func (s *Store) MaxBytes() int64 { return s.max }

func recordKey(themeKey string) string { return keyPrefix + themeKey }

// Set stores or replaces the override for themeKey. Nothing is written when
// validation fails or the body exceeds the size limit.
func (s *Store) Set(ctx context.Context, themeKey string, up Upload) (domain.VideoOverride, error) {
	themeKey = strings.TrimSpace(themeKey)
	if themeKey == "" {
		return domain.VideoOverride{}, ErrThemeKeyRequired
	}
	mimeType, err := videoMediaType(up.ContentType)
	if err != nil {
		return domain.VideoOverride{}, err
	}
	if up.Size > s.max {
		return domain.VideoOverride{}, fmt.Errorf("%w: %d bytes over %d", ErrPayloadTooLarge, up.Size, s.max)
	}
	if up.Body == nil {
		return domain.VideoOverride{}, fmt.Errorf("read video: empty body")
	}
	limit := s.max
	if up.Size >= 0 && up.Size < limit {
		limit = up.Size
	}
	data, err := io.ReadAll(io.LimitReader(up.Body, limit+1))
	if err != nil {
		return domain.VideoOverride{}, fmt.Errorf("read video: %w", err)
	}
	if int64(len(data)) > limit {
		return domain.VideoOverride{}, fmt.Errorf("%w: body over %d bytes", ErrPayloadTooLarge, limit)
	}
	if len(data) == 0 {
		return domain.VideoOverride{}, fmt.Errorf("read video: empty body")
	}

	prior, hadPrior, err := s.load(ctx, themeKey)
	if err != nil {
		return domain.VideoOverride{}, err
	}

	rec := domain.VideoOverride{
		ThemeKey:   themeKey,
		Filename:   displayName(up.Filename),
		SizeBytes:  int64(len(data)),
		MimeType:   mimeType,
		UploadedAt: s.now().UTC(),
	}
	if s.objects != nil {
		rec.Storage = domain.StorageObject
		rec.ObjectKey = storage.VideoKey(themeKey, rec.Filename)
		if err := s.objects.Put(ctx, rec.ObjectKey, bytes.NewReader(data), rec.SizeBytes, mimeType); err != nil {
			return domain.VideoOverride{}, fmt.Errorf("upload video: %w", err)
		}
	} else {
		rec.Storage = domain.StorageInline
		rec.Ref = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	}

	if err := s.save(ctx, rec); err != nil {
		if rec.Storage == domain.StorageObject && (!hadPrior || prior.ObjectKey != rec.ObjectKey) {
			s.release(ctx, rec.ObjectKey)
		}
		return domain.VideoOverride{}, err
	}
	if hadPrior && prior.Storage == domain.StorageObject && prior.ObjectKey != rec.ObjectKey {
		s.release(ctx, prior.ObjectKey)
	}
	return s.resolve(ctx, rec)
}

// Get returns the override for themeKey. Object-backed refs are presigned on
// every call.
func (s *Store) Get(ctx context.Context, themeKey string) (domain.VideoOverride, bool, error) {
	rec, ok, err := s.load(ctx, strings.TrimSpace(themeKey))
	if err != nil || !ok {
		return domain.VideoOverride{}, false, err
	}
	rec, err = s.resolve(ctx, rec)
	if err != nil {
		return domain.VideoOverride{}, false, err
	}
	return rec, true, nil
}

func (s *Store) Has(ctx context.Context, themeKey string) (bool, error) {
	_, ok, err := s.load(ctx, strings.TrimSpace(themeKey))
	return ok, err
}

// Remove deletes the override for themeKey. Removing a missing override is a
// no-op.
func (s *Store) Remove(ctx context.Context, themeKey string) error {
	themeKey = strings.TrimSpace(themeKey)
	if themeKey == "" {
		return ErrThemeKeyRequired
	}
	rec, ok, err := s.load(ctx, themeKey)
	if err != nil || !ok {
		return err
	}
	if err := s.kv.Delete(ctx, recordKey(themeKey)); err != nil {
		return fmt.Errorf("delete override %q: %w", themeKey, err)
	}
	if rec.Storage == domain.StorageObject {
		s.release(ctx, rec.ObjectKey)
	}
	return nil
}

func (s *Store) load(ctx context.Context, themeKey string) (domain.VideoOverride, bool, error) {
	if themeKey == "" {
		return domain.VideoOverride{}, false, nil
	}
	raw, ok, err := s.kv.Get(ctx, recordKey(themeKey))
	if err != nil {
		return domain.VideoOverride{}, false, fmt.Errorf("load override %q: %w", themeKey, err)
	}
	if !ok {
		return domain.VideoOverride{}, false, nil
	}
	var rec domain.VideoOverride
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Warn("override_record_invalid", "theme_key", themeKey, "err", err)
		return domain.VideoOverride{}, false, nil
	}
	if rec.Storage == "" {
		rec.Storage = domain.StorageInline
	}
	return rec, true, nil
}

func (s *Store) save(ctx context.Context, rec domain.VideoOverride) error {
	if rec.Storage == domain.StorageObject {
		rec.Ref = ""
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode override: %w", err)
	}
	if err := s.kv.Set(ctx, recordKey(rec.ThemeKey), raw); err != nil {
		return fmt.Errorf("save override %q: %w", rec.ThemeKey, err)
	}
	return nil
}

func (s *Store) resolve(ctx context.Context, rec domain.VideoOverride) (domain.VideoOverride, error) {
	if rec.Storage != domain.StorageObject {
		return rec, nil
	}
	if s.objects == nil {
		return domain.VideoOverride{}, fmt.Errorf("override %q is in object storage but none is configured", rec.ThemeKey)
	}
	ref, err := s.objects.PresignGet(ctx, rec.ObjectKey, s.expiry)
	if err != nil {
		return domain.VideoOverride{}, fmt.Errorf("presign override %q: %w", rec.ThemeKey, err)
	}
	rec.Ref = ref
	return rec, nil
}

func (s *Store) release(ctx context.Context, objectKey string) {
	if s.objects == nil || objectKey == "" {
		return
	}
	if err := s.objects.Delete(ctx, objectKey); err != nil {
		s.logger.Warn("override_object_release_failed", "object_key", objectKey, "err", err)
	}
}

func videoMediaType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil || !strings.HasPrefix(mediaType, "video/") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, contentType)
	}
	return mediaType, nil
}

func displayName(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" {
		return "video"
	}
	return name
}
