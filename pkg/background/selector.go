// Package background picks the video or animated fallback behind a dream.
package background

import (
	"context"
	"log/slog"

	"dreamweaver/pkg/domain"
	"dreamweaver/pkg/theme"
	"golang.org/x/sync/errgroup"
)

// Overrides is the read side of the asset override store.
type Overrides interface {
	Get(ctx context.Context, themeKey string) (domain.VideoOverride, bool, error)
	Has(ctx context.Context, themeKey string) (bool, error)
}

// VideoSource finds a public background video for a theme key.
type VideoSource interface {
	Find(ctx context.Context, themeKey string) (string, bool)
}

// NoPublicVideos is the public source in use: no hosted catalogue is
// reachable, so it never yields a video.
type NoPublicVideos struct{}

func (NoPublicVideos) Find(context.Context, string) (string, bool) { return "", false }

// ThemeStatus reports whether a featured theme carries a custom video.
type ThemeStatus struct {
	theme.FeaturedTheme
	Customized bool `json:"customized"`
}

const lookupConcurrency = 4

type Selector struct {
	overrides Overrides
	public    VideoSource
	logger    *slog.Logger
}

// NewSelector builds a selector. A nil source uses NoPublicVideos and a nil
// logger uses slog.Default.
func NewSelector(overrides Overrides, public VideoSource, logger *slog.Logger) *Selector {
	if public == nil {
		public = NoPublicVideos{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{overrides: overrides, public: public, logger: logger}
}

// Select returns the override for themeKey when one exists, then a public
// video, then the static fallback of the theme's setting. It never fails.
func (s *Selector) Select(ctx context.Context, themeKey string) domain.BackgroundChoice {
	if s.overrides != nil {
		override, ok, err := s.overrides.Get(ctx, themeKey)
		switch {
		case err != nil:
			s.logger.Warn("background_override_lookup_failed", "theme_key", themeKey, "err", err)
		case ok:
			return domain.BackgroundChoice{
				Kind:     domain.BackgroundOverride,
				ThemeKey: themeKey,
				Ref:      override.Ref,
			}
		}
	}
	if ref, ok := s.public.Find(ctx, themeKey); ok {
		return domain.BackgroundChoice{Kind: domain.BackgroundPublicVideo, ThemeKey: themeKey, Ref: ref}
	}
	choice := theme.StaticFallback(theme.SettingForVideoTheme(themeKey))
	choice.ThemeKey = themeKey
	return choice
}

// SelectFor resolves the video theme key of a setting and emotion first.
func (s *Selector) SelectFor(ctx context.Context, setting, emotion string) domain.BackgroundChoice {
	return s.Select(ctx, theme.VideoThemeKey(setting, emotion))
}

// Themes lists the featured themes with their customization state. Lookups
// run with bounded concurrency; a failed lookup reports the theme as not
// customized.
func (s *Selector) Themes(ctx context.Context) []ThemeStatus {
	featured := theme.FeaturedVideoThemes()
	out := make([]ThemeStatus, len(featured))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, f := range featured {
		out[i] = ThemeStatus{FeaturedTheme: f}
		if s.overrides == nil {
			continue
		}
		g.Go(func() error {
			has, err := s.overrides.Has(gctx, f.ThemeKey)
			if err != nil {
				s.logger.Warn("background_override_lookup_failed", "theme_key", f.ThemeKey, "err", err)
			}
			out[i].Customized = has
			return nil
		})
	}
	_ = g.Wait()
	return out
}
