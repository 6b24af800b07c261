package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dreamweaver/internal/ratelimit"
	"dreamweaver/internal/util"
	"dreamweaver/pkg/asset"
	"dreamweaver/pkg/background"
	"dreamweaver/pkg/domain"
	"dreamweaver/pkg/journal"
	"dreamweaver/pkg/theme"
	"dreamweaver/services/dream/internal/app"
)

const (
	maxJSONBytes = 1 << 20
	// sceneWait bounds how long POST /dreams waits for the scene task before
	// answering without scenes.
	sceneWait = 2 * time.Second
)

// Limiter decides whether a caller key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                         *app.App
	Assets                      *asset.Store
	Backgrounds                 *background.Selector
	AllowedOrigins              []string
	TrustedProxies              *util.TrustedProxies
	RedisAddr                   string
	RedisPassword               string
	DreamRateLimitPerMinute     int
	NarrationRateLimitPerMinute int
}

// Server exposes the DreamWeaver HTTP API.
type Server struct {
	app              *app.App
	assets           *asset.Store
	backgrounds      *background.Selector
	mux              *http.ServeMux
	allowedOrigins   []string
	trustedProxies   *util.TrustedProxies
	dreamLimiter     Limiter
	narrationLimiter Limiter
}

// New constructs the server with routes configured. Rate limiting is active
// only when a Redis address is configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil || cfg.Assets == nil || cfg.Backgrounds == nil {
		return nil, errors.New("server requires app, assets and backgrounds")
	}
	s := &Server{
		app:            cfg.App,
		assets:         cfg.Assets,
		backgrounds:    cfg.Backgrounds,
		mux:            http.NewServeMux(),
		allowedOrigins: cfg.AllowedOrigins,
		trustedProxies: cfg.TrustedProxies,
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		dreamLimit := cfg.DreamRateLimitPerMinute
		if dreamLimit <= 0 {
			dreamLimit = 10
		}
		narrationLimit := cfg.NarrationRateLimitPerMinute
		if narrationLimit <= 0 {
			narrationLimit = 20
		}
		newLimiter := func(name string, limit int) (Limiter, error) {
			prefix := "dreamweaver:ratelimit:" + name
			limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, time.Minute)
			if err != nil {
				return nil, fmt.Errorf("init %s limiter: %w", name, err)
			}
			return limiter, nil
		}
		var err error
		if s.dreamLimiter, err = newLimiter("dreams", dreamLimit); err != nil {
			return nil, err
		}
		if s.narrationLimiter, err = newLimiter("narrations", narrationLimit); err != nil {
			return nil, err
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, s.mux))))
}

// Route is one documented API path in OpenAPI notation.
type Route struct {
	Path    string
	Methods []string
}

// Routes lists every path and method the server answers.
var Routes = []Route{
	{Path: "/healthz", Methods: []string{http.MethodGet}},
	{Path: "/metrics", Methods: []string{http.MethodGet}},
	{Path: "/catalog", Methods: []string{http.MethodGet}},
	{Path: "/themes", Methods: []string{http.MethodGet}},
	{Path: "/dreams", Methods: []string{http.MethodPost}},
	{Path: "/dreams/random", Methods: []string{http.MethodGet, http.MethodPost}},
	{Path: "/dreams/current", Methods: []string{http.MethodGet, http.MethodDelete}},
	{Path: "/dreams/current/scene", Methods: []string{http.MethodGet}},
	{Path: "/narrations", Methods: []string{http.MethodPost}},
	{Path: "/journal/reflections", Methods: []string{http.MethodPost}},
	{Path: "/journal/entries", Methods: []string{http.MethodGet, http.MethodPost}},
	{Path: "/journal/entries/{id}", Methods: []string{http.MethodGet, http.MethodPatch, http.MethodDelete}},
	{Path: "/videos", Methods: []string{http.MethodGet}},
	{Path: "/videos/{themeKey}", Methods: []string{http.MethodPut, http.MethodDelete}},
	{Path: "/videos/{themeKey}/background", Methods: []string{http.MethodGet}},
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", s.app.Metrics().Handler())

	s.mux.HandleFunc("/catalog", s.handleCatalog)
	s.mux.HandleFunc("/themes", s.handleTheme)

	// dreams
	s.mux.HandleFunc("/dreams", s.handleDreams)
	s.mux.HandleFunc("/dreams/random", s.handleRandomDream)
	s.mux.HandleFunc("/dreams/current", s.handleCurrentDream)
	s.mux.HandleFunc("/dreams/current/scene", s.handleActiveScene)
	s.mux.HandleFunc("/narrations", s.handleNarration)

	// journal
	s.mux.HandleFunc("/journal/reflections", s.handleReflection)
	s.mux.HandleFunc("/journal/entries", s.handleJournalEntries)
	s.mux.HandleFunc("/journal/entries/", s.handleJournalEntryByID)

	// video overrides
	s.mux.HandleFunc("/videos", s.handleVideos)
	s.mux.HandleFunc("/videos/", s.handleVideoByKey)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type catalogResponse struct {
	Settings        []string              `json:"settings"`
	Emotions        []string              `json:"emotions"`
	MagicalElements []string              `json:"magicalElements"`
	CharacterIdeas  []string              `json:"characterIdeas"`
	Voices          []domain.Voice        `json:"voices"`
	FeaturedThemes  []theme.FeaturedTheme `json:"featuredThemes"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Settings:        theme.Settings(),
		Emotions:        theme.Emotions(),
		MagicalElements: theme.MagicalElements(),
		CharacterIdeas:  theme.CharacterIdeas(),
		Voices:          theme.Voices(),
		FeaturedThemes:  theme.FeaturedVideoThemes(),
	})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, theme.Resolve(q.Get("setting"), q.Get("emotion")))
}

type generationResponse struct {
	ID          string         `json:"id"`
	Seq         uint64         `json:"seq"`
	Story       string         `json:"story"`
	Images      []string       `json:"images"`
	Scenes      []domain.Scene `json:"scenes,omitempty"`
	ScenesReady bool           `json:"scenesReady"`
}

func (s *Server) handleDreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.dreamLimiter, "too many dream requests") {
		return
	}
	var req domain.DreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	gen, err := s.app.Generate(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	resp := generationResponse{
		ID:     gen.ID,
		Seq:    gen.Seq,
		Story:  gen.Story,
		Images: gen.Images,
	}
	ctx, cancel := context.WithTimeout(r.Context(), sceneWait)
	defer cancel()
	if scenes, err := gen.Scenes.Wait(ctx); err == nil {
		resp.Scenes = scenes
		resp.ScenesReady = true
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRandomDream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.RandomDream())
}

func (s *Server) handleCurrentDream(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.app.Snapshot())
	case http.MethodDelete:
		s.app.Reset()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleActiveScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var elapsed time.Duration
	if raw := strings.TrimSpace(r.URL.Query().Get("elapsedMs")); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "elapsedMs must be an integer")
			return
		}
		elapsed = time.Duration(ms) * time.Millisecond
	}
	active, ok := s.app.ActiveScene(elapsed)
	if !ok {
		writeError(w, http.StatusNotFound, "no scenes yet")
		return
	}
	writeJSON(w, http.StatusOK, active)
}

type narrationRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// handleNarration answers with the audio body, or 204 when the client should
// speak the text itself.
func (s *Server) handleNarration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.narrationLimiter, "too many narration requests") {
		return
	}
	var req narrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	audio := s.app.Narrate(r.Context(), req.Text, req.VoiceID)
	if audio == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", audio.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}

type reflectionRequest struct {
	Reflection string `json:"reflection"`
}

func (s *Server) handleReflection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req reflectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Reflection) == "" {
		writeError(w, http.StatusBadRequest, "reflection is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"processedEntry": s.app.ProcessReflection(r.Context(), req.Reflection),
	})
}

type saveDreamRequest struct {
	UserReflection string `json:"userReflection"`
	ProcessedEntry string `json:"processedEntry"`
}

type saveDreamResponse struct {
	Entry     domain.JournalEntry `json:"entry"`
	Persisted bool                `json:"persisted"`
}

func (s *Server) handleJournalEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"entries": s.app.Journal().List(r.Context())})
	case http.MethodPost:
		var req saveDreamRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		entry, err := s.app.SaveDream(r.Context(), req.UserReflection, req.ProcessedEntry)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, saveDreamResponse{Entry: entry, Persisted: true})
		case errors.Is(err, journal.ErrPersistence):
			// The entry lives on in memory until the next successful write.
			writeJSON(w, http.StatusCreated, saveDreamResponse{Entry: entry, Persisted: false})
		default:
			writeAppError(w, r, err)
		}
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleJournalEntryByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/journal/entries/")
	if raw == "" || strings.Contains(raw, "/") {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	ctx := r.Context()
	j := s.app.Journal()

	switch r.Method {
	case http.MethodGet:
		entry, ok := j.Get(ctx, id)
		if !ok {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case http.MethodPatch:
		var update domain.JournalUpdate
		if !decodeJSON(w, r, &update) {
			return
		}
		if err := j.Update(ctx, id, update); err != nil {
			writeAppError(w, r, err)
			return
		}
		entry, ok := j.Get(ctx, id)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case http.MethodDelete:
		if err := j.Delete(ctx, id); err != nil {
			writeAppError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"themes":   s.backgrounds.Themes(r.Context()),
		"maxBytes": s.assets.MaxBytes(),
	})
}

func (s *Server) handleVideoByKey(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/videos/")
	parts := strings.SplitN(path, "/", 2)
	key := parts[0]
	if key == "" {
		http.NotFound(w, r)
		return
	}

	// Handle /videos/{key}/background
	if len(parts) == 2 {
		if parts[1] != "background" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, s.backgrounds.Select(r.Context(), key))
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.handleVideoUpload(w, r, key)
	case http.MethodDelete:
		if err := s.assets.Remove(r.Context(), key); err != nil {
			writeAppError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleVideoUpload(w http.ResponseWriter, r *http.Request, key string) {
	if !theme.IsVideoThemeKey(key) {
		writeError(w, http.StatusNotFound, "unknown video theme")
		return
	}
	maxBytes := s.assets.MaxBytes()
	if r.ContentLength > maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("video exceeds %d bytes", maxBytes))
		return
	}
	override, err := s.assets.Set(r.Context(), key, asset.Upload{
		Filename:    r.Header.Get("X-Filename"),
		ContentType: r.Header.Get("Content-Type"),
		Size:        r.ContentLength,
		Body:        http.MaxBytesReader(w, r.Body, maxBytes+1),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	// Inline refs carry the whole video; clients fetch them through the
	// background endpoint instead.
	if override.Storage == domain.StorageInline {
		override.Ref = ""
	}
	util.LoggerFromContext(r.Context()).Info("video override stored",
		"theme_key", key, "size_bytes", override.SizeBytes, "storage", override.Storage)
	writeJSON(w, http.StatusOK, override)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter Limiter, msg string) bool {
	if limiter == nil {
		return true
	}
	ip := util.ClientIP(r, s.trustedProxies)
	ok, retry := limiter.Allow(r.Context(), r.URL.Path+"|"+ip)
	if ok {
		return true
	}
	seconds := int(retry.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	util.LoggerFromContext(r.Context()).Warn("rate limited", "path", r.URL.Path, "ip", ip)
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeAppError maps domain and service errors to HTTP statuses.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrIncompleteDream), errors.Is(err, domain.ErrUnknownTag):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, asset.ErrThemeKeyRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, asset.ErrUnsupportedMedia):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, asset.ErrPayloadTooLarge), errors.As(err, &maxBytesErr):
		writeError(w, http.StatusRequestEntityTooLarge, "video exceeds the size limit")
	case errors.Is(err, app.ErrNoDream):
		writeError(w, http.StatusConflict, "generate a dream before saving it")
	case errors.Is(err, app.ErrGeneration):
		writeError(w, http.StatusBadGateway, "story generation failed, please try again")
	case errors.Is(err, journal.ErrPersistence):
		util.LoggerFromContext(r.Context()).Error("journal write failed", "err", err)
		writeError(w, http.StatusInternalServerError, "journal could not be saved")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
