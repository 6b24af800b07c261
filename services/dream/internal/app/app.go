package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"dreamweaver/pkg/ai"
	"dreamweaver/pkg/domain"
	"dreamweaver/pkg/journal"
	"dreamweaver/pkg/scene"
	"dreamweaver/pkg/theme"
	"github.com/google/uuid"
)

const (
	storyTemperature      = 0.8
	storyMaxTokens        = 1000
	reflectionTemperature = 0.7
	reflectionMaxTokens   = 300
)

// Narrator synthesizes narration audio.
type Narrator interface {
	Synthesize(ctx context.Context, req ai.SpeechRequest) (domain.Audio, error)
}

// Config holds the collaborators of the core application.
type Config struct {
	Generator ai.TextGenerator
	// Narrator is optional; without it every narration falls back to local
	// speech synthesis.
	Narrator Narrator
	Journal  *journal.Store
	Metrics  *Metrics
	Logger   *slog.Logger

	// PickFlavor chooses the atmospheric token. Defaults to a uniform pick.
	PickFlavor func(flavors []string) string
	// Sequencer builds the scenes of a dream. Defaults to scene.Build.
	Sequencer func(domain.DreamRequest) []domain.Scene
	Now       func() time.Time
	Rand      *rand.Rand
}

// Session is the state of the dream currently on screen.
type Session struct {
	GenerationID string               `json:"generationId,omitempty"`
	Seq          uint64               `json:"seq"`
	Dream        *domain.DreamRequest `json:"dream,omitempty"`
	Story        string               `json:"story"`
	Images       []string             `json:"images"`
	Scenes       []domain.Scene       `json:"scenes"`
	ScenesReady  bool                 `json:"scenesReady"`
}

// Generation is the result of one Generate call. Scenes resolve later.
type Generation struct {
	ID     string
	Seq    uint64
	Story  string
	Images []string
	Scenes *SceneTask
}

// ActiveScene is the scene playing at a point of the timeline.
type ActiveScene struct {
	Scene    domain.Scene `json:"scene"`
	Progress float64      `json:"progress"`
}

// App is the core application service: it owns the dream session and wires
// story generation, scene building, narration and the journal together.
type App struct {
	generator  ai.TextGenerator
	narrator   Narrator
	journal    *journal.Store
	metrics    *Metrics
	logger     *slog.Logger
	pickFlavor func([]string) string
	sequencer  func(domain.DreamRequest) []domain.Scene
	now        func() time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	issued  uint64 // last sequence number handed to a Generate or Reset
	session Session
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("story generator required")
	}
	if cfg.Journal == nil {
		return nil, fmt.Errorf("journal store required")
	}
	a := &App{
		generator:  cfg.Generator,
		narrator:   cfg.Narrator,
		journal:    cfg.Journal,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		pickFlavor: cfg.PickFlavor,
		sequencer:  cfg.Sequencer,
		now:        cfg.Now,
		rng:        cfg.Rand,
	}
	if a.metrics == nil {
		a.metrics = NewMetrics()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.pickFlavor == nil {
		a.pickFlavor = func(flavors []string) string { return flavors[rand.IntN(len(flavors))] }
	}
	if a.sequencer == nil {
		a.sequencer = scene.Build
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// Metrics exposes the application counters.
func (a *App) Metrics() *Metrics { return a.metrics }

// Journal exposes the journal store.
func (a *App) Journal() *journal.Store { return a.journal }

// Generate produces a story for req and starts building its scenes. The
// session only moves forward: a story commits when no newer one has, and a
// scene task commits only while its story is still the session's. A failed
// call leaves the session untouched.
func (a *App) Generate(ctx context.Context, req domain.DreamRequest) (Generation, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return Generation{}, err
	}

	a.mu.Lock()
	a.issued++
	seq := a.issued
	a.mu.Unlock()

	flavor := a.pickFlavor(Flavors)
	token := a.now().UnixMilli()
	story, err := a.generator.GenerateText(ctx, ai.TextRequest{
		SystemPrompt: storySystemPrompt,
		Prompt:       storyPrompt(req, flavor, token),
		Temperature:  storyTemperature,
		MaxTokens:    storyMaxTokens,
	})
	if err == nil && strings.TrimSpace(story) == "" {
		err = errors.New("empty story")
	}
	if err != nil {
		a.metrics.story("error")
		a.logger.Error("story generation failed", "seq", seq, "setting", req.Setting, "err", err)
		return Generation{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	a.metrics.story("ok")

	gen := Generation{
		ID:     uuid.NewString(),
		Seq:    seq,
		Story:  strings.TrimSpace(story),
		Images: append([]string(nil), PreviewImages...),
		Scenes: newSceneTask(),
	}

	a.mu.Lock()
	if seq > a.session.Seq {
		dream := req
		a.session = Session{
			GenerationID: gen.ID,
			Seq:          seq,
			Dream:        &dream,
			Story:        gen.Story,
			Images:       append([]string(nil), gen.Images...),
		}
	}
	a.mu.Unlock()

	go a.buildScenes(seq, req, gen.Scenes)
	a.logger.Info("dream generated", "generation_id", gen.ID, "seq", seq, "flavor", flavor)
	return gen, nil
}

func (a *App) buildScenes(seq uint64, req domain.DreamRequest, task *SceneTask) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("scene task panicked", "seq", seq, "panic", r)
			task.finish(nil, fmt.Errorf("scene task panic: %v", r))
		}
	}()
	scenes := a.sequencer(req)

	a.mu.Lock()
	current := a.session.Seq == seq
	if current {
		a.session.Scenes = scenes
		a.session.ScenesReady = true
	}
	a.mu.Unlock()

	if !current {
		a.metrics.discardedScenes.Inc()
		a.logger.Info("stale scene task discarded", "seq", seq)
	}
	task.finish(scenes, nil)
}

// Narrate returns narration audio for text, or nil when the client should
// fall back to local speech synthesis.
func (a *App) Narrate(ctx context.Context, text, voiceID string) *domain.Audio {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" {
		voiceID = ai.DefaultVoiceID
	}
	if browserVoice(voiceID) {
		a.metrics.narration("fallback")
		return nil
	}
	if a.narrator == nil {
		a.metrics.narration("fallback")
		return nil
	}
	audio, err := a.narrator.Synthesize(ctx, ai.SpeechRequest{
		Text:    ai.TruncateForNarration(text),
		VoiceID: voiceID,
	})
	if err == nil {
		err = ai.ValidateAudio(audio)
	}
	if err != nil {
		a.metrics.narration("fallback")
		if errors.Is(err, ai.ErrQuotaExceeded) {
			a.logger.Warn("narration quota exceeded, using local speech", "voice", voiceID)
		} else {
			a.logger.Error("narration failed, using local speech", "voice", voiceID, "err", err)
		}
		return nil
	}
	a.metrics.narration("audio")
	return &audio
}

func browserVoice(id string) bool {
	if v, ok := theme.FindVoice(id); ok {
		return v.Provider == domain.VoiceBrowser
	}
	return strings.HasPrefix(id, "browser")
}

// ProcessReflection rewrites a dream reflection into a journal entry. On any
// failure the reflection itself is returned.
func (a *App) ProcessReflection(ctx context.Context, reflection string) string {
	trimmed := strings.TrimSpace(reflection)
	if trimmed == "" {
		return reflection
	}
	out, err := a.generator.GenerateText(ctx, ai.TextRequest{
		SystemPrompt: reflectionSystemPrompt,
		Prompt:       reflectionPrompt(trimmed),
		Temperature:  reflectionTemperature,
		MaxTokens:    reflectionMaxTokens,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		a.logger.Warn("reflection processing failed, keeping original", "err", err)
		return reflection
	}
	return strings.TrimSpace(out)
}

// SaveDream stores the current dream in the journal. A persistence error is
// returned together with the entry, which stays in the in-memory journal.
func (a *App) SaveDream(ctx context.Context, reflection, processed string) (domain.JournalEntry, error) {
	a.mu.Lock()
	s := a.session
	a.mu.Unlock()
	if s.Dream == nil || s.Story == "" {
		return domain.JournalEntry{}, ErrNoDream
	}
	if strings.TrimSpace(processed) == "" {
		processed = reflection
	}
	entry, err := a.journal.Add(ctx, domain.JournalDraft{
		UserReflection: reflection,
		ProcessedEntry: processed,
		OriginalStory:  s.Story,
		Images:         append([]string(nil), s.Images...),
		DreamData:      *s.Dream,
	})
	if err != nil {
		a.metrics.journalSave("error")
		a.logger.Error("journal save failed", "entry_id", entry.ID, "err", err)
		return entry, err
	}
	a.metrics.journalSave("ok")
	return entry, nil
}

// Snapshot returns a copy of the current session.
func (a *App) Snapshot() Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.session
	if s.Dream != nil {
		dream := *s.Dream
		s.Dream = &dream
	}
	s.Images = append([]string{}, s.Images...)
	s.Scenes = append([]domain.Scene{}, s.Scenes...)
	return s
}

// ActiveScene reports which scene plays after elapsed time. ok is false
// while no scenes are available.
func (a *App) ActiveScene(elapsed time.Duration) (ActiveScene, bool) {
	a.mu.Lock()
	scenes := a.session.Scenes
	a.mu.Unlock()
	sc, progress, ok := scene.ActiveAt(scenes, elapsed)
	if !ok {
		return ActiveScene{}, false
	}
	return ActiveScene{Scene: sc, Progress: progress}, true
}

// Reset clears the session. In-flight scene tasks become stale.
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.issued++
	a.session = Session{Seq: a.issued}
}

// RandomDream returns a random, complete dream request.
func (a *App) RandomDream() domain.DreamRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return theme.RandomDream(a.rng)
}

// SceneTask is the handle of an asynchronous scene build.
type SceneTask struct {
	done   chan struct{}
	once   sync.Once
	scenes []domain.Scene
	err    error
}

func newSceneTask() *SceneTask {
	return &SceneTask{done: make(chan struct{})}
}

func (t *SceneTask) finish(scenes []domain.Scene, err error) {
	t.once.Do(func() {
		t.scenes = scenes
		t.err = err
		close(t.done)
	})
}

// Done is closed once the scenes are built.
func (t *SceneTask) Done() <-chan struct{} { return t.done }

// Wait blocks until the scenes are built or ctx ends.
func (t *SceneTask) Wait(ctx context.Context) ([]domain.Scene, error) {
	select {
	case <-t.done:
		return t.scenes, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
