// Package journal keeps the dream journal, newest entry first.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dreamweaver/pkg/domain"
	"dreamweaver/pkg/store"
)

// Key is the persisted location of the whole collection.
const Key = "dreamweaver-journal"

// DateLayout is ISO-8601 in UTC with millisecond precision.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrPersistence wraps failures of the underlying storage write. The
// in-memory collection keeps the change.
var ErrPersistence = errors.New("journal persistence failed")

type document struct {
	Entries []domain.JournalEntry `json:"entries"`
}

type Store struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	loaded  bool
	entries []domain.JournalEntry
	lastID  int64
}

type Option func(*Store)

// WithClock overrides the time source used for IDs and dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(kv store.KV, opts ...Option) *Store {
	s := &Store{kv: kv, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ensureLoaded reads the persisted collection until a read succeeds. Missing
// or malformed data starts an empty journal; a read error leaves the store
// unloaded so the next call retries. Entries added while unloaded are kept
// ahead of the loaded ones and written back once the load succeeds. Callers
// hold s.mu.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		s.logger.Warn("journal_load_failed", "err", err)
		return fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}
	s.loaded = true
	pending := s.entries
	s.entries = nil
	var loadedMax int64
	if ok {
		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.logger.Warn("journal_load_malformed", "err", err)
		} else {
			for i := range doc.Entries {
				doc.Entries[i] = normalize(doc.Entries[i])
				loadedMax = max(loadedMax, doc.Entries[i].ID)
			}
			s.entries = doc.Entries
		}
	}
	if len(pending) == 0 {
		s.lastID = max(s.lastID, loadedMax)
		return nil
	}
	// Pending ids must stay above every loaded id, oldest pending first.
	if pending[len(pending)-1].ID <= loadedMax {
		s.lastID = loadedMax
		for i := len(pending) - 1; i >= 0; i-- {
			s.lastID++
			pending[i].ID = s.lastID
		}
	}
	s.lastID = max(s.lastID, loadedMax)
	s.entries = append(pending, s.entries...)
	if err := s.persist(ctx); err != nil {
		s.logger.Warn("journal_pending_write_failed", "err", err, "pending", len(pending))
	}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	if !s.loaded {
		return fmt.Errorf("%w: journal not loaded", ErrPersistence)
	}
	entries := s.entries
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	raw, err := json.Marshal(document{Entries: entries})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// nextID is strictly greater than every ID handed out or loaded before.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Add prepends a new entry and persists the collection. On a load or write
// failure the entry is still returned and kept in memory alongside an error
// wrapping ErrPersistence.
func (s *Store) Add(ctx context.Context, draft domain.JournalDraft) (domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loadErr := s.ensureLoaded(ctx)

	now := s.now().UTC()
	entry := normalize(domain.JournalEntry{
		ID:             s.nextID(now),
		Date:           now.Format(DateLayout),
		UserReflection: draft.UserReflection,
		ProcessedEntry: draft.ProcessedEntry,
		OriginalStory:  draft.OriginalStory,
		Images:         append([]string(nil), draft.Images...),
		DreamData:      draft.DreamData,
	})
	s.entries = append([]domain.JournalEntry{entry}, s.entries...)
	if loadErr != nil {
		return clone(entry), loadErr
	}
	return clone(entry), s.persist(ctx)
}

// Update merges the non-nil fields of u into entry id. An unknown id is a
// no-op and nothing is written. Nothing changes while the journal cannot be
// loaded.
func (s *Store) Update(ctx context.Context, id int64, u domain.JournalUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	e := &s.entries[i]
	if u.UserReflection != nil {
		e.UserReflection = *u.UserReflection
	}
	if u.ProcessedEntry != nil {
		e.ProcessedEntry = *u.ProcessedEntry
	}
	if u.OriginalStory != nil {
		e.OriginalStory = *u.OriginalStory
	}
	if u.Images != nil {
		e.Images = append([]string{}, u.Images...)
	}
	if u.DreamData != nil {
		e.DreamData = *u.DreamData
	}
	return s.persist(ctx)
}

// Delete removes entry id. An unknown id is a no-op and nothing is written.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	return s.persist(ctx)
}

// List returns a copy of the collection, newest first.
func (s *Store) List(ctx context.Context) []domain.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.ensureLoaded(ctx)

	out := make([]domain.JournalEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = clone(e)
	}
	return out
}

func (s *Store) Get(ctx context.Context, id int64) (domain.JournalEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.ensureLoaded(ctx)

	i := s.indexOf(id)
	if i < 0 {
		return domain.JournalEntry{}, false
	}
	return clone(s.entries[i]), true
}

func (s *Store) Len(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.ensureLoaded(ctx)
	return len(s.entries)
}

func (s *Store) indexOf(id int64) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func normalize(e domain.JournalEntry) domain.JournalEntry {
	if e.Images == nil {
		e.Images = []string{}
	}
	return e
}

func clone(e domain.JournalEntry) domain.JournalEntry {
	e.Images = append([]string{}, e.Images...)
	return e
}
