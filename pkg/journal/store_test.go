package journal

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"dreamweaver/pkg/domain"
	"dreamweaver/pkg/store"
)

type recordingKV struct {
	*store.MemoryStore
	sets        int
	setErr      error
	getFailures int
}

func (r *recordingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.getFailures > 0 {
		r.getFailures--
		return nil, false, errors.New("connection reset")
	}
	return r.MemoryStore.Get(ctx, key)
}

func newRecordingKV() *recordingKV {
	return &recordingKV{MemoryStore: store.NewMemoryStore()}
}

func (r *recordingKV) Set(ctx context.Context, key string, value []byte) error {
	r.sets++
	if r.setErr != nil {
		return r.setErr
	}
	return r.MemoryStore.Set(ctx, key, value)
}

func frozenClock() func() time.Time {
	t := time.Date(2026, time.March, 4, 21, 30, 0, 123_000_000, time.FixedZone("PST", -8*3600))
	return func() time.Time { return t }
}

func draft(reflection string) domain.JournalDraft {
	return domain.JournalDraft{
		UserReflection: reflection,
		ProcessedEntry: "In my dream, " + reflection,
		OriginalStory:  "You step into the Crystal Cave...",
		Images:         []string{"https://images.test/1.jpg"},
		DreamData: domain.DreamRequest{
			Setting:        "Crystal Cave",
			Emotion:        "Mystery",
			Characters:     "a glowing spirit",
			MagicalElement: "Memory Crystal",
		},
	}
}

func TestAddPrependsAndAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryStore(), WithClock(frozenClock()))

	first, err := s.Add(ctx, draft("first"))
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	second, err := s.Add(ctx, draft("second"))
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids not strictly increasing: %d then %d", first.ID, second.ID)
	}
	entries := s.List(ctx)
	if len(entries) != 2 || entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if first.Date != "2026-03-05T05:30:00.123Z" {
		t.Fatalf("date = %q", first.Date)
	}
}

func TestAddNormalizesImages(t *testing.T) {
	s := NewStore(store.NewMemoryStore())
	d := draft("no pictures")
	d.Images = nil
	entry, err := s.Add(context.Background(), d)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if entry.Images == nil {
		t.Fatalf("images should never be nil")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryStore())
	entry, _ := s.Add(ctx, draft("before"))

	reflection := "after"
	if err := s.Update(ctx, entry.ID, domain.JournalUpdate{UserReflection: &reflection}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok := s.Get(ctx, entry.ID)
	if !ok {
		t.Fatalf("entry missing after update")
	}
	if got.UserReflection != "after" || got.OriginalStory != entry.OriginalStory {
		t.Fatalf("unexpected merge result %+v", got)
	}
}

func TestUpdateUnknownIDLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	s := NewStore(kv)
	if _, err := s.Add(ctx, draft("only")); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := s.List(ctx)
	writes := kv.sets

	reflection := "ghost"
	if err := s.Update(ctx, 42, domain.JournalUpdate{UserReflection: &reflection}); err != nil {
		t.Fatalf("update unknown: %v", err)
	}
	if err := s.Delete(ctx, 42); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if !reflect.DeepEqual(before, s.List(ctx)) {
		t.Fatalf("collection changed")
	}
	if kv.sets != writes {
		t.Fatalf("unknown id should not write, got %d extra writes", kv.sets-writes)
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryStore())
	a, _ := s.Add(ctx, draft("a"))
	b, _ := s.Add(ctx, draft("b"))
	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get(ctx, a.ID); ok {
		t.Fatalf("deleted entry still present")
	}
	if entries := s.List(ctx); len(entries) != 1 || entries[0].ID != b.ID {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestPersistenceFailureKeepsInMemoryAdd(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	kv.setErr = errors.New("quota exceeded")
	s := NewStore(kv)

	entry, err := s.Add(ctx, draft("fragile"))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if entry.ID == 0 {
		t.Fatalf("entry should still be returned")
	}
	if s.Len(ctx) != 1 {
		t.Fatalf("in-memory add should be kept")
	}
}

func TestLoadErrorDoesNotOverwriteStoredJournal(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	seed := NewStore(kv, WithClock(frozenClock()))
	for _, r := range []string{"one", "two", "three"} {
		if _, err := seed.Add(ctx, draft(r)); err != nil {
			t.Fatalf("seed %s: %v", r, err)
		}
	}
	stored := seed.List(ctx)
	writes := kv.sets

	kv.getFailures = 1
	s := NewStore(kv, WithClock(frozenClock()))
	four, err := s.Add(ctx, draft("four"))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence while unloaded, got %v", err)
	}
	if kv.sets != writes {
		t.Fatalf("journal written while unloaded: %d writes, want %d", kv.sets, writes)
	}
	if err := s.Delete(ctx, stored[0].ID); err != nil {
		t.Fatalf("delete after recovery: %v", err)
	}

	entries := s.List(ctx)
	if len(entries) != 3 || entries[0].UserReflection != "four" {
		t.Fatalf("unexpected entries after recovery %+v", entries)
	}
	if entries[0].ID <= stored[0].ID {
		t.Fatalf("pending id %d not above loaded max %d", entries[0].ID, stored[0].ID)
	}
	if four.ID == 0 {
		t.Fatalf("entry should be returned while unloaded")
	}
	if got := NewStore(kv).List(ctx); !reflect.DeepEqual(got, entries) {
		t.Fatalf("persisted journal mismatch:\n got %+v\nwant %+v", got, entries)
	}
}

func TestUpdateRefusedWhileUnloaded(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	seed := NewStore(kv)
	entry, err := seed.Add(ctx, draft("kept"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	writes := kv.sets

	kv.getFailures = 1
	s := NewStore(kv)
	text := "changed"
	if err := s.Update(ctx, entry.ID, domain.JournalUpdate{UserReflection: &text}); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if kv.sets != writes {
		t.Fatalf("update wrote while unloaded")
	}
	if got, ok := s.Get(ctx, entry.ID); !ok || got.UserReflection != "kept" {
		t.Fatalf("retry load should see stored entry, got %+v %v", got, ok)
	}
}

func TestRoundTripReload(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	s := NewStore(kv)
	for _, r := range []string{"one", "two", "three"} {
		if _, err := s.Add(ctx, draft(r)); err != nil {
			t.Fatalf("add %s: %v", r, err)
		}
	}
	want := s.List(ctx)

	reloaded := NewStore(kv)
	if got := reloaded.List(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("reload mismatch:\n got %+v\nwant %+v", got, want)
	}

	next, err := reloaded.Add(ctx, draft("four"))
	if err != nil {
		t.Fatalf("add after reload: %v", err)
	}
	if next.ID <= want[0].ID {
		t.Fatalf("id after reload %d not above loaded max %d", next.ID, want[0].ID)
	}
}

func TestMalformedDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	if err := kv.Set(ctx, Key, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := NewStore(kv)
	if n := s.Len(ctx); n != 0 {
		t.Fatalf("expected empty journal, got %d", n)
	}
	if _, err := s.Add(ctx, draft("fresh")); err != nil {
		t.Fatalf("add: %v", err)
	}
	raw, _, _ := kv.Get(ctx, Key)
	if string(raw[:12]) != `{"entries":[` {
		t.Fatalf("unexpected persisted layout %s", raw)
	}
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryStore())
	entry, _ := s.Add(ctx, draft("copy"))
	list := s.List(ctx)
	list[0].Images[0] = "mutated"
	list[0].UserReflection = "mutated"
	got, _ := s.Get(ctx, entry.ID)
	if got.Images[0] == "mutated" || got.UserReflection == "mutated" {
		t.Fatalf("list exposed internal state: %+v", got)
	}
}
