package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "dreamweaver-journal", []byte(`{"entries":[]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := kv.Get(ctx, "dreamweaver-journal")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(value) != `{"entries":[]}` {
		t.Fatalf("unexpected value %q", value)
	}
	if err := kv.Set(ctx, "dreamweaver-journal", []byte(`{"entries":[{"id":1}]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = kv.Get(ctx, "dreamweaver-journal")
	if string(value) != `{"entries":[{"id":1}]}` {
		t.Fatalf("overwrite not visible: %q", value)
	}
	if err := kv.Delete(ctx, "dreamweaver-journal"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "dreamweaver-journal"); ok {
		t.Fatalf("expected key gone after delete")
	}
	if err := kv.Delete(ctx, "dreamweaver-journal"); err != nil {
		t.Fatalf("delete missing should succeed: %v", err)
	}
	if err := kv.Set(ctx, "", []byte(`{}`)); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseKV(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	buf := []byte(`{"a":1}`)
	if err := s.Set(ctx, "k", buf); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf[2] = 'b'
	got, _, _ := s.Get(ctx, "k")
	if string(got) != `{"a":1}` {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "dreamweaver.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	exerciseKV(t, s)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dreamweaver.db")
	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := first.Set(context.Background(), "dream-video-cave-crystals", []byte(`{"themeKey":"cave-crystals"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	value, ok, err := second.Get(context.Background(), "dream-video-cave-crystals")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if string(value) != `{"themeKey":"cave-crystals"}` {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Fatalf("expected empty path error")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr(), "", "")
	t.Cleanup(func() { _ = s.Close() })
	exerciseKV(t, s)
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr(), "", "test:")
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Set(context.Background(), "dreamweaver-journal", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("test:dreamweaver-journal") {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	kv, err := Open(Options{Backend: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := kv.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", kv)
	}

	kv, err = Open(Options{SQLitePath: filepath.Join(t.TempDir(), "kv.db")})
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	if _, ok := kv.(*SQLiteStore); !ok {
		t.Fatalf("expected sqlite store by default, got %T", kv)
	}

	if _, err := Open(Options{Backend: "redis"}); err == nil {
		t.Fatalf("expected redis backend without address to fail")
	}
	if _, err := Open(Options{Backend: "postgres"}); err == nil {
		t.Fatalf("expected postgres backend without url to fail")
	}
	if _, err := Open(Options{Backend: "cassette"}); err == nil {
		t.Fatalf("expected unknown backend to fail")
	}
}
