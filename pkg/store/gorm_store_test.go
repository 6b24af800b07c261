package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=dream dbname=dream sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestGormStoreSetRejectsInvalidValues(t *testing.T) {
	s := &GormStore{}
	ctx := context.Background()
	if err := s.Set(ctx, "", []byte(`{}`)); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
	for _, raw := range []string{"", "{not json", "data:video/mp4;base64,AAAA"} {
		err := s.Set(ctx, "dreamweaver-journal", []byte(raw))
		if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
			t.Fatalf("value %q: expected JSON error, got %v", raw, err)
		}
	}
}

func TestGormUpsertStatement(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return upsert(tx, &KVModel{Key: "dream-video-ocean-calm", Value: datatypes.JSON(`{"themeKey":"ocean-calm"}`)})
	})
	for _, want := range []string{`INSERT INTO "kv_entries"`, `ON CONFLICT ("key") DO UPDATE SET`, `"value"="excluded"."value"`, `"updated_at"="excluded"."updated_at"`} {
		if !strings.Contains(sql, want) {
			t.Fatalf("upsert sql missing %q:\n%s", want, sql)
		}
	}
}
