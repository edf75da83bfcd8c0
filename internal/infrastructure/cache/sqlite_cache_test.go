package cache

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"taskproxy/internal/infrastructure/persistence/sqlite/model"
)

func setupCache(t *testing.T) *SQLiteCache {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cache.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.ProxyKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSQLiteCache(db)
}

func TestCacheSetGetOverwrite(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "detail:T1"); err != nil || found {
		t.Fatalf("Get() before set = found %v, err %v", found, err)
	}

	if err := c.Set(ctx, "detail:T1", `{"status":"submitted"}`, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "detail:T1", `{"status":"confirmed"}`, 0); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	value, found, err := c.Get(ctx, "detail:T1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != `{"status":"confirmed"}` {
		t.Fatalf("Get() = %q, found %v", value, found)
	}

	if err := c.Delete(ctx, "detail:T1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := c.Get(ctx, "detail:T1"); found {
		t.Fatalf("Get() after delete found = true")
	}
}
