// Package pgtest opens a migrated, throwaway postgres schema for repository
// tests. Tests are skipped unless TEST_DATABASE_DSN is set.
package pgtest

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"

	"algomancy.gg/deckhub/internal/bootstrap"
	"algomancy.gg/deckhub/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dsnEnv = "TEST_DATABASE_DSN"

// Open connects to TEST_DATABASE_DSN, creates a fresh schema, migrates every
// table into it and drops it when the test ends.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping postgres test", dsnEnv)
	}
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	admin, err := database.Connect(dsn, false)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := admin.Exec(fmt.Sprintf("CREATE SCHEMA %s", schema)).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}

	db, err := database.Connect(withSearchPath(dsn, schema), false)
	if err != nil {
		t.Fatalf("connect to schema %s: %v", schema, err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = admin.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", schema)).Error
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// withSearchPath accepts both URL and keyword/value DSNs.
func withSearchPath(dsn, schema string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err == nil {
			q := u.Query()
			q.Set("search_path", schema)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return dsn + " search_path=" + schema
}
