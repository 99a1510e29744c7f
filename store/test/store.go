package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/confagenda/internal/profile"
	"github.com/hrygo/confagenda/internal/version"
	"github.com/hrygo/confagenda/store"
	"github.com/hrygo/confagenda/store/db"
)

// NewTestingStore opens a migrated store for tests.
// DRIVER=postgres runs against a disposable PostgreSQL container; the default is a temp-dir SQLite file.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()

	mode := "prod"
	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:    mode,
		Port:    8081,
		Driver:  driver,
		Version: version.GetCurrentVersion(mode),
		Data:    t.TempDir(),
	}
	switch driver {
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		p.DSN = filepath.Join(p.Data, "confagenda_test.db")
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
