package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/confagenda/internal/profile"
	"github.com/hrygo/confagenda/store"
	"github.com/hrygo/confagenda/store/db/postgres"
	"github.com/hrygo/confagenda/store/db/sqlite"
)

// ============================================================================
// DATABASE SUPPORT POLICY
// ============================================================================
// PostgreSQL: production.
// SQLite: development, demo mode and the default test run.
//
// Both drivers implement the full store.Driver interface against the same
// schema; migrations live side by side under store/migration/{driver}.
// ============================================================================

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
