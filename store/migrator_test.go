package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldApplyMigration(t *testing.T) {
	tests := []struct {
		name        string
		fileVersion string
		current     string
		target      string
		want        bool
	}{
		{"fresh database", "0.3.1", "", "0.3.2", true},
		{"already applied", "0.3.1", "0.3.1", "0.3.2", false},
		{"pending patch", "0.3.2", "0.3.1", "0.3.2", true},
		{"beyond target", "0.4.1", "0.3.1", "0.3.2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldApplyMigration(tt.fileVersion, tt.current, tt.target))
		})
	}
}

func TestValidateMigrationFileName(t *testing.T) {
	assert.NoError(t, validateMigrationFileName("01__agenda_session_source.sql"))
	assert.Error(t, validateMigrationFileName("agenda_session_source.sql"))
	assert.Error(t, validateMigrationFileName("x1__agenda.sql"))
}

func TestGetSchemaVersionOfMigrateScript(t *testing.T) {
	s := &Store{}
	version, err := s.getSchemaVersionOfMigrateScript("migration/sqlite/0.3/01__agenda_session_source.sql")
	assert.NoError(t, err)
	assert.Equal(t, "0.3.2", version)

	_, err = s.getSchemaVersionOfMigrateScript("migration/sqlite/0.3/xx__bad.sql")
	assert.Error(t, err)
}
