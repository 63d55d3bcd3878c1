package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mevshield/mevshield/internal/config"
)

func TestNewOpensSqliteAndMigrates(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	// Migration is idempotent against an existing schema.
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable("protected_trades"))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}
