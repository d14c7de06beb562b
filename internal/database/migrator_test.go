package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMigrator_Validation(t *testing.T) {
	logger := zerolog.Nop()

	// pgxpool connects lazily, so this pool is never dialed by the checks below.
	pool, err := pgxpool.New(context.Background(), "postgres://u:p@127.0.0.1:1/db?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	lazyDB := &DB{pool: pool, logger: logger}

	t.Run("fails with nil database", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "/some/path", logger)
		assert.Nil(t, migrator)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is required")
	})

	t.Run("fails with nil pool", func(t *testing.T) {
		migrator, err := NewMigrator(&DB{}, "/some/path", logger)
		assert.Nil(t, migrator)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database pool not initialized")
	})

	t.Run("fails with invalid migrations path", func(t *testing.T) {
		migrator, err := NewMigrator(lazyDB, "/nonexistent/path", logger)
		assert.Nil(t, migrator)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migrations path validation failed")
	})
}

func TestOpenSource(t *testing.T) {
	t.Run("empty path uses embedded migrations", func(t *testing.T) {
		src, name, err := openSource("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = src.Close() })

		assert.Equal(t, "embedded", name)
		first, err := src.First()
		require.NoError(t, err)
		assert.Equal(t, uint(1), first)
	})

	t.Run("directory source", func(t *testing.T) {
		src, name, err := openSource(filepath.Join("..", "..", "migrations"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = src.Close() })

		assert.True(t, filepath.IsAbs(name))
		up, _, err := src.ReadUp(1)
		require.NoError(t, err)
		_ = up.Close()
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, err := openSource(filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migrations path validation failed")
	})
}
