package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal", "skillchef.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sqlx.DB, name string) bool {
	t.Helper()
	var exists bool
	require.NoError(t, db.Get(&exists, `SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name=?`, name))
	return exists
}

func createNotes(version int64) Migration {
	return Migration{
		Version:     version,
		Description: "create notes",
		Statements:  []string{"CREATE TABLE notes (id INTEGER PRIMARY KEY)"},
	}
}

func addNoteBody(version int64) Migration {
	return Migration{
		Version:     version,
		Description: "add body",
		Statements: []string{
			"ALTER TABLE notes ADD COLUMN body TEXT",
			"CREATE INDEX idx_notes_body ON notes(body)",
		},
	}
}

func appliedVersions(t *testing.T, db *sqlx.DB) []int64 {
	t.Helper()
	var versions []int64
	require.NoError(t, db.Select(&versions, "SELECT version FROM schema_migrations ORDER BY version"))
	return versions
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "skillchef.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.NoError(t, VerifyConfiguration(db))
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		migrations []Migration
		expected   []int64
	}{
		{
			name:       "in order",
			migrations: []Migration{createNotes(20261017090000), addNoteBody(20261017090001)},
			expected:   []int64{20261017090000, 20261017090001},
		},
		{
			name:       "sorted by version",
			migrations: []Migration{addNoteBody(20261017090001), createNotes(20261017090000)},
			expected:   []int64{20261017090000, 20261017090001},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)

			applied, err := Migrate(ctx, db, tt.migrations)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, applied)

			applied, err = Migrate(ctx, db, tt.migrations)
			require.NoError(t, err)
			assert.Empty(t, applied)

			assert.True(t, tableExists(t, db, "notes"))
			assert.Equal(t, tt.expected, appliedVersions(t, db))
		})
	}
}

func TestMigrateAppliesOnlyPending(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := Migrate(ctx, db, []Migration{createNotes(20261017090000)})
	require.NoError(t, err)

	applied, err := Migrate(ctx, db, []Migration{createNotes(20261017090000), addNoteBody(20261017090001)})
	require.NoError(t, err)
	assert.Equal(t, []int64{20261017090001}, applied)
}

func TestMigrateRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	broken := Migration{
		Version:     20261017090000,
		Description: "broken",
		Statements: []string{
			"CREATE TABLE notes (id INTEGER PRIMARY KEY)",
			"CREATE TABLE notes (id INTEGER PRIMARY KEY)",
		},
	}
	_, err := Migrate(ctx, db, []Migration{broken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply migration 20261017090000")
	assert.False(t, tableExists(t, db, "notes"))
	assert.Empty(t, appliedVersions(t, db))
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := Migrate(ctx, db, []Migration{createNotes(20261017090000), addNoteBody(20261017090001)})
	require.NoError(t, err)

	_, err = Migrate(ctx, db, []Migration{createNotes(20261017090000)})
	assert.ErrorIs(t, err, ErrNewerSchema)
}

func TestMigrateValidatesMigrations(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		migrations []Migration
		wantErr    string
	}{
		{
			name:       "duplicate version",
			migrations: []Migration{createNotes(20261017090000), addNoteBody(20261017090000)},
			wantErr:    "duplicate migration version",
		},
		{
			name:       "missing version",
			migrations: []Migration{createNotes(0)},
			wantErr:    "has no version",
		},
		{
			name:       "no statements",
			migrations: []Migration{{Version: 20261017090000, Description: "empty"}},
			wantErr:    "has no statements",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			_, err := Migrate(ctx, db, tt.migrations)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, tableExists(t, db, "notes"))
		})
	}
}

func TestOpenMigrated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skillchef.db")
	db, err := OpenMigrated(context.Background(), path, []Migration{createNotes(20261017090000)})
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, tableExists(t, db, "notes"))
}
