package db

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/logger"
)

// ErrNewerSchema is returned when the database was migrated by a newer
// skillchef than the one opening it.
var ErrNewerSchema = errors.New("database schema is newer than this skillchef")

// Migration is one forward-only schema change. Versions are timestamps
// (YYYYMMDDHHmmss) and its statements run in a single transaction.
type Migration struct {
	Version     int64
	Description string
	Statements  []string
}

// Migrate applies the pending migrations in version order and returns the
// versions it applied.
func Migrate(ctx context.Context, db *sqlx.DB, migrations []Migration) ([]int64, error) {
	sorted, err := sortMigrations(migrations)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL,
			description TEXT
		)
	`); err != nil {
		return nil, errors.Wrap(err, "failed to create schema_migrations table")
	}

	var versions []int64
	if err := db.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations ORDER BY version"); err != nil {
		return nil, errors.Wrap(err, "failed to read applied migrations")
	}
	known := map[int64]bool{}
	for _, m := range sorted {
		known[m.Version] = true
	}
	applied := map[int64]bool{}
	for _, v := range versions {
		if !known[v] {
			return nil, errors.Wrapf(ErrNewerSchema, "unknown migration %d", v)
		}
		applied[v] = true
	}

	var done []int64
	for _, m := range sorted {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return done, errors.Wrapf(err, "failed to apply migration %d: %s", m.Version, m.Description)
		}
		logger.G(ctx).WithField("version", m.Version).WithField("description", m.Description).Debug("applied migration")
		done = append(done, m.Version)
	}
	return done, nil
}

func sortMigrations(migrations []Migration) ([]Migration, error) {
	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	for i, m := range sorted {
		if m.Version <= 0 {
			return nil, errors.Errorf("migration %q has no version", m.Description)
		}
		if len(m.Statements) == 0 {
			return nil, errors.Errorf("migration %d has no statements", m.Version)
		}
		if i > 0 && sorted[i-1].Version == m.Version {
			return nil, errors.Errorf("duplicate migration version %d", m.Version)
		}
	}
	return sorted, nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute %q", stmt)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
		m.Version, time.Now().UTC(), m.Description); err != nil {
		return errors.Wrap(err, "failed to record migration")
	}
	return tx.Commit()
}
