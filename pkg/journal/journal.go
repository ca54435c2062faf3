// Package journal records the outcome of every skill sync in SQLite so that
// `skillchef history` can show what happened to a skill over time.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/db"
	"github.com/jingkaihe/skillchef/pkg/db/migrations"
)

// Event is one recorded sync outcome.
type Event struct {
	ID        int64     `db:"id" json:"id" yaml:"id"`
	RunID     string    `db:"run_id" json:"run_id" yaml:"run_id"`
	Skill     string    `db:"skill" json:"skill" yaml:"skill"`
	Outcome   string    `db:"outcome" json:"outcome" yaml:"outcome"`
	Branch    string    `db:"branch" json:"branch,omitempty" yaml:"branch,omitempty"`
	OldSHA256 string    `db:"old_sha256" json:"old_sha256,omitempty" yaml:"old_sha256,omitempty"`
	NewSHA256 string    `db:"new_sha256" json:"new_sha256,omitempty" yaml:"new_sha256,omitempty"`
	Model     string    `db:"model" json:"model,omitempty" yaml:"model,omitempty"`
	Message   string    `db:"message" json:"message,omitempty" yaml:"message,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"created_at"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Skill string
	RunID string
	Limit int
}

// Journal stores sync events.
type Journal struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRunID returns a fresh identifier for one sync invocation.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens the journal database at path, creating and migrating it as
// needed.
func Open(ctx context.Context, path string) (*Journal, error) {
	sqlDB, err := db.OpenMigrated(ctx, path, migrations.All())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sync journal")
	}
	return New(sqlDB), nil
}

// New wraps an already migrated database.
func New(sqlDB *sqlx.DB) *Journal {
	return &Journal{db: sqlDB, now: func() time.Time { return time.Now().UTC() }}
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e. CreatedAt defaults to now.
func (j *Journal) Record(ctx context.Context, e Event) error {
	if e.RunID == "" || e.Skill == "" || e.Outcome == "" {
		return errors.New("journal event needs a run id, skill and outcome")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}

	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO sync_events (run_id, skill, outcome, branch, old_sha256, new_sha256, model, message, created_at)
		VALUES (:run_id, :skill, :outcome, :branch, :old_sha256, :new_sha256, :model, :message, :created_at)
	`, e)
	return errors.Wrapf(err, "failed to record sync event for %s", e.Skill)
}

// List returns matching events, newest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]Event, error) {
	query := "SELECT * FROM sync_events WHERE 1=1"
	var args []interface{}
	if f.Skill != "" {
		query += " AND skill = ?"
		args = append(args, f.Skill)
	}
	if f.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, f.RunID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	var events []Event
	if err := j.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list sync events")
	}
	return events, nil
}

// Forget deletes the events of a removed skill.
func (j *Journal) Forget(ctx context.Context, skill string) error {
	_, err := j.db.ExecContext(ctx, "DELETE FROM sync_events WHERE skill = ?", skill)
	return errors.Wrapf(err, "failed to delete sync events for %s", skill)
}
