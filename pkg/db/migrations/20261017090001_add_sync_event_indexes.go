package migrations

import (
	"github.com/jingkaihe/skillchef/pkg/db"
)

// Migration20261017090001AddSyncEventIndexes indexes the history lookups by
// skill and by run.
func Migration20261017090001AddSyncEventIndexes() db.Migration {
	return db.Migration{
		Version:     20261017090001,
		Description: "Add skill and run indexes to sync_events",
		Statements: []string{
			"CREATE INDEX IF NOT EXISTS idx_sync_events_skill_created ON sync_events(skill, created_at DESC)",
			"CREATE INDEX IF NOT EXISTS idx_sync_events_run ON sync_events(run_id)",
		},
	}
}
