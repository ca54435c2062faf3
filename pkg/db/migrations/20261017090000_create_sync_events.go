package migrations

import (
	"github.com/jingkaihe/skillchef/pkg/db"
)

// Migration20261017090000CreateSyncEvents creates the table holding one row
// per recorded cook or sync outcome.
func Migration20261017090000CreateSyncEvents() db.Migration {
	return db.Migration{
		Version:     20261017090000,
		Description: "Create sync_events table",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS sync_events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL,
				skill TEXT NOT NULL,
				outcome TEXT NOT NULL,
				branch TEXT NOT NULL DEFAULT '',
				old_sha256 TEXT NOT NULL DEFAULT '',
				new_sha256 TEXT NOT NULL DEFAULT '',
				model TEXT NOT NULL DEFAULT '',
				message TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL
			)
		`},
	}
}
