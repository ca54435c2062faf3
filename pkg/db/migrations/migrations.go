// Package migrations contains the schema migrations of the sync journal.
// Migrations use timestamp versioning (YYYYMMDDHHmmss).
package migrations

import (
	"github.com/jingkaihe/skillchef/pkg/db"
)

// All returns all registered migrations in the correct order.
// New migrations should be added to this list.
func All() []db.Migration {
	return []db.Migration{
		Migration20261017090000CreateSyncEvents(),
		Migration20261017090001AddSyncEventIndexes(),
	}
}
