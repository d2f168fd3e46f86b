package database

import (
	"context"
	"fmt"
	"strings"
)

// migration defines a single idempotent schema migration.
type migration struct {
	name  string
	sql   string
	check string // query that returns true if the migration is already applied
}

// migrations is the ordered list of schema migrations to apply.
// Each must be idempotent (use IF NOT EXISTS, IF EXISTS, etc.).
var migrations = []migration{
	{
		name:  "add tag.mac_address",
		sql:   `ALTER TABLE tag ADD COLUMN IF NOT EXISTS mac_address text NOT NULL DEFAULT ''`,
		check: `SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'tag' AND column_name = 'mac_address')`,
	},
	{
		name: "add open permanence_log partial index",
		sql: `CREATE INDEX IF NOT EXISTS idx_permanence_log_open ON permanence_log (crew_member_id, shipyard_id, entry_timestamp DESC)
    WHERE entry_timestamp IS NOT NULL AND leave_timestamp IS NULL`,
		check: `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_permanence_log_open')`,
	},
	{
		name:  "add unassigned_tag_entry timestamp index",
		sql:   `CREATE INDEX IF NOT EXISTS idx_unassigned_tag_entry_ts ON unassigned_tag_entry (advertisement_timestamp DESC)`,
		check: `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_unassigned_tag_entry_ts')`,
	},
	{
		name:  "unique activator_beacon number per shipyard",
		sql:   `CREATE UNIQUE INDEX IF NOT EXISTS uq_activator_beacon_yard_number ON activator_beacon (shipyard_id, number)`,
		check: `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uq_activator_beacon_yard_number')`,
	},
}

// Migrate runs all pending schema migrations.
// For each migration, it first checks whether the change is already present.
// If not, it attempts to apply it. If the apply fails (e.g. insufficient
// privileges), the error is returned — the caller should treat this as fatal
// since the application's queries depend on these columns existing.
func (db *DB) Migrate(ctx context.Context) error {
	var pending []migration
	for _, m := range migrations {
		if m.check != "" {
			var exists bool
			if err := db.Pool.QueryRow(ctx, m.check).Scan(&exists); err == nil && exists {
				continue
			}
		}
		pending = append(pending, m)
	}

	if len(pending) == 0 {
		return nil
	}

	applied := 0
	for _, m := range pending {
		if _, err := db.Pool.Exec(ctx, m.sql); err != nil {
			return &MigrationError{
				failed:  m,
				pending: pending[applied:],
				err:     err,
			}
		}
		db.log.Info().Str("migration", m.name).Msg("schema migration applied")
		applied++
	}
	db.log.Info().Int("applied", applied).Msg("schema migrations complete")
	return nil
}

// MigrationError is returned when a migration fails.
// It includes the SQL needed to apply all remaining migrations manually.
type MigrationError struct {
	failed  migration
	pending []migration
	err     error
}

func (e *MigrationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "migration %q failed: %v\n\n", e.failed.name, e.err)
	b.WriteString("Run the following SQL as a database superuser to fix this:\n\n")
	for _, m := range e.pending {
		fmt.Fprintf(&b, "  %s;\n", m.sql)
	}
	b.WriteString("\nThen restart gatekeeper.")
	return b.String()
}

func (e *MigrationError) Unwrap() error {
	return e.err
}
