package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateSeenNotifications,
		migrationCreateKVState,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationCreateSeenNotifications = `
CREATE TABLE IF NOT EXISTS seen_notifications (
    task_id TEXT PRIMARY KEY,
    seen_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_seen_at ON seen_notifications(seen_at);
`

const migrationCreateKVState = `
CREATE TABLE IF NOT EXISTS kv_state (
    key TEXT PRIMARY KEY,
    value TEXT
);
`
