package sqlite

import "fmt"

// schemaStatements holds the idempotent DDL applied on startup. Two unique
// indexes carry invariants the application also checks: one edition per event
// category, and one index per (event, activity category) pair.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		edition INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		area TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		registry_start_date TEXT NOT NULL,
		registry_end_date TEXT NOT NULL,
		status_active INTEGER NOT NULL DEFAULT 0,
		status_visible INTEGER NOT NULL DEFAULT 0,
		event_category_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_date >= start_date),
		CHECK (registry_end_date >= registry_start_date)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_category_edition
		ON events (event_category_id, edition)`,
	`CREATE TABLE IF NOT EXISTS event_responsibles (
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (event_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		vacancy INTEGER NOT NULL CHECK (vacancy > 0),
		workload_minutes INTEGER NOT NULL CHECK (workload_minutes > 0),
		activity_category_id TEXT NOT NULL,
		index_in_category INTEGER NOT NULL,
		ready_for_certificate_emission INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_category_index
		ON activities (event_id, activity_category_id, index_in_category)`,
	`CREATE TABLE IF NOT EXISTS activity_responsibles (
		activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (activity_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS activity_teachers (
		activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (activity_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		start_time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		room_id TEXT,
		url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_room ON schedules (room_id)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_activity ON schedules (activity_id)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id TEXT PRIMARY KEY,
		activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		registered_at TEXT NOT NULL,
		UNIQUE (activity_id, user_id)
	)`,
}

// migrate applies the schema statements in order.
func (cp *ConnectionPool) migrate() error {
	for _, statement := range schemaStatements {
		if _, err := cp.db.Exec(statement); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
