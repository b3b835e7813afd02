package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL migration statements.
// Each entry is applied once in order. New migrations are appended at the end.
var migrations = []string{
	// Migration 0: initial schema
	`CREATE TABLE IF NOT EXISTS users (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE
	)`,

	`INSERT OR IGNORE INTO users (id, username) VALUES (1, 'default')`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id            INTEGER NOT NULL REFERENCES users(id),
		name               TEXT NOT NULL,
		phone              TEXT NOT NULL DEFAULT '',
		interests          TEXT,
		relationship_type  TEXT,
		notes              TEXT,
		is_favorite        INTEGER NOT NULL DEFAULT 0,
		last_contact_date  DATETIME,
		last_message_date  DATETIME,
		reminder_frequency INTEGER DEFAULT 14,
		priority_level     INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		contact_id INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		timestamp  DATETIME NOT NULL,
		sender     TEXT NOT NULL,
		content    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS suggestions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		contact_id    INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		suggestion    TEXT NOT NULL,
		topics        TEXT,
		context       TEXT,
		used          INTEGER NOT NULL DEFAULT 0,
		effectiveness INTEGER,
		created_at    DATETIME NOT NULL,
		source        TEXT,
		error_message TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		id                        INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id                   INTEGER NOT NULL UNIQUE REFERENCES users(id),
		reminder_enabled          INTEGER NOT NULL DEFAULT 1,
		reminder_frequency        INTEGER NOT NULL DEFAULT 14,
		notify_new_suggestions    INTEGER NOT NULL DEFAULT 1,
		notify_missed_connections INTEGER NOT NULL DEFAULT 1,
		privacy_mode              INTEGER NOT NULL DEFAULT 0,
		language_preference       TEXT NOT NULL DEFAULT 'en',
		preferred_contact_method  TEXT NOT NULL DEFAULT 'whatsapp'
	)`,

	`CREATE TABLE IF NOT EXISTS prompt_history (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id          INTEGER NOT NULL REFERENCES users(id),
		contact_id       INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		last_prompted_at DATETIME NOT NULL,
		snoozed_until    DATETIME,
		UNIQUE (user_id, contact_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_contacts_user        ON contacts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_contact     ON messages(contact_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_suggestions_contact  ON suggestions(contact_id, created_at DESC)`,

	// Migration 1: migration tracking table
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// applyMigrations runs any migrations that have not yet been applied.
func applyMigrations(conn *sql.DB) error {
	// Ensure the migration tracking table exists first.
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmt := range migrations {
		var count int
		row := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, i)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", i, err)
		}
		if count > 0 {
			continue
		}

		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}

		if _, err := conn.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i); err != nil {
			return fmt.Errorf("record migration %d: %w", i, err)
		}
	}

	return nil
}
