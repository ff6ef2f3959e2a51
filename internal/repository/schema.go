package repository

import (
	"context"
	"database/sql"
	"fmt"
)

/* DDL написан так, чтобы его принимали и Postgres, и SQLite */
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		uuid TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('helper', 'superadmin')),
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS access_tokens (
		uuid TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP,
		created_by TEXT NOT NULL UNIQUE REFERENCES users(uuid) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS runners (
		number BIGINT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		grade TEXT NOT NULL DEFAULT '',
		house TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS laps (
		id TEXT PRIMARY KEY,
		runner_number BIGINT NOT NULL REFERENCES runners(number) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_laps_runner_number ON laps(runner_number)`,
}

// CreateSchema is safe to call multiple times.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i, err)
		}
	}
	return nil
}
