package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id uuid PRIMARY KEY,
		session_id text NOT NULL,
		title text NOT NULL,
		description text,
		location text,
		attendees jsonb NOT NULL DEFAULT '[]'::jsonb,
		start_time timestamptz NOT NULL,
		end_time timestamptz NOT NULL,
		status text NOT NULL DEFAULT 'confirmed',
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT events_end_after_start CHECK (end_time > start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events (session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_session_start ON events (session_id, start_time)`,
}

// EnsureSchema creates the events table and its indexes when missing. Safe to
// run on every start.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range schemaStatements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}
