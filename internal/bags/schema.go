package bags

import (
	"context"
	"fmt"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS bags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    identifier TEXT NOT NULL UNIQUE,
    origin TEXT NOT NULL DEFAULT '',
    local_path TEXT,
    derived_identifier TEXT,
    title TEXT,
    display_date TEXT,
    pdf_path TEXT,
    status TEXT NOT NULL,
    error_message TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

var createIndexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_bags_status ON bags(status)`,
	`CREATE INDEX IF NOT EXISTS idx_bags_derived_identifier ON bags(derived_identifier)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create bags table: %w", err)
	}
	for _, stmt := range createIndexSQL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
