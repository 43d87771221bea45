package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_models (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	horizon    INTEGER NOT NULL,
	forecast   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS saved_models_created_at_idx ON saved_models (created_at DESC);
`

// Migrate creates the tables the server needs if they do not exist yet.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Println("[DB] Schema ready")
	return nil
}
