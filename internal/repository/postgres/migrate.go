package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaSQL creates the profiles table and the indexes the candidate query
// uses. It is idempotent.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS profiles (
    id         BIGSERIAL PRIMARY KEY,
    child_age  INTEGER NOT NULL,
    city       VARCHAR NOT NULL,
    strengths  TEXT,
    needs      TEXT,
    notes      TEXT
);

CREATE INDEX IF NOT EXISTS ix_profiles_city ON profiles (city);
CREATE INDEX IF NOT EXISTS ix_profiles_child_age ON profiles (child_age);
`

// EnsureSchema applies SchemaSQL.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
