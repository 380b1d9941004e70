package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// NOTE: expected table schema (Postgres):
// CREATE TABLE users_tokens (
//   token BYTEA PRIMARY KEY,
//   user_id BIGINT,
//   token_valid_date TIMESTAMPTZ NOT NULL
// );
// Rows are normally inserted by sp_login as part of the atomic
// credentials-and-token call; this repo only reads them back.

// TokenRepo answers validity queries for persisted token digests.
type TokenRepo struct {
	db *sqlx.DB
}

func NewTokenRepo(db *sqlx.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// IsValid reports whether a record exists for digest with an expiry still in
// the future. A missing record and an expired record are both plain false;
// callers cannot tell them apart.
func (r *TokenRepo) IsValid(ctx context.Context, digest []byte) (bool, error) {
	const q = `SELECT COUNT(*) > 0 FROM users_tokens WHERE token = $1 AND token_valid_date > NOW()`
	var valid bool
	if err := r.db.GetContext(ctx, &valid, q, digest); err != nil {
		return false, fmt.Errorf("validate token digest: %w", err)
	}
	return valid, nil
}

// Record persists a digest with its expiry. Login records digests through
// sp_login; this direct path exists for maintenance tooling and tests.
func (r *TokenRepo) Record(ctx context.Context, digest []byte, expiry time.Time) error {
	const q = `INSERT INTO users_tokens (token, token_valid_date) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, q, digest, expiry); err != nil {
		return fmt.Errorf("record token digest: %w", err)
	}
	return nil
}
