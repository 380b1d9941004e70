package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hollowtree/userhub/internal/reqerror"
	"github.com/hollowtree/userhub/internal/user/entity"
)

// UserRepo mediates all account reads and mutations. Mutations go through
// the store's procedures, which own uniqueness and credential checks; their
// numeric return codes are the authoritative outcome and are mapped to
// domain errors here.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// scanReturnCode reads a single-column procedure result, failing fast when
// the row shape is not what the contract promises.
func scanReturnCode(row *sqlx.Row) (int, error) {
	var code sql.NullInt64
	if err := row.Scan(&code); err != nil {
		return 0, fmt.Errorf("stored procedure result: %w", err)
	}
	if !code.Valid {
		return 0, reqerror.Internal("unexpected response from stored procedure")
	}
	return int(code.Int64), nil
}

// AddUser creates an account via sp_sign_up. passwordHash is the bcrypt
// hash produced by the service layer; the raw password never reaches the
// store on this path.
func (r *UserRepo) AddUser(ctx context.Context, email string, username *string, passwordHash string) error {
	const q = `SELECT sp_sign_up($1, $2, $3)`
	code, err := scanReturnCode(r.db.QueryRowxContext(ctx, q, username, email, passwordHash))
	if err != nil {
		return err
	}
	switch code {
	case 0:
		return nil
	case -1:
		return reqerror.BadRequest("email and password are required")
	case -2:
		return reqerror.Conflict("email already exists")
	case -3:
		return reqerror.Conflict("username already exists")
	case -4:
		return reqerror.Internal("an unexpected error occurred during signup")
	default:
		return reqerror.Internal("unknown error occurred during signup")
	}
}

// FindUser matches accounts by username or email, case-insensitively. At
// least one of the two must be set. A nil slice means no match; listing
// callers must not confuse this with an empty result.
func (r *UserRepo) FindUser(ctx context.Context, username, email *string) ([]entity.User, error) {
	if username == nil && email == nil {
		return nil, reqerror.BadRequest("username or email must be provided")
	}
	const q = `SELECT user_id, username, email FROM t_users
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2)`
	var users []entity.User
	if err := r.db.SelectContext(ctx, &users, q, username, email); err != nil {
		return nil, fmt.Errorf("check for user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users, nil
}

// ListUsers returns every account's public fields. No match is an empty
// slice, not nil.
func (r *UserRepo) ListUsers(ctx context.Context) ([]entity.User, error) {
	const q = `SELECT user_id, username, email FROM t_users`
	users := []entity.User{}
	if err := r.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Login runs sp_login, which checks credentials and records the token
// digest in one atomic call, and returns the authenticated user's ID.
func (r *UserRepo) Login(ctx context.Context, identifier, password string, tokenDigest []byte) (int64, error) {
	const q = `SELECT return_code, user_id FROM sp_login($1, $2, $3)`
	var row struct {
		ReturnCode sql.NullInt64 `db:"return_code"`
		UserID     sql.NullInt64 `db:"user_id"`
	}
	if err := r.db.GetContext(ctx, &row, q, identifier, password, tokenDigest); err != nil {
		return 0, fmt.Errorf("execute sp_login: %w", err)
	}
	if !row.ReturnCode.Valid {
		return 0, reqerror.Internal("unexpected response from login query")
	}
	switch row.ReturnCode.Int64 {
	case 0:
		// A success code without an identity is a contract violation,
		// never a session.
		if !row.UserID.Valid {
			return 0, reqerror.Internal("unexpected response from login query")
		}
		return row.UserID.Int64, nil
	case -1:
		return 0, reqerror.Unauthorized("invalid username/email or password")
	case -2:
		return 0, reqerror.Internal("a database error occurred during login")
	default:
		return 0, reqerror.Internal("an unexpected error occurred during login")
	}
}

// EditUser updates account fields via sp_edit_user. The store re-validates
// the token digest server-side on top of the middleware check and enforces
// uniqueness of the new values.
func (r *UserRepo) EditUser(ctx context.Context, tokenDigest []byte, newUsername, newPasswordHash, newEmail *string) error {
	const q = `SELECT sp_edit_user($1, $2, $3, $4)`
	code, err := scanReturnCode(r.db.QueryRowxContext(ctx, q, tokenDigest, newUsername, newPasswordHash, newEmail))
	if err != nil {
		return err
	}
	switch code {
	case 0:
		return nil
	case -1:
		return reqerror.Unauthorized("invalid or expired token")
	case -2:
		return reqerror.Conflict("username already exists")
	case -3:
		return reqerror.Conflict("email already exists")
	case -4:
		return reqerror.Internal("unexpected error occurred during user edit")
	default:
		return reqerror.Internal("unknown error occurred in edit user query")
	}
}
