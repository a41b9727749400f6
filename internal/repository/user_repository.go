package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-catalog-api/internal/model"
)

// UserRepo is the credential store backed by the `users` table.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo wraps db.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email_address,display_name,password_hash,created_at,updated_at"

// Create inserts u, whose PasswordHash must already be set, and fills in its
// ID.  Missing required fields yield a *ValidationError before any SQL runs;
// a taken username yields ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.EmailAddress = strings.TrimSpace(u.EmailAddress)
	var missing []string
	if u.Username == "" {
		missing = append(missing, "username")
	}
	if u.EmailAddress == "" {
		missing = append(missing, "emailAddress")
	}
	if u.PasswordHash == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email_address, display_name, password_hash) VALUES (?,?,?,?)",
		u.Username, u.EmailAddress, u.DisplayName, u.PasswordHash)
	if err != nil {
		if mysqlErrNumber(err) == mysqlDuplicateEntry {
			return ErrUsernameExists
		}
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		strings.TrimSpace(username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Username, &u.EmailAddress, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
