package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin creates the bootstrap admin account, or resets its password
// and role when the email is already registered.
func EnsureAdmin(ctx context.Context, db *sql.DB, email, password string) (created bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	var id string
	err = db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), "Administrator", email, string(hash), "admin", time.Now().UTC(),
		)
		return err == nil, err
	case err != nil:
		return false, err
	}

	_, err = db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, role = $2
		WHERE id = $3`,
		string(hash), "admin", id,
	)
	return false, err
}
