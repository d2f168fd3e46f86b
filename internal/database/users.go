package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// User is an operator account. PasswordHash is a bcrypt digest; the
// plaintext never touches the database.
type User struct {
	ID           int
	Username     string
	PasswordHash string
}

// GetUserByUsername loads an operator account for login.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := db.Pool.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
