package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrTagAssigned is returned when a tag is already linked to another
	// crew member (crew_member.tag_id unique violation).
	ErrTagAssigned = errors.New("tag is already assigned to another crew member")
)

// uniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, optionally on a specific constraint name.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
