package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned by lookups when no matching row exists.
	// Absence is a normal outcome; callers branch on errors.Is.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when an insert or update violates a unique
	// constraint (username or email already taken).
	ErrConflict = errors.New("store: conflict")
)

const pgUniqueViolation = "23505"

// mapErr translates driver-level errors into the store's sentinel errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrConflict
	}
	return err
}
