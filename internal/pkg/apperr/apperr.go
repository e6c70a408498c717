package apperr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is the generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized covers auth failures, including webhook secret mismatch.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict marks attempts to create an already-present row.
	ErrConflict = errors.New("conflict")
	// ErrInvalidProviderRecord marks provider payloads missing id or name.
	ErrInvalidProviderRecord = errors.New("invalid provider record")
)

// IsNotFound also folds gorm's record-not-found into the sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// failure (23505), used to map racy inserts onto ErrConflict.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
