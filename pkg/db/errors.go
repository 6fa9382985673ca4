package db

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ErrConstraintViolation is matched by every ConstraintViolationError.
var ErrConstraintViolation = errors.New("constraint violation")

// ErrNoSearchIndex is returned when the store has no word_fts table.
var ErrNoSearchIndex = errors.New("search index word_fts does not exist")

// ConstraintViolationError reports a write the store rejected.
type ConstraintViolationError struct{ Err error }

func (e *ConstraintViolationError) Error() string { return "constraint violation: " + e.Err.Error() }

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

func (e *ConstraintViolationError) Is(target error) bool { return target == ErrConstraintViolation }

// classifyErr wraps SQLite constraint failures into ConstraintViolationError.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return &ConstraintViolationError{Err: err}
	}
	return err
}
