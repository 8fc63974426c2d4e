package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolationCode    = "23505"
	exclusionViolationCode = "23P01"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation, optionally narrowed to a named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolationCode {
		return false
	}

	return constraint == "" || pqErr.Constraint == constraint
}

// isExclusionViolation reports whether err is a postgres exclusion-constraint
// violation, optionally narrowed to a named constraint.
func isExclusionViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != exclusionViolationCode {
		return false
	}

	return constraint == "" || pqErr.Constraint == constraint
}
