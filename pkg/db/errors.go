package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation. When constraintName is provided, the constraint must match.
func IsUniqueViolation(err error, constraintName string) bool {
	return matchesSQLState(err, pgUniqueViolation, constraintName, "duplicate key value")
}

// IsExclusionViolation reports whether err is a Postgres exclusion constraint
// violation, optionally restricted to constraintName.
func IsExclusionViolation(err error, constraintName string) bool {
	return matchesSQLState(err, pgExclusionViolation, constraintName, "conflicting key value violates exclusion constraint")
}

func matchesSQLState(err error, state, constraintName, fallbackText string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == state && (constraintName == "" || pgxErr.ConstraintName == constraintName)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == state && (constraintName == "" || pqErr.Constraint == constraintName)
	}

	msg := err.Error()
	if !strings.Contains(msg, fallbackText) {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
