package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsExclusionViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pgx exclusion", err: &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_approved_overlap"}, want: true},
		{name: "pgx exclusion wrapped", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_approved_overlap"}), constraint: "bookings_no_approved_overlap", want: true},
		{name: "pgx other constraint", err: &pgconn.PgError{Code: "23P01", ConstraintName: "other"}, constraint: "bookings_no_approved_overlap", want: false},
		{name: "pgx unique", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "pq exclusion", err: &pq.Error{Code: "23P01", Constraint: "bookings_no_approved_overlap"}, want: true},
		{name: "plain text", err: errors.New(`ERROR: conflicting key value violates exclusion constraint "bookings_no_approved_overlap"`), want: true},
		{name: "unrelated", err: errors.New("boom"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsExclusionViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsExclusionViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}, "users_pkey") {
		t.Fatalf("expected pgx unique violation to match")
	}
	if !IsUniqueViolation(errors.New("duplicate key value violates unique constraint"), "") {
		t.Fatalf("expected text fallback to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23P01"}, "") {
		t.Fatalf("exclusion violation should not match unique")
	}
}
