package infra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/Vovarama1992/voicecheck/internal/ports"
)

func TestMapPgUnique(t *testing.T) {
	other := errors.New("connection refused")
	fkViolation := &pgconn.PgError{Code: "23503", ConstraintName: "voice_analyses_user_id_fkey"}
	unknownUnique := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_pkey"}

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"username", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_username_key"}, ports.ErrDuplicateUsername},
		{"email", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_key"}, ports.ErrDuplicateEmail},
		{"wrapped email", fmt.Errorf("scan: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_key"}), ports.ErrDuplicateEmail},
		{"other unique constraint", unknownUnique, unknownUnique},
		{"foreign key", fkViolation, fkViolation},
		{"plain error", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Same(t, tc.want, mapPgUnique(tc.in))
		})
	}

	assert.NoError(t, mapPgUnique(nil))
}

func TestSchemaNamesUniqueConstraints(t *testing.T) {
	assert.Contains(t, postgresSchema, "CONSTRAINT users_username_key UNIQUE (username)")
	assert.Contains(t, postgresSchema, "CONSTRAINT users_email_key UNIQUE (email)")
}
