package infra

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vovarama1992/voicecheck/internal/ports"
)

//go:embed postgres_schema.sql
var postgresSchema string

const pgUniqueViolation = "23505"

// NewPgxPool connects and pings within five seconds.
func NewPgxPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect pgxpool: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

type PostgresMigrator struct {
	pool *pgxpool.Pool
}

func NewPostgresMigrator(pool *pgxpool.Pool) ports.Migrator {
	return &PostgresMigrator{pool: pool}
}

// Migrate creates missing tables; it is safe to run on every start.
func (m *PostgresMigrator) Migrate(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

func mapPgUnique(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		return ports.ErrDuplicateUsername
	case "users_email_key":
		return ports.ErrDuplicateEmail
	}
	return err
}
