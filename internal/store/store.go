// Package store provides database access with row-level team isolation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "github.com/lib/pq"
	"github.com/samhotchkiss/raid-ledger/internal/middleware"
)

var (
	// ErrNoTeam is returned when a team ID is required but not present.
	ErrNoTeam = errors.New("team ID not found in context")
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrForbidden is returned when access to an entity is denied.
	ErrForbidden = errors.New("access denied")
)

var (
	globalDB     *sql.DB
	globalDBErr  error
	globalDBOnce sync.Once
)

// DB returns the shared database connection pool.
func DB() (*sql.DB, error) {
	globalDBOnce.Do(func() {
		dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
		if dbURL == "" {
			globalDBErr = errors.New("DATABASE_URL is not set")
			return
		}

		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			globalDBErr = err
			return
		}

		if err := db.Ping(); err != nil {
			_ = db.Close()
			globalDBErr = err
			return
		}

		globalDB = db
	})

	return globalDB, globalDBErr
}

// WithTeam sets the app.team_id session variable for RLS policies.
// This must be called before any query that uses RLS-protected tables.
func WithTeam(ctx context.Context, db *sql.DB) (*sql.Conn, error) {
	teamID := middleware.TeamFromContext(ctx)
	if teamID == "" {
		return nil, ErrNoTeam
	}
	return WithTeamID(ctx, db, teamID)
}

// WithTeamID sets the app.team_id session variable for RLS policies using
// an explicit team ID instead of extracting from context. Useful for the
// websocket feed, which carries the team id in its frames rather than in
// request context.
func WithTeamID(ctx context.Context, db *sql.DB, teamID string) (*sql.Conn, error) {
	if teamID == "" {
		return nil, ErrNoTeam
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	_, err = conn.ExecContext(ctx, "SET LOCAL app.team_id = $1", teamID)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set team: %w", err)
	}

	return conn, nil
}

// WithTeamTx starts a transaction with the team context set.
// The caller must commit or rollback the transaction.
func WithTeamTx(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	teamID := middleware.TeamFromContext(ctx)
	if teamID == "" {
		return nil, ErrNoTeam
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, "SET LOCAL app.team_id = $1", teamID)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to set team: %w", err)
	}

	return tx, nil
}

// Querier is an interface for database query execution.
// *sql.DB, *sql.Conn, and *sql.Tx all implement this interface.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
