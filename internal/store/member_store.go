package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samhotchkiss/raid-ledger/internal/middleware"
	"github.com/samhotchkiss/raid-ledger/internal/progress"
)

// Member represents a team member's persisted progress snapshot.
type Member struct {
	TeamID      string          `json:"team_id"`
	MemberID    string          `json:"member_id"`
	DisplayName *string         `json:"display_name,omitempty"`
	Level       int             `json:"level"`
	GameEdition int             `json:"game_edition"`
	PMCFaction  *string         `json:"pmc_faction,omitempty"`
	Progress    json.RawMessage `json:"progress"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// State decodes the persisted progress blob into a MemberState, layering
// the profile columns on top.
func (m Member) State() (*progress.MemberState, error) {
	raw := m.Progress
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	state, err := progress.DecodeMemberState(raw)
	if err != nil {
		return nil, err
	}
	state.ID = m.MemberID
	if m.DisplayName != nil {
		state.DisplayName = *m.DisplayName
	}
	state.Level = m.Level
	state.GameEdition = m.GameEdition
	if m.PMCFaction != nil {
		state.PMCFaction = *m.PMCFaction
	}
	return state, nil
}

// MemberStore provides team-isolated access to member progress rows.
type MemberStore struct {
	db *sql.DB
}

// NewMemberStore creates a new MemberStore with the given database
// connection.
func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

const memberSelectColumns = "team_id, member_id, display_name, level, game_edition, pmc_faction, progress, updated_at"

// Get retrieves one member's row within the current team.
func (s *MemberStore) Get(ctx context.Context, memberID string) (*Member, error) {
	teamID := middleware.TeamFromContext(ctx)
	if teamID == "" {
		return nil, ErrNoTeam
	}

	conn, err := WithTeam(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "SELECT " + memberSelectColumns + " FROM team_members WHERE team_id = $1 AND member_id = $2"
	member, err := scanMember(conn.QueryRowContext(ctx, query, teamID, memberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return &member, nil
}

// List retrieves every member row in the current team.
func (s *MemberStore) List(ctx context.Context) ([]Member, error) {
	teamID := middleware.TeamFromContext(ctx)
	if teamID == "" {
		return nil, ErrNoTeam
	}

	conn, err := WithTeam(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "SELECT " + memberSelectColumns + " FROM team_members WHERE team_id = $1 ORDER BY member_id"
	rows, err := conn.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read members: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}

	return members, nil
}

// Upsert writes a member's full progress snapshot.
func (s *MemberStore) Upsert(ctx context.Context, state *progress.MemberState) error {
	teamID := middleware.TeamFromContext(ctx)
	if teamID == "" {
		return ErrNoTeam
	}

	raw, err := state.Encode()
	if err != nil {
		return err
	}

	conn, err := WithTeam(ctx, s.db)
	if err != nil {
		return err
	}
	defer conn.Close()

	query := `INSERT INTO team_members (team_id, member_id, display_name, level, game_edition, pmc_faction, progress, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	ON CONFLICT (team_id, member_id) DO UPDATE SET
		display_name = EXCLUDED.display_name,
		level = EXCLUDED.level,
		game_edition = EXCLUDED.game_edition,
		pmc_faction = EXCLUDED.pmc_faction,
		progress = EXCLUDED.progress,
		updated_at = NOW()`

	_, err = conn.ExecContext(ctx, query,
		teamID,
		state.ID,
		nullableString(state.DisplayName),
		state.Level,
		state.GameEdition,
		nullableString(state.PMCFaction),
		raw,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}

	return nil
}

// Delete removes a member's row from the current team.
func (s *MemberStore) Delete(ctx context.Context, memberID string) error {
	teamID := middleware.TeamFromContext(ctx)
	if teamID == "" {
		return ErrNoTeam
	}

	conn, err := WithTeam(ctx, s.db)
	if err != nil {
		return err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, "DELETE FROM team_members WHERE team_id = $1 AND member_id = $2", teamID, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (Member, error) {
	var member Member
	err := row.Scan(
		&member.TeamID,
		&member.MemberID,
		&member.DisplayName,
		&member.Level,
		&member.GameEdition,
		&member.PMCFaction,
		&member.Progress,
		&member.UpdatedAt,
	)
	return member, err
}

// nullableString converts a string to a sql-compatible value, mapping empty
// to NULL.
func nullableString(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
