package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samhotchkiss/raid-ledger/internal/middleware"
	"github.com/samhotchkiss/raid-ledger/internal/team"
)

// OverlayStore persists per-viewer visibility overlays.
type OverlayStore struct {
	db *sql.DB
}

// NewOverlayStore creates a new OverlayStore with the given database
// connection.
func NewOverlayStore(db *sql.DB) *OverlayStore {
	return &OverlayStore{db: db}
}

// Get retrieves a viewer's overlay within the current team. A missing row
// is an empty overlay, not an error.
func (s *OverlayStore) Get(ctx context.Context, viewerID string) (team.Overlay, error) {
	teamID := middleware.TeamFromContext(ctx)
	if teamID == "" {
		return team.Overlay{}, ErrNoTeam
	}

	conn, err := WithTeam(ctx, s.db)
	if err != nil {
		return team.Overlay{}, err
	}
	defer conn.Close()

	var hiddenRaw []byte
	var hideAll bool
	query := "SELECT hidden_ids, hide_all FROM visibility_overlays WHERE team_id = $1 AND viewer_id = $2"
	err = conn.QueryRowContext(ctx, query, teamID, viewerID).Scan(&hiddenRaw, &hideAll)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return team.Overlay{}, nil
		}
		return team.Overlay{}, fmt.Errorf("failed to get overlay: %w", err)
	}

	var hiddenIDs []string
	if len(hiddenRaw) > 0 {
		if err := json.Unmarshal(hiddenRaw, &hiddenIDs); err != nil {
			return team.Overlay{}, fmt.Errorf("failed to decode overlay: %w", err)
		}
	}

	overlay := team.Overlay{HideAll: hideAll}
	if len(hiddenIDs) > 0 {
		overlay.HiddenIDs = make(map[string]struct{}, len(hiddenIDs))
		for _, id := range hiddenIDs {
			overlay.HiddenIDs[id] = struct{}{}
		}
	}
	return overlay, nil
}

// Put writes a viewer's overlay within the current team.
func (s *OverlayStore) Put(ctx context.Context, viewerID string, overlay team.Overlay) error {
	teamID := middleware.TeamFromContext(ctx)
	if teamID == "" {
		return ErrNoTeam
	}

	hiddenIDs := make([]string, 0, len(overlay.HiddenIDs))
	for id := range overlay.HiddenIDs {
		hiddenIDs = append(hiddenIDs, id)
	}
	hiddenRaw, err := json.Marshal(hiddenIDs)
	if err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}

	conn, err := WithTeam(ctx, s.db)
	if err != nil {
		return err
	}
	defer conn.Close()

	query := `INSERT INTO visibility_overlays (team_id, viewer_id, hidden_ids, hide_all, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (team_id, viewer_id) DO UPDATE SET
		hidden_ids = EXCLUDED.hidden_ids,
		hide_all = EXCLUDED.hide_all,
		updated_at = NOW()`

	if _, err := conn.ExecContext(ctx, query, teamID, viewerID, hiddenRaw, overlay.HideAll); err != nil {
		return fmt.Errorf("failed to put overlay: %w", err)
	}

	return nil
}
