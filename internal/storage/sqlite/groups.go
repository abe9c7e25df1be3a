package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gastobot/gastobot/internal/models"
	"github.com/gastobot/gastobot/internal/storage"
)

// GetGroup retrieves a group with members and ghosts.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	g := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM groups WHERE id = ?", groupID,
	).Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if err := s.loadGroupMembers(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *SQLiteStore) loadGroupMembers(ctx context.Context, g *models.Group) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_id FROM group_members WHERE group_id = ? ORDER BY participant_id", g.ID)
	if err != nil {
		return fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		g.Members = append(g.Members, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}

	ghostRows, err := s.db.QueryContext(ctx,
		"SELECT ghost_id, name FROM group_ghosts WHERE group_id = ? ORDER BY name", g.ID)
	if err != nil {
		return fmt.Errorf("failed to get ghosts: %w", err)
	}
	defer ghostRows.Close()
	for ghostRows.Next() {
		var gh models.GhostMember
		if err := ghostRows.Scan(&gh.ID, &gh.Name); err != nil {
			return fmt.Errorf("failed to scan ghost: %w", err)
		}
		g.Ghosts = append(g.Ghosts, gh)
	}
	if err := ghostRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate ghosts: %w", err)
	}
	return nil
}

// CreateGroup persists a new group with its members and ghosts.
func (s *SQLiteStore) CreateGroup(ctx context.Context, g *models.Group) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt == 0 {
		g.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
		g.ID, g.Name, g.CreatedBy, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	for _, m := range g.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, participant_id) VALUES (?, ?)", g.ID, m); err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}
	for i := range g.Ghosts {
		if g.Ghosts[i].ID == "" {
			g.Ghosts[i].ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO group_ghosts (ghost_id, group_id, name) VALUES (?, ?, ?)",
			g.Ghosts[i].ID, g.ID, g.Ghosts[i].Name); err != nil {
			return fmt.Errorf("failed to insert ghost: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GroupsByMember returns every group the participant belongs to.
func (s *SQLiteStore) GroupsByMember(ctx context.Context, participantID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.participant_id = ? ORDER BY g.created_at`, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		g, err := s.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// GroupMembers returns the participant records for a group's members.
// Ghost members are included as name-only participants so mention matching
// sees the full roster.
func (s *SQLiteStore) GroupMembers(ctx context.Context, groupID string) ([]*models.Participant, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members := make([]*models.Participant, 0, len(g.Members)+len(g.Ghosts))
	for _, id := range g.Members {
		p, err := s.GetParticipant(ctx, id)
		if err == storage.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		members = append(members, p)
	}
	for _, gh := range g.Ghosts {
		members = append(members, &models.Participant{ID: gh.ID, Name: gh.Name})
	}
	return members, nil
}

// MergeGhost claims a ghost member into a real participant. All expense and
// payment references to the ghost id are rewritten inside one transaction so
// a failure leaves no partial state behind.
func (s *SQLiteStore) MergeGhost(ctx context.Context, groupID, ghostID, participantID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM group_ghosts WHERE ghost_id = ? AND group_id = ?", ghostID, groupID)
	if err != nil {
		return fmt.Errorf("failed to remove ghost: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_id, participant_id) VALUES (?, ?)",
		groupID, participantID); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE expenses SET payer_id = ? WHERE payer_id = ? AND group_id = ?",
		participantID, ghostID, groupID); err != nil {
		return fmt.Errorf("failed to rewrite expense payers: %w", err)
	}

	// The participant may already be in a split the ghost is also in;
	// delete first so the rewrite cannot violate the primary key.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM expense_splits WHERE participant_id = ? AND expense_id IN
		   (SELECT expense_id FROM expense_splits WHERE participant_id = ?)`,
		participantID, ghostID); err != nil {
		return fmt.Errorf("failed to dedupe splits: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE expense_splits SET participant_id = ? WHERE participant_id = ?",
		participantID, ghostID); err != nil {
		return fmt.Errorf("failed to rewrite splits: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE payments SET from_id = ? WHERE from_id = ? AND group_id = ?",
		participantID, ghostID, groupID); err != nil {
		return fmt.Errorf("failed to rewrite payment senders: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE payments SET to_id = ? WHERE to_id = ? AND group_id = ?",
		participantID, ghostID, groupID); err != nil {
		return fmt.Errorf("failed to rewrite payment receivers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
