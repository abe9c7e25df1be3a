// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/gastobot/gastobot/internal/models"
	"github.com/gastobot/gastobot/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// parseAmount reads a TEXT amount column back into a decimal.
func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", raw, err)
	}
	return d, nil
}

// GetParticipantByPhone looks a participant up by contact channel.
func (s *SQLiteStore) GetParticipantByPhone(ctx context.Context, phone string) (*models.Participant, error) {
	return s.getParticipant(ctx, "phone = ?", phone)
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	return s.getParticipant(ctx, "id = ?", id)
}

func (s *SQLiteStore) getParticipant(ctx context.Context, where string, arg any) (*models.Participant, error) {
	p := &models.Participant{}
	var mode string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, phone, email, active_group_id, active_mode, welcomed_at, created_at FROM participants WHERE "+where,
		arg,
	).Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.ActiveGroupID, &mode, &p.WelcomedAt, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	p.ActiveMode = models.Mode(mode)

	rows, err := s.db.QueryContext(ctx,
		"SELECT alias FROM participant_aliases WHERE participant_id = ? ORDER BY alias", p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get aliases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		p.Aliases = append(p.Aliases, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aliases: %w", err)
	}
	return p, nil
}

// CreateParticipant persists a new participant.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO participants (id, name, phone, email, active_group_id, active_mode, welcomed_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Name, p.Phone, p.Email, p.ActiveGroupID, string(p.ActiveMode), p.WelcomedAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	for _, alias := range p.Aliases {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO participant_aliases (participant_id, alias) VALUES (?, ?)", p.ID, alias); err != nil {
			return fmt.Errorf("failed to insert alias: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetActiveGroup updates the participant's default group.
func (s *SQLiteStore) SetActiveGroup(ctx context.Context, participantID, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE participants SET active_group_id = ? WHERE id = ?", groupID, participantID)
	if err != nil {
		return fmt.Errorf("failed to set active group: %w", err)
	}
	return nil
}

// SetActiveMode updates the participant's message-routing mode.
func (s *SQLiteStore) SetActiveMode(ctx context.Context, participantID string, mode models.Mode) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE participants SET active_mode = ? WHERE id = ?", string(mode), participantID)
	if err != nil {
		return fmt.Errorf("failed to set active mode: %w", err)
	}
	return nil
}

// MarkWelcomed records that the welcome message was sent.
func (s *SQLiteStore) MarkWelcomed(ctx context.Context, participantID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE participants SET welcomed_at = ? WHERE id = ?", at.Unix(), participantID)
	if err != nil {
		return fmt.Errorf("failed to mark welcomed: %w", err)
	}
	return nil
}
