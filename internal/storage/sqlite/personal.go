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

// CategoriesByOwner returns the owner's categories, sorted by name.
func (s *SQLiteStore) CategoriesByOwner(ctx context.Context, ownerID string, includeDeleted bool) ([]*models.Category, error) {
	q := "SELECT id, owner_id, name, color, deleted_at FROM categories WHERE owner_id = ?"
	if !includeDeleted {
		q += " AND deleted_at = 0"
	}
	q += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var cats []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return cats, nil
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	c := &models.Category{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, color, deleted_at FROM categories WHERE id = ?", id,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// CreateCategory persists a new category.
func (s *SQLiteStore) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, owner_id, name, color, deleted_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.OwnerID, c.Name, c.Color, c.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// SoftDeleteCategory tombstones a category without removing it.
func (s *SQLiteStore) SoftDeleteCategory(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET deleted_at = ? WHERE id = ? AND deleted_at = 0", at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const personalColumns = `id, owner_id, title, description, amount, category_id, payment_type, recurrent_id,
	is_paid, paid_at, due_at, source, needs_revision,
	recipient_name, recipient_cbu, recipient_alias, recipient_bank, transcription, created_at`

// CreatePersonalPayment persists a personal payment record.
func (s *SQLiteStore) CreatePersonalPayment(ctx context.Context, p *models.PersonalPayment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	if p.Type == "" {
		p.Type = models.PaymentOneTime
	}

	var rName, rCBU, rAlias, rBank string
	if p.Recipient != nil {
		rName, rCBU, rAlias, rBank = p.Recipient.Name, p.Recipient.CBU, p.Recipient.Alias, p.Recipient.Bank
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO personal_payments (`+personalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Title, p.Description, p.Amount.String(), p.CategoryID, string(p.Type), p.RecurrentID,
		p.IsPaid, p.PaidAt, p.DueAt, p.Source, p.NeedsRevision,
		rName, rCBU, rAlias, rBank, p.Transcription, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert personal payment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) queryPersonalPayments(ctx context.Context, q string, args ...any) ([]*models.PersonalPayment, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query personal payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.PersonalPayment
	for rows.Next() {
		p := &models.PersonalPayment{}
		var amount, ptype string
		var rName, rCBU, rAlias, rBank string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &amount, &p.CategoryID, &ptype, &p.RecurrentID,
			&p.IsPaid, &p.PaidAt, &p.DueAt, &p.Source, &p.NeedsRevision,
			&rName, &rCBU, &rAlias, &rBank, &p.Transcription, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan personal payment: %w", err)
		}
		if p.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		p.Type = models.PaymentType(ptype)
		if rName != "" || rCBU != "" || rAlias != "" || rBank != "" {
			p.Recipient = &models.Recipient{Name: rName, CBU: rCBU, Alias: rAlias, Bank: rBank}
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate personal payments: %w", err)
	}
	return payments, nil
}

// PersonalPaymentsByOwner returns the owner's payments created within [from, to),
// newest first. Zero times mean unbounded.
func (s *SQLiteStore) PersonalPaymentsByOwner(ctx context.Context, ownerID string, from, to time.Time) ([]*models.PersonalPayment, error) {
	q := "SELECT " + personalColumns + " FROM personal_payments WHERE owner_id = ?"
	args := []any{ownerID}
	if !from.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		q += " AND created_at < ?"
		args = append(args, to.Unix())
	}
	q += " ORDER BY created_at DESC"
	return s.queryPersonalPayments(ctx, q, args...)
}

// RecentPersonalPayments returns the owner's most recent payments.
func (s *SQLiteStore) RecentPersonalPayments(ctx context.Context, ownerID string, limit int) ([]*models.PersonalPayment, error) {
	return s.queryPersonalPayments(ctx,
		"SELECT "+personalColumns+" FROM personal_payments WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?",
		ownerID, limit)
}

// PersonalPaymentsByRecipient returns the owner's most recent payments to a
// recipient matched by name or CBU.
func (s *SQLiteStore) PersonalPaymentsByRecipient(ctx context.Context, ownerID, name, cbu string, limit int) ([]*models.PersonalPayment, error) {
	switch {
	case name != "":
		return s.queryPersonalPayments(ctx,
			"SELECT "+personalColumns+" FROM personal_payments WHERE owner_id = ? AND recipient_name = ? ORDER BY created_at DESC LIMIT ?",
			ownerID, name, limit)
	case cbu != "":
		return s.queryPersonalPayments(ctx,
			"SELECT "+personalColumns+" FROM personal_payments WHERE owner_id = ? AND recipient_cbu = ? ORDER BY created_at DESC LIMIT ?",
			ownerID, cbu, limit)
	default:
		return nil, nil
	}
}

// RecurrentsByOwner returns the owner's recurring expense templates.
func (s *SQLiteStore) RecurrentsByOwner(ctx context.Context, ownerID string) ([]*models.Recurrent, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, title, amount, category_id, due_day FROM recurrents WHERE owner_id = ? ORDER BY due_day", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurrents: %w", err)
	}
	defer rows.Close()

	var recurrents []*models.Recurrent
	for rows.Next() {
		r := &models.Recurrent{}
		var amount string
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Title, &amount, &r.CategoryID, &r.DueDay); err != nil {
			return nil, fmt.Errorf("failed to scan recurrent: %w", err)
		}
		if r.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		recurrents = append(recurrents, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurrents: %w", err)
	}
	return recurrents, nil
}

// CreateRecurrent persists a recurring expense template.
func (s *SQLiteStore) CreateRecurrent(ctx context.Context, r *models.Recurrent) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO recurrents (id, owner_id, title, amount, category_id, due_day) VALUES (?, ?, ?, ?, ?, ?)",
		r.ID, r.OwnerID, r.Title, r.Amount.String(), r.CategoryID, r.DueDay,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recurrent: %w", err)
	}
	return nil
}
