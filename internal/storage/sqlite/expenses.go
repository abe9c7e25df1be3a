package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gastobot/gastobot/internal/models"
)

// CreateExpense persists a new expense with its split list.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var original sql.NullString
	if e.OriginalAmount != nil {
		original = sql.NullString{String: e.OriginalAmount.String(), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, payer_name, amount, original_amount, original_currency, description, category, original_input, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.PayerID, e.PayerName, e.Amount.String(), original,
		e.OriginalCurrency, e.Description, e.Category, e.OriginalInput, e.Source, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, id := range e.SplitAmong {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, participant_id) VALUES (?, ?)", e.ID, id); err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExpensesByGroup returns a group's expenses, newest first. limit <= 0 returns all.
func (s *SQLiteStore) ExpensesByGroup(ctx context.Context, groupID string, limit int) ([]*models.Expense, error) {
	q := `SELECT id, group_id, payer_id, payer_name, amount, original_amount, original_currency, description, category, original_input, source, created_at
	      FROM expenses WHERE group_id = ? ORDER BY created_at DESC`
	args := []any{groupID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e := &models.Expense{}
		var amount string
		var original sql.NullString
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.PayerName, &amount, &original,
			&e.OriginalCurrency, &e.Description, &e.Category, &e.OriginalInput, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if e.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if original.Valid {
			d, err := parseAmount(original.String)
			if err != nil {
				return nil, err
			}
			e.OriginalAmount = &d
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, e := range expenses {
		splitRows, err := s.db.QueryContext(ctx,
			"SELECT participant_id FROM expense_splits WHERE expense_id = ? ORDER BY participant_id", e.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query splits: %w", err)
		}
		for splitRows.Next() {
			var id string
			if err := splitRows.Scan(&id); err != nil {
				splitRows.Close()
				return nil, fmt.Errorf("failed to scan split: %w", err)
			}
			e.SplitAmong = append(e.SplitAmong, id)
		}
		splitRows.Close()
		if err := splitRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate splits: %w", err)
		}
	}
	return expenses, nil
}

// CreatePayment persists a new payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO payments (id, group_id, from_id, to_id, amount, recorded_by, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.GroupID, p.FromID, p.ToID, p.Amount.String(), p.RecordedBy, p.Note, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// PaymentsByGroup returns a group's payments, newest first.
func (s *SQLiteStore) PaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, from_id, to_id, amount, recorded_by, note, created_at
		 FROM payments WHERE group_id = ? ORDER BY created_at DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		var amount string
		if err := rows.Scan(&p.ID, &p.GroupID, &p.FromID, &p.ToID, &amount, &p.RecordedBy, &p.Note, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if p.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
