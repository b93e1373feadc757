package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hisaabhub/hisaabhub/internal/models"
	"github.com/hisaabhub/hisaabhub/internal/storage"
)

// querier is satisfied by both *sql.DB and *sql.Tx so expense loading can
// run standalone or inside a snapshot transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateExpense persists an expense with its shares and payer rows in one
// transaction. A single payment is stored in the expenses.paid_by column;
// multiple payments go to expense_payers with paid_by left NULL.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	expense.Active = true

	multiplePayers := len(expense.Payments) > 1
	var paidBy any
	if !multiplePayers && len(expense.Payments) == 1 {
		paidBy = expense.Payments[0].UserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, paid_by, amount, description, multiple_payers, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		expense.ID, expense.GroupID, paidBy, expense.Amount, expense.Description,
		multiplePayers, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if multiplePayers {
		for _, p := range expense.Payments {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_payers (expense_id, user_id, paid_amount) VALUES (?, ?, ?)",
				expense.ID, p.UserID, p.Amount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert payer: %w", err)
			}
		}
	}

	for _, sh := range expense.Shares {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, user_id, share_amount) VALUES (?, ?, ?)",
			expense.ID, sh.UserID, sh.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including shares and payments.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx, `
		SELECT e.id, e.group_id, e.paid_by, u.name, e.amount, e.description,
		       e.multiple_payers, e.is_active, e.created_at
		FROM expenses e
		LEFT JOIN users u ON u.id = e.paid_by
		WHERE e.id = ?`,
		expenseID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := loadExpenseRows(ctx, s.db, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpensesByGroup returns the group's active expenses, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return listActiveExpenses(ctx, s.db, groupID)
}

// DeactivateExpense soft-deletes an expense.
func (s *SQLiteStore) DeactivateExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET is_active = 0 WHERE id = ?",
		expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	return nil
}

// listActiveExpenses loads a group's active expenses with their shares and
// payments through the given querier.
func listActiveExpenses(ctx context.Context, q querier, groupID string) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e.id, e.group_id, e.paid_by, u.name, e.amount, e.description,
		       e.multiple_payers, e.is_active, e.created_at
		FROM expenses e
		LEFT JOIN users u ON u.id = e.paid_by
		WHERE e.group_id = ? AND e.is_active = 1
		ORDER BY e.created_at DESC, e.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if err := loadExpenseRows(ctx, q, expense); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanExpense.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanExpense reads one expense row in the shared column order. A single
// recorded payer becomes a one-entry Payments list; the payer rows for
// multi-payer expenses are loaded separately.
func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var paidBy, paidByName sql.NullString
	var multiplePayers bool
	if err := row.Scan(&expense.ID, &expense.GroupID, &paidBy, &paidByName,
		&expense.Amount, &expense.Description, &multiplePayers,
		&expense.Active, &expense.CreatedAt); err != nil {
		return nil, err
	}

	if !multiplePayers && paidBy.Valid {
		expense.Payments = []models.Payment{{
			UserID: paidBy.String,
			Name:   paidByName.String,
			Amount: expense.Amount,
		}}
	}

	return expense, nil
}

// loadExpenseRows populates an expense's shares and, for multi-payer
// expenses, its payer rows.
func loadExpenseRows(ctx context.Context, q querier, expense *models.Expense) error {
	shareRows, err := q.QueryContext(ctx, `
		SELECT es.user_id, u.name, es.share_amount
		FROM expense_shares es
		JOIN users u ON u.id = es.user_id
		WHERE es.expense_id = ?
		ORDER BY u.name`,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var sh models.Share
		if err := shareRows.Scan(&sh.UserID, &sh.Name, &sh.Amount); err != nil {
			return fmt.Errorf("failed to scan share: %w", err)
		}
		expense.Shares = append(expense.Shares, sh)
	}
	if err := shareRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate shares: %w", err)
	}

	if len(expense.Payments) > 0 {
		return nil // single payer, already populated from paid_by
	}

	payerRows, err := q.QueryContext(ctx, `
		SELECT ep.user_id, u.name, ep.paid_amount
		FROM expense_payers ep
		JOIN users u ON u.id = ep.user_id
		WHERE ep.expense_id = ?
		ORDER BY u.name`,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get payers: %w", err)
	}
	defer payerRows.Close()

	for payerRows.Next() {
		var p models.Payment
		if err := payerRows.Scan(&p.UserID, &p.Name, &p.Amount); err != nil {
			return fmt.Errorf("failed to scan payer: %w", err)
		}
		expense.Payments = append(expense.Payments, p)
	}
	if err := payerRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate payers: %w", err)
	}

	return nil
}
