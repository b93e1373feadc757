package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hisaabhub/hisaabhub/internal/storage"
)

// GroupFacts reads a group's members, active expenses and settlements inside
// one transaction, so balance computations see a single consistent snapshot
// of the ledger even while expenses or settlements are being written.
func (s *SQLiteStore) GroupFacts(ctx context.Context, groupID string) (*storage.GroupFacts, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check group: %w", err)
	}

	memberRows, err := tx.QueryContext(ctx, `
		SELECT gm.group_id, gm.user_id, u.name, u.email, gm.role, gm.joined_at
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	members, err := scanMembers(memberRows)
	memberRows.Close()
	if err != nil {
		return nil, err
	}

	expenses, err := listActiveExpenses(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	settlements, err := listSettlements(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &storage.GroupFacts{
		Members:     members,
		Expenses:    expenses,
		Settlements: settlements,
	}, nil
}
