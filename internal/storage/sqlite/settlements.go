package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hisaabhub/hisaabhub/internal/models"
)

// CreateSettlement appends a settlement record. Settlements are append-only;
// there is no update or delete path outside member removal.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Description == "" {
		settlement.Description = "Settlement payment"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user, to_user, amount, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUser, settlement.ToUser,
		settlement.Amount, settlement.Description, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return listSettlements(ctx, s.db, groupID)
}

func listSettlements(ctx context.Context, q querier, groupID string) ([]*models.Settlement, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT s.id, s.group_id, s.from_user, s.to_user, from_u.name, to_u.name,
		       s.amount, s.description, s.created_at
		FROM settlements s
		JOIN users from_u ON from_u.id = s.from_user
		JOIN users to_u ON to_u.id = s.to_user
		WHERE s.group_id = ?
		ORDER BY s.created_at DESC, s.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		if err := rows.Scan(&settlement.ID, &settlement.GroupID,
			&settlement.FromUser, &settlement.ToUser,
			&settlement.FromName, &settlement.ToName,
			&settlement.Amount, &settlement.Description, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
