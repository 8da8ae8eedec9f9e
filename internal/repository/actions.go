package repository

import (
	"context"
	"fmt"

	"github.com/youthloop/carboncity/internal/game"
)

// ActionRepository appends one audit row per performed action.
type ActionRepository struct {
	db *DB
}

// NewActionRepository creates a repository backed by the shared pool.
func NewActionRepository(db *DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// Record inserts one action audit row.
func (r *ActionRepository) Record(ctx context.Context, record game.ActionRecord) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO game_action_log (session_id, owner_id, turn, action, card_id, points_earned, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.SessionID, record.OwnerID, record.Turn, record.Action,
		record.CardID, record.PointsEarned, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}
