package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/youthloop/carboncity/internal/game"
)

// SessionRepository persists sessions for signed-in players. The state
// document is stored as a JSONB column so it round-trips unchanged.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a repository backed by the shared pool.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, owner_id, state, score, level, status, started_at, last_action_at, created_at, updated_at`

// Load fetches one session by id. Returns (nil, nil) when no row exists.
func (r *SessionRepository) Load(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// FindActiveByOwner returns the owner's newest active session, or (nil, nil).
func (r *SessionRepository) FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*game.Session, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions
		 WHERE owner_id = $1 AND status = $2
		 ORDER BY created_at DESC LIMIT 1`, ownerID, game.StatusActive)
	return scanSession(row)
}

// Save upserts the session row.
func (r *SessionRepository) Save(ctx context.Context, session *game.Session) error {
	state, err := json.Marshal(session.State)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	_, err = r.db.pool.Exec(ctx,
		`INSERT INTO game_sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   state = EXCLUDED.state,
		   score = EXCLUDED.score,
		   level = EXCLUDED.level,
		   status = EXCLUDED.status,
		   last_action_at = EXCLUDED.last_action_at,
		   updated_at = EXCLUDED.updated_at`,
		session.ID, session.OwnerID, state, session.Score, session.Level,
		session.Status, session.StartedAt, session.LastActionAt,
		session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

func scanSession(row pgx.Row) (*game.Session, error) {
	var (
		session game.Session
		state   []byte
	)
	err := row.Scan(&session.ID, &session.OwnerID, &state, &session.Score,
		&session.Level, &session.Status, &session.StartedAt,
		&session.LastActionAt, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.State = &game.State{}
	if err := json.Unmarshal(state, session.State); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	return &session, nil
}
