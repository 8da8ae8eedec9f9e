package game

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore persists sessions for signed-in players. Guest sessions never
// reach it. Load and FindActiveByOwner return (nil, nil) when no row matches.
type SessionStore interface {
	Load(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, session *Session) error
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*Session, error)
}

// ActionRecord is one audit row for a performed action.
type ActionRecord struct {
	SessionID    uuid.UUID
	OwnerID      *uuid.UUID
	Turn         int
	Action       ActionType
	CardID       string
	PointsEarned int
	CreatedAt    time.Time
}

// ActionRecorder appends audit rows. Failures are logged, never surfaced to
// the player.
type ActionRecorder interface {
	Record(ctx context.Context, record ActionRecord) error
}
