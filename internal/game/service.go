package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

const defaultGuestTTL = 2 * time.Hour

// Service is the session state machine. It owns the guest session holder and
// serializes all mutating work per session id.
type Service struct {
	catalog  *catalog.Catalog
	rules    *rules.Store
	store    SessionStore
	recorder ActionRecorder
	logger   *zap.Logger

	guests *guestStore

	rngMu sync.Mutex
	rng   *rand.Rand

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithRand injects the pseudo-random source. Tests pass a seeded source to
// make turn resolution reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithGuestTTL overrides the guest session idle timeout.
func WithGuestTTL(ttl time.Duration) Option {
	return func(s *Service) { s.guests = newGuestStore(ttl) }
}

// NewService wires the state machine to its collaborators. The recorder may
// be nil when action auditing is disabled.
func NewService(cat *catalog.Catalog, ruleStore *rules.Store, store SessionStore, recorder ActionRecorder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:  cat,
		rules:    ruleStore,
		store:    store,
		recorder: recorder,
		logger:   logger,
		guests:   newGuestStore(defaultGuestTTL),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockFor returns the mutex serializing work on one session id.
func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

func (s *Service) roll(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Service) rollFloat() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// Start returns the caller's active session, creating one when none exists.
// For signed-in players Start is idempotent: an existing active session is
// returned instead of a new one. Guests always get a fresh in-memory session.
func (s *Service) Start(ctx context.Context, ownerID *uuid.UUID) (*Session, error) {
	rt, err := s.rules.RuntimeParams()
	if err != nil {
		return nil, newError(CodeConfigUnavailable, "%v", err)
	}
	bal, err := s.rules.BalanceRules()
	if err != nil {
		return nil, newError(CodeConfigUnavailable, "%v", err)
	}

	if ownerID != nil {
		// The find-create pair must be serialized per owner, or two
		// concurrent starts both pass the existence check and persist two
		// active sessions.
		mu := s.lockFor(*ownerID)
		mu.Lock()
		defer mu.Unlock()

		existing, err := s.store.FindActiveByOwner(ctx, *ownerID)
		if err != nil {
			return nil, fmt.Errorf("find active session: %w", err)
		}
		if existing != nil {
			// Copy under the session lock so a concurrent action on the
			// found session cannot mutate it mid-snapshot.
			sessionMu := s.lockFor(existing.ID)
			sessionMu.Lock()
			snap := existing.snapshot()
			sessionMu.Unlock()
			return snap, nil
		}
	}

	state, err := s.newState(rt, bal)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		State:        state,
		Level:        1,
		Status:       StatusActive,
		StartedAt:    now,
		LastActionAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if ownerID != nil {
		if err := s.store.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("save new session: %w", err)
		}
	} else {
		s.guests.put(session)
	}

	s.logger.Info("session started",
		zap.String("session_id", session.ID.String()),
		zap.Bool("guest", session.IsGuest()),
	)
	return session.snapshot(), nil
}

// PerformAction runs one player action against a session. The whole
// read-modify-persist sequence holds the session lock, so two concurrent
// actions on the same id never interleave. The returned result carries a
// detached session snapshot taken before the lock is released.
func (s *Service) PerformAction(ctx context.Context, ownerID *uuid.UUID, sessionID uuid.UUID, action Action) (*Result, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}

	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.fetch(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}

	if action.Type == ActionGetState {
		snap := session.snapshot()
		return &Result{Session: snap, SessionEnded: snap.State.SessionEnded, Ending: snap.State.Ending}, nil
	}

	if session.Status != StatusActive {
		if session.Status == StatusEnded {
			return nil, newError(CodeSessionEnded, "session %s has ended", sessionID)
		}
		return nil, newError(CodeSessionNotActive, "session %s is %s", sessionID, session.Status)
	}

	rt, err := s.rules.RuntimeParams()
	if err != nil {
		return nil, newError(CodeConfigUnavailable, "%v", err)
	}
	bal, err := s.rules.BalanceRules()
	if err != nil {
		return nil, newError(CodeConfigUnavailable, "%v", err)
	}

	var (
		points  int
		message string
	)
	switch action.Type {
	case ActionPlaceCard:
		points, message, err = s.placeCard(session.State, rt, bal, action.CardID)
	case ActionUsePolicy:
		points, message, err = s.usePolicy(session.State, rt, action.CardID)
	case ActionEndTurn:
		points, message, err = s.endTurn(session.State, rt, bal)
	default:
		err = newError(CodeInvalidAction, "unknown action type %q", action.Type)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session.Score += int64(points)
	session.Level = levelFor(session.Score)
	session.LastActionAt = now
	session.UpdatedAt = now
	if session.State.SessionEnded {
		session.Status = StatusEnded
	}

	if session.IsGuest() {
		s.guests.put(session)
	} else {
		if err := s.store.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		if s.recorder != nil {
			record := ActionRecord{
				SessionID:    session.ID,
				OwnerID:      session.OwnerID,
				Turn:         session.State.Turn,
				Action:       action.Type,
				CardID:       action.CardID,
				PointsEarned: points,
				CreatedAt:    now,
			}
			if err := s.recorder.Record(ctx, record); err != nil {
				s.logger.Warn("record action", zap.Error(err), zap.String("session_id", sessionID.String()))
			}
		}
	}

	snap := session.snapshot()
	return &Result{
		Session:      snap,
		PointsEarned: points,
		Message:      message,
		SessionEnded: snap.State.SessionEnded,
		Ending:       snap.State.Ending,
	}, nil
}

// GetSessionByID fetches a detached snapshot of a session. Guest sessions are
// served from memory and never hit the persistence port.
func (s *Service) GetSessionByID(ctx context.Context, ownerID *uuid.UUID, sessionID uuid.UUID) (*Session, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()
	session, err := s.fetch(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.snapshot(), nil
}

// EndSession marks a session ended without evaluating an ending. Ending an
// already-ended session is a no-op.
func (s *Service) EndSession(ctx context.Context, ownerID *uuid.UUID, sessionID uuid.UUID) (*Session, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.fetch(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusEnded {
		return session.snapshot(), nil
	}

	session.Status = StatusEnded
	session.State.SessionEnded = true
	session.UpdatedAt = time.Now()

	if session.IsGuest() {
		s.guests.put(session)
	} else if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("session ended by player", zap.String("session_id", sessionID.String()))
	return session.snapshot(), nil
}

// RunGuestEviction sweeps idle guest sessions until the context is canceled.
// Run it on its own goroutine.
func (s *Service) RunGuestEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.guests.sweep(time.Now()); removed > 0 {
				s.logger.Info("evicted idle guest sessions",
					zap.Int("removed", removed),
					zap.Int("remaining", s.guests.size()),
				)
			}
		}
	}
}

func (s *Service) fetch(ctx context.Context, ownerID *uuid.UUID, sessionID uuid.UUID) (*Session, error) {
	if session := s.guests.get(sessionID); session != nil {
		return session, nil
	}
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, newError(CodeSessionNotFound, "session %s not found", sessionID)
	}
	if session.OwnerID != nil && (ownerID == nil || *ownerID != *session.OwnerID) {
		return nil, newError(CodeSessionNotOwned, "session %s belongs to another player", sessionID)
	}
	return session, nil
}

func levelFor(score int64) int {
	return int(score/100) + 1
}
