package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type guestEntry struct {
	session    *Session
	lastAccess time.Time
}

// guestStore holds anonymous sessions in memory. Entries untouched for longer
// than the TTL are evicted by the sweep loop.
type guestStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*guestEntry
	ttl     time.Duration
}

func newGuestStore(ttl time.Duration) *guestStore {
	return &guestStore{
		entries: make(map[uuid.UUID]*guestEntry),
		ttl:     ttl,
	}
}

func (g *guestStore) get(id uuid.UUID) *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.entries[id]
	if !ok {
		return nil
	}
	entry.lastAccess = time.Now()
	return entry.session
}

func (g *guestStore) put(session *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[session.ID] = &guestEntry{session: session, lastAccess: time.Now()}
}

// sweep drops entries idle past the TTL and returns how many were removed.
func (g *guestStore) sweep(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for id, entry := range g.entries {
		if now.Sub(entry.lastAccess) > g.ttl {
			delete(g.entries, id)
			removed++
		}
	}
	return removed
}

func (g *guestStore) size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}
