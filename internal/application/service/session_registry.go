package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/pkg/clock"
)

// SessionRegistry keeps one ReceiptSession per login. Sessions are created
// on first use and evicted once their token has expired.
type SessionRegistry struct {
	deps     SessionDeps
	clock    clock.Clock
	interval time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*ReceiptSession
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionRegistry creates a registry and starts its cleanup loop. A
// non-positive interval disables the loop; Sweep can still be called.
func NewSessionRegistry(deps SessionDeps, interval time.Duration) *SessionRegistry {
	r := &SessionRegistry{
		deps:     deps,
		clock:    deps.Clock,
		interval: interval,
		log:      deps.Log.Named("sessions"),
		sessions: make(map[uuid.UUID]*ReceiptSession),
		stop:     make(chan struct{}),
	}
	if interval > 0 {
		go r.cleanupLoop()
	}
	return r
}

// Get returns the session for auth, creating it if needed.
func (r *SessionRegistry) Get(auth entity.AuthSession) *ReceiptSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[auth.SessionID]; ok {
		return s
	}
	s := NewReceiptSession(auth, r.deps)
	r.sessions[auth.SessionID] = s
	r.log.Debug("receipt session opened",
		zap.String("session_id", auth.SessionID.String()),
		zap.String("username", auth.Username),
	)
	return s
}

// Drop forgets the session of a logged-out operator. A session in the
// middle of Generate is kept and swept later.
func (r *SessionRegistry) Drop(sessionID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok || s.Busy() {
		return false
	}
	delete(r.sessions, sessionID)
	return true
}

// Len is the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions whose token expired before now. Sessions in the
// middle of Generate are kept until it finishes.
func (r *SessionRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		exp := s.Auth().ExpiresAt
		if exp.IsZero() || now.Before(exp) || s.Busy() {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	if removed > 0 {
		r.log.Debug("receipt sessions evicted", zap.Int("count", removed))
	}
	return removed
}

// cleanupLoop periodically removes expired sessions
func (r *SessionRegistry) cleanupLoop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(r.clock.Now())
		case <-r.stop:
			return
		}
	}
}

// Stop ends the cleanup loop.
func (r *SessionRegistry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}
