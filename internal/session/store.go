// Package session manages per-user conversation sessions.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/maitred/internal/domain"
	"github.com/soyeahso/maitred/internal/logging"
)

// ErrNotFound is returned when a session is absent or inactive.
var ErrNotFound = errors.New("session not found")

// DefaultWindowSize bounds how many turns a session keeps.
const DefaultWindowSize = 5

// Store maps users and session ids to conversation sessions.
//
// All methods are safe for concurrent use. Ordering of turn appends for a
// single session is the orchestrator's responsibility (it serializes
// per-session effects); the store only guarantees it never corrupts state.
type Store interface {
	// Create allocates a new active session for the user.
	Create(userID string) (string, error)

	// Get returns a copy of the session and refreshes its LastUsedAt.
	// Returns ErrNotFound if the session is absent or inactive.
	Get(sessionID string) (domain.Session, error)

	// Reset marks the current session (if found) inactive and creates a
	// fresh one for the user.
	Reset(userID, currentSessionID string) (string, error)

	// AppendTurn records a turn, evicting the oldest once the window is full.
	AppendTurn(sessionID string, turn domain.Turn) error

	// SweepExpired deactivates sessions idle longer than the timeout and
	// returns how many were reclaimed.
	SweepExpired(now time.Time) (int, error)
}

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	window   int
	timeout  time.Duration
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithWindowSize overrides the turn window (minimum 1).
func WithWindowSize(n int) Option {
	return func(s *MemoryStore) {
		if n >= 1 {
			s.window = n
		}
	}
}

// WithIdleTimeout overrides the idle expiry timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*domain.Session),
		window:   DefaultWindowSize,
		timeout:  60 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(userID string) (string, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		CreatedAt:  now,
		LastUsedAt: now,
		Active:     true,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.ID, nil
}

func (s *MemoryStore) Get(sessionID string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || !sess.Active {
		return domain.Session{}, ErrNotFound
	}

	sess.LastUsedAt = time.Now().UTC()
	return copySession(sess), nil
}

func (s *MemoryStore) Reset(userID, currentSessionID string) (string, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[currentSessionID]; ok {
		sess.Active = false
	}
	s.mu.Unlock()

	return s.Create(userID)
}

func (s *MemoryStore) AppendTurn(sessionID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || !sess.Active {
		return ErrNotFound
	}

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	sess.Turns = append(sess.Turns, turn)
	if len(sess.Turns) > s.window {
		// FIFO: drop the oldest
		sess.Turns = sess.Turns[len(sess.Turns)-s.window:]
	}
	sess.LastUsedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SweepExpired(now time.Time) (int, error) {
	cutoff := now.Add(-s.timeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	reclaimed := 0
	for id, sess := range s.sessions {
		if !sess.Active {
			delete(s.sessions, id)
			continue
		}
		if sess.LastUsedAt.Before(cutoff) {
			sess.Active = false
			delete(s.sessions, id)
			reclaimed++
		}
	}
	return reclaimed, nil
}

// ActiveCount returns the number of active sessions.
func (s *MemoryStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.sessions {
		if sess.Active {
			n++
		}
	}
	return n
}

func copySession(sess *domain.Session) domain.Session {
	out := *sess
	out.Turns = make([]domain.Turn, len(sess.Turns))
	copy(out.Turns, sess.Turns)
	return out
}

// RunSweeper periodically reclaims expired sessions until ctx is done.
func RunSweeper(ctx context.Context, store Store, interval time.Duration, log *logging.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.SweepExpired(now)
			if err != nil {
				log.Warn().Err(err).Msg("session sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("reclaimed", n).Msg("swept expired sessions")
			}
		}
	}
}
