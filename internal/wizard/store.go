// ==============================================================================
// SESSION STORE - internal/wizard/store.go
// ==============================================================================
package wizard

import (
	"net/url"
	"sync"
	"time"

	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"

	"github.com/google/uuid"
)

// Store keeps wizard sessions in memory with a TTL. Expired sessions are
// closed, which cancels their outstanding background work.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	logger   logger.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a session store with the given TTL.
func NewStore(ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		logger:   log,
		stop:     make(chan struct{}),
	}
}

// Create builds and registers a new session from entry parameters.
func (st *Store) Create(params url.Values) *Session {
	s := NewSession(params)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.logger.Info("session created", map[string]interface{}{
		"session": s.ID.String(),
	})
	return s
}

// Get returns a live session or an error when it is unknown or expired.
func (st *Store) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if time.Since(s.LastSeen()) > st.ttl {
		st.Delete(id)
		return nil, apperrors.ErrSessionExpired
	}
	s.Touch()
	return s, nil
}

// Delete closes and removes a session.
func (st *Store) Delete(id uuid.UUID) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// StartJanitor launches the expiry sweep loop.
func (st *Store) StartJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				st.sweep()
			case <-st.stop:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the janitor and closes every session.
func (st *Store) Stop() {
	st.stopOnce.Do(func() { close(st.stop) })

	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[uuid.UUID]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (st *Store) sweep() {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
		st.logger.Debug("session expired", map[string]interface{}{
			"session": s.ID.String(),
		})
	}
}
