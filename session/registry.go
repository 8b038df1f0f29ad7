package session

import (
	"sync"

	"github.com/google/uuid"

	"cadenza/fault"
	"cadenza/logger"
)

// Registry maps freshly minted addresses to live sessions. It is the Go
// rendering of registering a session as an addressable remote object.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session under a fresh UUID address and wires its close
// handler to remove that address. Returns the address.
func (r *Registry) Add(s *Session) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = s
	live := len(r.sessions)
	r.mu.Unlock()

	s.onClose = func() { r.Remove(id) }

	logger.Info("session registered", logger.String("sessionId", id), logger.Int("live", live))
	return id
}

// Get resolves an address to its session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fault.Newf(fault.SessionClosed, "no session %q", id)
	}
	return s, nil
}

// Remove retires an address. Idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	live := len(r.sessions)
	r.mu.Unlock()

	if ok {
		logger.Info("session unregistered", logger.String("sessionId", id), logger.Int("live", live))
	}
}
