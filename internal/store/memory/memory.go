package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spigell/interview-coach/internal/interview"
)

// Repository keeps sessions in process memory. Sessions are copied on the way
// in and out so callers never share state with the store.
type Repository struct {
	mu       sync.RWMutex
	sessions map[string]*interview.Session
}

func New() *Repository {
	return &Repository{sessions: make(map[string]*interview.Session)}
}

func (r *Repository) Get(_ context.Context, id string) (*interview.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", interview.ErrSessionNotFound, id)
	}
	return s.Clone(), nil
}

func (r *Repository) Put(_ context.Context, s *interview.Session) error {
	if s == nil {
		return errors.New("session is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *Repository) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
