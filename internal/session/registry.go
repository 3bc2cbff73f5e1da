package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/foldwatch/foldwatch/internal/monitor"
)

// Registry is the process-wide table of live sessions, modeled as an
// explicit object owned by the host rather than a package-level
// singleton. Every session-by-id operation is a method here.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry. logger, if nil, falls back to
// slog.Default and is passed through to every session's Monitor.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, sessions: make(map[string]*Session)}
}

// CreateOpts are the parameters Create accepts.
type CreateOpts struct {
	ID       string
	Root     string
	Label    string
	Metadata map[string]any
	Config   monitor.Config
}

// Create constructs a new, idle Session rooted at opts.Root. An empty
// ID is replaced with a generated one; duplicate explicit IDs are
// rejected.
func (r *Registry) Create(opts CreateOpts) (*Session, error) {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		return nil, ErrDuplicateID
	}

	label := opts.Label
	if label == "" {
		label = opts.Root
	}
	s := newSession(id, opts.Root, label, opts.Metadata, opts.Config, r.logger)
	s.onDestroyed = r.remove
	r.sessions[id] = s
	r.mu.Unlock()

	return s, nil
}

func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	delete(r.sessions, s.id)
	r.mu.Unlock()
}

// Get returns the session with id, if any.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// GetAll returns a snapshot of every live session, keyed by id.
func (r *Registry) GetAll() map[string]*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		out[id] = s
	}
	return out
}

// ClearAll destroys every live session, invoking callback once all of
// them have completed.
func (r *Registry) ClearAll(callback func()) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Destroy(nil)
		}(s)
	}
	wg.Wait()

	if callback != nil {
		callback()
	}
}
