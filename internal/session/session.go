// Package session implements the lifecycle facade: the
// create/start/pause/resume/stop/destroy state machine layered over
// one internal/monitor.Monitor per session, plus the process-wide
// registry callers create, list, and destroy sessions through.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/foldwatch/foldwatch/internal/ignore"
	"github.com/foldwatch/foldwatch/internal/monitor"
)

// State is a session's position in the create/start/pause/resume/
// destroy state machine.
type State string

const (
	StateIdle     State = "idle"
	StateWatching State = "watching"
	StateTerminal State = "terminal"
)

var (
	ErrNotWatching     = errors.New("session: not watching")
	ErrSessionTerminal = errors.New("session: destroyed")
	ErrStopDeclined    = errors.New("session: stop declined by operator")
	ErrDuplicateID     = errors.New("session: id already in use")
)

// WatchHandle is the non-empty token Start/Resume return on success.
type WatchHandle struct {
	SessionID string
	Root      string
}

// StartOpts configures a start or resume call.
type StartOpts struct {
	Prepopulate bool
	OnReady     func(monitor.ReadyStats)
}

// StopOpts configures a stop call. Confirm is the host-supplied
// decision function consulted when the log is non-empty and Force is
// false — the core never hardcodes a UI for this prompt.
type StopOpts struct {
	Force    bool
	Confirm  func() bool
	Callback func()
}

// Session wraps one Monitor with the idle/watching/terminal state
// machine and its bookkeeping (id, metadata, workspace label).
type Session struct {
	id        string
	root      string
	label     string
	metadata  map[string]any
	startedAt time.Time
	logger    *slog.Logger

	mon *monitor.Monitor

	mu    sync.Mutex
	state State

	onDestroyed func(*Session)
}

// ID, Root, Label, Metadata, StartedAt, State, and Monitor expose a
// session's identity and current lifecycle position to callers (the
// CLI's status command, the TUI, the registry's listing).
func (s *Session) ID() string                { return s.id }
func (s *Session) Root() string              { return s.root }
func (s *Session) Label() string             { return s.label }
func (s *Session) Metadata() map[string]any  { return s.metadata }
func (s *Session) StartedAt() time.Time      { return s.startedAt }
func (s *Session) Monitor() *monitor.Monitor { return s.mon }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func newSession(id, root, label string, metadata map[string]any, cfg monitor.Config, logger *slog.Logger) *Session {
	filter := buildFilter(root, cfg)
	return &Session{
		id:        id,
		root:      root,
		label:     label,
		metadata:  metadata,
		startedAt: time.Now(),
		logger:    logger,
		mon:       monitor.New(root, label, cfg, filter, logger),
		state:     StateIdle,
	}
}

func buildFilter(root string, cfg monitor.Config) *ignore.Filter {
	var ignoreFilePatterns []ignore.Pattern
	if cfg.RespectGitignore {
		if patterns, err := ignore.LoadFile(root, ".gitignore"); err == nil {
			ignoreFilePatterns = patterns
		}
	}
	return ignore.New(ignoreFilePatterns, cfg.IgnorePatterns, cfg.NeverIgnore)
}

// Start establishes the OS watch and schedules prepopulation. Only
// valid from idle; calling it again while already watching is
// idempotent and returns the existing handle rather than erroring.
func (s *Session) Start(opts StartOpts) (*WatchHandle, error) {
	s.mu.Lock()
	switch s.state {
	case StateWatching:
		s.mu.Unlock()
		return &WatchHandle{SessionID: s.id, Root: s.root}, nil
	case StateTerminal:
		s.mu.Unlock()
		return nil, ErrSessionTerminal
	}
	s.mu.Unlock()

	if err := s.mon.Start(opts.Prepopulate, opts.OnReady); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state = StateWatching
	s.mu.Unlock()
	return &WatchHandle{SessionID: s.id, Root: s.root}, nil
}

// Pause halts intake, flushes everything already detected through the
// processor, and hands the watch-interval's changes to callback.
func (s *Session) Pause(callback func([]monitor.Change)) error {
	s.mu.Lock()
	if s.state != StateWatching {
		s.mu.Unlock()
		return ErrNotWatching
	}
	s.mu.Unlock()

	changes, err := s.mon.Pause()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()

	if callback != nil {
		callback(changes)
	}
	return nil
}

// Resume is Start on a paused session, minus re-prepopulation: the
// cache already reflects whatever state the prior watch left it in.
func (s *Session) Resume(opts StartOpts) (*WatchHandle, error) {
	opts.Prepopulate = false
	return s.Start(opts)
}

// Stop destroys the session from any state, prompting the host for
// confirmation via opts.Confirm first unless the log is empty or
// Force is set.
func (s *Session) Stop(opts StopOpts) error {
	s.mu.Lock()
	if s.state == StateTerminal {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if !opts.Force && len(s.mon.AllChanges()) > 0 {
		if opts.Confirm == nil || !opts.Confirm() {
			return ErrStopDeclined
		}
	}
	s.Destroy(opts.Callback)
	return nil
}

// Destroy stops the watch if any, awaits the monitor's outstanding
// async work, clears its cache, and runs the registry-removal hook
// before invoking callback. Safe to call more than once.
func (s *Session) Destroy(callback func()) {
	s.mu.Lock()
	if s.state == StateTerminal {
		s.mu.Unlock()
		if callback != nil {
			callback()
		}
		return
	}
	s.state = StateTerminal
	s.mu.Unlock()

	s.mon.Destroy()

	if s.onDestroyed != nil {
		s.onDestroyed(s)
	}
	if callback != nil {
		callback()
	}
}

func (s *Session) CreateCheckpoint(label string, cycle *int) monitor.Checkpoint {
	return s.mon.CreateCheckpoint(label, cycle)
}

func (s *Session) GetCheckpoints() []monitor.Checkpoint {
	return s.mon.GetCheckpoints()
}

func (s *Session) GetChanges() []monitor.Change {
	return s.mon.AllChanges()
}

// ChangesSince returns the log suffix strictly after cp's timestamp.
func (s *Session) ChangesSince(cp monitor.Checkpoint) []monitor.Change {
	return s.mon.ChangesSince(cp.Timestamp)
}

func (s *Session) FlushPendingAndGetChanges(callback func([]monitor.Change)) {
	changes := s.mon.FlushPendingAndGet()
	if callback != nil {
		callback(changes)
	}
}

func (s *Session) RevertToCheckpoint(index int) *monitor.RevertResult {
	return s.mon.RevertToCheckpoint(index)
}

func (s *Session) RevertToOriginal() *monitor.RevertResult {
	return s.mon.RevertToOriginal()
}

func (s *Session) TagChanges(startNS, endNS int64, tool string, args monitor.TagArgs) {
	s.mon.TagChangesInRange(startNS, endNS, tool, args)
}

func (s *Session) GetStats() monitor.Stats {
	return s.mon.Stats()
}

func (s *Session) Subscribe(fn monitor.Subscriber) (unsubscribe func()) {
	return s.mon.Subscribe(fn)
}
