package monitor

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/foldwatch/foldwatch/internal/cache"
	"github.com/foldwatch/foldwatch/internal/ignore"
)

// Monitor is the per-watch core: a single goroutine (loop) owns the
// change log, checkpoints, and content cache and is the only thing
// that ever mutates them. Every public method sends a command over
// cmdCh and blocks for the loop's reply, so from the outside a Monitor
// behaves like an ordinary synchronized object, but internally there
// is exactly one mutation point and therefore no locking inside the
// loop itself.
type Monitor struct {
	root     string
	toolName string
	logger   *slog.Logger

	cmdCh chan any

	// loop-owned — touched only inside loop().
	cfg          Config
	log          []Change
	checkpoints  []Checkpoint
	cacheStore   *cache.LRU
	statIndex    map[string]statInfo // last known (device, inode) per tracked path, kept in step with cacheStore
	filter       *ignore.Filter
	subscribers  []subscription
	nextSubID    uint64
	startInstant time.Time
	lastTS       int64
	statsErrors  int

	watcher          *fsnotify.Watcher
	watching         bool
	watchGen         uint64
	watchStartLogLen int
	pendingPaths     map[string]struct{}
	debounceTimer    *time.Timer

	batchQueue     [][]string
	inFlight       int
	batchResults   []readResultCmd
	pendingFlushes []chan []Change

	destroyed bool
}

// statInfo is the last (device, inode) pair observed for a tracked path,
// carried alongside cacheStore so a later Deleted record can still report
// the identity of the file that disappeared (fsread can no longer stat it).
type statInfo struct {
	device, inode uint64
}

// New constructs a Monitor rooted at root. root must be an absolute
// path; it is never mutated or watched until Start is called.
func New(root, toolName string, cfg Config, filter *ignore.Filter, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		root:         root,
		toolName:     toolName,
		logger:       logger,
		cmdCh:        make(chan any, 64),
		cfg:          cfg,
		cacheStore:   cache.New(cfg.MaxCacheBytes),
		statIndex:    make(map[string]statInfo),
		filter:       filter,
		pendingPaths: make(map[string]struct{}),
		startInstant: time.Now(),
	}
	go m.loop()
	return m
}

func (m *Monitor) debounceChan() <-chan time.Time {
	if m.debounceTimer == nil {
		return nil
	}
	return m.debounceTimer.C
}

func (m *Monitor) eventsChan() <-chan fsnotify.Event {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Events
}

func (m *Monitor) errorsChan() <-chan error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Errors
}

func (m *Monitor) loop() {
	for {
		select {
		case cmd, ok := <-m.cmdCh:
			if !ok {
				return
			}
			m.dispatch(cmd)
			if m.destroyed {
				return
			}

		case ev, ok := <-m.eventsChan():
			if !ok {
				continue
			}
			m.handleFSEvent(ev)

		case err, ok := <-m.errorsChan():
			if !ok {
				continue
			}
			m.logger.Warn("watch error", "root", m.root, "err", err)

		case <-m.debounceChan():
			m.fireDebounce()
		}
	}
}

// nextTimestamp returns a monotonically strictly-increasing nanosecond
// value, measured since the monitor's construction. Called only from
// the loop goroutine.
func (m *Monitor) nextTimestamp() int64 {
	ts := time.Since(m.startInstant).Nanoseconds()
	if ts <= m.lastTS {
		ts = m.lastTS + 1
	}
	m.lastTS = ts
	return ts
}
