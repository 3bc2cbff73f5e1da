package monitor

import (
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrNotWatching is returned by Pause when no watch is active.
	ErrNotWatching = errors.New("monitor: not watching")
	// ErrWatchStart wraps the underlying error when Start fails to stand
	// up an fsnotify watcher or its initial directory walk.
	ErrWatchStart = errors.New("monitor: failed to start watch")
)

func (m *Monitor) handleStart(prepopulate bool, onReady func(ReadyStats)) startResult {
	if m.watching {
		// Refuses a second watch for the same root; the existing watch
		// is already live, so this is success, not an error.
		return startResult{started: true}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return startResult{err: fmt.Errorf("%w: %v", ErrWatchStart, err)}
	}
	if err := addWatchDirs(watcher, m.root, m.filter); err != nil {
		watcher.Close()
		return startResult{err: fmt.Errorf("%w: %v", ErrWatchStart, err)}
	}

	m.watcher = watcher
	m.watching = true
	m.watchGen++
	m.watchStartLogLen = len(m.log)
	m.emit(Event{Type: EventStarted, Root: m.root})

	if prepopulate {
		gen := m.watchGen
		go m.runPrepopulate(gen, onReady)
	} else if onReady != nil {
		onReady(ReadyStats{})
	}

	return startResult{started: true}
}

// handlePause stops taking new OS events, drains every path already
// queued or in flight through the processor, then tears down the watch
// handle. The log and checkpoints survive; only intake state is
// cleared.
func (m *Monitor) handlePause() pauseResult {
	if !m.watching {
		return pauseResult{err: ErrNotWatching}
	}
	m.watching = false
	m.drainAllPending()
	// A revert during this watch interval may have truncated the log
	// below where the interval started.
	from := m.watchStartLogLen
	if from > len(m.log) {
		from = len(m.log)
	}
	changes := cloneChanges(m.log[from:])
	m.stopWatcherHandle()
	m.emit(Event{Type: EventStopped, Root: m.root})
	return pauseResult{changes: changes}
}

func (m *Monitor) handleDestroy() {
	if m.destroyed {
		return
	}
	m.watching = false
	m.drainAllPending()
	m.stopWatcherHandle()
	m.cacheStore.Clear()
	m.statIndex = make(map[string]statInfo)
	m.emit(Event{Type: EventStopped, Root: m.root})
	m.destroyed = true
}

func (m *Monitor) stopWatcherHandle() {
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
	m.watchGen++
}

// drainAllPending forces the debounce timer and blocks the loop
// goroutine, nested inside the current command dispatch, until every
// batch already queued or in flight has landed. Any other command that
// arrives while draining is answered at once rather than left to
// deadlock its caller: queries get the current log, checkpoints or
// stats, and mutating commands are refused or answered with an empty
// value.
func (m *Monitor) drainAllPending() {
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
		m.debounceTimer = nil
	}
	m.drainPendingIntoBatch()
	for m.inFlight > 0 || len(m.batchQueue) > 0 {
		cmd := <-m.cmdCh
		if rr, ok := cmd.(readResultCmd); ok {
			m.handleReadResult(rr)
		} else {
			m.rejectDuringShutdown(cmd)
		}
	}
}

func (m *Monitor) rejectDuringShutdown(cmd any) {
	switch c := cmd.(type) {
	case subscribeCmd:
		c.result <- 0
	case unsubscribeCmd:
		close(c.done)
	case startCmd:
		c.result <- startResult{err: ErrWatchStart}
	case pauseCmd:
		c.result <- pauseResult{err: ErrNotWatching}
	case destroyCmd:
		close(c.done)
	case createCheckpointCmd:
		c.result <- Checkpoint{}
	case allChangesCmd:
		c.result <- cloneChanges(m.log)
	case checkpointsCmd:
		c.result <- cloneCheckpoints(m.checkpoints)
	case changesSinceCmd:
		c.result <- m.changesSince(c.ts)
	case statsCmd:
		c.result <- m.computeStats()
	case flushCmd:
		c.result <- cloneChanges(m.log)
	case tagCmd:
		close(c.done)
	case revertCheckpointCmd:
		c.result <- nil
	case revertOriginalCmd:
		c.result <- nil
	case prepopulateDoneCmd:
		if c.onReady != nil {
			c.onReady(c.stats)
		}
	}
}
