package monitor

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/foldwatch/foldwatch/internal/fsread"
)

// handleFSEvent folds one fsnotify event into the pending set and resets
// the debounce timer. A newly-created directory is watched immediately
// rather than queued — directories themselves are never tracked as
// changes.
func (m *Monitor) handleFSEvent(ev fsnotify.Event) {
	if !m.watching {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !m.filter.ShouldIgnore(m.relPath(ev.Name)) {
				_ = m.watcher.Add(ev.Name)
			}
			return
		}
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	m.pendingPaths[ev.Name] = struct{}{}
	m.resetDebounceTimer()
}

func (m *Monitor) resetDebounceTimer() {
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.NewTimer(time.Duration(m.cfg.DebounceMS) * time.Millisecond)
}

// fireDebounce runs when the debounce timer expires with no further
// activity: the pending set becomes one batch.
func (m *Monitor) fireDebounce() {
	m.debounceTimer = nil
	m.drainPendingIntoBatch()
}

// drainPendingIntoBatch snapshots pendingPaths into a new batch. Batches
// queue behind any still in flight so an earlier batch's log appends
// always land before a later batch's even begin, however the reads race.
func (m *Monitor) drainPendingIntoBatch() {
	if len(m.pendingPaths) == 0 {
		return
	}
	batch := make([]string, 0, len(m.pendingPaths))
	for p := range m.pendingPaths {
		batch = append(batch, p)
	}
	m.pendingPaths = make(map[string]struct{})
	m.batchQueue = append(m.batchQueue, batch)
	m.maybeDispatchNextBatch()
}

func (m *Monitor) maybeDispatchNextBatch() {
	if m.inFlight > 0 || len(m.batchQueue) == 0 {
		return
	}
	batch := m.batchQueue[0]
	m.batchQueue = m.batchQueue[1:]
	gen := m.watchGen
	m.inFlight = len(batch)
	maxSize := m.cfg.MaxFileSize
	for _, abs := range batch {
		go m.dispatchRead(abs, gen, maxSize)
	}
}

// dispatchRead runs off the loop goroutine; it touches nothing but its
// own arguments and reports back over cmdCh.
func (m *Monitor) dispatchRead(absPath string, gen uint64, maxSize int) {
	res, err := fsread.Read(absPath, maxSize)
	cmd := readResultCmd{path: absPath, relPath: relPathOf(m.root, absPath), watchGen: gen}
	if err != nil {
		cmd.err = err
	} else {
		cmd.content = res.Content
		cmd.device = res.Device
		cmd.inode = res.Inode
	}
	m.cmdCh <- cmd
}

// addWatchDirs walks root adding a watch on every directory fsnotify
// should see, skipping subtrees the ignore filter drops entirely.
func addWatchDirs(w *fsnotify.Watcher, root string, filter interface{ ShouldIgnore(string) bool }) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && filter.ShouldIgnore(relPathOf(root, path)) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
