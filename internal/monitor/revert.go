package monitor

import (
	"math"
	"os"
	"path/filepath"
)

// revertToCheckpoint restores the tree to the state captured at the
// index'th checkpoint (1-based, matching the order checkpoint listings
// expose). Reverting to the final checkpoint is defined as a no-op and
// returns nil, as does an out-of-range index.
func (m *Monitor) revertToCheckpoint(index int) *RevertResult {
	if index < 1 || index >= len(m.checkpoints) {
		return nil
	}
	return m.revertTo(m.checkpoints[index-1].Timestamp, index, false)
}

func (m *Monitor) revertToOriginal() *RevertResult {
	return m.revertTo(math.MinInt64, 0, true)
}

// revertTo partitions the log at target, applies the earliest
// post-target action for every touched path to disk, truncates
// checkpoints and the log, and rebuilds the cache to match.
func (m *Monitor) revertTo(target int64, keepCheckpoints int, full bool) *RevertResult {
	var keep, revert []Change
	for _, c := range m.log {
		if c.Timestamp <= target {
			keep = append(keep, c)
		} else {
			revert = append(revert, c)
		}
	}
	if len(revert) == 0 {
		return nil
	}

	// The earliest post-target change per path carries the target-time
	// state in its OldContent; everything after it for that path is an
	// overwrite and never needs replaying. Counts still tally every
	// record the action undoes, not just one per path.
	first := make(map[string]Change)
	counts := make(map[string]int)
	order := make([]string, 0, len(revert))
	for _, c := range revert {
		if _, ok := first[c.Path]; !ok {
			first[c.Path] = c
			order = append(order, c.Path)
		}
		counts[c.Path]++
	}

	revertedCount, errorCount := 0, 0
	touchedDirs := make(map[string]bool)
	for _, path := range order {
		ch := first[path]
		if err := m.applyRevertAction(ch); err != nil {
			m.logger.Warn("revert failed", "path", ch.Path, "err", err)
			errorCount += counts[path]
			continue
		}
		revertedCount += counts[path]
		m.reconcileCacheAfterAction(ch)
		touchedDirs[filepath.Dir(m.absPath(ch.Path))] = true
		if ch.Kind == Renamed {
			touchedDirs[filepath.Dir(m.absPath(ch.Metadata.OldPath))] = true
		}
	}
	m.cleanupEmptyDirs(touchedDirs)

	m.log = keep
	if full {
		m.checkpoints = nil
	} else {
		m.checkpoints = m.checkpoints[:keepCheckpoints]
	}

	return &RevertResult{
		NewChanges:     cloneChanges(m.log),
		NewCheckpoints: cloneCheckpoints(m.checkpoints),
		RevertedCount:  revertedCount,
		ErrorCount:     errorCount,
		IsFullRevert:   full,
	}
}

func (m *Monitor) applyRevertAction(ch Change) error {
	switch ch.Kind {
	case Created:
		return m.deleteFile(m.absPath(ch.Path))
	case Modified, Deleted:
		return m.writeFile(m.absPath(ch.Path), ch.OldContent)
	case Renamed:
		oldAbs := m.absPath(ch.Metadata.OldPath)
		newAbs := m.absPath(ch.Path)
		if err := m.writeFile(oldAbs, ch.OldContent); err != nil {
			return err
		}
		// A self-rename (delete+recreate of the same path collapsed by
		// inference) must not delete the file just restored.
		if newAbs != oldAbs {
			if _, err := os.Stat(newAbs); err == nil {
				return m.deleteFile(newAbs)
			}
		}
		return nil
	default:
		return nil
	}
}

// writeFile writes content atomically via a sibling temp file plus
// rename, the same pattern the rest of the stack uses for any on-disk
// state that must never be left half-written.
func (m *Monitor) writeFile(abs string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".revert-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, abs)
}

func (m *Monitor) deleteFile(abs string) error {
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// cleanupEmptyDirs removes directories left empty by a revert, walking
// upward from each touched directory until it hits root or a directory
// that still has something in it.
func (m *Monitor) cleanupEmptyDirs(dirs map[string]bool) {
	for dir := range dirs {
		d := dir
		for len(d) > len(m.root) {
			entries, err := os.ReadDir(d)
			if err != nil || len(entries) > 0 {
				break
			}
			if err := os.Remove(d); err != nil {
				break
			}
			d = filepath.Dir(d)
		}
	}
}

// reconcileCacheAfterAction updates the cache to the state the action
// just put on disk, so the fsnotify events the revert's own writes and
// deletes generate diff to no-ops instead of phantom created/modified
// records. Paths the revert never touched keep their entries — a
// prepopulated file that was never edited still has to diff as a
// modification the first time it is. The restored file's inode is
// unknown (writeFile goes through a temp file and rename), so the stat
// index entry is dropped; rename inference falls back to the content
// fingerprint for it.
func (m *Monitor) reconcileCacheAfterAction(ch Change) {
	switch ch.Kind {
	case Created:
		m.cacheStore.Remove(ch.Path)
		delete(m.statIndex, ch.Path)
	case Modified, Deleted:
		m.cacheStore.Set(ch.Path, ch.OldContent)
		delete(m.statIndex, ch.Path)
	case Renamed:
		m.cacheStore.Remove(ch.Path)
		delete(m.statIndex, ch.Path)
		m.cacheStore.Set(ch.Metadata.OldPath, ch.OldContent)
		delete(m.statIndex, ch.Metadata.OldPath)
	}
}

func cloneCheckpoints(src []Checkpoint) []Checkpoint {
	out := make([]Checkpoint, len(src))
	copy(out, src)
	return out
}
