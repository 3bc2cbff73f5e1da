package monitor

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/foldwatch/foldwatch/internal/fsread"
)

const (
	dedupeWindowNS      = int64(time.Second)
	dedupeScanHorizonNS = int64(5 * time.Second)
	renameWindowNS      = int64(2 * time.Second)
	fingerprintWindow   = 1024
)

// handleReadResult is the landing point for every async fsread.Read
// result. Results buffer until the whole batch has landed, then are
// processed deletions-first — a rename shows up as a delete of the old
// name plus a create of the new one in the same batch, and inference
// on the create can only find the delete if it's already in the log.
// A stale watchGen means the watch was paused, resumed, or destroyed
// since the read was dispatched; the result is discarded.
func (m *Monitor) handleReadResult(c readResultCmd) {
	m.inFlight--
	if c.watchGen == m.watchGen {
		m.batchResults = append(m.batchResults, c)
	}
	if m.inFlight == 0 {
		m.processBatchResults()
		m.maybeDispatchNextBatch()
	}
	m.resolvePendingFlushesIfReady()
}

func (m *Monitor) processBatchResults() {
	results := m.batchResults
	m.batchResults = nil
	sort.SliceStable(results, func(i, j int) bool {
		return errors.Is(results[i].err, fsread.ErrNotFound) && !errors.Is(results[j].err, fsread.ErrNotFound)
	})
	for _, c := range results {
		m.processReadResult(c)
	}
}

// processReadResult classifies one read against the cache, decides
// created/modified/deleted/no-op, and appends.
func (m *Monitor) processReadResult(c readResultCmd) {
	rel := c.relPath
	if m.filter.ShouldIgnore(rel) {
		return
	}

	cached, hadCache := m.cacheStore.Get(rel)

	if errors.Is(c.err, fsread.ErrNotFound) {
		if !hadCache {
			return
		}
		prior := m.statIndex[rel]
		m.cacheStore.Remove(rel)
		delete(m.statIndex, rel)
		m.appendChange(Change{
			Path:       rel,
			Kind:       Deleted,
			OldContent: cached,
			Metadata: Metadata{
				Device:  prior.device,
				Inode:   prior.inode,
				OldSize: len(cached),
			},
		})
		return
	}

	if c.err != nil {
		// TooLarge, ErrBinary, or an IOError: unreadable, no state change.
		m.statsErrors++
		return
	}

	if hadCache && bytes.Equal(cached, c.content) {
		return
	}

	if !hadCache {
		m.cacheStore.Set(rel, c.content)
		m.statIndex[rel] = statInfo{c.device, c.inode}
		m.appendChange(Change{
			Path:       rel,
			Kind:       Created,
			NewContent: c.content,
			Metadata: Metadata{
				Device:  c.device,
				Inode:   c.inode,
				NewSize: len(c.content),
				Size:    len(c.content),
			},
		})
		return
	}

	m.cacheStore.Set(rel, c.content)
	m.statIndex[rel] = statInfo{c.device, c.inode}
	m.appendChange(Change{
		Path:       rel,
		Kind:       Modified,
		OldContent: cached,
		NewContent: c.content,
		Metadata: Metadata{
			Device:  c.device,
			Inode:   c.inode,
			OldSize: len(cached),
			NewSize: len(c.content),
		},
	})
}

// appendChange applies duplicate suppression and rename inference before
// committing ch to the log and emitting its event. Called only from the
// loop goroutine, so the log can be mutated freely.
func (m *Monitor) appendChange(ch Change) {
	if m.isDuplicate(ch) {
		return
	}
	if ch.Kind == Created {
		if renamed, ok := m.tryInferRename(ch); ok {
			ch = renamed
		}
	}
	ch.Timestamp = m.nextTimestamp()
	ch.ToolName = m.toolName
	m.log = append(m.log, ch)
	m.emit(Event{Type: EventFileChanged, Root: m.root, Change: &m.log[len(m.log)-1]})
}

// isDuplicate implements the 1s/5s duplicate-suppression rule: a second
// record for the same path and kind within one second of the first is
// dropped, but the log is never scanned more than five seconds back.
func (m *Monitor) isDuplicate(ch Change) bool {
	now := time.Since(m.startInstant).Nanoseconds()
	for i := len(m.log) - 1; i >= 0; i-- {
		existing := m.log[i]
		age := now - existing.Timestamp
		if age > dedupeScanHorizonNS {
			break
		}
		if existing.Path == ch.Path && existing.Kind == ch.Kind && age <= dedupeWindowNS {
			return true
		}
	}
	return false
}

// tryInferRename looks for a Deleted record within the rename window
// that matches created by (device, inode) or, failing that, by content
// fingerprint, and if found collapses the pair into a single Renamed
// change.
func (m *Monitor) tryInferRename(created Change) (Change, bool) {
	now := time.Since(m.startInstant).Nanoseconds()
	for i := len(m.log) - 1; i >= 0; i-- {
		d := m.log[i]
		if now-d.Timestamp > renameWindowNS {
			break
		}
		if d.Kind != Deleted {
			continue
		}
		matched := d.Metadata.Device != 0 && d.Metadata.Device == created.Metadata.Device && d.Metadata.Inode == created.Metadata.Inode
		if !matched {
			matched = fingerprintEqual(created.NewContent, d.OldContent)
		}
		if !matched {
			continue
		}
		m.log = append(m.log[:i], m.log[i+1:]...)
		return Change{
			Path:       created.Path,
			Kind:       Renamed,
			OldContent: d.OldContent,
			NewContent: created.NewContent,
			Metadata: Metadata{
				Device:  created.Metadata.Device,
				Inode:   created.Metadata.Inode,
				OldPath: d.Path,
				OldSize: len(d.OldContent),
				NewSize: len(created.NewContent),
			},
		}, true
	}
	return created, false
}

func fingerprintEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	ah, at := fingerprintWindowOf(a)
	bh, bt := fingerprintWindowOf(b)
	return bytes.Equal(ah, bh) && bytes.Equal(at, bt)
}

func fingerprintWindowOf(b []byte) (head, tail []byte) {
	if len(b) <= fingerprintWindow {
		return b, b
	}
	return b[:fingerprintWindow], b[len(b)-fingerprintWindow:]
}

// handleFlush forces any pending debounce batch to fire and queues
// resultCh to receive a log snapshot once every outstanding and newly
// queued read has landed. Viewers rely on this to never see a stale
// snapshot while reads are still in flight.
func (m *Monitor) handleFlush(resultCh chan []Change) {
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
		m.debounceTimer = nil
	}
	m.drainPendingIntoBatch()
	if m.inFlight == 0 && len(m.batchQueue) == 0 {
		resultCh <- cloneChanges(m.log)
		return
	}
	m.pendingFlushes = append(m.pendingFlushes, resultCh)
}

func (m *Monitor) resolvePendingFlushesIfReady() {
	if m.inFlight > 0 || len(m.batchQueue) > 0 || len(m.pendingPaths) > 0 || len(m.pendingFlushes) == 0 {
		return
	}
	for _, ch := range m.pendingFlushes {
		ch <- cloneChanges(m.log)
	}
	m.pendingFlushes = nil
}

func (m *Monitor) changesSince(ts int64) []Change {
	var out []Change
	for _, c := range m.log {
		if c.Timestamp > ts {
			out = append(out, c)
		}
	}
	return out
}

func (m *Monitor) computeStats() Stats {
	counts := make(map[Kind]int)
	toolSet := make(map[string]bool)
	for _, c := range m.log {
		counts[c.Kind]++
		if c.ToolName != "" {
			toolSet[c.ToolName] = true
		}
		for _, t := range c.Tools {
			toolSet[t] = true
		}
	}
	tools := make([]string, 0, len(toolSet))
	for t := range toolSet {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return Stats{CountByKind: counts, ToolNames: tools, ActiveWatch: m.watching, Errors: m.statsErrors}
}

// tagChangesInRange applies external attribution: every change
// timestamped within [startNS, endNS] gets tool appended to its Tools
// list, and attribution is set to confirmed when args.Filepath is
// empty or matches, ambiguous otherwise.
func (m *Monitor) tagChangesInRange(startNS, endNS int64, tool string, args TagArgs) {
	for i := range m.log {
		c := &m.log[i]
		if c.Timestamp < startNS || c.Timestamp > endNS {
			continue
		}
		if !containsStr(c.Tools, tool) {
			c.Tools = append(c.Tools, tool)
		}
		if c.Metadata.OriginalTool == "" {
			c.Metadata.OriginalTool = c.ToolName
		}
		if args.Filepath == "" || c.Path == args.Filepath || strings.HasPrefix(c.Path, args.Filepath+"/") {
			c.Metadata.Attribution = "confirmed"
		} else {
			c.Metadata.Attribution = "ambiguous"
		}
	}
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
