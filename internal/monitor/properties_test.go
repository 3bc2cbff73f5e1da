package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

// Property 1: monotonicity. For every pair of records a, b appended in
// that order, a.Timestamp < b.Timestamp.
func TestPropertyMonotonicTimestamps(t *testing.T) {
	rapid.Check(t, func(pt *rapid.T) {
		root, err := os.MkdirTemp("", "foldwatch-prop-*")
		if err != nil {
			pt.Fatalf("MkdirTemp: %v", err)
		}
		pt.Cleanup(func() { os.RemoveAll(root) })
		m := newTestMonitor(t, root)
		pt.Cleanup(m.Destroy)
		if err := m.Start(true, nil); err != nil {
			pt.Fatalf("Start: %v", err)
		}

		n := rapid.IntRange(1, 8).Draw(pt, "n")
		for i := 0; i < n; i++ {
			name := rapid.StringMatching(`[a-c]\.txt`).Draw(pt, "name")
			content := rapid.StringMatching(`[a-z]{0,12}`).Draw(pt, "content")
			_ = os.WriteFile(filepath.Join(root, name), []byte(content), 0o644)
		}
		log := settle(m)

		for i := 1; i < len(log); i++ {
			if log[i-1].Timestamp >= log[i].Timestamp {
				pt.Fatalf("timestamps not strictly increasing at index %d: %d >= %d", i, log[i-1].Timestamp, log[i].Timestamp)
			}
		}
	})
}

// Property 2: cache-log consistency. After every processor invocation,
// cache.Has(p) iff the most recent record for p has a kind that leaves
// content on disk, and when present the cached bytes equal that
// record's NewContent.
func TestPropertyCacheLogConsistency(t *testing.T) {
	rapid.Check(t, func(pt *rapid.T) {
		root, err := os.MkdirTemp("", "foldwatch-prop-*")
		if err != nil {
			pt.Fatalf("MkdirTemp: %v", err)
		}
		pt.Cleanup(func() { os.RemoveAll(root) })
		m := newTestMonitor(t, root)
		pt.Cleanup(m.Destroy)
		ready := make(chan struct{})
		if err := m.Start(true, func(ReadyStats) { close(ready) }); err != nil {
			pt.Fatalf("Start: %v", err)
		}
		<-ready

		names := []string{"a.txt", "b.txt"}
		steps := rapid.IntRange(1, 6).Draw(pt, "steps")
		for i := 0; i < steps; i++ {
			name := rapid.SampledFrom(names).Draw(pt, "name")
			path := filepath.Join(root, name)
			if rapid.Bool().Draw(pt, "delete") {
				_ = os.Remove(path)
			} else {
				content := rapid.StringMatching(`[a-z]{0,12}`).Draw(pt, "content")
				_ = os.WriteFile(path, []byte(content), 0o644)
			}
			settle(m)
		}

		// Replay the log to the expected cache state. A renamed record
		// ends its old path's history and begins the new path's, so the
		// replay has to handle both sides, in order.
		type state struct {
			cached  bool
			content []byte
		}
		want := map[string]state{}
		for _, c := range m.AllChanges() {
			switch c.Kind {
			case Created, Modified:
				want[c.Path] = state{true, c.NewContent}
			case Deleted:
				want[c.Path] = state{}
			case Renamed:
				want[c.Metadata.OldPath] = state{}
				want[c.Path] = state{true, c.NewContent}
			}
		}
		for _, name := range names {
			cached, ok := m.cacheStore.Get(name)
			w := want[name]
			if ok != w.cached {
				pt.Fatalf("%s: cache presence %v, expected %v", name, ok, w.cached)
			}
			if w.cached && string(cached) != string(w.content) {
				pt.Fatalf("%s: cached content %q != expected %q", name, cached, w.content)
			}
		}
	})
}

// Property 4: duplicate suppression. Writing the same content to the
// same path repeatedly within the dedupe window never produces more
// than one record of the same kind back-to-back for that path.
func TestPropertyDuplicateSuppression(t *testing.T) {
	rapid.Check(t, func(pt *rapid.T) {
		root, err := os.MkdirTemp("", "foldwatch-prop-*")
		if err != nil {
			pt.Fatalf("MkdirTemp: %v", err)
		}
		pt.Cleanup(func() { os.RemoveAll(root) })
		m := newTestMonitor(t, root)
		pt.Cleanup(m.Destroy)
		if err := m.Start(true, nil); err != nil {
			pt.Fatalf("Start: %v", err)
		}

		path := filepath.Join(root, "f.txt")
		repeats := rapid.IntRange(2, 5).Draw(pt, "repeats")
		content := rapid.StringMatching(`[a-z]{1,10}`).Draw(pt, "content")
		for i := 0; i < repeats; i++ {
			_ = os.WriteFile(path, []byte(content), 0o644)
		}
		log := settle(m)

		createdCount := 0
		for _, c := range log {
			if c.Path == "f.txt" && c.Kind == Created {
				createdCount++
			}
		}
		if createdCount > 1 {
			pt.Fatalf("expected at most one created record for repeated identical writes, got %d", createdCount)
		}
	})
}

// Property 6: revert truncation. After RevertToCheckpoint(k), the new
// log is exactly the prefix of the old log with timestamp <=
// checkpoints[k-1].Timestamp, and the new checkpoint list is exactly
// the first k checkpoints.
func TestPropertyRevertTruncation(t *testing.T) {
	rapid.Check(t, func(pt *rapid.T) {
		root, err := os.MkdirTemp("", "foldwatch-prop-*")
		if err != nil {
			pt.Fatalf("MkdirTemp: %v", err)
		}
		pt.Cleanup(func() { os.RemoveAll(root) })
		m := newTestMonitor(t, root)
		pt.Cleanup(m.Destroy)
		if err := m.Start(true, nil); err != nil {
			pt.Fatalf("Start: %v", err)
		}

		path := filepath.Join(root, "f.txt")
		numCheckpoints := rapid.IntRange(1, 4).Draw(pt, "num_checkpoints")
		for i := 0; i < numCheckpoints; i++ {
			content := rapid.StringMatching(`[a-z]{1,10}`).Draw(pt, "content")
			_ = os.WriteFile(path, []byte(content), 0o644)
			settle(m)
			m.CreateCheckpoint("", nil)
		}

		checkpointsBefore := m.GetCheckpoints()
		logBefore := m.AllChanges()
		k := rapid.IntRange(1, numCheckpoints).Draw(pt, "k")
		if k >= len(checkpointsBefore) {
			return // reverting to the final checkpoint is a defined no-op
		}

		target := checkpointsBefore[k-1].Timestamp
		var wantLog []Change
		for _, c := range logBefore {
			if c.Timestamp <= target {
				wantLog = append(wantLog, c)
			}
		}

		result := m.RevertToCheckpoint(k)
		if result == nil {
			if len(wantLog) != len(logBefore) {
				pt.Fatalf("RevertToCheckpoint(%d) returned nil but there was work to revert", k)
			}
			return
		}

		if len(result.NewChanges) != len(wantLog) {
			pt.Fatalf("expected new log of length %d, got %d", len(wantLog), len(result.NewChanges))
		}
		for i := range wantLog {
			if result.NewChanges[i].Timestamp != wantLog[i].Timestamp {
				pt.Fatalf("new log mismatch at index %d", i)
			}
		}
		if len(result.NewCheckpoints) != k {
			pt.Fatalf("expected %d surviving checkpoints, got %d", k, len(result.NewCheckpoints))
		}
	})
}

// Cache consistency must keep holding across a revert, including for a
// write observed immediately afterward — a surviving path's cache
// entry must hold the reverted content, not its pre-revert value, or
// the next write diffs against stale bytes.
func TestPropertyCacheConsistentAfterRevert(t *testing.T) {
	rapid.Check(t, func(pt *rapid.T) {
		root, err := os.MkdirTemp("", "foldwatch-prop-*")
		if err != nil {
			pt.Fatalf("MkdirTemp: %v", err)
		}
		pt.Cleanup(func() { os.RemoveAll(root) })
		m := newTestMonitor(t, root)
		pt.Cleanup(m.Destroy)
		if err := m.Start(true, nil); err != nil {
			pt.Fatalf("Start: %v", err)
		}

		path := filepath.Join(root, "f.txt")
		numCheckpoints := rapid.IntRange(2, 4).Draw(pt, "num_checkpoints")
		for i := 0; i < numCheckpoints; i++ {
			content := rapid.StringMatching(`[a-z]{1,10}`).Draw(pt, "content")
			_ = os.WriteFile(path, []byte(content), 0o644)
			settle(m)
			m.CreateCheckpoint("", nil)
		}

		k := rapid.IntRange(1, numCheckpoints-1).Draw(pt, "k")
		if m.RevertToCheckpoint(k) == nil {
			return
		}

		postRevertContent := rapid.StringMatching(`[a-z]{1,10}`).Draw(pt, "post_revert_content")
		_ = os.WriteFile(path, []byte(postRevertContent), 0o644)
		log := settle(m)

		full := m.AllChanges()
		latest := map[string]Change{}
		for _, c := range full {
			latest[c.Path] = c
		}
		last := latest["f.txt"]
		cached, ok := m.cacheStore.Get("f.txt")
		if !ok {
			pt.Fatalf("expected f.txt to be cached after a post-revert write")
		}
		if string(cached) != string(last.NewContent) {
			pt.Fatalf("cached content %q != last record's new_content %q", cached, last.NewContent)
		}

		if len(log) > 0 && string(log[len(log)-1].OldContent) == postRevertContent {
			pt.Fatalf("spurious diff: old_content should not equal the content just written")
		}
	})
}

// Property 9: flush completeness. After FlushPendingAndGet returns,
// every write issued before the call is reflected in the returned log.
func TestPropertyFlushCompleteness(t *testing.T) {
	rapid.Check(t, func(pt *rapid.T) {
		root, err := os.MkdirTemp("", "foldwatch-prop-*")
		if err != nil {
			pt.Fatalf("MkdirTemp: %v", err)
		}
		pt.Cleanup(func() { os.RemoveAll(root) })
		m := newTestMonitor(t, root)
		pt.Cleanup(m.Destroy)
		ready := make(chan struct{})
		if err := m.Start(true, func(ReadyStats) { close(ready) }); err != nil {
			pt.Fatalf("Start: %v", err)
		}
		<-ready

		n := rapid.IntRange(1, 5).Draw(pt, "n")
		written := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			name := rapid.StringMatching(`[a-z]{1,8}\.txt`).Draw(pt, "name")
			_ = os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644)
			written[name] = true
		}

		log := settle(m)
		seen := make(map[string]bool, len(log))
		for _, c := range log {
			seen[c.Path] = true
		}
		for name := range written {
			if !seen[name] {
				pt.Fatalf("expected %s to be reflected in the flushed log", name)
			}
		}
	})
}
