package monitor

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foldwatch/foldwatch/internal/ignore"
)

// newTestMonitor accepts testing.TB so both plain tests and
// rapid.Check bodies can share it.
func newTestMonitor(t testing.TB, root string) *Monitor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DebounceMS = 20
	filter := ignore.New(nil, nil, nil)
	m := New(root, "test-tool", cfg, filter, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})))
	t.Cleanup(m.Destroy)
	return m
}

// settle gives fsnotify time to deliver OS events into the monitor's
// pending set, then forces everything queued through the processor.
func settle(m *Monitor) []Change {
	time.Sleep(80 * time.Millisecond)
	return m.FlushPendingAndGet()
}

// S1 — create then modify.
func TestScenarioCreateThenModify(t *testing.T) {
	root := t.TempDir()
	m := newTestMonitor(t, root)
	ready := make(chan struct{})
	if err := m.Start(true, func(ReadyStats) { close(ready) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-ready

	path := filepath.Join(root, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	settle(m)

	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	log := settle(m)

	if len(log) != 2 {
		t.Fatalf("expected 2 changes, got %d: %+v", len(log), log)
	}
	if log[0].Kind != Created || string(log[0].NewContent) != "hello" {
		t.Fatalf("unexpected first record: %+v", log[0])
	}
	if log[1].Kind != Modified || string(log[1].OldContent) != "hello" || string(log[1].NewContent) != "hello world" {
		t.Fatalf("unexpected second record: %+v", log[1])
	}
}

// S2 — rename detected by inode: prepopulated x.txt renamed to y.txt
// collapses to a single renamed record and leaves no deleted record
// for the old path.
func TestScenarioRenameDetectedByInode(t *testing.T) {
	root := t.TempDir()
	oldPath := filepath.Join(root, "x.txt")
	if err := os.WriteFile(oldPath, []byte("X"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := newTestMonitor(t, root)
	ready := make(chan struct{})
	if err := m.Start(true, func(ReadyStats) { close(ready) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-ready

	newPath := filepath.Join(root, "y.txt")
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
	log := settle(m)

	if len(log) != 1 {
		t.Fatalf("expected exactly 1 record, got %d: %+v", len(log), log)
	}
	rec := log[0]
	if rec.Kind != Renamed {
		t.Fatalf("expected a renamed record, got %+v", rec)
	}
	if rec.Metadata.OldPath != "x.txt" || rec.Path != "y.txt" {
		t.Fatalf("expected old_path=x.txt path=y.txt, got old_path=%q path=%q", rec.Metadata.OldPath, rec.Path)
	}
	if string(rec.OldContent) != "X" || string(rec.NewContent) != "X" {
		t.Fatalf("expected old/new content == X, got old=%q new=%q", rec.OldContent, rec.NewContent)
	}
	for _, c := range log {
		if c.Kind == Deleted && c.Path == "x.txt" {
			t.Fatalf("expected no deleted record for x.txt, found %+v", c)
		}
	}
}

// S3 — transient file: created then deleted before any checkpoint,
// reverting to original leaves no trace and an empty log.
func TestScenarioTransientFileRevert(t *testing.T) {
	root := t.TempDir()
	m := newTestMonitor(t, root)
	ready := make(chan struct{})
	if err := m.Start(true, func(ReadyStats) { close(ready) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-ready

	path := filepath.Join(root, "t.txt")
	if err := os.WriteFile(path, []byte("tmp"), 0o644); err != nil {
		t.Fatal(err)
	}
	settle(m)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	settle(m)

	result := m.RevertToOriginal()
	if result == nil {
		t.Fatal("expected a non-nil RevertResult")
	}
	if result.RevertedCount != 2 {
		t.Fatalf("expected reverted_count == 2, got %d", result.RevertedCount)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected t.txt to not exist, stat err = %v", err)
	}
	if len(m.AllChanges()) != 0 {
		t.Fatalf("expected empty log after full revert, got %d", len(m.AllChanges()))
	}
}

// S4 — checkpointed partial revert.
func TestScenarioCheckpointedPartialRevert(t *testing.T) {
	root := t.TempDir()
	m := newTestMonitor(t, root)
	ready := make(chan struct{})
	if err := m.Start(true, func(ReadyStats) { close(ready) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-ready

	path := filepath.Join(root, "file.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	settle(m)
	m.CreateCheckpoint("cp1", nil)

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	settle(m)
	m.CreateCheckpoint("cp2", nil)

	result := m.RevertToCheckpoint(1)
	if result == nil {
		t.Fatal("expected a non-nil RevertResult")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "v1" {
		t.Fatalf("expected file.txt == %q, got %q", "v1", content)
	}

	log := m.AllChanges()
	if len(log) != 1 || log[0].Kind != Created {
		t.Fatalf("expected a single created record, got %+v", log)
	}
	checkpoints := m.GetCheckpoints()
	if len(checkpoints) != 1 || checkpoints[0].Label != "cp1" {
		t.Fatalf("expected checkpoints == [cp1], got %+v", checkpoints)
	}

	// Regression: the cache must have been rewritten to "v1", not just
	// filtered — a write observed after the revert has to diff against
	// the reverted content, not whatever was cached before it.
	if err := os.WriteFile(path, []byte("v3"), 0o644); err != nil {
		t.Fatal(err)
	}
	log = settle(m)
	if len(log) != 2 || log[1].Kind != Modified {
		t.Fatalf("expected a single modified record after the post-revert write, got %+v", log)
	}
	if string(log[1].OldContent) != "v1" {
		t.Fatalf("expected old_content == %q (the reverted content), got %q — stale cache", "v1", log[1].OldContent)
	}
	if string(log[1].NewContent) != "v3" {
		t.Fatalf("expected new_content == %q, got %q", "v3", log[1].NewContent)
	}

	full := m.AllChanges()
	if len(full) != 2 || full[0].Kind != Created || full[1].Kind != Modified {
		t.Fatalf("expected log == [created, modified] after the post-revert write, got %+v", full)
	}
}

// S5 — multi-file revert to original.
func TestScenarioMultiFileRevert(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("A"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("B"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := newTestMonitor(t, root)
	ready := make(chan struct{})
	if err := m.Start(true, func(ReadyStats) { close(ready) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-ready

	if err := os.WriteFile(filepath.Join(root, "c.txt"), []byte("C"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("A2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, "b.txt")); err != nil {
		t.Fatal(err)
	}
	settle(m)

	result := m.RevertToOriginal()
	if result == nil {
		t.Fatal("expected a non-nil RevertResult")
	}
	if result.RevertedCount != 3 {
		t.Fatalf("expected reverted_count == 3, got %d", result.RevertedCount)
	}

	a, err := os.ReadFile(filepath.Join(root, "a.txt"))
	if err != nil || string(a) != "A" {
		t.Fatalf("a.txt: got %q, err %v", a, err)
	}
	b, err := os.ReadFile(filepath.Join(root, "b.txt"))
	if err != nil || string(b) != "B" {
		t.Fatalf("b.txt: got %q, err %v", b, err)
	}
	if _, err := os.Stat(filepath.Join(root, "c.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected c.txt to not exist, stat err = %v", err)
	}
	if len(m.AllChanges()) != 0 {
		t.Fatalf("expected empty log after full revert, got %d", len(m.AllChanges()))
	}
}

// S6 — three rapid writes to the same file within the debounce and
// dedupe windows coalesce to exactly one created record followed by at
// most one modified, never three identical created records.
func TestScenarioDuplicateCoalescing(t *testing.T) {
	root := t.TempDir()
	m := newTestMonitor(t, root)
	ready := make(chan struct{})
	if err := m.Start(true, func(ReadyStats) { close(ready) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-ready

	path := filepath.Join(root, "f.txt")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	log := settle(m)

	createdCount := 0
	for _, c := range log {
		if c.Kind == Created {
			createdCount++
		}
	}
	if createdCount != 1 {
		t.Fatalf("expected exactly one created record, got %d: %+v", createdCount, log)
	}
	if len(log) > 2 {
		t.Fatalf("expected at most 2 records (created + optional modified), got %d: %+v", len(log), log)
	}
}
