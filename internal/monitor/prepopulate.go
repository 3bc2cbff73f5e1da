package monitor

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/foldwatch/foldwatch/internal/fsread"
)

// prepopulatedFile is one file the initial directory walk read
// successfully, on its way back to the loop as a prepopulateDoneCmd.
type prepopulatedFile struct {
	relPath string
	content []byte
	device  uint64
	inode   uint64
}

// runPrepopulate walks root off the loop goroutine, honoring
// MaxDepth/MaxPrepopulateFiles, and reports the files it could read
// back as a single prepopulateDoneCmd. It touches only m.root, m.cfg,
// and m.filter, all of which are set once at construction and never
// mutated afterward, so no synchronization is needed to read them from
// this goroutine.
func (m *Monitor) runPrepopulate(gen uint64, onReady func(ReadyStats)) {
	start := time.Now()
	var stats ReadyStats
	var files []prepopulatedFile

	root, maxDepth, maxFiles, maxSize := m.root, m.cfg.MaxDepth, m.cfg.MaxPrepopulateFiles, m.cfg.MaxFileSize
	filter := m.filter
	scanned := 0

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel := relPathOf(root, path)
		if d.IsDir() {
			if path == root {
				return nil
			}
			if filter.ShouldIgnore(rel) {
				return filepath.SkipDir
			}
			if strings.Count(rel, "/")+1 > maxDepth {
				return filepath.SkipDir
			}
			stats.DirectoriesScanned++
			return nil
		}
		if scanned >= maxFiles {
			return filepath.SkipAll
		}
		if filter.ShouldIgnore(rel) {
			return nil
		}
		scanned++
		stats.FilesScanned++

		res, rerr := fsread.Read(path, maxSize)
		if rerr != nil {
			stats.Errors++
			return nil
		}
		files = append(files, prepopulatedFile{relPath: rel, content: res.Content, device: res.Device, inode: res.Inode})
		stats.FilesCached++
		stats.BytesCached += len(res.Content)
		return nil
	})

	stats.ElapsedMS = time.Since(start).Milliseconds()
	m.cmdCh <- prepopulateDoneCmd{watchGen: gen, files: files, stats: stats, onReady: onReady}
}

// handlePrepopulateDone seeds the cache with whatever the walk read,
// skipping any path a live event has already populated more recently —
// the walk can take a while and must never clobber newer state.
func (m *Monitor) handlePrepopulateDone(c prepopulateDoneCmd) {
	if c.watchGen == m.watchGen {
		for _, f := range c.files {
			if !m.cacheStore.Has(f.relPath) {
				m.cacheStore.Set(f.relPath, f.content)
				m.statIndex[f.relPath] = statInfo{f.device, f.inode}
			}
		}
		m.statsErrors += c.stats.Errors
	}
	if c.onReady != nil {
		c.onReady(c.stats)
	}
}
