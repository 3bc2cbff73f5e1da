package monitor

import "path/filepath"

// relPathOf converts an absolute path under root into the root-relative,
// forward-slash form the log and cache key everything by.
func relPathOf(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		rel = abs
	}
	return filepath.ToSlash(rel)
}

func (m *Monitor) relPath(abs string) string {
	return relPathOf(m.root, abs)
}

func (m *Monitor) absPath(rel string) string {
	return filepath.Join(m.root, filepath.FromSlash(rel))
}
