package monitor

// Config holds the recognized watch options. DefaultConfig returns the
// built-in defaults, and internal/config.Merge layers config files over
// them. New uses the Config it is given as is; zero-valued fields are
// not replaced by defaults.
type Config struct {
	DebounceMS          int      `json:"debounce_ms"`
	MaxFileSize         int      `json:"max_file_size"`
	MaxPrepopulateFiles int      `json:"max_prepopulate_files"`
	MaxDepth            int      `json:"max_depth"`
	MaxCacheBytes       int      `json:"max_cache_bytes"`
	IgnorePatterns      []string `json:"ignore_patterns"`
	RespectGitignore    bool     `json:"respect_gitignore"`
	NeverIgnore         []string `json:"never_ignore"`
	Debug               bool     `json:"debug"`
	DebugFile           string   `json:"debug_file,omitempty"`
}

// DefaultConfig returns the built-in default for every option.
func DefaultConfig() Config {
	return Config{
		DebounceMS:          300,
		MaxFileSize:         2 * 1024 * 1024,
		MaxPrepopulateFiles: 2000,
		MaxDepth:            6,
		MaxCacheBytes:       50 * 1024 * 1024,
		RespectGitignore:    true,
	}
}
