// Package config loads foldwatch's ambient configuration: a global
// file under the user's config directory, optionally overridden by a
// project-local file, merged into the monitor.Config the session
// facade starts every watch with. Both JSON and TOML are accepted,
// mirroring the two serialization formats the example corpus uses.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/foldwatch/foldwatch/internal/monitor"
)

// File is the on-disk shape of a config file — every field optional,
// a zero value meaning "inherit from the next layer down".
type File struct {
	DebounceMS          *int     `json:"debounce_ms,omitempty" toml:"debounce_ms,omitempty"`
	MaxFileSize         *int     `json:"max_file_size,omitempty" toml:"max_file_size,omitempty"`
	MaxPrepopulateFiles *int     `json:"max_prepopulate_files,omitempty" toml:"max_prepopulate_files,omitempty"`
	MaxDepth            *int     `json:"max_depth,omitempty" toml:"max_depth,omitempty"`
	MaxCacheBytes       *int     `json:"max_cache_bytes,omitempty" toml:"max_cache_bytes,omitempty"`
	IgnorePatterns      []string `json:"ignore_patterns,omitempty" toml:"ignore_patterns,omitempty"`
	RespectGitignore    *bool    `json:"respect_gitignore,omitempty" toml:"respect_gitignore,omitempty"`
	NeverIgnore         []string `json:"never_ignore,omitempty" toml:"never_ignore,omitempty"`
	Debug               *bool    `json:"debug,omitempty" toml:"debug,omitempty"`
	DebugFile           string   `json:"debug_file,omitempty" toml:"debug_file,omitempty"`
}

// ParseError is returned when a config file exists but fails to parse
// in its own format.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return "config: failed to parse " + e.Path + ": " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// LoadGlobal reads the user-wide config, preferring
// ~/.config/foldwatch/config.toml and falling back to config.json.
// Returns nil, nil if neither file exists.
func LoadGlobal() (*File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".config", "foldwatch")
	return loadPreferred(filepath.Join(dir, "config.toml"), filepath.Join(dir, "config.json"))
}

// GlobalConfigPath returns where SaveGlobal writes the wizard's output,
// i.e. the path whose absence the CLI treats as "first run".
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "foldwatch", "config.toml"), nil
}

// LoadProject reads the working directory's project-local config,
// preferring .foldwatch.toml and falling back to .foldwatchconfig
// (JSON, matching the dotfile-without-extension convention the
// example corpus uses for its project config).
func LoadProject(cwd string) (*File, error) {
	return loadPreferred(filepath.Join(cwd, ".foldwatch.toml"), filepath.Join(cwd, ".foldwatchconfig"))
}

func loadPreferred(tomlPath, jsonPath string) (*File, error) {
	if f, err := loadTOML(tomlPath); err != nil {
		return nil, err
	} else if f != nil {
		return f, nil
	}
	return loadJSON(jsonPath)
}

func loadJSON(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &f, nil
}

func loadTOML(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &f, nil
}

// Merge layers global then project over monitor.DefaultConfig,
// project taking precedence — the same two-tier precedence the
// example corpus's own config loader uses.
func Merge(global, project *File) monitor.Config {
	result := monitor.DefaultConfig()
	apply(&result, global)
	apply(&result, project)
	return result
}

func apply(result *monitor.Config, f *File) {
	if f == nil {
		return
	}
	if f.DebounceMS != nil {
		result.DebounceMS = *f.DebounceMS
	}
	if f.MaxFileSize != nil {
		result.MaxFileSize = *f.MaxFileSize
	}
	if f.MaxPrepopulateFiles != nil {
		result.MaxPrepopulateFiles = *f.MaxPrepopulateFiles
	}
	if f.MaxDepth != nil {
		result.MaxDepth = *f.MaxDepth
	}
	if f.MaxCacheBytes != nil {
		result.MaxCacheBytes = *f.MaxCacheBytes
	}
	if len(f.IgnorePatterns) > 0 {
		result.IgnorePatterns = f.IgnorePatterns
	}
	if f.RespectGitignore != nil {
		result.RespectGitignore = *f.RespectGitignore
	}
	if len(f.NeverIgnore) > 0 {
		result.NeverIgnore = f.NeverIgnore
	}
	if f.Debug != nil {
		result.Debug = *f.Debug
	}
	if f.DebugFile != "" {
		result.DebugFile = f.DebugFile
	}
}
