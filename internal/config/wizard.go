package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// RunSetup runs the interactive first-run wizard that backs the
// `foldwatch init` command and returns the resulting File; it does not
// write it anywhere (callers pass it to SaveGlobal). If existing is
// non-nil its values seed every prompt's default (edit mode).
func RunSetup(existing *File) (*File, error) {
	r := bufio.NewReader(os.Stdin)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Printf("%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Printf("%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		ans = strings.ToLower(ans)
		return ans == "y" || ans == "yes", nil
	}

	askInt := func(prompt string, defaultVal int) (int, error) {
		ans, err := ask(prompt, strconv.Itoa(defaultVal))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(ans)
		if err != nil {
			return defaultVal, nil
		}
		return n, nil
	}

	f := &File{}
	if existing != nil {
		*f = *existing
	}

	debounce := 300
	if f.DebounceMS != nil {
		debounce = *f.DebounceMS
	}
	maxDepth := 6
	if f.MaxDepth != nil {
		maxDepth = *f.MaxDepth
	}
	respectGitignore := true
	if f.RespectGitignore != nil {
		respectGitignore = *f.RespectGitignore
	}

	fmt.Println()
	fmt.Println("  ┌─────────────────────────────────┐")
	fmt.Println("  │   foldwatch — first-time setup  │")
	fmt.Println("  └─────────────────────────────────┘")
	fmt.Println()

	debounce, err := askInt("  Debounce window (ms)", debounce)
	if err != nil {
		return nil, err
	}
	f.DebounceMS = &debounce

	maxDepth, err = askInt("  Max directory descent depth", maxDepth)
	if err != nil {
		return nil, err
	}
	f.MaxDepth = &maxDepth

	respectGitignore, err = askBool("  Respect .gitignore at watch root", respectGitignore)
	if err != nil {
		return nil, err
	}
	f.RespectGitignore = &respectGitignore

	fmt.Println()
	return f, nil
}

// SaveGlobal writes f as ~/.config/foldwatch/config.toml.
func SaveGlobal(f *File) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "foldwatch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.toml")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := toml.NewEncoder(out).Encode(f); err != nil {
		return "", err
	}
	return path, nil
}
