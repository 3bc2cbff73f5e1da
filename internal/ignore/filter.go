// Package ignore decides whether a root-relative path should be
// tracked by the monitor. The filter itself is pure — it never touches
// the filesystem — so should_ignore(path) is a deterministic function
// of (path, patterns), independent of loading concerns.
package ignore

import "regexp"

// Pattern is one parsed ignore-file line: a compiled matcher plus
// whether it's a negation ("!pattern") that re-includes a previously
// dropped path.
type Pattern struct {
	Regexp *regexp.Regexp
	Negate bool
}

// Filter implements the §4.2 decision order: never-ignore overrides
// everything, then built-ins, then ignore-file patterns (applied in
// order, negations flip the running verdict), then user patterns.
type Filter struct {
	neverIgnore []*regexp.Regexp
	ignoreFile  []Pattern
	user        []*regexp.Regexp
}

// New compiles userPatterns and neverIgnorePatterns (raw regex
// strings) and pairs them with already-parsed ignoreFilePatterns.
// Patterns that fail to compile are skipped rather than erroring —
// a malformed user-supplied regex should degrade to "no effect", not
// abort the watch.
func New(ignoreFilePatterns []Pattern, userPatterns, neverIgnorePatterns []string) *Filter {
	f := &Filter{ignoreFile: ignoreFilePatterns}
	f.user = compileAll(userPatterns)
	f.neverIgnore = compileAll(neverIgnorePatterns)
	return f
}

func compileAll(raw []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}

// ShouldIgnore reports whether path (root-relative) should be dropped
// from tracking. It is a pure function of (path, the patterns supplied
// at construction) — calling it twice with the same path always
// returns the same answer.
func (f *Filter) ShouldIgnore(path string) bool {
	matchPath := path
	if len(matchPath) == 0 || matchPath[0] != '/' {
		matchPath = "/" + matchPath
	}

	for _, re := range f.neverIgnore {
		if re.MatchString(matchPath) {
			return false
		}
	}

	for _, re := range builtinPatterns {
		if re.MatchString(matchPath) {
			return true
		}
	}

	ignored := false
	for _, p := range f.ignoreFile {
		if p.Regexp.MatchString(matchPath) {
			ignored = !p.Negate
		}
	}
	if ignored {
		return true
	}

	for _, re := range f.user {
		if re.MatchString(matchPath) {
			return true
		}
	}

	return false
}
