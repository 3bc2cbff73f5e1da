package ignore

import "regexp"

// builtinPatterns are always dropped (unless overridden by a
// never-ignore pattern). They cover VCS metadata, the dependency
// directories most repos accumulate at their root, editor swap/backup
// files, and OS metadata.
var builtinPatterns = compileBuiltins([]string{
	// VCS metadata directories.
	`/\.git(/|$)`,
	`/\.hg(/|$)`,
	`/\.svn(/|$)`,
	`/\.jj(/|$)`,

	// Dependency / build caches commonly found at repo roots.
	`/node_modules(/|$)`,
	`/vendor(/|$)`,
	`/\.venv(/|$)`,
	`/venv(/|$)`,
	`/__pycache__(/|$)`,
	`/\.mypy_cache(/|$)`,
	`/target(/|$)`,
	`/\.gradle(/|$)`,
	`/\.cache(/|$)`,

	// Editor swap/backup suffixes.
	`~$`,
	`\.swp$`,
	`\.swo$`,
	`\.bak$`,
	`\.orig$`,
	`/#[^/]*#$`,

	// OS metadata files.
	`/\.DS_Store$`,
	`/Thumbs\.db$`,
	`/desktop\.ini$`,
})

func compileBuiltins(raw []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
