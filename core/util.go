package core

import (
	"os"
	"path/filepath"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ProjectRoot returns the closest directory at or above dir holding a go.mod file,
// or dir itself when there is none (e.g. a deployed binary).
// go test runs in the package directory, so config files are looked up from the root.
func ProjectRoot(dir string) string {
	for curr := dir; ; {
		if _, err := os.Stat(filepath.Join(curr, "go.mod")); err == nil {
			return curr
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			return dir
		}
		curr = parent
	}
}
