// Package security checks file paths the commands write to.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateWithin reports an error when path resolves outside dir. Symlinks in
// path, or in its nearest existing parent when path does not exist yet, are
// resolved first.
func ValidateWithin(path, dir string) error {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	realDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}

	real := abs
	for p := abs; ; {
		if r, err := filepath.EvalSymlinks(p); err == nil {
			rest, _ := filepath.Rel(p, abs)
			real = filepath.Join(r, rest)
			break
		}
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}

	rel, err := filepath.Rel(realDir, real)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%s is outside %s", path, dir)
	}
	return nil
}

// ValidateOutputPath accepts paths under the working directory or the
// temp directory.
func ValidateOutputPath(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	for _, dir := range []string{cwd, os.TempDir()} {
		if ValidateWithin(path, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("output %s must be under %s or %s", path, cwd, os.TempDir())
}

// SanitizeName turns s into a file name of ASCII letters, digits, dot,
// underscore and dash. Runs of anything else become one underscore.
func SanitizeName(s string) string {
	const maxLen = 64
	var b strings.Builder
	under := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			under = false
		case !under:
			b.WriteByte('_')
			under = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unnamed"
	}
	return out
}
