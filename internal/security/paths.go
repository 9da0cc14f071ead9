// Package security validates paths taken from untrusted input, such as
// file references stored inside a results container.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrEscapesDir is returned when a path resolves outside its base directory.
var ErrEscapesDir = errors.New("path escapes base directory")

// ResolveWithin joins rel onto baseDir and checks that the result, with
// symlinks resolved, stays inside baseDir. rel must be relative. The
// returned path is the joined path, not the resolved one.
func ResolveWithin(baseDir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s is absolute", ErrEscapesDir, rel)
	}
	joined := filepath.Join(baseDir, rel)

	base, err := canonical(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", baseDir, err)
	}
	target, err := canonical(joined)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", joined, err)
	}

	r, err := filepath.Rel(base, target)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrEscapesDir, rel, baseDir)
	}
	return joined, nil
}

// canonical returns the absolute path with symlinks resolved. For a path
// that does not exist yet, the deepest existing ancestor is resolved and
// the remainder appended, so a symlinked parent cannot redirect it.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rest := ""
	for dir := abs; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
	}
}
