package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathTraversal = errors.New("path traversal not allowed")

// SafePath joins name onto baseDir and rejects results that escape baseDir.
func SafePath(baseDir, name string) (string, error) {
	cleanName := filepath.Clean(name)
	if hasParentRef(cleanName) {
		return "", fmt.Errorf("invalid filename %q: %w", name, ErrPathTraversal)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, cleanName))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || hasParentRef(rel) {
		return "", fmt.Errorf("path %q is outside %s", name, baseDir)
	}

	return filepath.Join(baseDir, cleanName), nil
}

// ValidateFilePath rejects user supplied paths that climb out of their directory.
func ValidateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("file path is empty")
	}
	if hasParentRef(filepath.Clean(path)) {
		return fmt.Errorf("invalid file path %q: %w", path, ErrPathTraversal)
	}
	return nil
}

// ReadFile validates path before reading it.
func ReadFile(path string) ([]byte, error) {
	if err := ValidateFilePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- validated above
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

func hasParentRef(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
