// Package filex manages the on-disk staging area for uploaded files.
package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnsureDir creates dir (relative paths resolve against the working
// directory) and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SaveTemp copies r into a new file inside dir named "<prefix>-<uuid><ext>"
// and returns the file path. ext is taken from originalName, lowercased.
// The file is removed again if copying fails.
func SaveTemp(dir, prefix, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(dir, prefix+"-"+uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		Discard(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		Discard(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return path, nil
}

// Discard removes path. Errors are ignored; empty paths are a no-op.
func Discard(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
