package core

import (
	"path/filepath"
	"strings"
)

// StoragePath converts an absolute file path to the form persisted in the
// sidecar document: relative to the workspace folder when the file lives
// inside it, unchanged otherwise. A relative path that would escape the
// folder is never stored, to avoid ambiguous resolution later.
func StoragePath(path, folder string) string {
	if path == "" || folder == "" {
		return path
	}
	rel, err := filepath.Rel(folder, path)
	if err != nil {
		return path
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// AbsolutePath resolves a stored path back to an absolute path given the
// workspace folder root. Already-absolute paths pass through unchanged.
func AbsolutePath(path, folder string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(folder, filepath.FromSlash(path))
}
