package fs

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

const (
	// DefaultSidecarDir is the workspace subdirectory the sidecar document
	// lives in. Kept as ".vscode" so data files written by the original
	// editor extension keep working unchanged.
	DefaultSidecarDir = ".vscode"

	// SidecarName is the sidecar document filename.
	SidecarName = "code-explorer.json"

	// legacyHiddenName is the dot-prefixed filename an earlier generation
	// used in the same directory.
	legacyHiddenName = ".code-explorer.json"

	// storageDirName scopes the oldest generation's per-folder files inside
	// the user config directory.
	storageDirName = "code-explorer"
)

// SidecarPath returns the primary sidecar document path for a workspace
// folder. An empty dir selects DefaultSidecarDir.
func SidecarPath(folder, dir string) string {
	if dir == "" {
		dir = DefaultSidecarDir
	}
	return filepath.Join(folder, dir, SidecarName)
}

// LegacySidecarPaths returns retired sidecar locations, newest first: the
// hidden dot-file next to the current one, then the user-config-scoped file
// keyed by the hex-encoded folder path.
func LegacySidecarPaths(folder, dir string) []string {
	if dir == "" {
		dir = DefaultSidecarDir
	}
	paths := []string{filepath.Join(folder, dir, legacyHiddenName)}

	if cfgDir, err := os.UserConfigDir(); err == nil {
		name := hex.EncodeToString([]byte(folder)) + ".json"
		paths = append(paths, filepath.Join(cfgDir, storageDirName, name))
	}
	return paths
}

// Resolve maps a workspace folder to its sidecar document location,
// including legacy probe paths.
func Resolve(folder, dir string) core.Location {
	return core.Location{
		Primary: SidecarPath(folder, dir),
		Legacy:  LegacySidecarPaths(folder, dir),
	}
}
