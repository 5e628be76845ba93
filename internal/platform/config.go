package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional user-level configuration file, read from
// <UserConfigDir>/code-explorer/config.yaml. All fields are optional; a
// missing file yields the zero value.
type FileConfig struct {
	// DebounceMS overrides the watch debounce window, in milliseconds.
	DebounceMS int `yaml:"debounce_ms"`

	// SidecarDir overrides the workspace subdirectory holding the sidecar
	// document.
	SidecarDir string `yaml:"sidecar_dir"`

	// EventBuffer overrides the per-subscriber update channel capacity.
	EventBuffer int `yaml:"event_buffer"`
}

// ConfigPath returns the user-level configuration file path, or an empty
// string when the user config directory cannot be determined.
func ConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "code-explorer", "config.yaml")
}

// LoadConfig reads the user-level configuration file. A missing file is not
// an error; a malformed one is.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Options converts the file configuration into store options, skipping
// unset fields.
func (c FileConfig) Options() []Option {
	var opts []Option
	if c.DebounceMS > 0 {
		opts = append(opts, WithDebounce(time.Duration(c.DebounceMS)*time.Millisecond))
	}
	if c.SidecarDir != "" {
		opts = append(opts, WithSidecarDir(c.SidecarDir))
	}
	if c.EventBuffer > 0 {
		opts = append(opts, WithEventBuffer(c.EventBuffer))
	}
	return opts
}
