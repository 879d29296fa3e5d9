// Package settings loads and persists user preferences from
// ~/.tfreview/settings.yaml.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "settings.yaml"

// Settings is the persisted user configuration.
type Settings struct {
	// Theme selects the color palette: "dark" (default) or "light".
	Theme string `yaml:"theme,omitempty"`

	// Output is the default output mode when none is given: "tui", "print",
	// "json", or "html".
	Output string `yaml:"output,omitempty"`

	// SaveHistory controls whether reviewed plans are stored under
	// ~/.tfreview/history. Enabled by default.
	SaveHistory *bool `yaml:"save_history,omitempty"`

	// Share configures the S3 destination for `tfreview share`.
	Share ShareSettings `yaml:"share,omitempty"`
}

// ShareSettings is the S3 upload destination.
type ShareSettings struct {
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Theme:  "dark",
		Output: "tui",
	}
}

// HistoryEnabled reports whether reviews should be saved.
func (s Settings) HistoryEnabled() bool {
	return s.SaveHistory == nil || *s.SaveHistory
}

// Path returns the settings file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".tfreview", fileName), nil
}

// Load reads the settings file, returning defaults when it does not exist.
func Load() (Settings, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return loadFrom(path)
}

func loadFrom(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading settings: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

func (s Settings) validate() error {
	switch s.Theme {
	case "", "dark", "light":
	default:
		return fmt.Errorf("unknown theme %q (expected dark or light)", s.Theme)
	}
	switch s.Output {
	case "", "tui", "print", "json", "html":
	default:
		return fmt.Errorf("unknown output mode %q", s.Output)
	}
	return nil
}

// Save writes the settings file, creating the state directory if needed.
func Save(s Settings) error {
	if err := s.validate(); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	return saveTo(path, s)
}

func saveTo(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
