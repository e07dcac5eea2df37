package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/meshsync/engine/systems"
)

type LogConfig struct {
	// One of debug, info, warn, error or fatal.
	Level string `toml:"level"`
}

type WatchConfig struct {
	// Reload procedural parts when their files change.
	Enabled bool `toml:"enabled"`
	// Directories watched recursively.
	Paths []string `toml:"paths"`
}

type ApplicationConfig struct {
	// The application name used in logs and error scopes.
	Name   string               `toml:"name"`
	Log    LogConfig            `toml:"log"`
	Sync   systems.SyncConfig   `toml:"sync"`
	Motion systems.MotionConfig `toml:"motion"`
	Watch  WatchConfig          `toml:"watch"`
}

func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:   "meshsync",
		Log:    LogConfig{Level: "info"},
		Sync:   systems.DefaultSyncConfig(),
		Motion: systems.DefaultMotionConfig(),
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (*ApplicationConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := decodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML data on top of DefaultConfig. Unknown keys are
// rejected.
func ParseConfig(data []byte) (*ApplicationConfig, error) {
	return decodeConfig(bytes.NewReader(data))
}

func decodeConfig(r io.Reader) (*ApplicationConfig, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	if c.Watch.Enabled && len(c.Watch.Paths) == 0 {
		return fmt.Errorf("watch.enabled is set but watch.paths is empty")
	}
	return nil
}

// Encode writes the configuration as TOML.
func (c *ApplicationConfig) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
