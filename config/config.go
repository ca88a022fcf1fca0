package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrdg/cue/audio"
)

// AudioConfig stores the render settings
type AudioConfig struct {
	SampleRate    float64 `json:"sampleRate"`
	BufferSize    int     `json:"bufferSize"`
	EventCapacity int     `json:"eventCapacity"`
}

// KitConfig describes the sounds loaded into the sampler at startup
type KitConfig struct {
	Sounds  string `json:"sounds,omitempty"` // glob of WAV files, mapped to keys in name order
	RootKey int    `json:"rootKey"`          // key of the first sound
	Preset  string `json:"preset,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Audio AudioConfig `json:"audio"`
	Kit   KitConfig   `json:"kit"`
	BPM   float64     `json:"bpm"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	params := audio.DefaultParams()
	return &Config{
		Audio: AudioConfig{
			SampleRate:    params.SampleRate,
			BufferSize:    params.BufferSize,
			EventCapacity: params.EventCapacity,
		},
		Kit: KitConfig{
			Sounds:  "*.wav",
			RootKey: 60,
		},
		BPM: 120,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cue"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Settings missing from the file keep
// their defaults, and a missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory if needed
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Params returns the render settings
func (c *Config) Params() audio.Params {
	return audio.Params{
		SampleRate:    c.Audio.SampleRate,
		BufferSize:    c.Audio.BufferSize,
		EventCapacity: c.Audio.EventCapacity,
	}
}

// Validate checks that the config can be used to start a session
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if c.BPM <= 0 || c.BPM > 500 {
		return fmt.Errorf("bpm out of range 1 - 500: %v", c.BPM)
	}
	if c.Kit.RootKey < 0 || c.Kit.RootKey > 127 {
		return fmt.Errorf("kit: root key is not a midi note: %v", c.Kit.RootKey)
	}
	return nil
}
