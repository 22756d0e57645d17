// Package config provides configuration loading from JSON or YAML files.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// Config represents the player configuration. JSON is the canonical
// on-disk format; files ending in .yaml or .yml are parsed as YAML.
type Config struct {
	MusicPath      string                 `json:"usb_mount_path" yaml:"usb_mount_path" validate:"required"`
	Mappings       map[tag.ID]tag.Mapping `json:"nfc_mappings" yaml:"nfc_mappings"`
	Audio          AudioConfig            `json:"audio_settings" yaml:"audio_settings"`
	PollIntervalMs int                    `json:"poll_interval_ms,omitempty" yaml:"poll_interval_ms" default:"500" validate:"gte=50"`
	DetachTicks    int                    `json:"detach_ticks,omitempty" yaml:"detach_ticks" default:"1" validate:"gte=1"`
	ActivityLog    string                 `json:"activity_log,omitempty" yaml:"activity_log" default:"logs/activity.log"`
	Sensor         SensorConfig           `json:"sensor" yaml:"sensor"`
}

// AudioConfig represents playback output configuration.
type AudioConfig struct {
	Volume     float64 `json:"volume" yaml:"volume" default:"0.7" validate:"gte=0,lte=1"`
	SampleRate int     `json:"sample_rate,omitempty" yaml:"sample_rate" default:"44100" validate:"gt=0"`
	TrackGapMs int     `json:"track_gap_ms,omitempty" yaml:"track_gap_ms" default:"500" validate:"gte=0"`
}

// SensorConfig represents the tag reader configuration. Settings are
// driver-specific and decoded by the selected driver.
type SensorConfig struct {
	Driver   string         `json:"driver" yaml:"driver" default:"fifo" validate:"required"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings"`
}

// Load loads configuration from a JSON or YAML file.
// Environment variables take precedence over file values for paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Save writes the configuration to path as indented JSON, creating the
// parent directory if needed.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("NFC_MUSIC_PATH"); v != "" {
		c.MusicPath = v
	}
	if v := os.Getenv("NFC_ACTIVITY_LOG"); v != "" {
		c.ActivityLog = v
	}
	if v := os.Getenv("NFC_SENSOR_PATH"); v != "" {
		if c.Sensor.Settings == nil {
			c.Sensor.Settings = map[string]any{}
		}
		c.Sensor.Settings["path"] = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// Validate mapping targets
	for id, m := range c.Mappings {
		if strings.TrimSpace(m.Album) == "" {
			return errors.Newf("mapping for tag %s has no album name", id)
		}
	}

	return nil
}

// PollInterval returns the sensor poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// TrackGap returns the pause inserted between consecutive tracks.
func (c *AudioConfig) TrackGap() time.Duration {
	return time.Duration(c.TrackGapMs) * time.Millisecond
}

// Lookup returns the album mapping for a tag.
func (c *Config) Lookup(id tag.ID) (tag.Mapping, bool) {
	m, ok := c.Mappings[id]
	return m, ok
}
