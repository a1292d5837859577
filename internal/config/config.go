// Package config loads the YAML settings shared by the scanmarker and
// ydlidar-scan binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deepakkamesh/scanmarker/ydlidar"
)

// Config holds settings for both binaries.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Markers configures the scan to marker node.
	Markers Markers `yaml:"markers"`
	// Lidar configures the YDLidar scan publisher.
	Lidar Lidar `yaml:"lidar"`
}

// Markers configures the scan to marker node.
type Markers struct {
	NodeName    string `yaml:"node_name"`
	ScanTopic   string `yaml:"scan_topic"`
	MarkerTopic string `yaml:"marker_topic"`
	FrameID     string `yaml:"frame_id"`
}

// Lidar configures the YDLidar scan publisher.
type Lidar struct {
	NodeName  string `yaml:"node_name"`
	ScanTopic string `yaml:"scan_topic"`
	FrameID   string `yaml:"frame_id"`
	// Port is the serial device. Empty picks the last enumerated port.
	Port string `yaml:"port"`
	// Model selects the sample format and baud rate (X4 or G2).
	Model    string  `yaml:"model"`
	RangeMin float32 `yaml:"range_min"`
	RangeMax float32 `yaml:"range_max"`
	// ReplayFile, when set, replays a raw serial capture instead of opening Port.
	ReplayFile string        `yaml:"replay_file"`
	ReplayPace time.Duration `yaml:"replay_pace"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "scanmarker.yaml"

	// DefaultFilePermissions is the permission used by Save.
	DefaultFilePermissions = 0o600
)

var (
	errConfigIsNotSet = errors.New("configuration is not set")

	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid configuration")
)

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Markers: Markers{
			NodeName:    "/laser_scan_to_marker",
			ScanTopic:   "/scan",
			MarkerTopic: "/visualization_marker",
			FrameID:     "laser_link",
		},
		Lidar: Lidar{
			NodeName:   "/ydlidar",
			ScanTopic:  "/scan",
			FrameID:    "laser_link",
			Model:      ydlidar.G2.Name,
			RangeMin:   0.08,
			RangeMax:   10,
			ReplayPace: 2 * time.Millisecond,
		},
	}
}

// Load reads path over Default and validates the result.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	m := cfg.Markers
	if m.NodeName == "" || m.ScanTopic == "" || m.MarkerTopic == "" {
		return fmt.Errorf("%w: markers node name and topics must be set", ErrInvalid)
	}

	l := cfg.Lidar
	if l.NodeName == "" || l.ScanTopic == "" {
		return fmt.Errorf("%w: lidar node name and scan topic must be set", ErrInvalid)
	}

	if _, err := ydlidar.ModelByName(l.Model); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if l.RangeMin < 0 || l.RangeMax <= l.RangeMin {
		return fmt.Errorf("%w: range_min %v must be below range_max %v", ErrInvalid, l.RangeMin, l.RangeMax)
	}

	if l.ReplayPace < 0 {
		return fmt.Errorf("%w: replay_pace must not be negative", ErrInvalid)
	}

	return nil
}
