package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".torsel"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Duration wraps time.Duration so YAML values can use Go duration syntax
// ("5s", "1m30s"). yaml.v3 has no native time.Duration support.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// File mirrors the YAML configuration file. All fields are optional;
// zero values leave the corresponding Config field untouched.
type File struct {
	TotalInstances  int      `yaml:"total_instances"`
	MaxWorkers      int      `yaml:"max_workers"`
	SocksBasePort   int      `yaml:"socks_base_port"`
	ControlBasePort int      `yaml:"control_base_port"`
	PortStride      int      `yaml:"port_stride"`
	TorPath         string   `yaml:"tor_path"`
	DataDir         string   `yaml:"data_dir"`
	ControlPassword string   `yaml:"control_password"`
	Headless        *bool    `yaml:"headless"`
	MaxAttempts     int      `yaml:"max_attempts"`
	SessionTimeout  Duration `yaml:"session_timeout"`
	CreateSettle    Duration `yaml:"create_settle"`
	RotationSettle  Duration `yaml:"rotation_settle"`
}

// LoadConfigFile loads pool settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound so callers can
// decide whether that is fatal (explicit path) or fine (default search).
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply copies every non-zero file setting onto cfg.
// CLI flags are expected to be applied after this, so the precedence is
// defaults < file < flags.
func (f *File) Apply(cfg *Config) {
	if f.TotalInstances > 0 {
		cfg.TotalInstances = f.TotalInstances
	}
	if f.MaxWorkers > 0 {
		cfg.MaxWorkers = f.MaxWorkers
	}
	if f.SocksBasePort > 0 {
		cfg.SocksBasePort = f.SocksBasePort
	}
	if f.ControlBasePort > 0 {
		cfg.ControlBasePort = f.ControlBasePort
	}
	if f.PortStride > 0 {
		cfg.PortStride = f.PortStride
	}
	if f.TorPath != "" {
		cfg.TorPath = f.TorPath
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.ControlPassword != "" {
		cfg.ControlPassword = f.ControlPassword
	}
	if f.Headless != nil {
		cfg.Headless = *f.Headless
	}
	if f.MaxAttempts > 0 {
		cfg.MaxAttempts = f.MaxAttempts
	}
	if f.SessionTimeout > 0 {
		cfg.SessionTimeout = time.Duration(f.SessionTimeout)
	}
	if f.CreateSettle > 0 {
		cfg.CreateSettle = time.Duration(f.CreateSettle)
	}
	if f.RotationSettle > 0 {
		cfg.RotationSettle = time.Duration(f.RotationSettle)
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .torsel in the current directory
// 3. Look for .torsel in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
