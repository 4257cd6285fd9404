package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()

		if err := NewConfig().Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "zero instances",
			mutate:  func(c *Config) { c.TotalInstances = 0 },
			wantErr: ErrInvalidInstanceCount,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.MaxWorkers = 0 },
			wantErr: ErrInvalidWorkerCount,
		},
		{
			name:    "stride of one",
			mutate:  func(c *Config) { c.PortStride = 1 },
			wantErr: ErrInvalidPortStride,
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.MaxAttempts = 0 },
			wantErr: ErrInvalidMaxAttempts,
		},
		{
			name:    "socks range overflows",
			mutate:  func(c *Config) { c.SocksBasePort = 65500; c.PortStride = 100 },
			wantErr: ErrPortRangeOverflow,
		},
		{
			name:    "control range overflows",
			mutate:  func(c *Config) { c.ControlBasePort = 65530 },
			wantErr: ErrPortRangeOverflow,
		},
		{
			name: "socks port collides with control port",
			mutate: func(c *Config) {
				c.SocksBasePort = 9050
				c.ControlBasePort = 9060 // equals SocksPort(1) with stride 10
			},
			wantErr: ErrPortCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestPortDerivation tests the deterministic port math.
func TestPortDerivation(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.SocksBasePort = 9050
	cfg.ControlBasePort = 9151
	cfg.PortStride = 10

	if got := cfg.SocksPort(0); got != 9050 {
		t.Errorf("SocksPort(0) = %d, want 9050", got)
	}
	if got := cfg.SocksPort(3); got != 9080 {
		t.Errorf("SocksPort(3) = %d, want 9080", got)
	}
	if got := cfg.ControlPort(0); got != 9151 {
		t.Errorf("ControlPort(0) = %d, want 9151", got)
	}
	if got := cfg.ControlPort(3); got != 9181 {
		t.Errorf("ControlPort(3) = %d, want 9181", got)
	}
}

// TestInstanceDir tests the per-instance directory layout.
func TestInstanceDir(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.DataDir = "/tmp/tor_profiles"

	want := filepath.Join("/tmp/tor_profiles", "tor7")
	if got := cfg.InstanceDir(7); got != want {
		t.Errorf("InstanceDir(7) = %q, want %q", got, want)
	}
}

// TestLoadConfigFile tests YAML loading and merge precedence.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfigFile() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("values apply over defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".torsel")
		content := []byte(`
total_instances: 3
max_workers: 2
tor_path: /opt/tor/bin/tor
rotation_settle: 2s
headless: false
`)
		if err := os.WriteFile(path, content, 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		cfg := NewConfig()
		cfg.Headless = true
		f.Apply(cfg)

		if cfg.TotalInstances != 3 {
			t.Errorf("TotalInstances = %d, want 3", cfg.TotalInstances)
		}
		if cfg.MaxWorkers != 2 {
			t.Errorf("MaxWorkers = %d, want 2", cfg.MaxWorkers)
		}
		if cfg.TorPath != "/opt/tor/bin/tor" {
			t.Errorf("TorPath = %q, want /opt/tor/bin/tor", cfg.TorPath)
		}
		if cfg.RotationSettle != 2*time.Second {
			t.Errorf("RotationSettle = %v, want 2s", cfg.RotationSettle)
		}
		if cfg.Headless {
			t.Error("Headless = true, want false (explicit file value)")
		}
		// Untouched fields keep defaults.
		if cfg.SocksBasePort != DefaultSocksBasePort {
			t.Errorf("SocksBasePort = %d, want default %d", cfg.SocksBasePort, DefaultSocksBasePort)
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".torsel")
		if err := os.WriteFile(path, []byte("total_instances: [oops"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("LoadConfigFile() = nil error, want parse error")
		}
	})
}
