package main

import (
	"testing"
)

// TestNewCleanCmd tests the clean command creation.
func TestNewCleanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCleanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "clean" {
			t.Errorf("expected use 'clean', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has port layout flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"instances", "socks-base", "control-base", "stride"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has tor-path and data-dir flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"tor-path", "data-dir"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		t.Parallel()
		cmd := NewCleanCmd()
		cmd.SetArgs([]string{"unexpected"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for positional argument")
		}
	})
}

// TestCleanCmdValidation tests configuration validation.
func TestCleanCmdValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid stride", func(t *testing.T) {
		t.Parallel()
		cmd := NewCleanCmd()
		cmd.SetArgs([]string{"--stride", "1"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for stride below 2")
		}
	})

	t.Run("rejects colliding port ranges", func(t *testing.T) {
		t.Parallel()
		cmd := NewCleanCmd()
		cmd.SetArgs([]string{"--socks-base", "9050", "--control-base", "9060", "--stride", "10"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for colliding SOCKS and control ranges")
		}
	})
}
