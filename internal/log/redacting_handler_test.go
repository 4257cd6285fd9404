package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestRedactingHandler tests attribute masking.
func TestRedactingHandler(t *testing.T) {
	t.Parallel()

	newLogger := func() (*slog.Logger, *bytes.Buffer) {
		var buf bytes.Buffer
		handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		return slog.New(NewRedactingHandler(handler)), &buf
	}

	t.Run("control password is masked", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger()
		logger.Info("authenticating", "control_password", "hunter2")

		out := buf.String()
		if strings.Contains(out, "hunter2") {
			t.Errorf("output contains plaintext password: %s", out)
		}
		if !strings.Contains(out, MaskValue) {
			t.Errorf("output missing mask value: %s", out)
		}
	})

	t.Run("authenticate command value is masked", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger()
		logger.Debug("sending command", "line", `AUTHENTICATE "hunter2"`)

		if strings.Contains(buf.String(), "hunter2") {
			t.Errorf("output contains plaintext credentials: %s", buf.String())
		}
	})

	t.Run("hashed control password is masked", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger()
		hashed := "16:" + strings.Repeat("AB", 29)
		logger.Info("torrc", "line", hashed)

		if strings.Contains(buf.String(), hashed) {
			t.Errorf("output contains hashed password: %s", buf.String())
		}
	})

	t.Run("ordinary attributes pass through", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger()
		logger.Info("instance created", "instance", 3, "socks_port", 9080)

		out := buf.String()
		if !strings.Contains(out, "socks_port=9080") {
			t.Errorf("expected socks_port attribute, got: %s", out)
		}
		if strings.Contains(out, MaskValue) {
			t.Errorf("unexpected masking: %s", out)
		}
	})

	t.Run("group attributes are masked recursively", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger()
		logger.Info("session",
			slog.Group("control", slog.String("password", "hunter2"), slog.Int("port", 9151)))

		out := buf.String()
		if strings.Contains(out, "hunter2") {
			t.Errorf("group attribute not masked: %s", out)
		}
		if !strings.Contains(out, "port=9151") {
			t.Errorf("non-sensitive group attribute lost: %s", out)
		}
	})
}

// TestNewLogger tests the convenience constructor's level selection.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("debug suppressed when not verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Debug("attempt detail")

		if buf.Len() != 0 {
			t.Errorf("expected no output, got: %s", buf.String())
		}
	})

	t.Run("debug emitted when verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)
		logger.Debug("attempt detail")

		if buf.Len() == 0 {
			t.Error("expected debug output, got none")
		}
	})
}
