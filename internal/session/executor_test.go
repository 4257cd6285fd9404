package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
)

// fakeSession records whether Close was called and can fail on close.
type fakeSession struct {
	closed   int
	closeErr error
}

func (s *fakeSession) HTTPClient() *http.Client { return http.DefaultClient }
func (s *fakeSession) Close() error {
	s.closed++
	return s.closeErr
}

// fakeFactory hands out a prepared session or fails.
type fakeFactory struct {
	sess *fakeSession
	err  error
}

func (f *fakeFactory) NewSession(_ context.Context, _ string) (Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

// TestExecutorExecute tests the scoped session lifecycle.
func TestExecutorExecute(t *testing.T) {
	t.Parallel()

	t.Run("session closes after success", func(t *testing.T) {
		t.Parallel()

		sess := &fakeSession{}
		exec := NewExecutor(&fakeFactory{sess: sess}, nil)

		err := exec.Execute(context.Background(), 0, 0, "127.0.0.1:9050",
			func(_ context.Context, _ Session, _, _ int, _ *slog.Logger) error {
				return nil
			})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if sess.closed != 1 {
			t.Errorf("Close() called %d times, want 1", sess.closed)
		}
	})

	t.Run("session closes after failure and error propagates", func(t *testing.T) {
		t.Parallel()

		sess := &fakeSession{}
		exec := NewExecutor(&fakeFactory{sess: sess}, nil)
		wantErr := errors.New("page load failed")

		err := exec.Execute(context.Background(), 3, 1, "127.0.0.1:9060",
			func(_ context.Context, _ Session, _, _ int, _ *slog.Logger) error {
				return wantErr
			})
		if !errors.Is(err, wantErr) {
			t.Errorf("Execute() error = %v, want %v", err, wantErr)
		}
		if sess.closed != 1 {
			t.Errorf("Close() called %d times, want 1 (must release on failure)", sess.closed)
		}
	})

	t.Run("close error surfaces when action succeeded", func(t *testing.T) {
		t.Parallel()

		closeErr := errors.New("driver quit failed")
		sess := &fakeSession{closeErr: closeErr}
		exec := NewExecutor(&fakeFactory{sess: sess}, nil)

		err := exec.Execute(context.Background(), 0, 0, "127.0.0.1:9050",
			func(_ context.Context, _ Session, _, _ int, _ *slog.Logger) error {
				return nil
			})
		if !errors.Is(err, closeErr) {
			t.Errorf("Execute() error = %v, want close error", err)
		}
	})

	t.Run("action error is not shadowed by close error", func(t *testing.T) {
		t.Parallel()

		actionErr := errors.New("action failed")
		sess := &fakeSession{closeErr: errors.New("close also failed")}
		exec := NewExecutor(&fakeFactory{sess: sess}, nil)

		err := exec.Execute(context.Background(), 0, 0, "127.0.0.1:9050",
			func(_ context.Context, _ Session, _, _ int, _ *slog.Logger) error {
				return actionErr
			})
		if !errors.Is(err, actionErr) {
			t.Errorf("Execute() error = %v, want action error", err)
		}
	})

	t.Run("factory failure propagates", func(t *testing.T) {
		t.Parallel()

		factoryErr := errors.New("no such proxy")
		exec := NewExecutor(&fakeFactory{err: factoryErr}, nil)

		called := false
		err := exec.Execute(context.Background(), 0, 0, "127.0.0.1:9050",
			func(_ context.Context, _ Session, _, _ int, _ *slog.Logger) error {
				called = true
				return nil
			})
		if !errors.Is(err, factoryErr) {
			t.Errorf("Execute() error = %v, want factory error", err)
		}
		if called {
			t.Error("action invoked despite session construction failure")
		}
	})

	t.Run("indices reach the action", func(t *testing.T) {
		t.Parallel()

		sess := &fakeSession{}
		exec := NewExecutor(&fakeFactory{sess: sess}, nil)

		var gotAction, gotInstance int
		err := exec.Execute(context.Background(), 7, 2, "127.0.0.1:9070",
			func(_ context.Context, _ Session, actionIndex, instanceIndex int, _ *slog.Logger) error {
				gotAction, gotInstance = actionIndex, instanceIndex
				return nil
			})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if gotAction != 7 || gotInstance != 2 {
			t.Errorf("action saw (%d, %d), want (7, 2)", gotAction, gotInstance)
		}
	})
}
