package model

import "testing"

// TestActionStatusString tests the status name mapping.
func TestActionStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status ActionStatus
		want   string
	}{
		{name: "succeeded", status: StatusSucceeded, want: "succeeded"},
		{name: "abandoned", status: StatusAbandoned, want: "abandoned"},
		{name: "skipped", status: StatusSkipped, want: "skipped"},
		{name: "unknown value", status: ActionStatus(99), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
