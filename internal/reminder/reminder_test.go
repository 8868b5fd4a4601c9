package reminder

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/tango/internal/goal"
	"github.com/conorfennell/tango/internal/trainer"
)

type fixedStatus struct {
	sum trainer.Summary
}

func (s fixedStatus) Summary() trainer.Summary { return s.sum }

type recordingNotifier struct {
	sent []trainer.Summary
	err  error
}

func (n *recordingNotifier) Remind(sum trainer.Summary) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sum)
	return nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheck(t *testing.T) {
	testCases := []struct {
		name     string
		sum      trainer.Summary
		expected bool
	}{
		{
			name:     "empty deck",
			sum:      trainer.Summary{},
			expected: false,
		},
		{
			name:     "cards due",
			sum:      trainer.Summary{Cards: 10, Due: 3, Daily: goal.Progress{Done: 10, Goal: 10}},
			expected: true,
		},
		{
			name:     "goal unmet",
			sum:      trainer.Summary{Cards: 10, Daily: goal.Progress{Done: 4, Goal: 10}},
			expected: true,
		},
		{
			name:     "all done",
			sum:      trainer.Summary{Cards: 10, Daily: goal.Progress{Done: 10, Goal: 10, Percent: 100}},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n := &recordingNotifier{}
			r := New(fixedStatus{sum: tc.sum}, n, time.Hour, quiet())
			if got := r.Check(); got != tc.expected {
				t.Errorf("Expected Check() to return %v, but got %v", tc.expected, got)
			}
			if tc.expected && len(n.sent) != 1 {
				t.Errorf("Expected one reminder, but got %d", len(n.sent))
			}
		})
	}
}

func TestCheckNotifierFailure(t *testing.T) {
	n := &recordingNotifier{err: errors.New("offline")}
	r := New(fixedStatus{sum: trainer.Summary{Cards: 1, Due: 1}}, n, 0, quiet())
	if r.Check() {
		t.Error("Expected Check() to report a failed reminder as not sent")
	}
	if r.interval != DefaultInterval {
		t.Errorf("Expected default interval %v, but got %v", DefaultInterval, r.interval)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	if err := n.Remind(trainer.Summary{Cards: 5, Due: 2, Daily: goal.Progress{Done: 1, Goal: 10}}); err != nil {
		t.Fatalf("Remind() returned an unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Study reminder", "due=2", "daily_goal=10"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %q, but got %s", want, out)
		}
	}
}

func TestStartStop(t *testing.T) {
	r := New(fixedStatus{}, &recordingNotifier{}, time.Hour, quiet())
	if err := r.Start(); err != nil {
		t.Fatalf("Start() returned an unexpected error: %v", err)
	}
	r.Stop()
}
