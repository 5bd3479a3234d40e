package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeCatalog struct {
	calls int
	err   error
}

func (f *fakeCatalog) EnsureCurrentWeek(context.Context) error {
	f.calls++
	return f.err
}

type fakeSessions struct {
	idle time.Duration
	n    int
}

func (f *fakeSessions) Reap(maxIdle time.Duration) int {
	f.idle = maxIdle
	return f.n
}

func testOptions() Options {
	return Options{
		MaterializeSpec: "5 0 * * 1",
		ReaperSpec:      "*/10 * * * *",
		SessionIdle:     30 * time.Minute,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRegistersJobs(t *testing.T) {
	t.Parallel()

	s, err := New(testOptions(), &fakeCatalog{}, &fakeSessions{}, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}
}

func TestNewRejectsBadSpec(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.ReaperSpec = "sometimes"
	if _, err := New(opts, &fakeCatalog{}, &fakeSessions{}, discardLogger()); err == nil {
		t.Fatal("expected spec error")
	}
}

func TestJobs(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{err: errors.New("db down")}
	sessions := &fakeSessions{n: 3}
	s, err := New(testOptions(), catalog, sessions, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.materialize()
	if catalog.calls != 1 {
		t.Fatalf("materialize calls = %d, want 1", catalog.calls)
	}
	s.reap()
	if sessions.idle != 30*time.Minute {
		t.Fatalf("reap idle = %v, want 30m", sessions.idle)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s, err := New(testOptions(), &fakeCatalog{}, &fakeSessions{}, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
