package watch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/docket/internal/watch"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunsAtStartupAndOnInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	w := watch.New(watch.Options{Interval: 20 * time.Millisecond}, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, discardLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return runs.Load() >= 3 })
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run returned %v after cancel, want nil", err)
	}
}

func TestRunsOnNewPDF(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	var runs atomic.Int32
	w := watch.New(watch.Options{
		Interval: time.Hour,
		Debounce: 10 * time.Millisecond,
		Dir:      dir,
	}, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, discardLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return runs.Load() == 1 })

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "event.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return runs.Load() == 2 })
	cancel()
	<-done
}

func TestFatalRunStops(t *testing.T) {
	fatal := errors.New("api key rejected")

	w := watch.New(watch.Options{
		Interval: time.Hour,
		Stop:     func(err error) bool { return errors.Is(err, fatal) },
	}, func(ctx context.Context) error {
		return fatal
	}, discardLogger())

	if err := w.Run(context.Background()); !errors.Is(err, fatal) {
		t.Errorf("Run err = %v, want fatal", err)
	}
}

func TestMissingDir(t *testing.T) {
	w := watch.New(watch.Options{
		Interval: time.Hour,
		Dir:      filepath.Join(t.TempDir(), "missing"),
	}, func(ctx context.Context) error { return nil }, discardLogger())

	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}
