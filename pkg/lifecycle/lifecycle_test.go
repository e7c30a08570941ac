package lifecycle_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/docket/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New(context.Background())
	if lc.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}

	var dbUp atomic.Bool
	lc.Require(lifecycle.CheckFunc(dbUp.Load))
	lc.WaitForStartup()

	if lc.Ready() {
		t.Error("should not be ready while a required check fails")
	}

	dbUp.Store(true)
	if !lc.Ready() {
		t.Error("should be ready once every check passes")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatal(err)
	}
	if lc.Ready() {
		t.Error("should not be ready after shutdown")
	}
}

func TestHooksExecute(t *testing.T) {
	lc := lifecycle.New(context.Background())

	var started atomic.Int32
	for range 3 {
		lc.OnStartup(func() { started.Add(1) })
	}

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})

	lc.WaitForStartup()
	if got := started.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !cleaned.Load() {
		t.Error("shutdown hook did not execute")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New(context.Background())
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})
	lc.WaitForStartup()

	if err := lc.Shutdown(50 * time.Millisecond); !errors.Is(err, lifecycle.ErrShutdownTimeout) {
		t.Errorf("err = %v, want ErrShutdownTimeout", err)
	}
}

func TestReadyAfterParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	lc := lifecycle.New(parent)
	lc.WaitForStartup()
	if !lc.Ready() {
		t.Fatal("should be ready with no checks")
	}

	cancel()
	if lc.Ready() {
		t.Error("should not be ready once the parent is cancelled")
	}
}

func TestParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	lc := lifecycle.New(parent)
	cancel()

	select {
	case <-lc.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context should follow parent cancellation")
	}
}
