package lifecycle_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/patentbot/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Fatal("ready before WaitForStartup")
	}

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() error {
			count.Add(1)
			return nil
		})
	}

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
	if !lc.Ready() {
		t.Error("not ready after successful startup")
	}
}

func TestFailedStartupHook(t *testing.T) {
	lc := lifecycle.New()
	boom := errors.New("database unreachable")

	lc.OnStartup(func() error { return nil })
	lc.OnStartup(func() error { return boom })

	err := lc.WaitForStartup()
	if !errors.Is(err, boom) {
		t.Fatalf("WaitForStartup error = %v, want %v", err, boom)
	}
	if lc.Ready() {
		t.Error("ready despite failed hook")
	}
	if !errors.Is(lc.Err(), boom) {
		t.Errorf("Err() = %v, want %v", lc.Err(), boom)
	}
}

func TestShutdown(t *testing.T) {
	t.Run("runs hooks after cancel", func(t *testing.T) {
		lc := lifecycle.New()

		var cleaned atomic.Bool
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			cleaned.Store(true)
		})
		lc.WaitForStartup()

		if err := lc.Shutdown(time.Second); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
		if !cleaned.Load() {
			t.Error("shutdown hook did not run")
		}
		if lc.Ready() {
			t.Error("ready after shutdown")
		}
	})

	t.Run("times out on stuck hook", func(t *testing.T) {
		lc := lifecycle.New()
		release := make(chan struct{})
		defer close(release)

		lc.OnShutdown(func() { <-release })

		if err := lc.Shutdown(20 * time.Millisecond); err == nil {
			t.Error("expected timeout error")
		}
	})
}
