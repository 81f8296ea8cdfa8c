package core

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunGuard_AcquireRelease(t *testing.T) {
	g := newRunGuard()

	if g.Running() {
		t.Fatal("new guard should be idle")
	}
	if !g.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if !g.Running() {
		t.Error("Running() = false after acquire")
	}
	if g.TryAcquire() {
		t.Error("second TryAcquire should fail while held")
	}

	g.Release()
	if g.Running() {
		t.Error("Running() = true after release")
	}
	if !g.TryAcquire() {
		t.Error("TryAcquire should succeed after release")
	}
}

func TestRunGuard_ConcurrentAccess(t *testing.T) {
	g := newRunGuard()

	var wg sync.WaitGroup
	var acquired atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire() {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := acquired.Load(); got != 1 {
		t.Errorf("acquired = %d, want exactly 1", got)
	}
}
