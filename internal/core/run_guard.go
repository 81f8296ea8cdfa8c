package core

import "errors"

// ErrRunInProgress is returned by Run when the Importer is already running.
var ErrRunInProgress = errors.New("import run already in progress")

// runGuard is a single-slot semaphore that keeps one Importer from running
// twice at once.
type runGuard struct {
	slot chan struct{}
}

func newRunGuard() *runGuard {
	return &runGuard{slot: make(chan struct{}, 1)}
}

// TryAcquire takes the slot without blocking.
func (g *runGuard) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the slot. Must follow exactly one successful TryAcquire.
func (g *runGuard) Release() {
	<-g.slot
}

// Running reports whether the slot is taken.
func (g *runGuard) Running() bool {
	return len(g.slot) > 0
}
