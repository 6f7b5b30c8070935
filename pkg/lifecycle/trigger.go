// Package lifecycle owns the process-wide exit signal: it classifies OS
// signals into stop or restart requests and tears the node down in order.
package lifecycle

import (
	"context"
	"fmt"
	"sync/atomic"
)

// ExitSignal is the reason the process exits.
type ExitSignal int

const (
	// Stop ends the process.
	Stop ExitSignal = iota
	// Restart re-executes the process after teardown.
	Restart
)

func (s ExitSignal) String() string {
	switch s {
	case Stop:
		return "stop"
	case Restart:
		return "restart"
	default:
		return fmt.Sprintf("ExitSignal(%d)", int(s))
	}
}

// Trigger is a single-fire exit gate shared by everything that may end the
// process. The first Fire wins; later fires are no-ops.
type Trigger struct {
	fired  atomic.Bool
	signal ExitSignal
	done   chan struct{}
}

// NewTrigger creates an unfired trigger.
func NewTrigger() *Trigger {
	return &Trigger{done: make(chan struct{})}
}

// Fire records sig and wakes every waiter. It reports whether this call was
// the one that fired.
func (t *Trigger) Fire(sig ExitSignal) bool {
	if !t.fired.CompareAndSwap(false, true) {
		return false
	}
	t.signal = sig
	close(t.done)
	return true
}

// TriggerRestart fires Restart.
func (t *Trigger) TriggerRestart() { t.Fire(Restart) }

// TriggerStop fires Stop.
func (t *Trigger) TriggerStop() { t.Fire(Stop) }

// Done is closed once the trigger fired.
func (t *Trigger) Done() <-chan struct{} {
	return t.done
}

// Signal returns the fired signal, if any.
func (t *Trigger) Signal() (ExitSignal, bool) {
	select {
	case <-t.done:
		return t.signal, true
	default:
		return Stop, false
	}
}

// Wait blocks until the trigger fires or ctx is done.
func (t *Trigger) Wait(ctx context.Context) (ExitSignal, error) {
	select {
	case <-t.done:
		return t.signal, nil
	case <-ctx.Done():
		return Stop, ctx.Err()
	}
}

// Context returns a child of parent that is cancelled when the trigger fires.
func (t *Trigger) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-t.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
