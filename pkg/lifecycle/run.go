package lifecycle

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// Service is what RunUntilExit tears down.
type Service interface {
	Stop() error
}

// Waiter yields the exit signal. Both *Trigger and *Controller implement it.
type Waiter interface {
	Wait(ctx context.Context) (ExitSignal, error)
}

// Teardown lists what RunUntilExit shuts down, in order.
type Teardown struct {
	// CancelWork stops background tasks from taking new work.
	CancelWork context.CancelFunc
	Service    Service
	// Telemetry is closed last, in slice order.
	Telemetry []io.Closer
	Logger    *logging.ColoredLogger
}

// RunUntilExit blocks until the exit signal, then cancels the work context,
// stops the service and closes the telemetry sinks. A cancelled ctx is
// treated as Stop. The returned error is the service stop error only.
func RunUntilExit(ctx context.Context, w Waiter, td Teardown) (ExitSignal, error) {
	logger := td.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	sig, err := w.Wait(ctx)
	if err != nil {
		sig = Stop
	}
	logger.ComponentInfo(logging.ComponentLifecycle, "Shutting down", zap.Stringer("exit", sig))

	if td.CancelWork != nil {
		td.CancelWork()
	}

	var stopErr error
	if td.Service != nil {
		if stopErr = td.Service.Stop(); stopErr != nil {
			logger.ComponentError(logging.ComponentLifecycle, "Service stopped with error", zap.Error(stopErr))
		}
	}

	for _, c := range td.Telemetry {
		if err := c.Close(); err != nil {
			logger.ComponentWarn(logging.ComponentLifecycle, "Failed to close telemetry", zap.Error(err))
		}
	}

	logger.ComponentInfo(logging.ComponentLifecycle, "Shutdown complete", zap.Stringer("exit", sig))
	return sig, stopErr
}
