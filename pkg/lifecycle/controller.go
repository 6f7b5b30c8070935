package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// Classify maps an OS signal to an exit signal. Only SIGUSR1, SIGINT and
// SIGTERM are recognized.
func Classify(sig os.Signal) (ExitSignal, bool) {
	switch sig {
	case syscall.SIGUSR1:
		return Restart, true
	case syscall.SIGINT, syscall.SIGTERM:
		return Stop, true
	default:
		return Stop, false
	}
}

// Controller delivers OS signals to a Trigger.
type Controller struct {
	trigger *Trigger
	logger  *logging.ColoredLogger

	signals   chan os.Signal
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Install subscribes to SIGUSR1, SIGINT and SIGTERM and starts the single
// goroutine that delivers them.
func Install(logger *logging.ColoredLogger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Controller{
		trigger: NewTrigger(),
		logger:  logger,
		signals: make(chan os.Signal, 1),
	}
	signal.Notify(c.signals, syscall.SIGUSR1, syscall.SIGINT, syscall.SIGTERM)

	c.wg.Add(1)
	go c.deliver()
	return c
}

func (c *Controller) deliver() {
	defer c.wg.Done()
	for sig := range c.signals {
		exit, ok := Classify(sig)
		if !ok {
			continue
		}
		if c.trigger.Fire(exit) {
			c.logger.ComponentInfo(logging.ComponentLifecycle, "Received exit signal",
				zap.String("signal", sig.String()),
				zap.Stringer("exit", exit),
			)
		} else {
			c.logger.ComponentDebug(logging.ComponentLifecycle, "Exit already in progress",
				zap.String("signal", sig.String()))
		}
	}
}

// Trigger returns the shared exit trigger.
func (c *Controller) Trigger() *Trigger {
	return c.trigger
}

// Wait blocks until an exit signal arrives or ctx is done.
func (c *Controller) Wait(ctx context.Context) (ExitSignal, error) {
	return c.trigger.Wait(ctx)
}

// Done is closed once an exit signal arrived.
func (c *Controller) Done() <-chan struct{} {
	return c.trigger.Done()
}

// Context returns a child of parent cancelled on the exit signal.
func (c *Controller) Context(parent context.Context) (context.Context, context.CancelFunc) {
	return c.trigger.Context(parent)
}

// Close unsubscribes from OS signals and stops the delivery goroutine.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		signal.Stop(c.signals)
		close(c.signals)
		c.wg.Wait()
	})
}
