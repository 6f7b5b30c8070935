// Package rootchain supervises the light client of the root coordination
// chain and renders chain status lines.
package rootchain

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/config"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
	"github.com/DeBrosOfficial/branchnode/pkg/service"
)

const serviceName = "root-chain"

// ConfigBuilder builds the light client configuration. Implemented by
// *assembler.Assembler.
type ConfigBuilder interface {
	RootChainConfig(ctx context.Context, params config.RootChainParams) (*config.NodeConfig, error)
}

// SupervisorOptions configures a Supervisor.
type SupervisorOptions struct {
	Builder  ConfigBuilder
	Settings service.NetworkSettings
	Logger   *logging.ColoredLogger
	Reporter Reporter
}

// Supervisor runs the root-chain light client and its monitor.
type Supervisor struct {
	opts   SupervisorOptions
	logger *logging.ColoredLogger

	mu      sync.Mutex
	cancel  context.CancelFunc
	chain   *service.Chain
	started bool
	wg      sync.WaitGroup
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts SupervisorOptions) *Supervisor {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Supervisor{opts: opts, logger: opts.Logger}
}

// Start builds the light client configuration, opens the light client and
// spawns the monitor. It does not block. Failures are returned as service
// errors; the caller decides whether the node keeps running without the root
// chain.
func (s *Supervisor) Start(ctx context.Context, params config.RootChainParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.NewServiceError(serviceName, "root chain already started", nil)
	}

	cfg, err := s.opts.Builder.RootChainConfig(ctx, params)
	if err != nil {
		return errors.NewServiceError(serviceName, "failed to build root chain config", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c, err := service.Open(runCtx, cfg, s.opts.Settings, s.logger, logging.ComponentRoot)
	if err != nil {
		cancel()
		return errors.NewServiceError(serviceName, "failed to open root chain", err)
	}

	s.logger.ComponentInfo(logging.ComponentRoot, "Root chain started",
		zap.String("name", cfg.Name),
		zap.String("impl", cfg.Version.Name),
		zap.String("database", cfg.DatabasePath),
		zap.Strings("listen", cfg.ListenAddresses),
		zap.Int("boot_nodes", len(cfg.BootNodes)),
	)

	monitor := NewMonitor(MonitorOptions{
		Prefix:    RootChainPrefix,
		Info:      c.Store,
		Status:    c.Network.Status(),
		Logger:    s.logger,
		Component: logging.ComponentRoot,
		Reporter:  s.opts.Reporter,
	})

	s.cancel = cancel
	s.chain = c
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		monitor.Run(runCtx)
	}()

	return nil
}

// Wait blocks until the monitor has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Config returns the running light client configuration, or nil.
func (s *Supervisor) Config() *config.NodeConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chain == nil {
		return nil
	}
	return s.chain.Config
}

// Stop cancels the monitor and closes the light client. It is safe to call
// when Start failed or was never called.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	cancel, c := s.cancel, s.chain
	s.cancel, s.chain = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	s.wg.Wait()
	err := c.Close()
	s.logger.ComponentInfo(logging.ComponentRoot, "Root chain stopped")
	return err
}
