// Package node runs the configured chain services. A full node runs its
// shard chain, the informant and the root-chain supervisor; a light node
// runs its chain and the informant only.
package node

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/config"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
	"github.com/DeBrosOfficial/branchnode/pkg/rootchain"
	"github.com/DeBrosOfficial/branchnode/pkg/service"
)

// Service is a running node.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
	Config() *config.NodeConfig
}

// RootChain is the root-chain light client run beside a full node's shard
// chain. *rootchain.Supervisor implements it.
type RootChain interface {
	Start(ctx context.Context, params config.RootChainParams) error
	Stop() error
	Config() *config.NodeConfig
}

// Options configures a node service.
type Options struct {
	Config   *config.NodeConfig
	Settings service.NetworkSettings
	// Builder builds the root-chain light configuration. Full nodes only.
	Builder  rootchain.ConfigBuilder
	Reporter rootchain.Reporter
	Logger   *logging.ColoredLogger
}

// New returns the service for the configured role.
func New(opts Options) (Service, error) {
	if opts.Config == nil {
		return nil, errors.NewConfigError("node", "missing node configuration", nil)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	base := &chainService{opts: opts, logger: opts.Logger}
	switch opts.Config.Role {
	case config.RoleFull:
		if opts.Builder == nil {
			return nil, errors.NewConfigError("node", "full node requires a root chain config builder", nil)
		}
		return &FullService{
			chainService: base,
			root: rootchain.NewSupervisor(rootchain.SupervisorOptions{
				Builder:  opts.Builder,
				Settings: opts.Settings,
				Logger:   opts.Logger,
				Reporter: opts.Reporter,
			}),
		}, nil
	case config.RoleLight:
		return &LightService{chainService: base}, nil
	default:
		return nil, errors.NewConfigError("role", fmt.Sprintf("unknown role %d", opts.Config.Role), nil)
	}
}

// chainService runs the node's own chain and its informant.
type chainService struct {
	opts   Options
	logger *logging.ColoredLogger

	chain  *service.Chain
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *chainService) Config() *config.NodeConfig {
	return s.opts.Config
}

func (s *chainService) start(ctx context.Context) error {
	cfg := s.opts.Config
	runCtx, cancel := context.WithCancel(ctx)

	c, err := service.Open(runCtx, cfg, s.opts.Settings, s.logger, logging.ComponentShard)
	if err != nil {
		cancel()
		return errors.Wrap(err, "failed to open node chain")
	}
	s.chain = c
	s.cancel = cancel

	informant := newInformant(cfg.ShardNum, c, s.logger, s.opts.Reporter)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		informant.Run(runCtx)
	}()

	s.logger.ComponentInfo(logging.ComponentNode, "Node started",
		zap.String("role", cfg.Role.String()),
		zap.String("peer_id", c.Network.ID().String()),
		zap.Strings("listen", c.Network.ListenAddresses()),
	)
	return nil
}

func (s *chainService) stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	err := s.chain.Close()
	s.cancel, s.chain = nil, nil
	return err
}

// LightService runs a light node.
type LightService struct {
	*chainService
}

// Start opens the chain and starts the informant.
func (s *LightService) Start(ctx context.Context) error {
	return s.start(ctx)
}

// Stop stops the informant and closes the chain.
func (s *LightService) Stop() error {
	err := s.stop()
	s.logger.ComponentInfo(logging.ComponentNode, "Node stopped")
	return err
}

// FullService runs a full node.
type FullService struct {
	*chainService
	root RootChain
}

// Start opens the shard chain, then starts the root chain. A root chain that
// cannot start is logged and the shard chain keeps running unless the error
// is fatal, in which case the shard chain is closed again.
func (s *FullService) Start(ctx context.Context) error {
	if err := s.start(ctx); err != nil {
		return err
	}

	params := s.opts.Config.RootChain
	if params == nil {
		return nil
	}
	err := s.root.Start(ctx, *params)
	if err == nil {
		return nil
	}
	code := errors.GetErrorCode(err)
	if errors.IsFatal(err) {
		s.logger.ComponentError(logging.ComponentRoot, "Root chain failure is fatal",
			zap.String("code", code), zap.Error(err))
		if stopErr := s.stop(); stopErr != nil {
			s.logger.ComponentWarn(logging.ComponentNode, "Failed to close node chain", zap.Error(stopErr))
		}
		return err
	}
	s.logger.ComponentError(logging.ComponentRoot, "Failed to start root chain",
		zap.String("code", code),
		zap.String("category", string(errors.GetCategory(code))),
		zap.Error(err))
	return nil
}

// Root returns the root-chain light client.
func (s *FullService) Root() RootChain {
	return s.root
}

// Stop stops the root chain, then the shard chain.
func (s *FullService) Stop() error {
	var errs []error
	if err := s.root.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := s.stop(); err != nil {
		errs = append(errs, err)
	}
	s.logger.ComponentInfo(logging.ComponentNode, "Node stopped")
	if len(errs) > 0 {
		return errors.NewInternalError("node stopped with errors", config.Join(errs)).WithOperation("stopNode")
	}
	return nil
}
