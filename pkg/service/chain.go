// Package service opens the runtime parts of one configured chain: its header
// store and its network.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/chain"
	"github.com/DeBrosOfficial/branchnode/pkg/config"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
	"github.com/DeBrosOfficial/branchnode/pkg/p2p"
)

// NetworkSettings are the network tunables from the file config.
type NetworkSettings struct {
	AnnounceInterval time.Duration
	StatusInterval   time.Duration
	MaxPeers         int
}

// SettingsFrom extracts the network settings from a file config.
func SettingsFrom(fc *config.FileConfig) NetworkSettings {
	if fc == nil {
		fc = config.DefaultFileConfig()
	}
	return NetworkSettings{
		AnnounceInterval: fc.Network.AnnounceInterval,
		StatusInterval:   fc.Monitor.Interval,
		MaxPeers:         fc.Network.MaxPeers,
	}
}

// Chain is an opened chain.
type Chain struct {
	Config  *config.NodeConfig
	Store   *chain.Store
	Network *p2p.Network
}

// Protocol is the network protocol id of a configured chain: the chain spec
// protocol, suffixed with the shard on multi-shard chains.
func Protocol(cfg *config.NodeConfig) string {
	proto := cfg.ChainSpec.Protocol()
	if cfg.ShardCount > 1 {
		return fmt.Sprintf("%s-shard%d", proto, cfg.ShardNum)
	}
	return proto
}

// Open opens the store and starts the network of cfg. The network stops when
// ctx is cancelled or Close is called.
func Open(ctx context.Context, cfg *config.NodeConfig, settings NetworkSettings, logger *logging.ColoredLogger, component logging.Component) (*Chain, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := chain.OpenStore(ctx, cfg.DatabasePath, cfg.ShardingContext.GenesisHash, logger)
	if err != nil {
		return nil, err
	}

	network, err := p2p.Start(ctx, p2p.Options{
		Protocol:         Protocol(cfg),
		ListenAddresses:  cfg.ListenAddresses,
		BootNodes:        cfg.BootNodes,
		KeystorePath:     cfg.KeystorePath,
		Store:            store,
		AnnounceInterval: settings.AnnounceInterval,
		StatusInterval:   settings.StatusInterval,
		MaxPeers:         settings.MaxPeers,
		Logger:           logger,
		Component:        component,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	logger.ComponentInfo(component, "Chain opened",
		zap.String("chain", cfg.ChainSpec.Name),
		zap.String("name", cfg.Name),
		zap.String("role", cfg.Role.String()),
		zap.Uint16("shard_num", cfg.ShardNum),
		zap.Uint16("shard_count", cfg.ShardCount),
		zap.String("database", store.Path()),
	)

	return &Chain{Config: cfg, Store: store, Network: network}, nil
}

// Close stops the network, then closes the store.
func (c *Chain) Close() error {
	var errs []error
	if err := c.Network.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.NewInternalError("failed to close chain", config.Join(errs)).WithOperation("closeChain")
	}
	return nil
}
