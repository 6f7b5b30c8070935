// Package assembler turns command line parameters, dev defaults, the
// bootnodes router answer and the resolved shard topology into node
// configurations.
package assembler

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/bootnodes"
	"github.com/DeBrosOfficial/branchnode/pkg/chainspec"
	"github.com/DeBrosOfficial/branchnode/pkg/config"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
	"github.com/DeBrosOfficial/branchnode/pkg/sharding"
)

const (
	// DefaultPort is the main chain p2p port.
	DefaultPort uint16 = 30333
	// RootImplName is the implementation name of the root-chain light client.
	RootImplName = "yee-node"
	// RootShard is the shard requested for the root chain.
	RootShard uint16 = 0
)

// CLIParams are the node command line parameters.
type CLIParams struct {
	BasePath     string
	DatabasePath string
	KeystorePath string
	Chain        string
	Name         string
	Light        bool
	ShardNum     uint16
	Port         uint16
	BootNodes    []string

	RootBootnodesRouters []string
	RootPort             *uint16
	DevParams            bool
}

// Options configures an Assembler.
type Options struct {
	Version  config.VersionInfo
	Trigger  config.ExitTrigger
	Router   bootnodes.Fetcher
	Resolver *sharding.Resolver
	Logger   *logging.ColoredLogger

	// NameGenerator defaults to GenerateNodeName.
	NameGenerator func() string
}

// Assembler builds node configurations. It performs no I/O besides spec
// loading and the router fetch.
type Assembler struct {
	opts   Options
	logger *logging.ColoredLogger
}

// New creates an assembler.
func New(opts Options) *Assembler {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Resolver == nil {
		opts.Resolver = sharding.NewResolver(&sharding.GenesisProvider{Logger: opts.Logger})
	}
	if opts.Router == nil {
		opts.Router = bootnodes.NewClient(config.DefaultRouterTimeout, opts.Logger)
	}
	if opts.NameGenerator == nil {
		opts.NameGenerator = GenerateNodeName
	}
	return &Assembler{opts: opts, logger: opts.Logger}
}

// Assemble builds the main node configuration.
func (a *Assembler) Assemble(ctx context.Context, cli CLIParams) (*config.NodeConfig, error) {
	spec, err := chainspec.Resolve(cli.Chain)
	if err != nil {
		return nil, err
	}

	root, applied := config.ApplyDevDefaults(spec.ID, cli.DevParams, config.RootFlags{
		Port:             cli.RootPort,
		BootnodesRouters: cli.RootBootnodesRouters,
	})
	if applied {
		a.logger.ComponentInfo(logging.ComponentConfig, "Dev params",
			zap.String("command_line", root.CommandLine()),
		)
	}

	basePath := cli.BasePath
	if basePath == "" {
		if basePath, err = config.DefaultBasePath(); err != nil {
			return nil, errors.NewConfigError("base_path", "", err)
		}
	}
	databasePath := cli.DatabasePath
	if databasePath == "" {
		databasePath = config.DatabasePath(basePath, spec.ID)
	}
	keystorePath := cli.KeystorePath
	if keystorePath == "" {
		keystorePath = config.KeystorePath(basePath, spec.ID)
	}

	name := cli.Name
	if name == "" {
		name = boundedName(a.opts.NameGenerator)
	}

	routerConf := a.fetchRouterConf(ctx, root.BootnodesRouters)

	info, err := a.opts.Resolver.Resolve(ctx, cli.ShardNum, spec)
	if err != nil {
		return nil, err
	}

	port := cli.Port
	if port == 0 {
		port = DefaultPort
	}

	bootNodes := mergeBootNodes(spec.BootNodes, cli.BootNodes)

	role := config.RoleFull
	if cli.Light {
		role = config.RoleLight
	}

	cfg := &config.NodeConfig{
		DatabasePath:    databasePath,
		KeystorePath:    keystorePath,
		Version:         a.opts.Version,
		Role:            role,
		Name:            name,
		ChainSpec:       spec,
		ShardNum:        info.ShardNum,
		ShardCount:      info.ShardCount,
		ShardingContext: info.Context,
		ListenAddresses: []string{config.ListenAddress(port)},
		BootNodes:       bootNodes,
		Trigger:         a.opts.Trigger,
	}

	if role == config.RoleFull {
		cfg.RootChain = &config.RootChainParams{
			DatabasePath:        databasePath,
			KeystorePath:        keystorePath,
			Version:             a.opts.Version,
			Trigger:             a.opts.Trigger,
			BootnodesRouterConf: routerConf,
			Port:                root.Port,
		}
	}

	fields := []zap.Field{zap.Any("root bootnodes router conf", routerConf)}
	if root.Port != nil {
		fields = append(fields, zap.Uint16("root port", *root.Port))
	}
	a.logger.ComponentInfo(logging.ComponentConfig, "Custom params:", fields...)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.NewConfigError("node", "invalid node configuration", config.Join(errs))
	}
	return cfg, nil
}

// RootChainConfig builds the root-chain light client configuration from the
// parameters handed over by the main node.
func (a *Assembler) RootChainConfig(ctx context.Context, params config.RootChainParams) (*config.NodeConfig, error) {
	specPath := config.RootChainSpecPath(params.DatabasePath)
	spec, err := chainspec.Load(specPath)
	if err != nil {
		return nil, err
	}

	version := params.Version
	version.Name = RootImplName

	var listen []string
	if params.Port != nil {
		listen = []string{config.ListenAddress(*params.Port)}
	}

	bootNodes := a.validRouterNodes(params.BootnodesRouterConf.Native(RootShard), RootShard)

	info, err := a.opts.Resolver.Resolve(ctx, RootShard, spec)
	if err != nil {
		return nil, err
	}

	cfg := &config.NodeConfig{
		DatabasePath:    config.RootChainDatabasePath(params.DatabasePath),
		KeystorePath:    params.KeystorePath,
		Version:         version,
		Role:            config.RoleLight,
		Name:            boundedName(a.opts.NameGenerator),
		ChainSpec:       spec,
		ShardNum:        info.ShardNum,
		ShardCount:      info.ShardCount,
		ShardingContext: info.Context,
		ListenAddresses: listen,
		BootNodes:       bootNodes,
		Trigger:         params.Trigger,
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.NewConfigError("root_chain", "invalid root chain configuration", config.Join(errs))
	}
	return cfg, nil
}

func (a *Assembler) fetchRouterConf(ctx context.Context, urls []string) *config.BootnodesRouterConf {
	if len(urls) == 0 {
		return nil
	}
	conf, err := a.opts.Router.Fetch(ctx, urls)
	if err != nil {
		a.logger.ComponentWarn(logging.ComponentRouter, "Failed to get bootnodes router conf",
			zap.Strings("routers", urls),
			zap.Error(err),
		)
		return nil
	}
	return conf
}

// validRouterNodes drops router addresses that are not dialable.
func (a *Assembler) validRouterNodes(addrs []string, shard uint16) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if err := config.ValidateBootNode(addr); err != nil {
			a.logger.ComponentWarn(logging.ComponentRouter, "Ignoring invalid router boot node",
				zap.String("shard", strconv.FormatUint(uint64(shard), 10)),
				zap.String("addr", addr),
				zap.Error(err),
			)
			continue
		}
		out = append(out, addr)
	}
	return out
}

func mergeBootNodes(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, addr := range list {
			if seen[addr] {
				continue
			}
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out
}
