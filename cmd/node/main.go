package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/branchnode/pkg/assembler"
	"github.com/DeBrosOfficial/branchnode/pkg/config"
)

// version metadata populated via -ldflags at build time
var (
	version = "dev"
	commit  = ""
	author  = "DeBros"
)

const implName = "branchnode"

type options struct {
	configPath string
	logLevel   string
	statusAddr string

	basePath     string
	keystorePath string
	chain        string
	name         string
	light        bool
	shardNum     uint16
	port         uint16
	bootNodes    []string

	rootBootnodesRouters []string
	rootPort             uint16
	rootPortSet          bool
	devParams            bool
}

func (o *options) cliParams() assembler.CLIParams {
	p := assembler.CLIParams{
		BasePath:             o.basePath,
		KeystorePath:         o.keystorePath,
		Chain:                o.chain,
		Name:                 o.name,
		Light:                o.light,
		ShardNum:             o.shardNum,
		Port:                 o.port,
		BootNodes:            o.bootNodes,
		RootBootnodesRouters: o.rootBootnodesRouters,
		DevParams:            o.devParams,
	}
	if o.rootPortSet {
		port := o.rootPort
		p.RootPort = &port
	}
	return p
}

func versionInfo() config.VersionInfo {
	return config.VersionInfo{Name: implName, Commit: commit, Version: version, Author: author}
}

func newRootCommand(run func(o *options) error) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           implName,
		Short:         "Run a sharded chain node together with its root chain light client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.rootPortSet = cmd.Flags().Changed("root-port")
			return run(o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "Path to a YAML config file")
	f.StringVar(&o.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	f.StringVar(&o.statusAddr, "status-addr", "", "Serve the status API on this host:port")

	f.StringVar(&o.basePath, "base-path", "", "Base directory for chain data (default ~/"+config.DefaultDirName+")")
	f.StringVar(&o.keystorePath, "keystore-path", "", "Keystore directory (default <base>/chains/<id>/keystore)")
	f.StringVar(&o.chain, "chain", "", "Chain spec: dev, local or a JSON file path")
	f.StringVar(&o.name, "name", "", "Node name (generated when empty)")
	f.BoolVar(&o.light, "light", false, "Run as a light node")
	f.Uint16Var(&o.shardNum, "shard-num", 0, "Shard to run")
	f.Uint16Var(&o.port, "port", assembler.DefaultPort, "P2P listen port")
	f.StringSliceVar(&o.bootNodes, "bootnodes", nil, "Boot node multiaddrs")

	f.StringArrayVar(&o.rootBootnodesRouters, "root-bootnodes-routers", nil, "Bootnodes router URL for the root chain (repeatable)")
	f.Uint16Var(&o.rootPort, "root-port", 0, "Root chain P2P listen port")
	f.BoolVar(&o.devParams, "dev-params", false, "Use development defaults for unset root chain flags on the dev chain")

	return cmd
}

func main() {
	if err := newRootCommand(run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
