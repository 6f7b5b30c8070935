package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/multiformats/go-multiaddr"

	"github.com/DeBrosOfficial/branchnode/pkg/chainspec"
	"github.com/DeBrosOfficial/branchnode/pkg/sharding"
)

// Role is the node role.
type Role int

const (
	// RoleFull runs the shard chain and supervises the root-chain light client.
	RoleFull Role = iota
	// RoleLight runs a light client only.
	RoleLight
)

func (r Role) String() string {
	switch r {
	case RoleFull:
		return "full"
	case RoleLight:
		return "light"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ExitTrigger lets components request a process exit. Implementations are
// single-fire: only the first call has an effect.
type ExitTrigger interface {
	TriggerRestart()
	TriggerStop()
}

// VersionInfo identifies the running implementation.
type VersionInfo struct {
	Name    string `json:"name"`
	Commit  string `json:"commit"`
	Version string `json:"version"`
	Author  string `json:"author"`
}

// NodeConfig is the assembled configuration of one chain service. It is not
// modified after assembly.
type NodeConfig struct {
	DatabasePath string
	KeystorePath string
	Version      VersionInfo
	Role         Role
	Name         string

	ChainSpec       *chainspec.Spec
	ShardNum        uint16
	ShardCount      uint16
	ShardingContext sharding.Context

	ListenAddresses []string
	BootNodes       []string

	// RootChain is set for full nodes only, and then fully populated.
	RootChain *RootChainParams
	Trigger   ExitTrigger
}

// RootChainParams carries what the root-chain supervisor needs to build its
// light client. Trigger is shared with the main node.
type RootChainParams struct {
	DatabasePath        string
	KeystorePath        string
	Version             VersionInfo
	Trigger             ExitTrigger
	BootnodesRouterConf *BootnodesRouterConf
	Port                *uint16
}

// BootnodesRouterConf is the peer list a bootnodes router returns, keyed by
// decimal shard index.
type BootnodesRouterConf struct {
	Shards map[string]ShardBootnodes `json:"shards"`
}

// ShardBootnodes lists the boot nodes of one shard.
type ShardBootnodes struct {
	Native []string `json:"native"`
}

// Native returns a copy of the native boot nodes for shard, or nil.
func (c *BootnodesRouterConf) Native(shard uint16) []string {
	if c == nil {
		return nil
	}
	entry, ok := c.Shards[strconv.FormatUint(uint64(shard), 10)]
	if !ok || len(entry.Native) == 0 {
		return nil
	}
	return append([]string(nil), entry.Native...)
}

// ShardKeys returns the shard keys in ascending order.
func (c *BootnodesRouterConf) ShardKeys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Shards))
	for k := range c.Shards {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListenAddress builds the TCP listen multiaddr on all interfaces.
func ListenAddress(port uint16) string {
	return fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", port)
}

// ParseMultiaddrs converts string addresses to multiaddrs.
func ParseMultiaddrs(addrs []string) ([]multiaddr.Multiaddr, error) {
	out := make([]multiaddr.Multiaddr, 0, len(addrs))
	for _, a := range addrs {
		ma, err := multiaddr.NewMultiaddr(a)
		if err != nil {
			return nil, fmt.Errorf("invalid multiaddr %q: %w", a, err)
		}
		out = append(out, ma)
	}
	return out, nil
}

// FileConfig is the optional YAML file passed with --config.
type FileConfig struct {
	Logging         LoggingConfig         `yaml:"logging"`
	Status          StatusConfig          `yaml:"status"`
	BootnodesRouter BootnodesRouterConfig `yaml:"bootnodes_router"`
	Monitor         MonitorConfig         `yaml:"monitor"`
	Network         NetworkConfig         `yaml:"network"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Color      bool   `yaml:"color"`       // ANSI colors on stdout
	OutputFile string `yaml:"output_file"` // Empty for stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// StatusConfig controls the status HTTP server.
type StatusConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"` // e.g. "127.0.0.1:9955"
}

// BootnodesRouterConfig controls bootnodes router calls.
type BootnodesRouterConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// MonitorConfig controls the status monitors.
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"` // status event period
}

// NetworkConfig controls the chain networks.
type NetworkConfig struct {
	AnnounceInterval time.Duration `yaml:"announce_interval"` // head announcement period
	MaxPeers         int           `yaml:"max_peers"`
}

// DefaultFileConfig returns the configuration used when no file is given.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Logging: LoggingConfig{
			Level:      "info",
			Color:      true,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Status: StatusConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9955",
		},
		BootnodesRouter: BootnodesRouterConfig{
			Timeout: DefaultRouterTimeout,
		},
		Monitor: MonitorConfig{
			Interval: 5 * time.Second,
		},
		Network: NetworkConfig{
			AnnounceInterval: 3 * time.Second,
			MaxPeers:         50,
		},
	}
}
