package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "boot_nodes[0]" or "root_chain.database_path"
	Message string // e.g., "invalid multiaddr"
	Hint    string // e.g., "expected /ip{4,6}/.../tcp/<port>/p2p/<peerID>"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a list of validation problems reported together.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (v ValidationErrors) Unwrap() []error {
	return v
}

// Join returns nil for an empty list and ValidationErrors otherwise.
func Join(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return ValidationErrors(errs)
}

// Validate checks the file configuration and returns every problem found.
func (c *FileConfig) Validate() []error {
	var errs []error

	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateStatus()...)

	if c.BootnodesRouter.Timeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "bootnodes_router.timeout",
			Message: fmt.Sprintf("must be positive; got %s", c.BootnodesRouter.Timeout),
			Hint:    "recommended: 5s",
		})
	}
	if c.Monitor.Interval < 100*time.Millisecond {
		errs = append(errs, ValidationError{
			Path:    "monitor.interval",
			Message: fmt.Sprintf("must be at least 100ms; got %s", c.Monitor.Interval),
			Hint:    "recommended: 5s",
		})
	}
	if c.Network.AnnounceInterval <= 0 {
		errs = append(errs, ValidationError{
			Path:    "network.announce_interval",
			Message: fmt.Sprintf("must be positive; got %s", c.Network.AnnounceInterval),
			Hint:    "recommended: 3s",
		})
	}
	if c.Network.MaxPeers < 0 {
		errs = append(errs, ValidationError{
			Path:    "network.max_peers",
			Message: fmt.Sprintf("must be >= 0; got %d", c.Network.MaxPeers),
		})
	}

	return errs
}

func (c *FileConfig) validateLogging() []error {
	var errs []error
	lc := c.Logging

	if _, err := logging.ParseLevel(lc.Level); err != nil {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("invalid value %q", lc.Level),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	if lc.OutputFile != "" {
		dir := filepath.Dir(lc.OutputFile)
		if err := validateDataDir(dir); err != nil {
			errs = append(errs, ValidationError{
				Path:    "logging.output_file",
				Message: err.Error(),
			})
		}
	}

	for path, v := range map[string]int{
		"logging.max_size_mb":  lc.MaxSizeMB,
		"logging.max_backups":  lc.MaxBackups,
		"logging.max_age_days": lc.MaxAgeDays,
	} {
		if v < 0 {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("must be >= 0; got %d", v),
			})
		}
	}

	return errs
}

func (c *FileConfig) validateStatus() []error {
	if !c.Status.Enabled {
		return nil
	}
	if err := validateHostPort(c.Status.ListenAddr); err != nil {
		return []error{ValidationError{
			Path:    "status.listen_addr",
			Message: err.Error(),
			Hint:    "expected format: host:port",
		}}
	}
	return nil
}

// Validate checks an assembled node configuration.
func (c *NodeConfig) Validate() []error {
	var errs []error

	if c.DatabasePath == "" {
		errs = append(errs, ValidationError{Path: "database_path", Message: "must not be empty"})
	}
	if c.KeystorePath == "" {
		errs = append(errs, ValidationError{Path: "keystore_path", Message: "must not be empty"})
	}
	if c.Name == "" {
		errs = append(errs, ValidationError{Path: "name", Message: "must not be empty"})
	}
	if c.ChainSpec == nil {
		errs = append(errs, ValidationError{Path: "chain_spec", Message: "must be set"})
	}
	if c.Trigger == nil {
		errs = append(errs, ValidationError{Path: "trigger", Message: "must be set"})
	}

	if c.ShardCount == 0 || c.ShardNum >= c.ShardCount {
		errs = append(errs, ValidationError{
			Path:    "shard_num",
			Message: fmt.Sprintf("shard %d out of range for %d shards", c.ShardNum, c.ShardCount),
			Hint:    "shard_num must be below shard_count",
		})
	}

	errs = append(errs, validateListenAddresses("listen_addresses", c.ListenAddresses)...)
	for i, addr := range c.BootNodes {
		if err := ValidateBootNode(addr); err != nil {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("boot_nodes[%d]", i),
				Message: err.Error(),
				Hint:    "expected /ip{4,6}/.../tcp/<port>/p2p/<peerID>",
			})
		}
	}

	switch {
	case c.Role == RoleLight && c.RootChain != nil:
		errs = append(errs, ValidationError{
			Path:    "root_chain",
			Message: "light nodes do not run a root-chain client",
		})
	case c.RootChain != nil:
		errs = append(errs, c.RootChain.validate("root_chain")...)
	}

	return errs
}

func (p *RootChainParams) validate(prefix string) []error {
	var errs []error
	if p.DatabasePath == "" {
		errs = append(errs, ValidationError{Path: prefix + ".database_path", Message: "must not be empty"})
	}
	if p.KeystorePath == "" {
		errs = append(errs, ValidationError{Path: prefix + ".keystore_path", Message: "must not be empty"})
	}
	if p.Version.Version == "" {
		errs = append(errs, ValidationError{Path: prefix + ".version", Message: "must not be empty"})
	}
	if p.Trigger == nil {
		errs = append(errs, ValidationError{Path: prefix + ".trigger", Message: "must be set"})
	}
	if p.Port != nil && *p.Port == 0 {
		errs = append(errs, ValidationError{
			Path:    prefix + ".port",
			Message: "must be between 1 and 65535",
		})
	}
	return errs
}

// ValidateBootNode checks that addr is a dialable multiaddr with a peer id.
func ValidateBootNode(addr string) error {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return fmt.Errorf("invalid multiaddr: %v", err)
	}
	if _, err := peer.AddrInfoFromP2pAddr(ma); err != nil {
		return fmt.Errorf("missing or invalid /p2p/<peerID>: %v", err)
	}
	return nil
}

func validateListenAddresses(path string, addrs []string) []error {
	var errs []error
	seen := make(map[string]bool)
	for i, addr := range addrs {
		p := fmt.Sprintf("%s[%d]", path, i)

		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    p,
				Message: fmt.Sprintf("invalid multiaddr: %v", err),
				Hint:    "expected /ip{4,6}/.../tcp/<port>",
			})
			continue
		}

		netAddr, err := manet.ToNetAddr(ma)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    p,
				Message: fmt.Sprintf("cannot convert multiaddr to network address: %v", err),
				Hint:    "ensure multiaddr contains /tcp/<port>",
			})
			continue
		}
		if tcpAddr, ok := netAddr.(*net.TCPAddr); !ok || tcpAddr.Port < 1 || tcpAddr.Port > 65535 {
			errs = append(errs, ValidationError{
				Path:    p,
				Message: "invalid TCP port",
				Hint:    "port must be between 1 and 65535",
			})
		}

		if seen[addr] {
			errs = append(errs, ValidationError{
				Path:    p,
				Message: "duplicate listen address",
			})
		}
		seen[addr] = true
	}
	return errs
}

func validateDataDir(path string) error {
	if path == "" {
		return fmt.Errorf("must not be empty")
	}

	expandedPath := os.ExpandEnv(path)
	if strings.HasPrefix(expandedPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %v", err)
		}
		expandedPath = filepath.Join(home, expandedPath[1:])
	}

	info, err := os.Stat(expandedPath)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory")
		}
		return validateDirWritable(expandedPath)
	case os.IsNotExist(err):
		// Created at runtime; only the parent has to be usable.
		parent := filepath.Dir(expandedPath)
		pinfo, err := os.Stat(parent)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("parent directory not accessible: %v", err)
		}
		if !pinfo.IsDir() {
			return fmt.Errorf("parent path is not a directory")
		}
		if err := validateDirWritable(parent); err != nil {
			return fmt.Errorf("parent directory not writable: %v", err)
		}
		return nil
	default:
		return fmt.Errorf("cannot access path: %v", err)
	}
}

func validateDirWritable(path string) error {
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte(""), 0644); err != nil {
		return fmt.Errorf("directory not writable: %v", err)
	}
	os.Remove(testFile)
	return nil
}

func validateHostPort(hostPort string) error {
	_, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return fmt.Errorf("invalid host:port %q: %v", hostPort, err)
	}
	if port == "" {
		return fmt.Errorf("missing port")
	}
	return nil
}
