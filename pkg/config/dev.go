package config

import (
	"fmt"
	"strings"
	"time"
)

// Development defaults for the root-chain connection.
const (
	DevRootPort            uint16 = 30335
	DevRootBootnodesRouter        = "http://127.0.0.1:50001"
	DevChainID                    = "dev"
)

// DefaultRouterTimeout bounds a bootnodes router fetch.
const DefaultRouterTimeout = 5 * time.Second

// RootFlags are the root-chain related command line parameters.
type RootFlags struct {
	Port             *uint16
	BootnodesRouters []string
}

// ApplyDevDefaults fills the unset root flags from the development defaults,
// but only for the "dev" chain with dev params enabled. Explicit values always
// win. applied reports whether any default was used.
func ApplyDevDefaults(specID string, devParams bool, in RootFlags) (out RootFlags, applied bool) {
	out = RootFlags{
		Port:             in.Port,
		BootnodesRouters: append([]string(nil), in.BootnodesRouters...),
	}
	if specID != DevChainID || !devParams {
		return out, false
	}

	if out.Port == nil {
		port := DevRootPort
		out.Port = &port
		applied = true
	}
	if len(out.BootnodesRouters) == 0 {
		out.BootnodesRouters = []string{DevRootBootnodesRouter}
		applied = true
	}
	return out, applied
}

// CommandLine renders the flags as the equivalent command line arguments.
func (f RootFlags) CommandLine() string {
	var args []string
	if f.Port != nil {
		args = append(args, fmt.Sprintf("--root-port=%d", *f.Port))
	}
	for _, r := range f.BootnodesRouters {
		args = append(args, "--root-bootnodes-routers="+r)
	}
	return strings.Join(args, " ")
}
