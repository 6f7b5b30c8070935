package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirName is the base directory created under the user's home.
const DefaultDirName = ".branchnode"

// DefaultBasePath returns ~/.branchnode.
func DefaultBasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// ChainDir returns <base>/chains/<chainID>.
func ChainDir(base, chainID string) string {
	return filepath.Join(base, "chains", chainID)
}

// DatabasePath returns <base>/chains/<chainID>/db.
func DatabasePath(base, chainID string) string {
	return filepath.Join(ChainDir(base, chainID), "db")
}

// KeystorePath returns <base>/chains/<chainID>/keystore.
func KeystorePath(base, chainID string) string {
	return filepath.Join(ChainDir(base, chainID), "keystore")
}

// RootChainSpecPath locates the root chain spec three levels above the main
// chain database: <db>/../../../conf/root-chain-spec.json.
func RootChainSpecPath(databasePath string) string {
	return filepath.Join(databasePath, "..", "..", "..", "conf", "root-chain-spec.json")
}

// RootChainDatabasePath derives the root-chain database path from the main
// one by replacing every "chains" with "root_chains". This is a plain string
// substitution: a base path that itself contains "chains" is rewritten too.
func RootChainDatabasePath(databasePath string) string {
	return strings.ReplaceAll(databasePath, "chains", "root_chains")
}

// EnsureDir creates dir with owner-only permissions if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
