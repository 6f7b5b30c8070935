package p2p

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// IdentityFile returns the identity key path of a chain network inside a keystore.
func IdentityFile(keystorePath, chainID string) string {
	return filepath.Join(keystorePath, chainID+"-identity.key")
}

// LoadOrCreateIdentity loads the Ed25519 network key at path, creating it on
// first use.
func LoadOrCreateIdentity(path string) (crypto.PrivKey, peer.ID, error) {
	if data, err := os.ReadFile(path); err == nil {
		priv, err := crypto.UnmarshalPrivateKey(data)
		if err != nil {
			return nil, "", fmt.Errorf("corrupt identity %s: %w", path, err)
		}
		id, err := peer.IDFromPrivateKey(priv)
		if err != nil {
			return nil, "", err
		}
		return priv, id, nil
	} else if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("read identity %s: %w", path, err)
	}

	priv, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, 2048, rand.Reader)
	if err != nil {
		return nil, "", err
	}
	data, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, "", err
	}

	id, err := peer.IDFromPrivateKey(priv)
	if err != nil {
		return nil, "", err
	}
	return priv, id, nil
}
