// Package chainspec resolves chain specifications: the built-in development
// specs and JSON spec files.
package chainspec

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/DeBrosOfficial/branchnode/pkg/errors"
)

const (
	// DevID is the id of the single-node development spec.
	DevID = "dev"
	// LocalID is the id of the multi-node local testnet spec.
	LocalID = "local"
)

// Spec is a chain specification.
type Spec struct {
	Name       string                 `json:"name"`
	ID         string                 `json:"id"`
	BootNodes  []string               `json:"bootNodes"`
	ProtocolID string                 `json:"protocolId,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Genesis    Genesis                `json:"genesis"`
}

// Genesis holds the parts of the genesis state the node reads before the
// chain engine starts.
type Genesis struct {
	Sharding *Sharding             `json:"sharding,omitempty"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
}

// Sharding is the genesis sharding section.
type Sharding struct {
	ShardCount       uint16 `json:"shardCount"`
	ScaleOutPhase    uint32 `json:"scaleOutPhase,omitempty"`
	TargetShardCount uint16 `json:"targetShardCount,omitempty"`
}

// GenesisHash is the Keccak-256 hash of the canonical genesis encoding.
// encoding/json sorts map keys, so equal genesis sections hash equally.
func (s *Spec) GenesisHash() (common.Hash, error) {
	data, err := json.Marshal(s.Genesis)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode genesis: %w", err)
	}
	return crypto.Keccak256Hash(data), nil
}

// Protocol returns the network protocol id, falling back to the spec id.
func (s *Spec) Protocol() string {
	if s.ProtocolID != "" {
		return s.ProtocolID
	}
	return s.ID
}

// Resolve returns a built-in spec for "dev" and "local" (and the empty
// string, which means dev), and otherwise loads the argument as a file path.
func Resolve(id string) (*Spec, error) {
	switch strings.TrimSpace(id) {
	case "", DevID:
		return Dev(), nil
	case LocalID:
		return Local(), nil
	default:
		return Load(id)
	}
}

// Load reads a JSON chain spec from path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewLoadSpecError(path, err)
	}
	return Parse(path, data)
}

// Parse decodes a JSON chain spec. source names the spec in errors.
func Parse(source string, data []byte) (*Spec, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, errors.NewLoadSpecError(source, err)
	}
	if spec.ID == "" {
		return nil, errors.NewLoadSpecError(source, fmt.Errorf("missing id"))
	}
	if spec.Name == "" {
		spec.Name = spec.ID
	}
	return &spec, nil
}

// Dev is the development spec: one shard group of four.
func Dev() *Spec {
	return &Spec{
		Name:       "Development",
		ID:         DevID,
		ProtocolID: "yee",
		Properties: map[string]interface{}{"tokenSymbol": "YEE", "tokenDecimals": 8},
		Genesis: Genesis{
			Sharding: &Sharding{ShardCount: 4},
		},
	}
}

// Local is the local testnet spec.
func Local() *Spec {
	return &Spec{
		Name:       "Local Testnet",
		ID:         LocalID,
		ProtocolID: "yee",
		Properties: map[string]interface{}{"tokenSymbol": "YEE", "tokenDecimals": 8},
		Genesis: Genesis{
			Sharding: &Sharding{ShardCount: 4},
		},
	}
}
