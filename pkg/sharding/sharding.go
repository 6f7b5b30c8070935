// Package sharding resolves which shard a node serves and how many shards
// the chain currently has.
package sharding

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/chainspec"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// Context is the opaque sharding context handed to the chain engine.
type Context struct {
	GenesisHash common.Hash `json:"genesisHash"`
	ShardCount  uint16      `json:"shardCount"`
}

// Info is the resolved topology of a node.
type Info struct {
	ShardNum   uint16
	ShardCount uint16
	Context    Context
}

// InitialInfoProvider answers the topology question for a chain spec.
type InitialInfoProvider interface {
	InitialInfo(ctx context.Context, requested uint16, spec *chainspec.Spec) (Info, error)
}

// Resolver maps a requested shard index to a validated topology.
type Resolver struct {
	provider InitialInfoProvider
}

// NewResolver creates a resolver. A nil provider uses GenesisProvider.
func NewResolver(provider InitialInfoProvider) *Resolver {
	if provider == nil {
		provider = &GenesisProvider{}
	}
	return &Resolver{provider: provider}
}

// Resolve returns the topology for the requested shard. Provider failures and
// results with shard_num >= shard_count are reported as topology errors.
func (r *Resolver) Resolve(ctx context.Context, requested uint16, spec *chainspec.Spec) (Info, error) {
	if spec == nil {
		return Info{}, errors.NewTopologyError(requested, "", fmt.Errorf("no chain spec"))
	}

	info, err := r.provider.InitialInfo(ctx, requested, spec)
	if err != nil {
		if errors.IsTopologyUnavailable(err) {
			return Info{}, err
		}
		return Info{}, errors.NewTopologyError(requested, "", err)
	}

	if info.ShardCount == 0 || info.ShardNum >= info.ShardCount {
		return Info{}, errors.NewTopologyError(requested,
			fmt.Sprintf("provider returned shard %d of %d", info.ShardNum, info.ShardCount), nil)
	}
	return info, nil
}

// GenesisProvider reads the shard count from the spec's genesis sharding
// section.
type GenesisProvider struct {
	Logger *logging.ColoredLogger
}

// InitialInfo implements InitialInfoProvider.
func (p *GenesisProvider) InitialInfo(ctx context.Context, requested uint16, spec *chainspec.Spec) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	sharding := spec.Genesis.Sharding
	if sharding == nil {
		return Info{}, errors.NewTopologyError(requested, "genesis has no sharding section", nil)
	}
	if sharding.ShardCount == 0 {
		return Info{}, errors.NewTopologyError(requested, "genesis shard count is zero", nil)
	}

	hash, err := spec.GenesisHash()
	if err != nil {
		return Info{}, errors.NewTopologyError(requested, "", err)
	}

	count := sharding.ShardCount
	num := requested % count
	if num != requested && p.Logger != nil {
		p.Logger.ComponentWarn(logging.ComponentShard, "Requested shard outside live range, folding",
			zap.Uint16("requested", requested),
			zap.Uint16("shard_count", count),
			zap.Uint16("shard_num", num),
		)
	}

	return Info{
		ShardNum:   num,
		ShardCount: count,
		Context: Context{
			GenesisHash: hash,
			ShardCount:  count,
		},
	}, nil
}
