package chainspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/branchnode/pkg/errors"
)

const rootSpecJSON = `{
  "name": "Root Chain",
  "id": "root",
  "bootNodes": ["/ip4/10.0.0.1/tcp/30335/p2p/12D3KooWHbcFcrGPXKUrHcxvd8MXEeUzRYyvY8fQcpEBxncSUwhj"],
  "genesis": {"sharding": {"shardCount": 1}}
}`

func TestResolveBuiltins(t *testing.T) {
	dev, err := Resolve("dev")
	require.NoError(t, err)
	assert.Equal(t, DevID, dev.ID)
	require.NotNil(t, dev.Genesis.Sharding)
	assert.Equal(t, uint16(4), dev.Genesis.Sharding.ShardCount)

	empty, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DevID, empty.ID)

	local, err := Resolve("local")
	require.NoError(t, err)
	assert.Equal(t, LocalID, local.ID)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root-chain-spec.json")
	require.NoError(t, os.WriteFile(path, []byte(rootSpecJSON), 0644))

	spec, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "root", spec.ID)
	assert.Equal(t, "Root Chain", spec.Name)
	assert.Len(t, spec.BootNodes, 1)
	assert.Equal(t, uint16(1), spec.Genesis.Sharding.ShardCount)
	assert.Equal(t, "root", spec.Protocol())
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	garbled := filepath.Join(dir, "garbled.json")
	require.NoError(t, os.WriteFile(garbled, []byte("{not json"), 0644))
	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`{"name":"x"}`), 0644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "absent.json")},
		{"garbled", garbled},
		{"missing id", noID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			assert.True(t, errors.IsLoadSpecFailed(err))
		})
	}
}

func TestGenesisHashStable(t *testing.T) {
	a, err := Dev().GenesisHash()
	require.NoError(t, err)
	b, err := Dev().GenesisHash()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := Dev()
	other.Genesis.Sharding.ShardCount = 8
	c, err := other.GenesisHash()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
