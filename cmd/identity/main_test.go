package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityIsStable(t *testing.T) {
	dir := t.TempDir()

	run := func() string {
		var out bytes.Buffer
		cmd := newCommand()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--keystore-path", dir, "--protocol", "yee-shard1", "--ip", "10.0.0.7", "--port", "30334"})
		require.NoError(t, cmd.Execute())
		return strings.TrimSpace(out.String())
	}

	first := run()
	assert.True(t, strings.HasPrefix(first, "/ip4/10.0.0.7/tcp/30334/p2p/12D3Koo"), first)
	assert.Equal(t, first, run())
}

func TestIdentityRequiresProtocol(t *testing.T) {
	cmd := newCommand()
	cmd.SetArgs([]string{"--keystore-path", t.TempDir()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestBootNodeAddressRejectsBadIP(t *testing.T) {
	_, err := bootNodeAddress(options{keystorePath: t.TempDir(), protocol: "yee", ip: "not-an-ip", port: 1})
	assert.Error(t, err)
}
