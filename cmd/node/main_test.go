package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

func parse(t *testing.T, args ...string) *options {
	t.Helper()
	var got *options
	cmd := newRootCommand(func(o *options) error {
		got = o
		return nil
	})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	return got
}

func TestFlagsRootPortUnset(t *testing.T) {
	o := parse(t, "--chain=dev", "--dev-params")
	p := o.cliParams()
	assert.Equal(t, "dev", p.Chain)
	assert.True(t, p.DevParams)
	assert.Nil(t, p.RootPort)
	assert.Empty(t, p.RootBootnodesRouters)
	assert.Equal(t, uint16(30333), p.Port)
}

func TestFlagsRootPortZeroIsExplicit(t *testing.T) {
	p := parse(t, "--root-port=0").cliParams()
	require.NotNil(t, p.RootPort)
	assert.Equal(t, uint16(0), *p.RootPort)
}

func TestFlagsRepeatableRouters(t *testing.T) {
	p := parse(t,
		"--root-bootnodes-routers=http://a:1",
		"--root-bootnodes-routers=http://b:2,http://c:3",
		"--root-port=4000",
		"--shard-num=2",
		"--light",
	).cliParams()

	// StringArray does not split on commas
	assert.Equal(t, []string{"http://a:1", "http://b:2,http://c:3"}, p.RootBootnodesRouters)
	require.NotNil(t, p.RootPort)
	assert.Equal(t, uint16(4000), *p.RootPort)
	assert.Equal(t, uint16(2), p.ShardNum)
	assert.True(t, p.Light)
}

func TestLoadFileConfigOverrides(t *testing.T) {
	fc, err := loadFileConfig(&options{logLevel: "debug", statusAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.Equal(t, "debug", fc.Logging.Level)
	assert.True(t, fc.Status.Enabled)
	assert.Equal(t, "127.0.0.1:0", fc.Status.ListenAddr)

	_, err = loadFileConfig(&options{logLevel: "loud"})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(errors.NewConfigError("chain", "unknown chain", nil)))
	assert.Equal(t, 1, exitCode(errors.NewLoadSpecError("dev", fmt.Errorf("boom"))))
	assert.Equal(t, 1, exitCode(fmt.Errorf("flag parse failed")))
}

func TestLogFailureClassifiesError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.Wrap(zap.New(core))

	logFailure(logger, "Failed to start node", errors.NewServiceError("root-chain", "failed to open root chain", nil))
	logFailure(logger, "Failed to assemble node configuration", errors.NewTopologyError(2, "", fmt.Errorf("no sharding")))

	entries := logs.FilterMessage("[NODE] Failed to start node").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, errors.CodeServiceUnavailable, fields["code"])
	assert.Equal(t, string(errors.CategoryExternal), fields["category"])
	assert.Equal(t, false, fields["fatal"])
	assert.Equal(t, "failed to open root chain", fields["reason"])

	entries = logs.FilterMessage("[NODE] Failed to assemble node configuration").All()
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].ContextMap()["fatal"])
	assert.Equal(t, 2, logs.FilterMessage("[NODE] Failure origin").Len())
}
