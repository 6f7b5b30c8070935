package node

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DeBrosOfficial/branchnode/pkg/assembler"
	"github.com/DeBrosOfficial/branchnode/pkg/chain"
	"github.com/DeBrosOfficial/branchnode/pkg/config"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
	"github.com/DeBrosOfficial/branchnode/pkg/service"
)

type nopTrigger struct{}

func (nopTrigger) TriggerRestart() {}
func (nopTrigger) TriggerStop()    {}

type noRouter struct{}

func (noRouter) Fetch(context.Context, []string) (*config.BootnodesRouterConf, error) {
	return nil, nil
}

type reporter struct{ snapshots chan chain.Snapshot }

func (r *reporter) Report(s chain.Snapshot) {
	select {
	case r.snapshots <- s:
	default:
	}
}

func assemble(t *testing.T, light bool) (*assembler.Assembler, *config.NodeConfig) {
	t.Helper()
	a := assembler.New(assembler.Options{
		Version: config.VersionInfo{Name: "branchnode", Version: "0.1.0"},
		Trigger: nopTrigger{},
		Router:  noRouter{},
	})
	cfg, err := a.Assemble(context.Background(), assembler.CLIParams{
		BasePath: t.TempDir(),
		Chain:    "dev",
		Light:    light,
		ShardNum: 1,
		Port:     0,
	})
	require.NoError(t, err)
	cfg.ListenAddresses = []string{"/ip4/127.0.0.1/tcp/0"}
	return a, cfg
}

type fakeRoot struct {
	err     error
	stopped bool
}

func (f *fakeRoot) Start(context.Context, config.RootChainParams) error { return f.err }
func (f *fakeRoot) Stop() error                                         { f.stopped = true; return nil }
func (f *fakeRoot) Config() *config.NodeConfig                          { return nil }

var testSettings = service.NetworkSettings{
	AnnounceInterval: time.Hour,
	StatusInterval:   50 * time.Millisecond,
	MaxPeers:         8,
}

func TestNewBranchesOnRole(t *testing.T) {
	a, full := assemble(t, false)
	svc, err := New(Options{Config: full, Builder: a})
	require.NoError(t, err)
	assert.IsType(t, &FullService{}, svc)

	_, light := assemble(t, true)
	svc, err = New(Options{Config: light})
	require.NoError(t, err)
	assert.IsType(t, &LightService{}, svc)
	assert.Same(t, light, svc.Config())

	_, err = New(Options{Config: full})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))

	_, err = New(Options{})
	assert.True(t, errors.IsConfig(err))
}

func TestFullServiceSurvivesRootChainFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a libp2p host")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	a, cfg := assemble(t, false)
	// no conf/root-chain-spec.json next to the base path
	require.NoFileExists(t, config.RootChainSpecPath(cfg.DatabasePath))

	rep := &reporter{snapshots: make(chan chain.Snapshot, 16)}
	svc, err := New(Options{
		Config:   cfg,
		Settings: testSettings,
		Builder:  a,
		Reporter: rep,
		Logger:   logging.Wrap(zap.New(core)),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))

	failed := logs.FilterMessage("[ROOT] Failed to start root chain").All()
	require.Len(t, failed, 1)
	assert.Equal(t, errors.CodeServiceUnavailable, failed[0].ContextMap()["code"])
	assert.Equal(t, string(errors.CategoryExternal), failed[0].ContextMap()["category"])
	assert.Zero(t, logs.FilterMessage("[ROOT] Root chain failure is fatal").Len())
	assert.Nil(t, svc.(*FullService).Root().Config())

	select {
	case snap := <-rep.snapshots:
		assert.Equal(t, "shard #1", snap.Chain)
	case <-time.After(5 * time.Second):
		t.Fatal("no informant snapshot")
	}

	require.NoError(t, svc.Stop())
}

func TestFullServiceFatalRootFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a libp2p host")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	a, cfg := assemble(t, false)
	svc, err := New(Options{
		Config:   cfg,
		Settings: testSettings,
		Builder:  a,
		Logger:   logging.Wrap(zap.New(core)),
	})
	require.NoError(t, err)

	full := svc.(*FullService)
	root := &fakeRoot{err: errors.NewConfigError("root_port", "root port collides with node port", nil)}
	full.root = root

	err = full.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Equal(t, 1, logs.FilterMessage("[ROOT] Root chain failure is fatal").Len())
	assert.Zero(t, logs.FilterMessage("[ROOT] Failed to start root chain").Len())
	assert.Nil(t, full.chain)

	require.NoError(t, full.Stop())
	assert.True(t, root.stopped)
}

func TestStartReportsChainOpenFailure(t *testing.T) {
	_, cfg := assemble(t, true)
	cfg.ListenAddresses = []string{"not-a-multiaddr"}

	svc, err := New(Options{Config: cfg, Settings: testSettings})
	require.NoError(t, err)

	err = svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, errors.CodeValidation, errors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "failed to open node chain")
	assert.NoError(t, svc.Stop())
}

func TestLightServiceStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a libp2p host")
	}

	_, cfg := assemble(t, true)
	svc, err := New(Options{Config: cfg, Settings: testSettings})
	require.NoError(t, err)

	require.NoError(t, svc.Start(context.Background()))
	assert.FileExists(t, filepath.Join(cfg.DatabasePath, chain.DatabaseFile))
	require.NoError(t, svc.Stop())
	assert.NoError(t, svc.Stop())
}

func TestShardPrefix(t *testing.T) {
	assert.Equal(t, "shard #0", ShardPrefix(0))
	assert.Equal(t, "shard #3", ShardPrefix(3))
}

func TestMemoryFields(t *testing.T) {
	for _, f := range memoryFields() {
		assert.Contains(t, []string{"mem_used_mb", "mem_used_pct"}, f.Key)
	}
}
