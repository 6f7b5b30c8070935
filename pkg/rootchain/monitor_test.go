package rootchain

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DeBrosOfficial/branchnode/pkg/chain"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

type scriptedInfo struct {
	mu    sync.Mutex
	infos []chain.Info
	errs  []error
}

func (s *scriptedInfo) Info(context.Context) (chain.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := s.infos[0], s.errs[0]
	if len(s.infos) > 1 {
		s.infos, s.errs = s.infos[1:], s.errs[1:]
	}
	return info, err
}

type collectingReporter struct {
	mu        sync.Mutex
	snapshots []chain.Snapshot
}

func (r *collectingReporter) Report(s chain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *collectingReporter) all() []chain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chain.Snapshot(nil), r.snapshots...)
}

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestMonitorHandle(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	hash := common.HexToHash("0xabcd")
	info := &scriptedInfo{
		infos: []chain.Info{{BestNumber: 10, BestHash: hash}, {}, {BestNumber: 20, BestHash: hash}},
		errs:  []error{nil, fmt.Errorf("database is locked"), nil},
	}
	reporter := &collectingReporter{}
	clock := &stepClock{t: time.Unix(1700000000, 0), step: time.Second}

	m := NewMonitor(MonitorOptions{
		Info:     info,
		Logger:   logging.Wrap(zap.New(core)),
		Reporter: reporter,
		Now:      clock.now,
	})
	ctx := context.Background()

	s, ok := m.handle(ctx, chain.NetworkStatus{Sync: chain.SyncStatus{State: chain.SyncIdle, NumPeers: 2}})
	require.True(t, ok)
	assert.Equal(t, "Idle", s.State)
	assert.Nil(t, s.Target)
	assert.Equal(t, RootChainPrefix, s.Chain)

	_, ok = m.handle(ctx, chain.NetworkStatus{})
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("[ROOT] Error getting best block information").Len())

	target := uint64(50)
	s, ok = m.handle(ctx, chain.NetworkStatus{
		Sync:                  chain.SyncStatus{State: chain.SyncDownloading, BestSeenBlock: &target, NumPeers: 3},
		AverageDownloadPerSec: 2048,
		AverageUploadPerSec:   50,
	})
	require.True(t, ok)
	// the skipped event takes no sample: 10 blocks over one clock step
	assert.Equal(t, "Syncing 10.0 bps", s.State)
	require.NotNil(t, s.Target)
	assert.Equal(t, uint64(50), *s.Target)
	assert.Equal(t, "root chain: Syncing 10.0 bps, target=#50 (3 peers), best: #20 (0x0000…abcd), finalized #0 (0x0000…0000), ⬇ 2.0kiB/s ⬆ 50 B/s", s.Line)

	assert.Len(t, reporter.all(), 2)
	lines := logs.FilterMessageSnippet("root chain:").All()
	require.Len(t, lines, 2)
	assert.Equal(t, "[ROOT] "+s.Line, lines[1].Message)
}

func TestMonitorRunOrderAndStop(t *testing.T) {
	status := make(chan chain.NetworkStatus)
	reporter := &collectingReporter{}
	info := &scriptedInfo{infos: []chain.Info{{BestNumber: 1}}, errs: []error{nil}}

	m := NewMonitor(MonitorOptions{
		Prefix:   "shard #1",
		Info:     info,
		Status:   status,
		Reporter: reporter,
		Fields:   func() []zap.Field { return []zap.Field{zap.Int("n", 1)} },
	})

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()

	for i := 1; i <= 3; i++ {
		status <- chain.NetworkStatus{Sync: chain.SyncStatus{NumPeers: i}}
	}
	close(status)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after the stream closed")
	}

	got := reporter.all()
	require.Len(t, got, 3)
	for i, s := range got {
		assert.Equal(t, i+1, s.Peers)
		assert.Equal(t, "shard #1", s.Chain)
	}
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMonitor(MonitorOptions{
		Info:   &scriptedInfo{infos: []chain.Info{{}}, errs: []error{nil}},
		Status: make(chan chain.NetworkStatus),
	})

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}
