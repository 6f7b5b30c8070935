package rootchain

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/chain"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// RootChainPrefix prefixes the root-chain status lines.
const RootChainPrefix = "root chain"

// Reporter receives every rendered snapshot.
type Reporter interface {
	Report(snapshot chain.Snapshot)
}

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	Prefix    string
	Info      chain.InfoSource
	Status    <-chan chain.NetworkStatus
	Logger    *logging.ColoredLogger
	Component logging.Component
	Reporter  Reporter

	// Fields adds structured fields to every status line.
	Fields func() []zap.Field
	// Now defaults to time.Now.
	Now func() time.Time
}

// Monitor turns network status events into status lines, one per event, in
// arrival order. It keeps only the previous (best number, time) sample.
type Monitor struct {
	opts MonitorOptions

	lastNumber *uint64
	lastUpdate time.Time
}

// NewMonitor creates a monitor.
func NewMonitor(opts MonitorOptions) *Monitor {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Component == "" {
		opts.Component = logging.ComponentRoot
	}
	if opts.Prefix == "" {
		opts.Prefix = RootChainPrefix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{opts: opts}
}

// Run consumes the status stream until ctx is cancelled or the stream closes.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-m.opts.Status:
			if !ok {
				return
			}
			m.handle(ctx, ev)
		}
	}
}

// handle renders one event. It returns false when the chain info could not
// be read and the event was skipped.
func (m *Monitor) handle(ctx context.Context, ev chain.NetworkStatus) (chain.Snapshot, bool) {
	info, err := m.opts.Info.Info(ctx)
	if err != nil {
		m.opts.Logger.ComponentWarn(m.opts.Component, "Error getting best block information", zap.Error(err))
		return chain.Snapshot{}, false
	}

	now := m.opts.Now()
	speed := Speed(info.BestNumber, m.lastNumber, now.Sub(m.lastUpdate))
	best := info.BestNumber
	m.lastNumber = &best
	m.lastUpdate = now

	status, target := StatusText(ev.Sync, speed)
	parts := LineParts{
		Prefix:   m.opts.Prefix,
		Status:   status,
		Target:   target,
		Peers:    ev.Sync.NumPeers,
		Info:     info,
		Download: TransferRate(ev.AverageDownloadPerSec),
		Upload:   TransferRate(ev.AverageUploadPerSec),
	}

	var fields []zap.Field
	if m.opts.Fields != nil {
		fields = m.opts.Fields()
	}
	m.opts.Logger.ComponentInfo(m.opts.Component, FormatLine(parts, m.opts.Logger.Colored()), fields...)

	var targetNum *uint64
	if ev.Sync.State == chain.SyncDownloading && ev.Sync.BestSeenBlock != nil {
		n := *ev.Sync.BestSeenBlock
		targetNum = &n
	}
	snapshot := chain.Snapshot{
		Chain:          m.opts.Prefix,
		Info:           info,
		State:          status,
		Target:         targetNum,
		Peers:          ev.Sync.NumPeers,
		DownloadPerSec: ev.AverageDownloadPerSec,
		UploadPerSec:   ev.AverageUploadPerSec,
		Line:           FormatLine(parts, false),
		TimestampMs:    now.UnixMilli(),
	}
	if m.opts.Reporter != nil {
		m.opts.Reporter.Report(snapshot)
	}
	return snapshot, true
}
