package rootchain

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/DeBrosOfficial/branchnode/pkg/chain"
)

var emphasis = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))

// Speed renders the import speed since the previous sample as " X.Y bps",
// or "" when there is no previous sample, no time elapsed, or the rate is
// below 0.1 blocks per second.
func Speed(best uint64, last *uint64, elapsed time.Duration) string {
	if last == nil {
		return ""
	}
	elapsedMs := uint64(elapsed / time.Millisecond)
	if elapsedMs == 0 {
		return ""
	}

	var delta uint64
	if best > *last {
		delta = best - *last
	}
	// tenths of a block per second, integer division
	rate := float64(delta * 10000 / elapsedMs)
	if rate < 1.0 {
		return ""
	}
	return fmt.Sprintf(" %4.1f bps", rate/10.0)
}

// TransferRate renders a byte rate.
func TransferRate(bytesPerSec uint64) string {
	switch {
	case bytesPerSec == 0:
		return "0"
	case bytesPerSec < 100:
		return fmt.Sprintf("%d B/s", bytesPerSec)
	case bytesPerSec < 1024*1024:
		return fmt.Sprintf("%.1fkiB/s", float64(bytesPerSec)/1024.0)
	default:
		return fmt.Sprintf("%.1fMiB/s", float64(bytesPerSec)/(1024.0*1024.0))
	}
}

// StatusText classifies the sync state: "Idle", or "Syncing<speed>" with a
// ", target=#<n>" suffix when the best seen block is known.
func StatusText(sync chain.SyncStatus, speed string) (status, target string) {
	if sync.State != chain.SyncDownloading {
		return "Idle", ""
	}
	status = "Syncing" + speed
	if sync.BestSeenBlock != nil {
		target = fmt.Sprintf(", target=#%d", *sync.BestSeenBlock)
	}
	return status, target
}

// ShortHash renders a hash as 0xabcd…ef01.
func ShortHash(h common.Hash) string {
	return fmt.Sprintf("0x%x…%x", h[:2], h[common.HashLength-2:])
}

// LineParts are the inputs of one status line.
type LineParts struct {
	Prefix   string
	Status   string
	Target   string
	Peers    int
	Info     chain.Info
	Download string
	Upload   string
}

// FormatLine renders the status line. With colored set, the status and the
// peer count are emphasized.
func FormatLine(p LineParts, colored bool) string {
	status := p.Status
	peers := fmt.Sprintf("%d", p.Peers)
	if colored {
		status = emphasis.Render(status)
		peers = emphasis.Render(peers)
	}
	return fmt.Sprintf("%s: %s%s (%s peers), best: #%d (%s), finalized #%d (%s), ⬇ %s ⬆ %s",
		p.Prefix,
		status, p.Target,
		peers,
		p.Info.BestNumber, ShortHash(p.Info.BestHash),
		p.Info.FinalizedNumber, ShortHash(p.Info.FinalizedHash),
		p.Download, p.Upload,
	)
}
