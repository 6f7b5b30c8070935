// Package chain holds the chain head view shared by the monitors and the
// sqlite header store backing it.
package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Info is the best and finalized head of a chain.
type Info struct {
	BestNumber      uint64      `json:"bestNumber"`
	BestHash        common.Hash `json:"bestHash"`
	FinalizedNumber uint64      `json:"finalizedNumber"`
	FinalizedHash   common.Hash `json:"finalizedHash"`
}

// InfoSource returns the current chain info.
type InfoSource interface {
	Info(ctx context.Context) (Info, error)
}

// SyncState is the major sync state of a chain network.
type SyncState int

const (
	// SyncIdle means no peer is known to be ahead of us.
	SyncIdle SyncState = iota
	// SyncDownloading means a peer announced a better block.
	SyncDownloading
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "Idle"
	case SyncDownloading:
		return "Downloading"
	default:
		return fmt.Sprintf("SyncState(%d)", int(s))
	}
}

// SyncStatus is what the network knows about sync progress.
type SyncStatus struct {
	State         SyncState
	BestSeenBlock *uint64
	NumPeers      int
}

// NetworkStatus is one periodic status event of a chain network.
type NetworkStatus struct {
	Sync                  SyncStatus
	AverageDownloadPerSec uint64
	AverageUploadPerSec   uint64
}

// Snapshot is the rendered state of one chain at one status event.
type Snapshot struct {
	Chain          string  `json:"chain"`
	Info           Info    `json:"info"`
	State          string  `json:"state"`
	Target         *uint64 `json:"target,omitempty"`
	Peers          int     `json:"peers"`
	DownloadPerSec uint64  `json:"downloadPerSec"`
	UploadPerSec   uint64  `json:"uploadPerSec"`
	Line           string  `json:"line"`
	TimestampMs    int64   `json:"timestampMs"`
}
