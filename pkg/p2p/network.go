// Package p2p runs the libp2p network of one chain: boot node dialing, head
// announcements over gossipsub, bandwidth accounting and periodic status
// events.
package p2p

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/metrics"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	noise "github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/chain"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// HeadsTopic carries head announcements.
const HeadsTopic = "heads"

// EphemeralListenAddress is used when no listen address is configured.
const EphemeralListenAddress = "/ip4/0.0.0.0/tcp/0"

// HeadStore is the chain state a network follows.
type HeadStore interface {
	chain.InfoSource
	ImportHead(ctx context.Context, number uint64, hash common.Hash) (bool, error)
	Finalize(ctx context.Context, number uint64, hash common.Hash) (bool, error)
}

// HeadAnnouncement is the gossip payload on HeadsTopic.
type HeadAnnouncement struct {
	Number          uint64      `json:"number"`
	Hash            common.Hash `json:"hash"`
	FinalizedNumber uint64      `json:"finalizedNumber"`
	FinalizedHash   common.Hash `json:"finalizedHash"`
}

// Options configures a chain network.
type Options struct {
	// Protocol namespaces the gossip topics and the identity file.
	Protocol        string
	ListenAddresses []string
	BootNodes       []string
	KeystorePath    string
	Store           HeadStore

	AnnounceInterval time.Duration
	StatusInterval   time.Duration
	MaxPeers         int

	Logger    *logging.ColoredLogger
	Component logging.Component
}

// Network is a running chain network.
type Network struct {
	opts   Options
	host   host.Host
	ps     *pubsub.PubSub
	gossip *Gossip
	bw     *metrics.BandwidthCounter
	boot   []peer.AddrInfo
	logger *logging.ColoredLogger

	mu       sync.Mutex
	bestSeen *uint64
	pending  *HeadAnnouncement

	status    chan chain.NetworkStatus
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Start creates the libp2p host, joins the heads topic, dials the boot nodes
// and starts the background loops. The loops stop when ctx is cancelled or
// Close is called.
func Start(ctx context.Context, opts Options) (*Network, error) {
	if opts.Store == nil {
		return nil, errors.NewValidationError("store", "must be set", nil)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Component == "" {
		opts.Component = logging.ComponentLibP2P
	}
	if opts.AnnounceInterval <= 0 {
		opts.AnnounceInterval = 3 * time.Second
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = 5 * time.Second
	}
	if opts.MaxPeers <= 0 {
		opts.MaxPeers = 50
	}

	boot, err := parseBootNodes(opts.BootNodes)
	if err != nil {
		return nil, errors.NewValidationError("boot_nodes", err.Error(), opts.BootNodes)
	}

	identity, self, err := LoadOrCreateIdentity(IdentityFile(opts.KeystorePath, opts.Protocol))
	if err != nil {
		return nil, errors.NewInternalError("failed to load network identity", err).WithOperation("startNetwork")
	}

	listen := opts.ListenAddresses
	if len(listen) == 0 {
		listen = []string{EphemeralListenAddress}
	}
	listenAddrs := make([]multiaddr.Multiaddr, 0, len(listen))
	for _, addr := range listen {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, errors.NewValidationError("listen_addresses", fmt.Sprintf("invalid listen address %s: %v", addr, err), addr)
		}
		listenAddrs = append(listenAddrs, ma)
	}

	cm, err := connmgr.NewConnManager(opts.MaxPeers/2, opts.MaxPeers)
	if err != nil {
		return nil, errors.NewInternalError("failed to create connection manager", err).WithOperation("startNetwork")
	}

	bw := metrics.NewBandwidthCounter()
	h, err := libp2p.New(
		libp2p.Identity(identity),
		libp2p.Security(noise.ID, noise.New),
		libp2p.DefaultMuxers,
		libp2p.DefaultTransports,
		libp2p.ListenAddrs(listenAddrs...),
		libp2p.BandwidthReporter(bw),
		libp2p.ConnectionManager(cm),
	)
	if err != nil {
		return nil, errors.NewServiceError("libp2p", "failed to create host", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithPeerExchange(true),
		pubsub.WithFloodPublish(true),
	)
	if err != nil {
		cancel()
		h.Close()
		return nil, errors.NewServiceError("libp2p", "failed to create pubsub", err)
	}

	n := &Network{
		opts:   opts,
		host:   h,
		ps:     ps,
		gossip: NewGossip(ps, opts.Protocol, self, opts.Logger),
		bw:     bw,
		boot:   boot,
		logger: opts.Logger,
		status: make(chan chain.NetworkStatus),
		cancel: cancel,
	}

	if err := n.gossip.Subscribe(HeadsTopic, n.handleAnnouncement); err != nil {
		cancel()
		h.Close()
		return nil, errors.NewServiceError("libp2p", "failed to subscribe to heads", err)
	}

	for _, ai := range boot {
		if ai.ID != self {
			h.Peerstore().AddAddrs(ai.ID, ai.Addrs, 24*time.Hour)
		}
	}

	n.logger.ComponentInfo(opts.Component, "Network started",
		zap.String("peer_id", self.String()),
		zap.String("protocol", opts.Protocol),
		zap.Strings("listen", n.ListenAddresses()),
		zap.Int("boot_nodes", len(boot)),
	)

	n.wg.Add(3)
	go n.reconnectLoop(ctx)
	go n.announceLoop(ctx)
	go n.statusLoop(ctx)

	return n, nil
}

// ID returns the local peer id.
func (n *Network) ID() peer.ID {
	return n.host.ID()
}

// ListenAddresses returns the full /p2p addresses this host listens on.
func (n *Network) ListenAddresses() []string {
	out := make([]string, 0, len(n.host.Addrs()))
	for _, a := range n.host.Addrs() {
		out = append(out, fmt.Sprintf("%s/p2p/%s", a, n.host.ID()))
	}
	return out
}

// Status returns the status event stream. It is closed when the network stops.
func (n *Network) Status() <-chan chain.NetworkStatus {
	return n.status
}

// PeerCount returns the number of connected peers.
func (n *Network) PeerCount() int {
	return len(n.host.Network().Peers())
}

// Close stops the loops, leaves the topics and closes the host.
func (n *Network) Close() error {
	var err error
	n.closeOnce.Do(func() {
		n.cancel()
		n.wg.Wait()
		n.gossip.Close()
		err = n.host.Close()
		n.logger.ComponentInfo(n.opts.Component, "Network stopped", zap.String("protocol", n.opts.Protocol))
	})
	return err
}

// Announce publishes the local head.
func (n *Network) Announce(ctx context.Context) error {
	info, err := n.opts.Store.Info(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(HeadAnnouncement{
		Number:          info.BestNumber,
		Hash:            info.BestHash,
		FinalizedNumber: info.FinalizedNumber,
		FinalizedHash:   info.FinalizedHash,
	})
	if err != nil {
		return err
	}
	return n.gossip.Publish(ctx, HeadsTopic, data)
}

func (n *Network) handleAnnouncement(from peer.ID, data []byte) error {
	var ann HeadAnnouncement
	if err := json.Unmarshal(data, &ann); err != nil {
		return fmt.Errorf("decode head announcement: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.bestSeen == nil || ann.Number > *n.bestSeen {
		best := ann.Number
		n.bestSeen = &best
		n.pending = &ann
	}
	return nil
}

// SyncStatus reports Downloading while an announced head is ahead of ours.
func (n *Network) SyncStatus(local uint64) chain.SyncStatus {
	n.mu.Lock()
	defer n.mu.Unlock()

	status := chain.SyncStatus{
		State:    chain.SyncIdle,
		NumPeers: n.PeerCount(),
	}
	if n.bestSeen != nil {
		seen := *n.bestSeen
		status.BestSeenBlock = &seen
		if seen > local {
			status.State = chain.SyncDownloading
		}
	}
	return status
}

// importPending follows the best announced head.
func (n *Network) importPending(ctx context.Context) {
	n.mu.Lock()
	ann := n.pending
	n.pending = nil
	n.mu.Unlock()

	if ann == nil {
		return
	}
	if _, err := n.opts.Store.ImportHead(ctx, ann.Number, ann.Hash); err != nil {
		n.logger.ComponentWarn(n.opts.Component, "Failed to import announced head",
			zap.Uint64("number", ann.Number), zap.Error(err))
		return
	}
	if ann.FinalizedNumber > 0 {
		if _, err := n.opts.Store.Finalize(ctx, ann.FinalizedNumber, ann.FinalizedHash); err != nil {
			n.logger.ComponentWarn(n.opts.Component, "Failed to finalize announced head",
				zap.Uint64("number", ann.FinalizedNumber), zap.Error(err))
		}
	}
}

func (n *Network) statusLoop(ctx context.Context) {
	defer n.wg.Done()
	defer close(n.status)

	ticker := time.NewTicker(n.opts.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var local uint64
		if info, err := n.opts.Store.Info(ctx); err == nil {
			local = info.BestNumber
		}
		totals := n.bw.GetBandwidthTotals()
		ev := chain.NetworkStatus{
			Sync:                  n.SyncStatus(local),
			AverageDownloadPerSec: uint64(totals.RateIn),
			AverageUploadPerSec:   uint64(totals.RateOut),
		}

		select {
		case n.status <- ev:
		case <-ctx.Done():
			return
		}

		n.importPending(ctx)
	}
}

func (n *Network) announceLoop(ctx context.Context) {
	defer n.wg.Done()

	ticker := time.NewTicker(n.opts.AnnounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := n.Announce(ctx); err != nil && ctx.Err() == nil {
				n.logger.ComponentDebug(n.opts.Component, "Head announcement failed", zap.Error(err))
			}
		}
	}
}

func (n *Network) reconnectLoop(ctx context.Context) {
	defer n.wg.Done()
	if len(n.boot) == 0 {
		return
	}

	interval := initialReconnectInterval
	for {
		wait := connectedCheckInterval
		if !n.hasBootPeerConnection() {
			if n.connectToPeers(ctx) == 0 {
				wait = addJitter(interval)
				interval = calculateNextBackoff(interval)
			} else {
				interval = initialReconnectInterval
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// connectToPeers dials every boot node and returns how many succeeded.
func (n *Network) connectToPeers(ctx context.Context) int {
	connected := 0
	for _, ai := range n.boot {
		if ai.ID == n.host.ID() {
			continue
		}
		if err := n.host.Connect(ctx, ai); err != nil {
			n.logger.ComponentDebug(n.opts.Component, "Failed to connect to boot node",
				zap.String("peer", ai.ID.String()), zap.Error(err))
			continue
		}
		connected++
	}
	return connected
}

func (n *Network) hasBootPeerConnection() bool {
	for _, ai := range n.boot {
		if len(n.host.Network().ConnsToPeer(ai.ID)) > 0 {
			return true
		}
	}
	return false
}

func parseBootNodes(addrs []string) ([]peer.AddrInfo, error) {
	byID := make(map[peer.ID]*peer.AddrInfo)
	var order []peer.ID
	for _, s := range addrs {
		ma, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid boot node %q: %w", s, err)
		}
		ai, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			return nil, fmt.Errorf("invalid boot node %q: %w", s, err)
		}
		if existing, ok := byID[ai.ID]; ok {
			existing.Addrs = append(existing.Addrs, ai.Addrs...)
			continue
		}
		byID[ai.ID] = ai
		order = append(order, ai.ID)
	}

	out := make([]peer.AddrInfo, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}
