// Package status serves the node's chain snapshots over HTTP: a health
// check, the latest snapshot per chain, a websocket stream of new snapshots
// and Prometheus metrics.
package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/chain"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// Identity describes the running node in /status responses.
type Identity struct {
	InstanceID string `json:"instanceId"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	Chain      string `json:"chain"`
	Role       string `json:"role"`
	ShardNum   uint16 `json:"shardNum"`
	ShardCount uint16 `json:"shardCount"`
}

// Response is the /status payload.
type Response struct {
	Node   Identity         `json:"node"`
	Chains []chain.Snapshot `json:"chains"`
}

// Server is the status HTTP server. It implements rootchain.Reporter.
type Server struct {
	identity Identity
	logger   *logging.ColoredLogger
	router   chi.Router
	metrics  *metrics
	hub      *hub
	started  time.Time

	mu     sync.RWMutex
	latest map[string]chain.Snapshot

	server    *http.Server
	listener  net.Listener
	closeOnce sync.Once
}

// New creates a status server. Call Start to listen.
func New(identity Identity, logger *logging.ColoredLogger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		identity: identity,
		logger:   logger,
		router:   chi.NewRouter(),
		metrics:  newMetrics(),
		hub:      newHub(logger),
		started:  time.Now(),
		latest:   make(map[string]chain.Snapshot),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/status/ws", s.handleStream)
	s.router.Get("/status/chains/{chain}", s.handleChain)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.NewServiceError("status", "failed to listen on "+addr, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.ComponentError(logging.ComponentStatus, "Status server failed", zap.Error(err))
		}
	}()

	s.logger.ComponentInfo(logging.ComponentStatus, "Status server listening",
		zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Report records a snapshot, updates the metrics and pushes it to the
// websocket subscribers.
func (s *Server) Report(snapshot chain.Snapshot) {
	s.mu.Lock()
	s.latest[snapshot.Chain] = snapshot
	s.mu.Unlock()

	s.metrics.observe(snapshot)

	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ComponentWarn(logging.ComponentStatus, "Failed to encode snapshot", zap.Error(err))
		return
	}
	s.hub.broadcast(data)
}

// Snapshots returns the latest snapshot of every chain, ordered by chain.
func (s *Server) Snapshots() []chain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chain.Snapshot, 0, len(s.latest))
	for _, snap := range s.latest {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chain < out[j].Chain })
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"instanceId": s.identity.InstanceID,
		"uptime":     time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Node: s.identity, Chains: s.Snapshots()})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "chain")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	s.mu.RLock()
	snap, ok := s.latest[name]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown chain "+name)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleStream sends the latest snapshots, then every new one.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var initial [][]byte
	for _, snap := range s.Snapshots() {
		data, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		initial = append(initial, data)
	}
	s.hub.serve(w, r, initial)
}

// Close shuts the HTTP server down and disconnects the websocket clients.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.hub.close()
		if s.server == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.server.Shutdown(ctx)
		s.logger.ComponentInfo(logging.ComponentStatus, "Status server stopped")
	})
	return err
}
