// Package server exposes the read-only API over state pushed in by the
// driver loop. It never calls the simulator: the run loop hands it immutable
// copies, which keeps the core single-threaded while HTTP stays concurrent.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"VaultUSD/internal/event"
	"VaultUSD/internal/observability"
	"VaultUSD/internal/scenario"
	"VaultUSD/internal/state"
)

// Server holds the latest driver-pushed view plus broadcast hubs for the
// websocket stream.
type Server struct {
	mu      sync.RWMutex
	latest  *event.SnapshotRecorded
	history []event.SnapshotRecorded
	vaults  []state.Vault

	snapHub *hub[event.SnapshotRecorded]
	liqHub  *hub[event.VaultLiquidated]

	upgrader websocket.Upgrader
	health   *observability.HealthChecker
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

func New(health *observability.HealthChecker, logger zerolog.Logger, metrics *observability.Metrics) *Server {
	return &Server{
		snapHub:  newHub[event.SnapshotRecorded](),
		liqHub:   newHub[event.VaultLiquidated](),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		health:   health,
		logger:   logger,
		metrics:  metrics,
	}
}

// OnStep updates the view and broadcasts to stream clients.
func (s *Server) OnStep(step scenario.StepResult) {
	snap := step.Snapshot
	wire := event.NewSnapshotRecorded(
		snap.TotalCollateral, snap.TotalLiability, snap.Price, snap.AggregateRatio, snap.SequenceIndex,
	)

	s.mu.Lock()
	s.latest = &wire
	s.history = append(s.history, wire)
	s.vaults = step.Vaults
	s.mu.Unlock()

	for _, l := range step.Liquidations {
		s.liqHub.broadcast(event.VaultLiquidated{
			VaultID:    l.VaultID.String(),
			Owner:      l.Owner,
			Collateral: l.Collateral,
			Liability:  l.Liability,
			Health:     l.Health,
			Price:      l.Price,
		})
	}
	s.snapHub.broadcast(wire)
}

// Routes returns the HTTP handler for the read-only API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /v1/vaults", s.handleVaults)
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("GET /healthz", s.health.LivenessHandler)
	mux.HandleFunc("GET /readyz", s.health.ReadinessHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

type vaultJSON struct {
	VaultID    string  `json:"vault_id"`
	Owner      string  `json:"owner"`
	Collateral float64 `json:"collateral"`
	Liability  float64 `json:"liability"`
}

type vaultsResponse struct {
	AsOfSequence int64       `json:"as_of_sequence"`
	OpenVaults   int         `json:"open_vaults"`
	Vaults       []vaultJSON `json:"vaults"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		http.Error(w, `{"error":"no snapshot recorded yet"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, latest)
}

func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := vaultsResponse{Vaults: make([]vaultJSON, 0, len(s.vaults))}
	if s.latest != nil {
		resp.AsOfSequence = s.latest.SequenceIndex
	}
	for _, v := range s.vaults {
		resp.Vaults = append(resp.Vaults, vaultJSON{
			VaultID:    v.ID.String(),
			Owner:      v.Owner,
			Collateral: v.Collateral,
			Liability:  v.Liability,
		})
	}
	resp.OpenVaults = len(resp.Vaults)
	s.mu.RUnlock()

	writeJSON(w, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	history := make([]event.SnapshotRecorded, len(s.history))
	copy(history, s.history)
	s.mu.RUnlock()

	writeJSON(w, history)
}

type outboundMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	snapSub := s.snapHub.subscribe(16)
	defer s.snapHub.unsubscribe(snapSub)
	liqSub := s.liqHub.subscribe(16)
	defer s.liqHub.unsubscribe(liqSub)

	if s.metrics != nil {
		s.metrics.StreamClients.Inc()
		defer s.metrics.StreamClients.Dec()
	}

	// Reader only detects close; inbound frames are discarded.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case snap := <-snapSub.ch:
			if err := conn.WriteJSON(outboundMessage{Type: "snapshot", Data: snap}); err != nil {
				return
			}
		case liq := <-liqSub.ch:
			if err := conn.WriteJSON(outboundMessage{Type: "liquidation", Data: liq}); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
