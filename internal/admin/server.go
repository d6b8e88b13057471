package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Server is the admin HTTP surface: GET /stats, POST /checkpoint, and
// GET /stats/stream (websocket), routed with chi the way
// mnohosten-laura-db/pkg/server/server.go sets up its router.
type Server struct {
	router    *chi.Mux
	collector *Collector
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func NewServer(collector *Collector) *Server {
	s := &Server{collector: collector, router: chi.NewRouter()}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Get("/stats", s.handleStats)
	s.router.Post("/checkpoint", s.handleCheckpoint)
	s.router.Get("/stats/stream", s.handleStatsStream)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.collector.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	if err := s.collector.Checkpoint(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStatsStream upgrades to a websocket and pushes a Snapshot
// every interval until the client disconnects or the request context
// is cancelled.
func (s *Server) handleStatsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("admin: websocket upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := s.collector.Snapshot()
			if err != nil {
				slog.Warn("admin: snapshot failed", "err", err)
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}
