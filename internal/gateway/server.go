// Package gateway is the websocket/HTTP edge: it accepts subscribers,
// decodes their frames, applies rate limits and hands requests to the
// coordinator.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/celebiasallll/coffychess/internal/boardimg"
	"github.com/celebiasallll/coffychess/internal/coordinator"
	"github.com/celebiasallll/coffychess/internal/obslog"
	"github.com/celebiasallll/coffychess/internal/ratelimit"
	"github.com/celebiasallll/coffychess/internal/username"
)

type Server struct {
	coord   *coordinator.Coordinator
	hub     *Hub
	limiter *ratelimit.Limiter
	users   *username.Registry

	httpSrv *http.Server
	started time.Time
}

func NewServer(addr string, coord *coordinator.Coordinator, hub *Hub, limiter *ratelimit.Limiter, users *username.Registry) *Server {
	s := &Server{
		coord:   coord,
		hub:     hub,
		limiter: limiter,
		users:   users,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("GET /rooms/{id}/board.png", s.handleBoardPNG)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	obslog.L().Info("gateway_listening", zap.String("addr", s.httpSrv.Addr))
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.Error(err))
		return
	}

	c := newClient(uuid.NewString(), conn)
	s.hub.add(c)
	go c.writeLoop()

	obslog.L().Info("subscriber_connected", zap.String("subscriber", c.ID))

	ctx := r.Context()
	for {
		var env envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			break
		}
		s.dispatch(ctx, c, env)
	}

	s.hub.remove(c.ID)
	s.coord.Disconnect(c.ID)
	obslog.L().Info("subscriber_disconnected", zap.String("subscriber", c.ID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	rooms, sessions := s.coord.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"rooms":         rooms,
		"sessions":      sessions,
		"subscribers":   s.hub.count(),
		"uptimeSeconds": int(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.coord.ListOpenRooms()})
}

func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	room := s.coord.Room(r.PathValue("id"))
	if room == nil {
		http.NotFound(w, r)
		return
	}
	data, err := boardimg.Render(room.FEN())
	if err != nil {
		obslog.L().Error("board_render_failed", zap.String("room_id", room.ID()), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
