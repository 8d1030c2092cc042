package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/internal/leaderboard"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/internal/relay"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/hub"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/store"
)

const bannerMessage = "Snake Blockchain API - Powered by Succinct"

const statusListLimit = 1000

// Server exposes the query/command surface, the websocket relay endpoint
// and the observability endpoints on one listener.
type Server struct {
	httpServer *http.Server
	hub        *hub.Hub
	relay      *relay.Service
	scores     *leaderboard.Service
	store      store.Store
	logger     *logger.Logger
	upgrader   websocket.Upgrader
}

// New creates a new Server
func New(addr string, h *hub.Hub, rl *relay.Service, lb *leaderboard.Service, st store.Store, l *logger.Logger) *Server {
	s := &Server{
		hub:    h,
		relay:  rl,
		scores: lb,
		store:  st,
		logger: l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Wallets connect from arbitrary origins, same as the CORS policy below.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{$}", s.handleRoot)
	mux.HandleFunc("POST /api/score", s.handleSubmitScore)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/leaderboard/all", s.handleHistory)
	mux.HandleFunc("DELETE /api/scores/{wallet}", s.handleClearScores)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/status", s.handleCreateStatus)
	mux.HandleFunc("GET /api/status", s.handleListStatus)
	mux.HandleFunc("/ws", s.handleWebsocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: corsMiddleware(mux),
	}

	return s
}

// Handler returns the root HTTP handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// limitParam parses the limit query parameter; invalid or absent values
// fall back to the service defaults.
func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": bannerMessage})
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var sub game.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed score submission")
		return
	}
	if err := sub.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.scores.Submit(r.Context(), sub)
	if err != nil {
		s.logger.Error("score submission failed", err)
		s.writeError(w, http.StatusInternalServerError, "failed to submit score")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	records, err := s.scores.Ranking(r.Context(), limitParam(r))
	if err != nil {
		s.logger.Error("ranking query failed", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query leaderboard")
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.scores.History(r.Context(), r.URL.Query().Get("wallet"), limitParam(r))
	if err != nil {
		s.logger.Error("history query failed", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query score history")
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleClearScores(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.scores.Clear(r.Context(), r.PathValue("wallet"))
	if err != nil {
		s.logger.Error("clear scores failed", err)
		s.writeError(w, http.StatusInternalServerError, "failed to clear scores")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"deleted_count": deleted})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.scores.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats query failed", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query stats")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreateStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ClientName string `json:"client_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.ClientName == "" {
		s.writeError(w, http.StatusBadRequest, "client_name is required")
		return
	}

	check := game.NewStatusCheck(in.ClientName)
	if err := s.store.InsertStatusCheck(r.Context(), check); err != nil {
		s.logger.Error("status check insert failed", err)
		s.writeError(w, http.StatusInternalServerError, "failed to record status check")
		return
	}
	s.writeJSON(w, http.StatusOK, check)
}

func (s *Server) handleListStatus(w http.ResponseWriter, r *http.Request) {
	checks, err := s.store.StatusChecks(r.Context(), statusListLimit)
	if err != nil {
		s.logger.Error("status check query failed", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query status checks")
		return
	}
	s.writeJSON(w, http.StatusOK, checks)
}

// handleWebsocket upgrades the connection and runs its read loop until the
// client disconnects. Events never produce replies; errors on individual
// events are invisible to the sender.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client, err := s.hub.Register(conn)
	if err != nil {
		// Shutting down; refuse the session.
		conn.Close()
		return
	}
	go client.WritePump()

	s.logger.Debug("client connected", zap.String("remote", r.RemoteAddr))
	s.sendConnectedAck(client)

	defer func() {
		s.hub.Unregister(client)
		s.logger.Debug("client disconnected", zap.String("remote", r.RemoteAddr))
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.relay.HandleMessage(r.Context(), client, payload)
	}
}

func (s *Server) sendConnectedAck(client *hub.Client) {
	ack, err := json.Marshal(map[string]string{"status": "Connected to Snake Blockchain"})
	if err != nil {
		return
	}
	payload, err := game.EncodeEnvelope(game.EventConnected, ack)
	if err != nil {
		return
	}
	client.Send(payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Start runs the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting new work, disconnects clients and drains requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
