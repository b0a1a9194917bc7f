// Package httpapi is the thin transport shim over the session core. It
// parses requests, maps core errors to status codes and holds no game or
// arbitration logic of its own.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"iaboy/internal/actions"
	"iaboy/internal/analytics"
	"iaboy/internal/emulator"
	"iaboy/internal/session"
	"iaboy/internal/storage"
)

type Server struct {
	manager   *session.Manager
	catalog   *emulator.Catalog
	steps     storage.Loader // optional
	server    *http.Server
	port      int
	startTime time.Time
}

func NewServer(manager *session.Manager, catalog *emulator.Catalog, steps storage.Loader, port int) *Server {
	return &Server{
		manager:   manager,
		catalog:   catalog,
		steps:     steps,
		port:      port,
		startTime: time.Now(),
	}
}

// Handler builds the route table. Exposed so tests can drive the API
// without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/games", s.handleGames)
	mux.HandleFunc("/api/analytics", s.handleAnalytics)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSession)
	return mux
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	log.Printf("🌐 HTTP API listening on :%d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{
		"status":   "ok",
		"uptime":   time.Since(s.startTime).Truncate(time.Second).String(),
		"sessions": len(s.manager.List()),
	})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"games": s.catalog.IDs()})
}

// handleAnalytics aggregates the recorded step log into per-session stats
// and a reward leaderboard.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.steps == nil {
		http.Error(w, "Step log not configured", http.StatusNotFound)
		return
	}
	records, err := s.steps.LoadSteps()
	if err != nil {
		http.Error(w, "Failed to read step log: "+err.Error(), http.StatusInternalServerError)
		return
	}
	stats := analytics.AnalyzeSteps(records)
	writeJSON(w, map[string]any{
		"sessions":    stats,
		"leaderboard": analytics.Leaderboard(stats),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"sessions": s.manager.List()})
	case http.MethodPost:
		var req struct {
			GameID string `json:"game_id"`
			Mode   string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON request: "+err.Error(), http.StatusBadRequest)
			return
		}
		mode, err := session.ParseMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess, err := s.manager.Create(r.Context(), req.GameID, mode)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, sess.Snapshot())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSession routes /api/sessions/{id} and /api/sessions/{id}/{op}.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if rest == "" || rest == r.URL.Path {
		http.Error(w, "Session ID is required", http.StatusBadRequest)
		return
	}
	id, op, _ := strings.Cut(rest, "/")

	switch {
	case op == "" && r.Method == http.MethodDelete:
		_ = s.manager.Close(id)
		writeJSON(w, map[string]any{"closed": true})
	case op == "" && r.Method == http.MethodGet:
		sess, err := s.manager.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, sess.Snapshot())
	case op == "step" && r.Method == http.MethodPost:
		s.handleStep(w, r, id)
	case op == "chat" && r.Method == http.MethodPost:
		s.handleChat(w, r, id)
	case op == "save" && r.Method == http.MethodPost:
		s.handleSave(w, r, id)
	case op == "load" && r.Method == http.MethodPost:
		s.handleLoad(w, r, id)
	case op == "rewards" && r.Method == http.MethodGet:
		s.handleRewards(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type stepResponse struct {
	Observation    emulator.Observation `json:"observation"`
	Reward         float64              `json:"reward"`
	Tags           []string             `json:"tags,omitempty"`
	ActionTaken    string               `json:"action_taken"`
	Actor          string               `json:"actor"`
	AIFallback     bool                 `json:"ai_fallback,omitempty"`
	OverrodeHuman  bool                 `json:"overridden_human,omitempty"`
	AdvisoryAction string               `json:"advisory_action,omitempty"`
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Action string `json:"action"`
		OptOut bool   `json:"opt_out"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON request: "+err.Error(), http.StatusBadRequest)
		return
	}
	var human *session.HumanInput
	if req.Action != "" || req.OptOut {
		human = &session.HumanInput{Label: req.Action, OptOut: req.OptOut}
	}
	res, err := s.manager.Step(r.Context(), id, human)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stepResponse{
		Observation:    res.Observation,
		Reward:         res.Reward.Reward,
		Tags:           res.Reward.Tags,
		ActionTaken:    res.ActionLabel,
		Actor:          res.Actor,
		AIFallback:     res.AIFallback,
		OverrodeHuman:  res.OverrodeHuman,
		AdvisoryAction: res.Advisory,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}
	reply, err := s.manager.Chat(r.Context(), id, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"reply": reply})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, id string) {
	blob, err := s.manager.Save(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"state": base64.StdEncoding.EncodeToString(blob)})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON request: "+err.Error(), http.StatusBadRequest)
		return
	}
	blob, err := base64.StdEncoding.DecodeString(req.State)
	if err != nil {
		http.Error(w, "State must be base64: "+err.Error(), http.StatusBadRequest)
		return
	}
	obs, err := s.manager.Load(r.Context(), id, blob)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"observation": obs})
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.manager.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"rewards": sess.RewardHistory()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionTerminated):
		status = http.StatusConflict
	case errors.Is(err, session.ErrUnknownGame),
		errors.Is(err, session.ErrMissingHumanAction),
		errors.Is(err, actions.ErrUnparseable):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrOracleUnavailable):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}
