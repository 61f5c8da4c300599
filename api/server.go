package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/roversim/game/config"
	"github.com/wricardo/mcp-training/roversim/game/engine"
	"github.com/wricardo/mcp-training/roversim/game/parser"
	"github.com/wricardo/mcp-training/roversim/game/service"
	"github.com/wricardo/mcp-training/roversim/game/session"
	"github.com/wricardo/mcp-training/roversim/logger"
	"github.com/wricardo/mcp-training/roversim/transport/websocket"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.RoverService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case state
// changes are not broadcast.
func NewServer(roverService service.RoverService, hub *websocket.Hub) *Server {
	s := &Server{
		service: roverService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	api := s.router.PathPrefix("/api").Subrouter()

	// Stateless simulation
	api.HandleFunc("/run", s.handleRun).Methods("POST")

	// Missions
	api.HandleFunc("/missions", s.handleListMissions).Methods("GET")
	api.HandleFunc("/missions", s.handleCreateMission).Methods("POST")
	api.HandleFunc("/missions/{name}", s.handleGetMission).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Rover operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/rovers/{rover}/commands", s.handleExecute).Methods("POST")
	api.HandleFunc("/sessions/{id}/run", s.handleRunSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string           `json:"error"`
	Kind  engine.ErrorKind `json:"error_kind,omitempty"`
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondErr picks the status code from the error itself.
func respondErr(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), Kind: engine.KindOf(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrMissionNotFound),
		errors.Is(err, service.ErrRoverNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrOutOfBounds):
		return http.StatusUnprocessableEntity
	case engine.KindOf(err) != "",
		errors.Is(err, config.ErrInvalidMission),
		errors.Is(err, config.ErrUnknownFormat),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// isText reports whether the request body is plain mission text.
func isText(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "text/plain"
}

// decodeMission reads a mission either as plain text or as JSON.
func decodeMission(w http.ResponseWriter, r *http.Request, name string) (*engine.Mission, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if isText(r) {
		return parser.ParseReader(name, body)
	}

	var mission engine.Mission
	if err := json.NewDecoder(body).Decode(&mission); err != nil {
		if engine.KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", engine.ErrMalformedInput, err)
	}
	if mission.Name == "" {
		mission.Name = name
	}
	return &mission, nil
}

func (s *Server) broadcast(sessionID string, state *service.SessionState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

// Simulation Handlers

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	mission, err := decodeMission(w, r, "request")
	if err != nil {
		respondErr(w, err)
		return
	}

	result, err := s.service.Run(r.Context(), mission)
	if err != nil {
		respondErr(w, err)
		return
	}

	logger.L().Info("mission.run", "mission", mission.Name, "rovers", len(result.Reports), "failed", len(result.Errors))

	respondJSON(w, http.StatusOK, result)
}

// Mission Handlers

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.service.ListMissions(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, missions)
}

func (s *Server) handleGetMission(w http.ResponseWriter, r *http.Request) {
	name := config.MissionID(mux.Vars(r)["name"])

	mission, err := s.service.LoadMission(r.Context(), name)
	if err != nil {
		respondErr(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		data, err := config.Encode(".txt", mission)
		if err != nil {
			respondErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(data)
		return
	}

	respondJSON(w, http.StatusOK, mission)
}

func (s *Server) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	mission, err := decodeMission(w, r, name)
	if err != nil {
		respondErr(w, err)
		return
	}
	if mission.Name == "" {
		respondError(w, http.StatusBadRequest, "Mission name is required")
		return
	}
	if name == "" {
		name = mission.Name
	}

	if err := s.service.SaveMission(r.Context(), name, mission); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Mission saved successfully",
		"mission_id": config.MissionID(name),
	})
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MissionID string          `json:"mission_id,omitempty"`
		Mission   *engine.Mission `json:"mission,omitempty"`
	}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
			if engine.KindOf(err) == "" {
				err = fmt.Errorf("%w: %v", engine.ErrMalformedInput, err)
			}
			respondErr(w, err)
			return
		}
	}

	info, err := s.service.CreateSession(r.Context(), req.MissionID, req.Mission)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondErr(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventSessionDeleted, nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Rover Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetState(r.Context(), sessionID)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	rover, err := strconv.Atoi(vars["rover"])
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid rover index %q", vars["rover"]))
		return
	}

	var req struct {
		Commands string `json:"commands"`
	}
	if isText(r) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Commands = strings.TrimSpace(string(data))
	} else if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Execute(r.Context(), sessionID, rover, req.Commands)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcast(sessionID, result.State)

	status := "OK"
	if !result.Success {
		status = "FAIL"
	}
	logger.L().Info("rover.execute",
		"session", sessionID,
		"rover", rover,
		"executed", result.Executed,
		"requested", result.Requested,
		"clamps", result.Clamps,
		"final", result.Final.String(),
		"status", status,
	)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.RunMission(r.Context(), sessionID)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcast(sessionID, result.State)

	logger.L().Info("session.run", "session", sessionID, "rovers", len(result.Results), "failed", result.Failed)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcast(sessionID, state)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rovers reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	if roverStr := query.Get("rover"); roverStr != "" {
		rover, err := strconv.Atoi(roverStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid rover index %q", roverStr))
			return
		}
		opts.Rover = &rover
	}

	history, err := s.service.GetHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "WebSocket not available", http.StatusServiceUnavailable)
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, info.ID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// the upgrade needs the underlying http.Hijacker
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.L().Debug("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
