package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ctf-scoreboard/internal/domain"
	"github.com/ctf-scoreboard/internal/metrics"
	"github.com/ctf-scoreboard/internal/queue"
	"github.com/ctf-scoreboard/internal/service"
)

// ScoreboardService serves cached scoreboards
type ScoreboardService interface {
	GetScoreboard(ctx context.Context, gameID int64) (*domain.Scoreboard, error)
	ExportSheet(ctx context.Context, gameID int64) ([]byte, error)
	FlushScoreboard(ctx context.Context, gameID int64, trigger string) error
	ListGames(ctx context.Context) ([]domain.BasicGameInfo, error)
	QueueStats() queue.Stats
}

// GameService applies competition writes
type GameService interface {
	UpdateParticipationStatus(ctx context.Context, gameID, participationID int64, status domain.ParticipationStatus) error
	RecordSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error)
	UpdateChallengeScoring(ctx context.Context, gameID, challengeID int64, scoring domain.ChallengeScoring) error
	DeleteGame(ctx context.Context, gameID int64) error
}

// ReadyFunc reports whether the backing stores answer
type ReadyFunc func(ctx context.Context) error

// Handler provides HTTP handlers for the scoreboard API
type Handler struct {
	scoreboards    ScoreboardService
	games          GameService
	ready          ReadyFunc
	metrics        *metrics.Metrics
	metricsHandler http.Handler
	logger         *slog.Logger
}

// NewHandler creates a new HTTP handler. ready and metricsHandler may be nil.
func NewHandler(
	scoreboards ScoreboardService,
	games GameService,
	ready ReadyFunc,
	m *metrics.Metrics,
	metricsHandler http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		scoreboards:    scoreboards,
		games:          games,
		ready:          ready,
		metrics:        m,
		metricsHandler: metricsHandler,
		logger:         logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	if h.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.metricsHandler)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/queue/stats", h.GetQueueStats)

		r.Route("/games", func(r chi.Router) {
			r.Get("/", h.ListGames)

			r.Route("/{gameID}", func(r chi.Router) {
				r.Delete("/", h.DeleteGame)

				r.Get("/scoreboard", h.GetScoreboard)
				r.Get("/scoreboard/sheet", h.ExportSheet)
				r.Post("/scoreboard/flush", h.FlushScoreboard)

				r.Post("/submissions", h.RecordSubmission)
				r.Put("/participations/{participationID}/status", h.UpdateParticipationStatus)
				r.Put("/challenges/{challengeID}/scoring", h.UpdateChallengeScoring)
			})
		})
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to write response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, status int, data any) {
	h.writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error to its HTTP status
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		h.writeError(w, http.StatusServiceUnavailable, err)
	default:
		h.logger.Error("request failed",
			"op", op,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", "error", err)
			h.writeError(w, http.StatusServiceUnavailable, errors.New("not ready"))
			return
		}
	}
	h.writeSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetQueueStats returns invalidation queue counters
func (h *Handler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, http.StatusOK, h.scoreboards.QueueStats())
}

// ListGames returns the visible games
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.scoreboards.ListGames(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list games", err)
		return
	}
	h.writeSuccess(w, http.StatusOK, games)
}

// GetScoreboard returns a game's scoreboard
func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	sb, err := h.scoreboards.GetScoreboard(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, r, "get scoreboard", err)
		return
	}
	h.writeSuccess(w, http.StatusOK, sb)
}

// ExportSheet downloads a game's scoreboard as a spreadsheet
func (h *Handler) ExportSheet(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	data, err := h.scoreboards.ExportSheet(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, r, "export scoreboard", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=scoreboard-%d.xlsx", gameID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write spreadsheet", "game_id", gameID, "error", err)
	}
}

// FlushScoreboard queues a rebuild of a game's scoreboard
func (h *Handler) FlushScoreboard(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.scoreboards.FlushScoreboard(r.Context(), gameID, service.TriggerManual); err != nil {
		h.writeServiceError(w, r, "flush scoreboard", err)
		return
	}
	h.writeSuccess(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// DeleteGame deletes a game
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.games.DeleteGame(r.Context(), gameID); err != nil {
		h.writeServiceError(w, r, "delete game", err)
		return
	}
	h.writeSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type statusRequest struct {
	Status domain.ParticipationStatus `json:"status"`
}

// UpdateParticipationStatus reviews a team's registration
func (h *Handler) UpdateParticipationStatus(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	participationID, ok := pathID(r, "participationID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.games.UpdateParticipationStatus(r.Context(), gameID, participationID, req.Status); err != nil {
		h.writeServiceError(w, r, "update participation status", err)
		return
	}
	h.writeSuccess(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// RecordSubmission stores a judged submission
func (h *Handler) RecordSubmission(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	sub.ID = 0
	sub.GameID = gameID

	saved, err := h.games.RecordSubmission(r.Context(), sub)
	if err != nil {
		h.writeServiceError(w, r, "record submission", err)
		return
	}
	h.writeSuccess(w, http.StatusCreated, saved)
}

// UpdateChallengeScoring changes a challenge's scoring settings
func (h *Handler) UpdateChallengeScoring(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "gameID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	challengeID, ok := pathID(r, "challengeID")
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var scoring domain.ChallengeScoring
	if err := json.NewDecoder(r.Body).Decode(&scoring); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.games.UpdateChallengeScoring(r.Context(), gameID, challengeID, scoring); err != nil {
		h.writeServiceError(w, r, "update challenge scoring", err)
		return
	}
	h.writeSuccess(w, http.StatusOK, scoring)
}
