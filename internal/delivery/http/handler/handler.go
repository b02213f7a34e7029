package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user/news-harvester/internal/delivery/http/request"
	"github.com/user/news-harvester/internal/delivery/http/response"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/internal/usecase"
	"go.uber.org/zap"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	runManager usecase.RunManager
	checks     map[string]HealthCheck
	logger     *zap.Logger
}

func NewHandler(runManager usecase.RunManager, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		runManager: runManager,
		checks:     checks,
		logger:     logger,
	}
}

func (h *Handler) HandleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	runReq := entity.RunRequest{
		IntervalHours: req.IntervalHours,
		MaxCount:      req.MaxCount,
		Incremental:   req.Incremental,
	}
	if err := usecase.ValidateRequest(runReq); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	runID, err := h.runManager.Submit(r.Context(), runReq)
	if err != nil {
		h.logger.Error("failed to submit run", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.SubmitRunResponse{
		Status:  "success",
		Message: "Run submitted for harvesting",
		RunID:   runID,
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		h.writeJSONError(w, "Run id is required", http.StatusBadRequest)
		return
	}

	run, err := h.runManager.Status(r.Context(), runID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get run status", zap.String("run_id", runID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewRunStatusResponse(run))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"status": "ok"}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthStatus[name] = "unhealthy"
			healthy = false
			h.logger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		healthStatus[name] = "healthy"
	}

	if !healthy {
		healthStatus["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	h.writeJSON(w, http.StatusOK, healthStatus)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
