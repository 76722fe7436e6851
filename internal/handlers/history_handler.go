package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"peerprep/interview/internal/history"
	"peerprep/interview/internal/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type HistoryHandler struct {
	repo   *history.Repository
	logger *zap.Logger
}

func NewHistoryHandler(repo *history.Repository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{repo: repo, logger: logger}
}

// ListHistory handles GET /api/v1/history?candidate=<name>&limit=<n>
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		utils.Error(w, http.StatusServiceUnavailable, "history_disabled", "History storage is not configured")
		return
	}
	candidate := strings.TrimSpace(r.URL.Query().Get("candidate"))
	if candidate == "" {
		utils.Error(w, http.StatusBadRequest, "missing_candidate", "candidate query parameter is required")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.Error(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.repo.ListByCandidate(r.Context(), candidate, limit)
	if err != nil {
		h.logger.Error("failed to list history", zap.String("candidate", candidate), zap.Error(err))
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, records)
}

// GetRecord handles GET /api/v1/history/{session_id}
func (h *HistoryHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		utils.Error(w, http.StatusServiceUnavailable, "history_disabled", "History storage is not configured")
		return
	}
	record, err := h.repo.GetBySessionID(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, record)
}
