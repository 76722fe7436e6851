package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"peerprep/interview/internal/feedback"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/session"
	"peerprep/interview/internal/utils"
)

type FeedbackHandler struct {
	manager *feedback.Manager
	logger  *zap.Logger
}

// NewFeedbackHandler accepts a nil manager; every endpoint then answers 503.
func NewFeedbackHandler(manager *feedback.Manager, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{manager: manager, logger: logger}
}

// SubmitFeedback handles POST /api/v1/feedback/{request_id}
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeError(w, session.ErrFeedbackDisabled)
		return
	}
	requestID := chi.URLParam(r, "request_id")
	req := middleware.GetValidatedRequest[*models.FeedbackRequest](r)

	if err := h.manager.Submit(r.Context(), requestID, req.IsPositive); err != nil {
		h.logger.Warn("feedback not stored", zap.String("request_id", requestID), zap.Error(err))
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{
		"status":     "stored",
		"request_id": requestID,
	})
}

// Stats handles GET /api/v1/feedback/stats
func (h *FeedbackHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeError(w, session.ErrFeedbackDisabled)
		return
	}
	stats, err := h.manager.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to load feedback stats", zap.Error(err))
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, stats)
}
