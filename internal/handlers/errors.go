package handlers

import (
	"errors"
	"net/http"

	"peerprep/interview/internal/feedback"
	"peerprep/interview/internal/history"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/session"
	"peerprep/interview/internal/utils"
)

// writeError maps domain errors onto the uniform error body.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *models.ErrorResponse
	switch {
	case errors.As(err, &apiErr):
		status := http.StatusBadRequest
		if apiErr.Code == "problem_not_found" {
			status = http.StatusNotFound
		}
		utils.JSON(w, status, *apiErr)
	case errors.Is(err, session.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "session_not_found", "Session not found")
	case errors.Is(err, history.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "record_not_found", "No history for this session")
	case errors.Is(err, session.ErrClosed):
		utils.Error(w, http.StatusConflict, "session_closed", "Session has already ended")
	case errors.Is(err, feedback.ErrContextNotFound):
		utils.Error(w, http.StatusNotFound, "request_not_found", "Request not found or expired")
	case errors.Is(err, session.ErrFeedbackDisabled):
		utils.Error(w, http.StatusServiceUnavailable, "feedback_disabled", "Feedback storage is not configured")
	default:
		utils.Error(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
	}
}
