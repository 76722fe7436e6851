package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctrl.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

// CompleteSession handles POST /api/v1/sessions/{id}/complete
func (h *SessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	report, err := h.ctrl.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}

// runCodeTimeout bounds a stateless run, Judge0 submit retries and polling included.
const runCodeTimeout = 3 * time.Minute

// RunCode handles POST /api/v1/run_code
func (h *SessionHandler) RunCode(w http.ResponseWriter, r *http.Request) {
	// a run can outlast the server's WriteTimeout
	deadline := time.Now().Add(runCodeTimeout + 5*time.Second)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
		h.logger.Debug("could not extend write deadline", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(r.Context(), runCodeTimeout)
	defer cancel()

	req := middleware.GetValidatedRequest[*models.RunCodeRequest](r)
	result, err := h.ctrl.RunStateless(ctx, *req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.RunCodeResponse{
		Result:    result,
		RequestID: chimw.GetReqID(r.Context()),
	})
}
