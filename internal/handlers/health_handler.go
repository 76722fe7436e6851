package handlers

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"peerprep/interview/internal/utils"
)

const readinessTimeout = 3 * time.Second

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed" | "disabled"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	judge    Pinger
	db       *gorm.DB
	provider string
}

// NewHealthHandler takes the judge client, an optional database and the LLM provider name.
func NewHealthHandler(judge Pinger, db *gorm.DB, provider string) *HealthHandler {
	return &HealthHandler{judge: judge, db: db, provider: provider}
}

func (h *HealthHandler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "interview",
	})
}

// ReadyzHandler reports whether the judge is reachable. The database is optional
// and only reported.
func (h *HealthHandler) ReadyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]ReadinessCheck)
	ready := true

	if err := h.judge.Ping(ctx); err != nil {
		checks["judge"] = ReadinessCheck{Status: "failed", Message: err.Error()}
		ready = false
	} else {
		checks["judge"] = ReadinessCheck{Status: "ok"}
	}

	checks["database"] = h.databaseCheck(ctx)
	checks["llm"] = ReadinessCheck{Status: "ok", Message: h.provider}

	resp := ReadinessResponse{Service: "interview", Checks: checks}
	if ready {
		resp.Status = "ready"
		utils.JSON(w, http.StatusOK, resp)
		return
	}
	resp.Status = "not_ready"
	utils.JSON(w, http.StatusServiceUnavailable, resp)
}

func (h *HealthHandler) databaseCheck(ctx context.Context) ReadinessCheck {
	if h.db == nil {
		return ReadinessCheck{Status: "disabled", Message: "feedback and history are off"}
	}
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return ReadinessCheck{Status: "failed", Message: err.Error()}
	}
	return ReadinessCheck{Status: "ok"}
}
