package routers

import (
	"github.com/go-chi/chi/v5"

	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
)

// SessionRoutes mounts the WebSocket endpoint and session REST routes. A
// non-empty jwtSecret requires a session token on the WebSocket.
func SessionRoutes(router *chi.Mux, sessionHandler *handlers.SessionHandler, jwtSecret string) {
	router.With(middleware.RequireSessionToken(jwtSecret)).Get("/ws/session", sessionHandler.SessionWS)

	router.With(middleware.ValidateRequest[*models.RunCodeRequest]()).Post("/api/v1/run_code", sessionHandler.RunCode)
	router.Get("/api/v1/sessions/{id}", sessionHandler.GetSession)
	router.Post("/api/v1/sessions/{id}/complete", sessionHandler.CompleteSession)
}

func ProblemRoutes(router *chi.Mux, problemHandler *handlers.ProblemHandler) {
	router.Get("/api/v1/problems", problemHandler.ListProblems)
	router.Get("/api/v1/problems/{id}", problemHandler.GetProblem)
}

func FeedbackRoutes(router *chi.Mux, feedbackHandler *handlers.FeedbackHandler, historyHandler *handlers.HistoryHandler) {
	router.Get("/api/v1/feedback/stats", feedbackHandler.Stats)
	router.With(middleware.ValidateRequest[*models.FeedbackRequest]()).Post("/api/v1/feedback/{request_id}", feedbackHandler.SubmitFeedback)
	router.Get("/api/v1/history", historyHandler.ListHistory)
	router.Get("/api/v1/history/{session_id}", historyHandler.GetRecord)
}
