package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

type ProblemLister interface {
	List() []models.Problem
	Get(id string) (models.Problem, bool)
}

type ProblemHandler struct {
	problems ProblemLister
}

func NewProblemHandler(problems ProblemLister) *ProblemHandler {
	return &ProblemHandler{problems: problems}
}

// ListProblems handles GET /api/v1/problems. Hints and test cases are never serialised.
func (h *ProblemHandler) ListProblems(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.problems.List())
}

// GetProblem handles GET /api/v1/problems/{id}
func (h *ProblemHandler) GetProblem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.problems.Get(utils.NormalizeID(chi.URLParam(r, "id")))
	if !ok {
		utils.Error(w, http.StatusNotFound, "problem_not_found", "Problem not found")
		return
	}
	utils.JSON(w, http.StatusOK, p)
}
