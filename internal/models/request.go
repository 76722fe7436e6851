package models

import (
	"strings"
)

// RunCodeRequest is the stateless REST run used by the editor's "run" button outside a session.
type RunCodeRequest struct {
	Code      string `json:"code"`
	ProblemID string `json:"problem_id"`
	SessionID string `json:"session_id,omitempty"`
}

// implements the Validator interface
func (r *RunCodeRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return &ErrorResponse{Code: "missing_code", Message: "Code field is required"}
	}
	r.ProblemID = strings.ToLower(strings.TrimSpace(r.ProblemID))
	if r.ProblemID == "" {
		return &ErrorResponse{Code: "missing_problem_id", Message: "problem_id is required"}
	}
	r.SessionID = strings.TrimSpace(r.SessionID)
	return nil
}

type FeedbackRequest struct {
	IsPositive bool `json:"is_positive"`
}

func (r *FeedbackRequest) Validate() error {
	return nil
}

// JoinRequest carries what the candidate sends when opening a session.
type JoinRequest struct {
	SessionID       string `json:"session_id"`
	CandidateName   string `json:"candidate_name"`
	ExperienceYears int    `json:"experience_years"`
	ProblemID       string `json:"problem_id,omitempty"`
}

func (r *JoinRequest) Validate() error {
	r.SessionID = strings.TrimSpace(r.SessionID)
	if r.SessionID == "" {
		return &ErrorResponse{Code: "missing_session_id", Message: "session_id is required"}
	}
	r.CandidateName = strings.TrimSpace(r.CandidateName)
	if r.CandidateName == "" {
		r.CandidateName = "Candidate"
	}
	if r.ExperienceYears < 0 {
		return &ErrorResponse{
			Code:    "invalid_experience",
			Message: "experience_years must not be negative",
			Details: []ValidationErrorDetail{{Field: "experience_years", Reason: "negative"}},
		}
	}
	r.ProblemID = strings.ToLower(strings.TrimSpace(r.ProblemID))
	return nil
}
