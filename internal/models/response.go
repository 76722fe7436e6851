package models

import "time"

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// GenerationResponse is what an LLM provider hands back for one prompt.
type GenerationResponse struct {
	Content   string             `json:"content"`
	RequestID string             `json:"request_id"`
	Metadata  GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	ProcessingTime int    `json:"processing_time_ms"`
}

// CodeAnalysis is the interviewer's structured review of a submission.
type CodeAnalysis struct {
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
	QualityScore    int      `json:"quality_score"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
}

// Heuristics is a best-effort pattern scan of the source, independent of any model.
type Heuristics struct {
	Lines          int      `json:"lines"`
	Functions      []string `json:"functions"`
	EstimatedTime  string   `json:"estimated_time"`
	EstimatedSpace string   `json:"estimated_space"`
	Patterns       []string `json:"patterns"`
	Issues         []string `json:"issues"`
}

type ScoreBreakdown struct {
	Correctness    int `json:"correctness"`
	Efficiency     int `json:"efficiency"`
	CodeQuality    int `json:"code_quality"`
	ProblemSolving int `json:"problem_solving"`
}

// Report is produced when a session is completed.
type Report struct {
	SessionID     string         `json:"session_id"`
	CandidateName string         `json:"candidate_name"`
	ProblemID     string         `json:"problem_id"`
	Status        SessionStatus  `json:"status"`
	Score         int            `json:"score"`
	Grade         string         `json:"grade"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	Analysis      CodeAnalysis   `json:"analysis"`
	Heuristics    Heuristics     `json:"heuristics"`
	Attempts      int            `json:"attempts"`
	HintsGiven    int            `json:"hints_given"`
	Proctoring    int            `json:"proctoring_events"`
	Duration      string         `json:"duration"`
	CompletedAt   time.Time      `json:"completed_at"`
}

type RunCodeResponse struct {
	Result    ExecutionResult `json:"result"`
	RequestID string          `json:"request_id"`
}

type FeedbackStats struct {
	Total    int64 `json:"total"`
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
}
