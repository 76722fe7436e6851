package models

import (
	"time"

	"gorm.io/gorm"
)

// HintFeedback stores a candidate's thumbs up or down on an interviewer reply.
// Candidate identity is not kept.
type HintFeedback struct {
	gorm.Model
	RequestID    string    `gorm:"uniqueIndex;not null" json:"request_id"`
	RequestType  string    `gorm:"not null" json:"request_type"` // "chat", "hint", "analysis"
	ProblemID    string    `gorm:"index" json:"problem_id"`
	HintLevel    int       `json:"hint_level"`
	Prompt       string    `gorm:"type:text;not null" json:"prompt"`
	Response     string    `gorm:"type:text;not null" json:"response"`
	IsPositive   bool      `gorm:"not null" json:"is_positive"`
	ModelVersion string    `gorm:"not null" json:"model_version"`
	FeedbackAt   time.Time `gorm:"not null" json:"feedback_at"`

	Exported   bool       `gorm:"default:false;index" json:"exported"`
	ExportedAt *time.Time `json:"exported_at,omitempty"`
}

// FallbackModel marks canned replies produced without an LLM.
const FallbackModel = "fallback"

// RequestContext keeps a prompt/response pair in memory until feedback arrives or it expires.
type RequestContext struct {
	RequestID   string
	RequestType string
	ProblemID   string
	HintLevel   int
	Prompt      string
	Response    string
	Model       string
	Timestamp   time.Time
}
