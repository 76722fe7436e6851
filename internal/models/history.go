package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionRecord is the persisted summary of a finished interview.
type SessionRecord struct {
	gorm.Model
	SessionID       string    `gorm:"uniqueIndex;not null" json:"session_id"`
	CandidateName   string    `gorm:"index;not null" json:"candidate_name"`
	ExperienceYears int       `json:"experience_years"`
	ProblemID       string    `gorm:"index;not null" json:"problem_id"`
	Status          string    `gorm:"not null" json:"status"`
	FinalCode       string    `gorm:"type:text" json:"final_code"`
	Attempts        int       `json:"attempts"`
	HintsGiven      int       `json:"hints_given"`
	ProctoringCount int       `json:"proctoring_count"`
	Score           int       `json:"score"`
	Grade           string    `json:"grade"`
	Transcript      string    `gorm:"type:text" json:"-"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
}
