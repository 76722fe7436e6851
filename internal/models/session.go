package models

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type SessionStatus string

const (
	StatusWaiting    SessionStatus = "waiting"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

// IsTerminal reports whether the session can no longer change state.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type ProctoringEventType string

const (
	ProctorTabSwitch     ProctoringEventType = "tab_switch"
	ProctorPasteDetected ProctoringEventType = "paste_detected"
	ProctorCopyDetected  ProctoringEventType = "copy_detected"
	ProctorWindowBlur    ProctoringEventType = "window_blur"
)

var validProctoringEvents = mapset.NewThreadUnsafeSet(
	ProctorTabSwitch,
	ProctorPasteDetected,
	ProctorCopyDetected,
	ProctorWindowBlur,
)

func (t ProctoringEventType) Valid() bool {
	return validProctoringEvents.Contains(t)
}

type ProctoringEvent struct {
	Type      ProctoringEventType `json:"type"`
	Timestamp time.Time           `json:"timestamp"`
	Metadata  map[string]any      `json:"metadata,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single transcript entry between the candidate and the interviewer.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsHint    bool      `json:"is_hint,omitempty"`
	HintLevel int       `json:"hint_level,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Session is the full mutable state of one interview.
// consecutive errors > 0 implies LastErrorFingerprint != nil.
type Session struct {
	ID              string        `json:"session_id"`
	CandidateName   string        `json:"candidate_name"`
	ExperienceYears int           `json:"experience_years"`
	ProblemID       string        `json:"problem_id"`
	ProblemTitle    string        `json:"problem_title"`
	Status          SessionStatus `json:"status"`

	CurrentCode    string     `json:"current_code"`
	LastCodeUpdate *time.Time `json:"last_code_update,omitempty"`

	Executions    []ExecutionResult `json:"executions"`
	LastExecution *ExecutionResult  `json:"last_execution,omitempty"`

	ChatHistory      []ChatMessage     `json:"chat_history"`
	ProctoringEvents []ProctoringEvent `json:"proctoring_events"`

	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`

	ConsecutiveErrors    int        `json:"consecutive_errors"`
	LastErrorFingerprint *string    `json:"last_error_fingerprint,omitempty"`
	HintGiven            bool       `json:"hint_given"`
	HintsGiven           int        `json:"hints_given"`
	LastSuccessAt        *time.Time `json:"last_success_at,omitempty"`
	IdleNudgedAt         *time.Time `json:"idle_nudged_at,omitempty"`
}

// AttemptCount is the number of judged runs so far. Runs the judge never completed do not count.
func (s *Session) AttemptCount() int {
	n := 0
	for _, e := range s.Executions {
		if e.Status != ExecInfraError {
			n++
		}
	}
	return n
}

// RecordExecution appends a result to the history and points LastExecution at it.
func (s *Session) RecordExecution(result ExecutionResult) {
	s.Executions = append(s.Executions, result)
	s.LastExecution = &s.Executions[len(s.Executions)-1]
}

func (s *Session) AppendMessage(msg ChatMessage) {
	s.ChatHistory = append(s.ChatHistory, msg)
}

// RecentError returns the current streak fingerprint, or "" when there is none.
func (s *Session) RecentError() string {
	if s.LastErrorFingerprint == nil {
		return ""
	}
	return *s.LastErrorFingerprint
}

// Clone returns a deep copy safe to hand out of a store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Executions = append([]ExecutionResult(nil), s.Executions...)
	if len(c.Executions) > 0 && s.LastExecution != nil {
		c.LastExecution = &c.Executions[len(c.Executions)-1]
	} else if s.LastExecution != nil {
		last := *s.LastExecution
		c.LastExecution = &last
	}
	c.ChatHistory = append([]ChatMessage(nil), s.ChatHistory...)
	c.ProctoringEvents = append([]ProctoringEvent(nil), s.ProctoringEvents...)
	c.LastCodeUpdate = cloneTime(s.LastCodeUpdate)
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.LastSuccessAt = cloneTime(s.LastSuccessAt)
	c.IdleNudgedAt = cloneTime(s.IdleNudgedAt)
	if s.LastErrorFingerprint != nil {
		fp := *s.LastErrorFingerprint
		c.LastErrorFingerprint = &fp
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
