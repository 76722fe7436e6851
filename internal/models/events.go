package models

// WSFrame is the envelope for every WebSocket message in both directions.
type WSFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// inbound
const (
	EventJoinSession     = "join_session"
	EventCodeUpdate      = "code_update"
	EventRunCode         = "run_code"
	EventChatMessage     = "chat_message"
	EventProctoringEvent = "proctoring_event"
	EventHintFeedback    = "hint_feedback"
)

// outbound
const (
	EventSessionJoined     = "session_joined"
	EventExecutionStarted  = "execution_started"
	EventExecutionComplete = "execution_complete"
	EventExecutionError    = "execution_error"
	EventChatResponse      = "chat_response"
	EventChatError         = "chat_error"
	EventError             = "error"
)

type JoinSession struct {
	SessionID       string `json:"session_id"`
	CandidateName   string `json:"candidate_name"`
	ExperienceYears int    `json:"experience_years"`
	ProblemID       string `json:"problem_id,omitempty"`
}

type CodeUpdate struct {
	Code string `json:"code"`
}

type RunCode struct {
	Code *string `json:"code"`
}

type ChatIn struct {
	Message string `json:"message"`
}

type ProctoringIn struct {
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type HintFeedbackIn struct {
	RequestID string `json:"request_id"`
	Positive  bool   `json:"positive"`
}

type SessionJoined struct {
	SessionID    string        `json:"session_id"`
	ProblemID    string        `json:"problem_id"`
	ProblemTitle string        `json:"problem_title"`
	InitialCode  string        `json:"initial_code"`
	ChatHistory  []ChatMessage `json:"chat_history"`
	Status       SessionStatus `json:"status"`
}

type ExecutionComplete struct {
	Stdout      string          `json:"stdout"`
	Stderr      string          `json:"stderr"`
	Status      ExecutionStatus `json:"status"`
	TestPassed  bool            `json:"test_passed"`
	TestsPassed int             `json:"tests_passed"`
	TestTotal   int             `json:"test_total"`
	Time        *float64        `json:"time,omitempty"`
	Memory      *int            `json:"memory,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type ChatResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Speak     bool   `json:"speak"`
	IsHint    bool   `json:"is_hint,omitempty"`
	HintLevel int    `json:"hint_level,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
