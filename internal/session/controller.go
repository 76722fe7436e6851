package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"peerprep/interview/internal/interviewer"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/problems"
	"peerprep/interview/internal/stuck"
)

const DefaultSessionTimeout = 60 * time.Minute

var (
	ErrClosed           = errors.New("session is no longer active")
	ErrFeedbackDisabled = errors.New("feedback storage is not configured")
)

// Deps are the collaborators a Controller drives. History, Feedback and Metrics may be nil.
type Deps struct {
	Store       Store
	Executor    Executor
	Interviewer Interviewer
	Detector    *stuck.Detector
	Problems    Problems
	History     HistoryWriter
	Feedback    FeedbackSink
	Metrics     Metrics
}

// Controller applies candidate actions to sessions and reports back through emitters.
type Controller struct {
	store       Store
	executor    Executor
	interviewer Interviewer
	detector    *stuck.Detector
	problems    Problems
	history     HistoryWriter
	feedback    FeedbackSink
	metrics     Metrics
	logger      *zap.Logger

	timeout  time.Duration
	now      func() time.Time
	runs     singleflight.Group
	emitters *emitters
}

func NewController(deps Deps, timeout time.Duration, logger *zap.Logger) *Controller {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	if deps.Detector == nil {
		deps.Detector = stuck.NewDetector(0, 0)
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:       deps.Store,
		executor:    deps.Executor,
		interviewer: deps.Interviewer,
		detector:    deps.Detector,
		problems:    deps.Problems,
		history:     deps.History,
		feedback:    deps.Feedback,
		metrics:     deps.Metrics,
		logger:      logger,
		timeout:     timeout,
		now:         time.Now,
		emitters:    newEmitters(),
	}
}

// Join opens a session, or reattaches to a live one with the same id, and emits session_joined.
// The returned func detaches emit; call it when the connection closes.
func (c *Controller) Join(ctx context.Context, req models.JoinRequest, emit Emitter) (*models.Session, func(), error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	s, err := c.store.Get(ctx, req.SessionID)
	switch {
	case err == nil:
		if s.Status.IsTerminal() {
			return nil, nil, ErrClosed
		}
		c.logger.Info("candidate rejoined session", zap.String("session_id", s.ID))
	case errors.Is(err, ErrNotFound):
		s, err = c.create(ctx, req)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	detach := c.emitters.attach(s.ID, emit)
	emit.Emit(models.EventSessionJoined, models.SessionJoined{
		SessionID:    s.ID,
		ProblemID:    s.ProblemID,
		ProblemTitle: s.ProblemTitle,
		InitialCode:  s.CurrentCode,
		ChatHistory:  s.ChatHistory,
		Status:       s.Status,
	})
	return s, detach, nil
}

func (c *Controller) create(ctx context.Context, req models.JoinRequest) (*models.Session, error) {
	var problem models.Problem
	if req.ProblemID != "" {
		p, ok := c.problems.Get(req.ProblemID)
		if !ok {
			return nil, &models.ErrorResponse{Code: "problem_not_found", Message: fmt.Sprintf("unknown problem %q", req.ProblemID)}
		}
		problem = p
	} else {
		problem = c.problems.RandomForExperience(req.ExperienceYears)
	}

	now := c.now()
	s := &models.Session{
		ID:              req.SessionID,
		CandidateName:   req.CandidateName,
		ExperienceYears: req.ExperienceYears,
		ProblemID:       problem.ID,
		ProblemTitle:    problem.Title,
		Status:          models.StatusInProgress,
		CurrentCode:     problem.StarterCode,
		StartedAt:       now,
		LastActivityAt:  now,
	}
	s.AppendMessage(models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   problems.WelcomeMessage(problem, req.CandidateName),
		Timestamp: now,
	})

	if err := c.store.Create(ctx, s); err != nil {
		if errors.Is(err, ErrExists) {
			// lost a race with another join for the same id
			return c.store.Get(ctx, req.SessionID)
		}
		return nil, err
	}

	c.metrics.SessionStarted()
	c.logger.Info("session started",
		zap.String("session_id", s.ID),
		zap.String("problem_id", s.ProblemID),
		zap.Int("experience_years", s.ExperienceYears))
	return s, nil
}

// Get returns a snapshot of a session.
func (c *Controller) Get(ctx context.Context, id string) (*models.Session, error) {
	return c.store.Get(ctx, id)
}

// UpdateCode stores the editor contents. The last write wins.
func (c *Controller) UpdateCode(ctx context.Context, id, code string) error {
	_, err := c.store.Update(ctx, id, func(s *models.Session) error {
		if s.Status.IsTerminal() {
			return ErrClosed
		}
		now := c.now()
		s.CurrentCode = code
		s.LastCodeUpdate = &now
		s.LastActivityAt = now
		return nil
	})
	return err
}

// Chat records the candidate's message, asks the interviewer and emits the reply.
func (c *Controller) Chat(ctx context.Context, id, message string, emit Emitter) error {
	message = strings.TrimSpace(message)
	if message == "" {
		emit.Emit(models.EventChatError, models.ErrorPayload{Error: "Message is empty"})
		return &models.ErrorResponse{Code: "missing_message", Message: "message is required"}
	}

	var introduction bool
	s, err := c.store.Update(ctx, id, func(s *models.Session) error {
		if s.Status.IsTerminal() {
			return ErrClosed
		}
		introduction = !hasUserMessage(s.ChatHistory)
		now := c.now()
		s.AppendMessage(models.ChatMessage{
			ID:        uuid.NewString(),
			Role:      models.RoleUser,
			Content:   message,
			Timestamp: now,
		})
		s.LastActivityAt = now
		return nil
	})
	if err != nil {
		emit.Emit(models.EventChatError, models.ErrorPayload{Error: chatErrorText(err)})
		return err
	}

	problem, _ := c.problems.Get(s.ProblemID)
	reply := c.interviewer.Reply(ctx, interviewer.ChatContext{
		Problem:      problem,
		Code:         s.CurrentCode,
		RecentError:  s.RecentError(),
		Introduction: introduction,
	}, message)

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   reply.Content,
		Timestamp: c.now(),
		RequestID: reply.RequestID,
	}
	c.appendMessage(ctx, id, msg)
	emit.Emit(models.EventChatResponse, chatResponse(msg))
	return nil
}

// RecordProctoring appends an integrity signal to the session.
func (c *Controller) RecordProctoring(ctx context.Context, id, eventType string, metadata map[string]any) error {
	t := models.ProctoringEventType(eventType)
	if !t.Valid() {
		return &models.ErrorResponse{Code: "invalid_proctoring_event", Message: fmt.Sprintf("unknown proctoring event %q", eventType)}
	}
	_, err := c.store.Update(ctx, id, func(s *models.Session) error {
		if s.Status.IsTerminal() {
			return ErrClosed
		}
		s.ProctoringEvents = append(s.ProctoringEvents, models.ProctoringEvent{
			Type:      t,
			Timestamp: c.now(),
			Metadata:  metadata,
		})
		return nil
	})
	if err == nil {
		c.logger.Info("proctoring event", zap.String("session_id", id), zap.String("type", eventType))
	}
	return err
}

// HintFeedback stores a thumbs up or down for an interviewer reply.
func (c *Controller) HintFeedback(ctx context.Context, requestID string, positive bool) error {
	if c.feedback == nil {
		return ErrFeedbackDisabled
	}
	return c.feedback.Submit(ctx, requestID, positive)
}

// appendMessage adds an interviewer message after the fact. The session may
// have ended in the meantime, in which case the message is only emitted.
func (c *Controller) appendMessage(ctx context.Context, id string, msg models.ChatMessage) {
	_, err := c.store.Update(ctx, id, func(s *models.Session) error {
		s.AppendMessage(msg)
		return nil
	})
	if err != nil {
		c.logger.Warn("failed to store interviewer message", zap.String("session_id", id), zap.Error(err))
	}
}

func chatResponse(msg models.ChatMessage) models.ChatResponse {
	return models.ChatResponse{
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: timestamp(msg.Timestamp),
		Speak:     true,
		IsHint:    msg.IsHint,
		HintLevel: msg.HintLevel,
		RequestID: msg.RequestID,
	}
}

func chatErrorText(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Session not found"
	case errors.Is(err, ErrClosed):
		return "Session has ended"
	}
	return "Could not process message"
}

func hasUserMessage(history []models.ChatMessage) bool {
	for _, m := range history {
		if m.Role == models.RoleUser {
			return true
		}
	}
	return false
}
