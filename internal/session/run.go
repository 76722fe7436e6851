package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peerprep/interview/internal/interviewer"
	"peerprep/interview/internal/models"
)

// InfraErrorMessage is all the candidate sees when the judge could not run their code.
const InfraErrorMessage = "We couldn't run your code right now. Please try again."

type runOutcome struct {
	result   models.ExecutionResult
	decision models.HintDecision
	hint     *models.ChatMessage
}

// Run judges code for a session. A nil code runs the stored editor contents.
// Identical runs in flight for the same session share one submission; the
// submitting caller also owns any hint, so it is issued once.
func (c *Controller) Run(ctx context.Context, id string, code *string, emit Emitter) (models.ExecutionResult, error) {
	s, err := c.store.Get(ctx, id)
	if err != nil {
		return models.ExecutionResult{}, err
	}
	if s.Status.IsTerminal() {
		return models.ExecutionResult{}, ErrClosed
	}

	source := s.CurrentCode
	if code != nil {
		source = *code
		if err := c.UpdateCode(ctx, id, source); err != nil {
			return models.ExecutionResult{}, err
		}
	}

	emit.Emit(models.EventExecutionStarted, nil)

	leader := false
	// followers share the submission; the leader's cancellation must not reach them
	shared := context.WithoutCancel(ctx)
	v, _, _ := c.runs.Do(runKey(id, source), func() (any, error) {
		leader = true
		return c.judge(shared, s.ID, s.ProblemID, source), nil
	})
	out := v.(runOutcome)

	if out.result.Status == models.ExecInfraError {
		emit.Emit(models.EventExecutionError, models.ErrorPayload{Error: InfraErrorMessage})
	} else {
		emit.Emit(models.EventExecutionComplete, executionComplete(out.result))
	}
	if leader && out.hint != nil {
		emit.Emit(models.EventChatResponse, chatResponse(*out.hint))
	}
	return out.result, nil
}

// judge executes, records the verdict, runs stuck detection and produces a hint when warranted.
func (c *Controller) judge(ctx context.Context, id, problemID, source string) runOutcome {
	started := c.now()
	result := c.executor.Execute(ctx, source, problemID)

	logger := c.logger.With(zap.String("session_id", id), zap.String("problem_id", problemID))
	if result.Status == models.ExecInfraError {
		logger.Error("execution failed", zap.String("diagnostic", result.Stderr))
	} else {
		logger.Info("execution complete",
			zap.String("status", string(result.Status)),
			zap.Int("tests_passed", result.TestsPassed),
			zap.Int("tests_total", result.TestsTotal),
			zap.Duration("elapsed", c.now().Sub(started)))
	}

	out := runOutcome{result: result, decision: models.NoHint("not evaluated")}
	s, err := c.store.Update(ctx, id, func(s *models.Session) error {
		if s.Status.IsTerminal() {
			return ErrClosed
		}
		now := c.now()
		s.RecordExecution(result)
		s.LastActivityAt = now
		out.decision = c.detector.Observe(s, result, now)
		return nil
	})
	if err != nil {
		logger.Warn("execution result not recorded", zap.Error(err))
		return out
	}

	if out.decision.ShouldAct() {
		logger.Info("candidate appears stuck",
			zap.String("action", string(out.decision.Action)),
			zap.String("trigger", string(out.decision.Trigger)),
			zap.Int("level", out.decision.Level),
			zap.String("rationale", out.decision.Rationale))
		msg := c.hint(ctx, s, out.decision)
		out.hint = &msg
	}
	return out
}

func (c *Controller) hint(ctx context.Context, s *models.Session, decision models.HintDecision) models.ChatMessage {
	problem, _ := c.problems.Get(s.ProblemID)
	reply := c.interviewer.ProactiveHint(ctx, interviewer.HintContext{
		Problem:           problem,
		Code:              s.CurrentCode,
		RecentError:       s.RecentError(),
		Level:             decision.Level,
		Trigger:           decision.Trigger,
		ConsecutiveErrors: s.ConsecutiveErrors,
	})
	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   reply.Content,
		Timestamp: c.now(),
		IsHint:    true,
		HintLevel: reply.Level,
		RequestID: reply.RequestID,
	}
	c.appendMessage(ctx, s.ID, msg)
	c.metrics.HintIssued(reply.Level, decision.Trigger)
	return msg
}

// RunStateless serves the REST run endpoint. With a live session id the run
// counts toward that session; otherwise the code is only judged.
func (c *Controller) RunStateless(ctx context.Context, req models.RunCodeRequest) (models.ExecutionResult, error) {
	if err := req.Validate(); err != nil {
		return models.ExecutionResult{}, err
	}
	if _, ok := c.problems.Get(req.ProblemID); !ok {
		return models.ExecutionResult{}, &models.ErrorResponse{Code: "problem_not_found", Message: fmt.Sprintf("unknown problem %q", req.ProblemID)}
	}

	if req.SessionID != "" {
		s, err := c.store.Get(ctx, req.SessionID)
		switch {
		case err == nil && s.ProblemID == req.ProblemID:
			return c.Run(ctx, req.SessionID, &req.Code, c.emitters.get(req.SessionID))
		case err != nil && !errors.Is(err, ErrNotFound):
			return models.ExecutionResult{}, err
		}
	}
	return c.executor.Execute(ctx, req.Code, req.ProblemID), nil
}

func executionComplete(r models.ExecutionResult) models.ExecutionComplete {
	return models.ExecutionComplete{
		Stdout:      r.Stdout,
		Stderr:      r.Stderr,
		Status:      r.Status,
		TestPassed:  r.AllPassed,
		TestsPassed: r.TestsPassed,
		TestTotal:   r.TestsTotal,
		Time:        r.Time,
		Memory:      r.Memory,
	}
}

func runKey(id, source string) string {
	sum := sha256.Sum256([]byte(source))
	return id + ":" + hex.EncodeToString(sum[:])
}

// elapsedSince is used for durations shown to people, so it is rounded.
func elapsedSince(start, end time.Time) time.Duration {
	return end.Sub(start).Round(time.Second)
}
