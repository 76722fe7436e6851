package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"peerprep/interview/internal/analysis"
	"peerprep/interview/internal/models"
)

// Complete ends a session: it is reviewed, scored, written to history and evicted.
func (c *Controller) Complete(ctx context.Context, id string) (*models.Report, error) {
	s, err := c.finish(ctx, id, models.StatusCompleted)
	if err != nil {
		return nil, err
	}

	problem, _ := c.problems.Get(s.ProblemID)
	report := buildReport(s, c.interviewer.AnalyzeCode(ctx, s.CurrentCode, problem))
	c.persist(ctx, s, report)
	c.evict(ctx, s)

	c.logger.Info("session completed",
		zap.String("session_id", s.ID),
		zap.Int("score", report.Score),
		zap.String("grade", report.Grade))
	return report, nil
}

// Abandon ends a session nobody is working on. No review is requested.
func (c *Controller) Abandon(ctx context.Context, id string) error {
	s, err := c.finish(ctx, id, models.StatusAbandoned)
	if err != nil {
		return err
	}
	report := buildReport(s, models.CodeAnalysis{})
	c.persist(ctx, s, report)
	c.evict(ctx, s)

	c.logger.Info("session abandoned",
		zap.String("session_id", s.ID),
		zap.Time("last_activity_at", s.LastActivityAt))
	return nil
}

func (c *Controller) finish(ctx context.Context, id string, status models.SessionStatus) (*models.Session, error) {
	return c.store.Update(ctx, id, func(s *models.Session) error {
		if s.Status.IsTerminal() {
			return ErrClosed
		}
		now := c.now()
		s.Status = status
		s.CompletedAt = &now
		return nil
	})
}

func (c *Controller) persist(ctx context.Context, s *models.Session, report *models.Report) {
	if c.history == nil {
		return
	}
	transcript, err := json.Marshal(s.ChatHistory)
	if err != nil {
		c.logger.Warn("failed to encode transcript", zap.String("session_id", s.ID), zap.Error(err))
	}
	record := &models.SessionRecord{
		SessionID:       s.ID,
		CandidateName:   s.CandidateName,
		ExperienceYears: s.ExperienceYears,
		ProblemID:       s.ProblemID,
		Status:          string(s.Status),
		FinalCode:       s.CurrentCode,
		Attempts:        report.Attempts,
		HintsGiven:      s.HintsGiven,
		ProctoringCount: len(s.ProctoringEvents),
		Score:           report.Score,
		Grade:           report.Grade,
		Transcript:      string(transcript),
		StartedAt:       s.StartedAt,
		EndedAt:         report.CompletedAt,
	}
	if err := c.history.Save(ctx, record); err != nil {
		c.logger.Error("failed to save session history", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (c *Controller) evict(ctx context.Context, s *models.Session) {
	c.emitters.drop(s.ID)
	if err := c.store.Delete(ctx, s.ID); err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("failed to evict session", zap.String("session_id", s.ID), zap.Error(err))
	}
	c.metrics.SessionEnded(s.Status)
}

func buildReport(s *models.Session, review models.CodeAnalysis) *models.Report {
	ended := s.LastActivityAt
	if s.CompletedAt != nil {
		ended = *s.CompletedAt
	}

	var passed, total int
	if s.LastExecution != nil {
		passed, total = s.LastExecution.TestsPassed, s.LastExecution.TestsTotal
	}
	breakdown := analysis.Score(analysis.ScoreInput{
		Code:        s.CurrentCode,
		TestsPassed: passed,
		TestsTotal:  total,
		Elapsed:     ended.Sub(s.StartedAt),
		HintsUsed:   s.HintsGiven,
	})
	score := analysis.Total(breakdown)

	return &models.Report{
		SessionID:     s.ID,
		CandidateName: s.CandidateName,
		ProblemID:     s.ProblemID,
		Status:        s.Status,
		Score:         score,
		Grade:         analysis.Grade(score),
		Breakdown:     breakdown,
		Analysis:      review,
		Heuristics:    analysis.Summarize(s.CurrentCode),
		Attempts:      s.AttemptCount(),
		HintsGiven:    s.HintsGiven,
		Proctoring:    len(s.ProctoringEvents),
		Duration:      elapsedSince(s.StartedAt, ended).String(),
		CompletedAt:   ended,
	}
}

type SweepStats struct {
	Abandoned int
	Nudged    int
}

// SweepIdle abandons sessions untouched for longer than the session timeout and
// gives the idle hint to in-progress sessions that qualify.
func (c *Controller) SweepIdle(ctx context.Context, now time.Time) (SweepStats, error) {
	var stats SweepStats
	sessions, err := c.store.List(ctx)
	if err != nil {
		return stats, err
	}

	for _, s := range sessions {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if s.Status.IsTerminal() {
			continue
		}
		if now.Sub(s.LastActivityAt) > c.timeout {
			err := c.Abandon(ctx, s.ID)
			switch {
			case err == nil:
				stats.Abandoned++
			case !errors.Is(err, ErrClosed) && !errors.Is(err, ErrNotFound):
				c.logger.Warn("failed to abandon idle session", zap.String("session_id", s.ID), zap.Error(err))
			}
			continue
		}
		if c.nudge(ctx, s.ID, now) {
			stats.Nudged++
		}
	}
	return stats, nil
}

func (c *Controller) nudge(ctx context.Context, id string, now time.Time) bool {
	decision := models.NoHint("not evaluated")
	s, err := c.store.Update(ctx, id, func(s *models.Session) error {
		decision = c.detector.CheckIdle(s, now)
		return nil
	})
	if err != nil || !decision.ShouldAct() {
		return false
	}

	c.logger.Info("idle candidate nudged",
		zap.String("session_id", id),
		zap.Int("level", decision.Level),
		zap.String("rationale", decision.Rationale))
	msg := c.hint(ctx, s, decision)
	c.emitters.get(id).Emit(models.EventChatResponse, chatResponse(msg))
	return true
}
