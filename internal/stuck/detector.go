package stuck

import (
	"fmt"
	"time"

	"peerprep/interview/internal/models"
)

const (
	DefaultErrorThreshold = 3
	DefaultIdleThreshold  = 120 * time.Second
	minIdleAttempts       = 3

	// TestsFailedFingerprint stands in for a failure that wrote nothing to stderr.
	TestsFailedFingerprint = "Tests failed"
)

// Detector tracks failure streaks on a session and decides when the interviewer should step in.
type Detector struct {
	ErrorThreshold int
	IdleThreshold  time.Duration
}

func NewDetector(errorThreshold int, idleThreshold time.Duration) *Detector {
	if errorThreshold <= 0 {
		errorThreshold = DefaultErrorThreshold
	}
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}
	return &Detector{ErrorThreshold: errorThreshold, IdleThreshold: idleThreshold}
}

// Fingerprint identifies "the same" failure across runs.
func Fingerprint(result models.ExecutionResult) string {
	if result.Stderr != "" {
		return result.Stderr
	}
	return TestsFailedFingerprint
}

// Observe folds a judged result into the session's streak state and returns the decision.
// The result must already be recorded on the session. Infra failures are not the
// candidate's doing and leave the streak untouched.
func (d *Detector) Observe(s *models.Session, result models.ExecutionResult, now time.Time) models.HintDecision {
	if result.Status == models.ExecInfraError {
		return models.NoHint("execution did not complete")
	}

	if result.AllPassed {
		s.ConsecutiveErrors = 0
		s.LastErrorFingerprint = nil
		s.HintGiven = false
		s.LastSuccessAt = &now
		s.IdleNudgedAt = nil
		return models.NoHint("all tests passed")
	}

	fp := Fingerprint(result)
	if s.LastErrorFingerprint != nil && *s.LastErrorFingerprint == fp {
		s.ConsecutiveErrors++
	} else {
		s.ConsecutiveErrors = 1
		s.LastErrorFingerprint = &fp
		s.HintGiven = false
	}

	if s.ConsecutiveErrors >= d.ErrorThreshold && !s.HintGiven {
		s.HintGiven = true
		return d.act(s, models.HintForce, models.TriggerErrorStreak, now,
			fmt.Sprintf("%d consecutive failures with the same error", s.ConsecutiveErrors))
	}

	if decision, ok := d.idle(s, now); ok {
		return decision
	}
	return models.NoHint(fmt.Sprintf("%d consecutive failure(s), below threshold or already hinted", s.ConsecutiveErrors))
}

// CheckIdle evaluates only the idle trigger. Used by the periodic sweep when no run arrives.
func (d *Detector) CheckIdle(s *models.Session, now time.Time) models.HintDecision {
	if decision, ok := d.idle(s, now); ok {
		return decision
	}
	return models.NoHint("not idle")
}

func (d *Detector) idle(s *models.Session, now time.Time) (models.HintDecision, bool) {
	if s.Status != models.StatusInProgress || s.IdleNudgedAt != nil {
		return models.HintDecision{}, false
	}
	// a candidate whose latest run passed everything is not stuck
	if s.LastExecution != nil && s.LastExecution.AllPassed {
		return models.HintDecision{}, false
	}
	if s.AttemptCount() < minIdleAttempts {
		return models.HintDecision{}, false
	}
	since := s.StartedAt
	if s.LastSuccessAt != nil {
		since = *s.LastSuccessAt
	}
	idle := now.Sub(since)
	if idle <= d.IdleThreshold {
		return models.HintDecision{}, false
	}
	s.IdleNudgedAt = &now
	return d.act(s, models.HintSuggest, models.TriggerIdle, now,
		fmt.Sprintf("no passing run for %s after %d attempts", idle.Round(time.Second), s.AttemptCount())), true
}

func (d *Detector) act(s *models.Session, action models.HintAction, trigger models.HintTrigger, now time.Time, rationale string) models.HintDecision {
	level := EstimateHintLevel(s.HintsGiven, s.ConsecutiveErrors, now.Sub(s.StartedAt))
	s.HintsGiven++
	return models.HintDecision{
		Action:    action,
		Level:     level,
		Trigger:   trigger,
		Rationale: rationale,
	}
}
