package stuck

import (
	"math/rand"
	"testing"
	"time"

	"peerprep/interview/internal/models"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newSession() *models.Session {
	return &models.Session{ID: "s1", Status: models.StatusInProgress, StartedAt: t0}
}

func failure(stderr string) models.ExecutionResult {
	return models.ExecutionResult{Status: models.ExecRuntimeError, Stderr: stderr, TestsTotal: 5}
}

func success() models.ExecutionResult {
	return models.ExecutionResult{Status: models.ExecAccepted, TestsPassed: 5, TestsTotal: 5, AllPassed: true}
}

// run records and observes a result the way the session controller does.
func run(d *Detector, s *models.Session, r models.ExecutionResult, at time.Time) models.HintDecision {
	s.RecordExecution(r)
	return d.Observe(s, r, at)
}

func TestSameFingerprintCountsStreak(t *testing.T) {
	d := NewDetector(100, time.Hour)
	s := newSession()
	for i := 1; i <= 7; i++ {
		run(d, s, failure("ReferenceError: x is not defined"), t0)
		if s.ConsecutiveErrors != i {
			t.Fatalf("after %d identical failures expected streak %d, got %d", i, i, s.ConsecutiveErrors)
		}
	}
	run(d, s, failure("TypeError: y is not a function"), t0)
	if s.ConsecutiveErrors != 1 || s.RecentError() != "TypeError: y is not a function" {
		t.Fatalf("new fingerprint should restart the streak, got %d %q", s.ConsecutiveErrors, s.RecentError())
	}
}

func TestEmptyStderrUsesTestsFailedMarker(t *testing.T) {
	d := NewDetector(3, time.Hour)
	s := newSession()
	run(d, s, failure(""), t0)
	run(d, s, failure(""), t0)
	if s.ConsecutiveErrors != 2 || s.RecentError() != TestsFailedFingerprint {
		t.Fatalf("expected streak of 2 on the tests-failed marker, got %d %q", s.ConsecutiveErrors, s.RecentError())
	}
}

func TestSuccessResetsRegardlessOfState(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	d := NewDetector(3, time.Hour)
	for trial := 0; trial < 50; trial++ {
		s := newSession()
		for i := 0; i < rng.Intn(10); i++ {
			run(d, s, failure([]string{"a", "b", ""}[rng.Intn(3)]), t0)
		}
		nudged := t0
		s.IdleNudgedAt = &nudged

		dec := run(d, s, success(), t0.Add(time.Minute))
		if dec.ShouldAct() {
			t.Fatalf("success must never trigger a hint")
		}
		if s.ConsecutiveErrors != 0 || s.LastErrorFingerprint != nil || s.HintGiven {
			t.Fatalf("success should reset streak state, got (%d, %v, %v)", s.ConsecutiveErrors, s.LastErrorFingerprint, s.HintGiven)
		}
		if s.LastSuccessAt == nil || s.IdleNudgedAt != nil {
			t.Fatalf("success should record the time and clear the idle nudge")
		}
	}
}

func TestFiveIdenticalFailuresGiveOneHint(t *testing.T) {
	d := NewDetector(DefaultErrorThreshold, DefaultIdleThreshold)
	s := newSession()

	var hints []models.HintDecision
	for i := 0; i < 5; i++ {
		if dec := run(d, s, failure("ReferenceError: x is not defined"), t0.Add(time.Duration(i)*10*time.Second)); dec.ShouldAct() {
			hints = append(hints, dec)
		}
	}
	if len(hints) != 1 {
		t.Fatalf("expected exactly one hint, got %d", len(hints))
	}
	if hints[0].Action != models.HintForce || hints[0].Trigger != models.TriggerErrorStreak || hints[0].Level != 1 {
		t.Fatalf("unexpected decision: %+v", hints[0])
	}
	if s.HintsGiven != 1 || !s.HintGiven {
		t.Fatalf("expected hint bookkeeping, got given=%d flag=%v", s.HintsGiven, s.HintGiven)
	}
}

func TestNewDistinctErrorRearms(t *testing.T) {
	d := NewDetector(2, time.Hour)
	s := newSession()

	run(d, s, failure("a"), t0)
	if dec := run(d, s, failure("a"), t0); dec.Action != models.HintForce {
		t.Fatalf("expected first streak to fire, got %+v", dec)
	}
	run(d, s, failure("b"), t0)
	dec := run(d, s, failure("b"), t0)
	if dec.Action != models.HintForce {
		t.Fatalf("expected new streak to fire again, got %+v", dec)
	}
	if dec.Level != 2 {
		t.Fatalf("second hint should escalate to level 2, got %d", dec.Level)
	}
}

func TestInfraErrorLeavesStreakAlone(t *testing.T) {
	d := NewDetector(3, time.Hour)
	s := newSession()
	run(d, s, failure("a"), t0)
	run(d, s, models.ExecutionResult{Status: models.ExecInfraError, Stderr: "judge down"}, t0)
	if s.ConsecutiveErrors != 1 || s.RecentError() != "a" {
		t.Fatalf("infra error should not touch the streak, got %d %q", s.ConsecutiveErrors, s.RecentError())
	}
	if s.AttemptCount() != 1 {
		t.Fatalf("infra error should not count as an attempt, got %d", s.AttemptCount())
	}
}

func TestIdleTriggerSuggestsOncePerSuccessWindow(t *testing.T) {
	d := NewDetector(100, 2*time.Minute)
	s := newSession()
	run(d, s, failure("a"), t0.Add(10*time.Second))
	run(d, s, failure("b"), t0.Add(20*time.Second))

	if dec := d.CheckIdle(s, t0.Add(5*time.Minute)); dec.ShouldAct() {
		t.Fatalf("two attempts are not enough for the idle trigger")
	}

	dec := run(d, s, failure("c"), t0.Add(3*time.Minute))
	if dec.Action != models.HintSuggest || dec.Trigger != models.TriggerIdle {
		t.Fatalf("expected idle suggestion, got %+v", dec)
	}
	if s.IdleNudgedAt == nil {
		t.Fatalf("idle nudge time should be recorded")
	}
	if dec := d.CheckIdle(s, t0.Add(10*time.Minute)); dec.ShouldAct() {
		t.Fatalf("idle trigger must not repeat before the next success")
	}

	run(d, s, success(), t0.Add(11*time.Minute))
	for i := 0; i < 3; i++ {
		run(d, s, failure("d"), t0.Add(12*time.Minute))
	}
	s.HintGiven = true
	if dec := d.CheckIdle(s, t0.Add(12*time.Minute)); dec.ShouldAct() {
		t.Fatalf("idle is measured from the last success")
	}
	if dec := d.CheckIdle(s, t0.Add(14*time.Minute)); dec.Action != models.HintSuggest {
		t.Fatalf("expected idle suggestion after the threshold, got %+v", dec)
	}
}

func TestIdleIgnoresSolvedAndFinishedSessions(t *testing.T) {
	d := NewDetector(100, time.Minute)
	s := newSession()
	for i := 0; i < 3; i++ {
		run(d, s, failure("a"), t0)
	}
	run(d, s, success(), t0)
	if dec := d.CheckIdle(s, t0.Add(time.Hour)); dec.ShouldAct() {
		t.Fatalf("a solved problem should not be nudged")
	}

	s2 := newSession()
	for i := 0; i < 3; i++ {
		run(d, s2, failure("a"), t0)
	}
	s2.Status = models.StatusCompleted
	if dec := d.CheckIdle(s2, t0.Add(time.Hour)); dec.ShouldAct() {
		t.Fatalf("finished sessions should not be nudged")
	}
}

func TestNewDetectorDefaults(t *testing.T) {
	d := NewDetector(0, 0)
	if d.ErrorThreshold != DefaultErrorThreshold || d.IdleThreshold != DefaultIdleThreshold {
		t.Fatalf("unexpected defaults: %+v", d)
	}
}
