package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"peerprep/interview/internal/interviewer"
	"peerprep/interview/internal/models"
)

// Emitter delivers an outbound event to whoever is watching a session.
type Emitter interface {
	Emit(event string, payload any)
}

type EmitterFunc func(event string, payload any)

func (f EmitterFunc) Emit(event string, payload any) { f(event, payload) }

type nopEmitter struct{}

func (nopEmitter) Emit(string, any) {}

type Executor interface {
	Execute(ctx context.Context, sourceCode, problemID string) models.ExecutionResult
}

type Interviewer interface {
	Reply(ctx context.Context, cc interviewer.ChatContext, message string) interviewer.Reply
	ProactiveHint(ctx context.Context, hc interviewer.HintContext) interviewer.Reply
	AnalyzeCode(ctx context.Context, code string, problem models.Problem) models.CodeAnalysis
}

type Problems interface {
	Get(id string) (models.Problem, bool)
	RandomForExperience(years int) models.Problem
}

type HistoryWriter interface {
	Save(ctx context.Context, record *models.SessionRecord) error
}

type FeedbackSink interface {
	Submit(ctx context.Context, requestID string, isPositive bool) error
}

// Metrics receives lifecycle counts. The metrics package provides the Prometheus implementation.
type Metrics interface {
	SessionStarted()
	SessionEnded(status models.SessionStatus)
	HintIssued(level int, trigger models.HintTrigger)
}

type nopMetrics struct{}

func (nopMetrics) SessionStarted() {}

func (nopMetrics) SessionEnded(models.SessionStatus) {}

func (nopMetrics) HintIssued(int, models.HintTrigger) {}

type attachment struct {
	token   uint64
	emitter Emitter
}

// emitters tracks the live connection per session so background work, like
// the idle sweep, can reach the candidate.
type emitters struct {
	byID *xsync.MapOf[string, attachment]
	next atomic.Uint64
}

func newEmitters() *emitters {
	return &emitters{byID: xsync.NewMapOf[string, attachment]()}
}

// attach replaces any previous connection for id and returns a func that
// detaches this one only, so a stale socket closing cannot drop a newer one.
func (e *emitters) attach(id string, em Emitter) func() {
	token := e.next.Add(1)
	e.byID.Store(id, attachment{token: token, emitter: em})
	var once sync.Once
	return func() {
		once.Do(func() {
			e.byID.Compute(id, func(old attachment, loaded bool) (attachment, bool) {
				return old, !loaded || old.token == token
			})
		})
	}
}

func (e *emitters) get(id string) Emitter {
	if a, ok := e.byID.Load(id); ok {
		return a.emitter
	}
	return nopEmitter{}
}

func (e *emitters) drop(id string) {
	e.byID.Delete(id)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
