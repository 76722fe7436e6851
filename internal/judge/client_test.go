package judge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/problems"
)

const twoSumSolution = `function twoSum(nums, target) {
    const seen = {};
    for (let i = 0; i < nums.length; i++) {
        if (seen[target - nums[i]] !== undefined) return [seen[target - nums[i]], i];
        seen[nums[i]] = i;
    }
}`

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type sleepLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepLog) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, got := range s.delays {
		if got == d {
			n++
		}
	}
	return n
}

type countingRecorder struct {
	retries  atomic.Int32
	executed atomic.Int32
}

func (r *countingRecorder) SubmitRetried(string) { r.retries.Add(1) }

func (r *countingRecorder) Executed(models.ExecutionStatus, time.Duration) { r.executed.Add(1) }

func newTestClient(t *testing.T, baseURL string, opts ...Option) (*Client, *sleepLog) {
	t.Helper()
	catalog, err := problems.Load()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	c := NewClient(Config{Endpoint: baseURL, APIKey: "secret"}, catalog, zap.NewNop(), opts...)
	log := &sleepLog{}
	c.sleep = log.sleep
	return c, log
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func writeSubmission(w http.ResponseWriter, statusID int, stdout string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stdout":         b64(stdout),
		"stderr":         nil,
		"compile_output": nil,
		"status":         map[string]any{"id": statusID, "description": "whatever"},
		"time":           "0.042",
		"memory":         1024,
	})
}

func TestExecuteRetriesServerErrorsThenSucceeds(t *testing.T) {
	var posts atomic.Int32
	var submitted submissionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if posts.Add(1) < 10 {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = io.WriteString(w, "restarting")
				return
			}
			if err := json.NewDecoder(r.Body).Decode(&submitted); err != nil {
				t.Errorf("failed decoding request: %v", err)
			}
			if r.Header.Get("X-RapidAPI-Key") != "secret" {
				t.Errorf("expected api key header")
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"token":"tok-1"}`)
		case http.MethodGet:
			if r.URL.Path != "/submissions/tok-1" || r.URL.Query().Get("base64_encoded") != "true" {
				t.Errorf("unexpected poll url: %s", r.URL.String())
			}
			writeSubmission(w, statusAccepted, "✓ Test 1 passed\n✓ Test 2 passed\n✓ Test 3 passed\n✓ Test 4 passed\n✓ Test 5 passed\n\n5/5 tests passed\n")
		}
	}))
	defer server.Close()

	rec := &countingRecorder{}
	client, sleeps := newTestClient(t, server.URL, WithRecorder(rec))
	res := client.Execute(context.Background(), twoSumSolution, "two-sum")

	if res.Status != models.ExecAccepted || !res.AllPassed {
		t.Fatalf("expected accepted all-passed result, got %#v", res)
	}
	if res.TestsPassed != 5 || res.TestsTotal != 5 {
		t.Fatalf("expected 5/5, got %d/%d", res.TestsPassed, res.TestsTotal)
	}
	if posts.Load() != 10 {
		t.Fatalf("expected 10 submit attempts, got %d", posts.Load())
	}
	if n := sleeps.count(serverErrorDelay); n != 9 {
		t.Fatalf("expected 9 server error backoffs, got %d", n)
	}
	if rec.retries.Load() != 9 || rec.executed.Load() != 1 {
		t.Fatalf("unexpected recorder counts: retries=%d executed=%d", rec.retries.Load(), rec.executed.Load())
	}
	if res.Time == nil || *res.Time != 0.042 || res.Memory == nil || *res.Memory != 1024 {
		t.Fatalf("expected time and memory to be decoded: %#v", res)
	}

	if submitted.LanguageID != DefaultLanguageID {
		t.Fatalf("expected language id %d, got %d", DefaultLanguageID, submitted.LanguageID)
	}
	program, err := base64.StdEncoding.DecodeString(submitted.SourceCode)
	if err != nil {
		t.Fatalf("source not base64: %v", err)
	}
	if !strings.HasPrefix(string(program), "// Solution\n"+twoSumSolution) {
		t.Fatalf("candidate source should lead the program:\n%s", program)
	}
	if strings.Contains(string(program), "require('./solution.js')") {
		t.Fatalf("harness import should be stripped:\n%s", program)
	}
}

func TestExecuteGivesUpAfterTenServerErrors(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server.URL)
	res := client.Execute(context.Background(), "x", "two-sum")

	if res.Status != models.ExecInfraError {
		t.Fatalf("expected infra_error, got %s", res.Status)
	}
	if !strings.Contains(res.Stderr, "server error 500: boom") {
		t.Fatalf("expected last error in stderr, got %q", res.Stderr)
	}
	if posts.Load() != submitAttempts {
		t.Fatalf("expected %d attempts, got %d", submitAttempts, posts.Load())
	}
	if len(sleeps.delays) != submitAttempts-1 {
		t.Fatalf("expected no sleep after the final attempt, got %d sleeps", len(sleeps.delays))
	}
}

func TestExecuteDoesNotRetryClientErrors(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"language_id":["is invalid"]}`)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	res := client.Execute(context.Background(), "x", "two-sum")

	if res.Status != models.ExecInfraError {
		t.Fatalf("expected infra_error, got %s", res.Status)
	}
	if posts.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", posts.Load())
	}
}

func TestExecuteMissingTokenIsInfraError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	if res := client.Execute(context.Background(), "x", "two-sum"); res.Status != models.ExecInfraError {
		t.Fatalf("expected infra_error, got %s", res.Status)
	}
}

func TestExecuteRetriesConnectionErrors(t *testing.T) {
	var posts atomic.Int32
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			if posts.Add(1) <= 2 {
				return nil, errors.New("connection refused")
			}
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(strings.NewReader(`{"token":"t"}`)),
				Header:     make(http.Header),
			}, nil
		}
		rec := httptest.NewRecorder()
		writeSubmission(rec, statusAccepted, "\n5/5 tests passed")
		return rec.Result(), nil
	})

	client, sleeps := newTestClient(t, "http://judge0.invalid", WithHTTPClient(&http.Client{Transport: transport}))
	res := client.Execute(context.Background(), twoSumSolution, "two-sum")

	if !res.AllPassed {
		t.Fatalf("expected success after connection errors, got %#v", res)
	}
	if n := sleeps.count(connErrorDelay); n != 2 {
		t.Fatalf("expected 2 connection backoffs, got %d", n)
	}
}

func TestExecutePollsUntilTerminal(t *testing.T) {
	statuses := []int{statusInQueue, statusProcessing, statusProcessing, statusAccepted}
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"token":"t"}`)
			return
		}
		i := int(polls.Add(1)) - 1
		writeSubmission(w, statuses[i], "\n5/5 tests passed")
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server.URL)
	res := client.Execute(context.Background(), twoSumSolution, "two-sum")

	if polls.Load() != 4 {
		t.Fatalf("expected exactly 4 polls, got %d", polls.Load())
	}
	if res.Status != models.ExecAccepted {
		t.Fatalf("expected accepted, got %s", res.Status)
	}
	want := []time.Duration{250 * time.Millisecond, 250 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}
	if len(sleeps.delays) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), sleeps.delays)
	}
	for i, d := range want {
		if sleeps.delays[i] != d {
			t.Fatalf("wait %d: expected %s, got %s", i, d, sleeps.delays[i])
		}
	}
}

func TestExecutePartialTally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"token":"t"}`)
			return
		}
		writeSubmission(w, 11, "✓ Test 1 passed\n✓ Test 2 passed\n✓ Test 3 passed\n\n3/5 tests passed\n")
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	res := client.Execute(context.Background(), "function twoSum() {}", "two-sum")

	if res.AllPassed {
		t.Fatalf("partial tally must not count as all passed")
	}
	if res.TestsPassed != 3 || res.TestsTotal != 5 {
		t.Fatalf("expected 3/5, got %d/%d", res.TestsPassed, res.TestsTotal)
	}
	if res.Status != models.ExecRuntimeError {
		t.Fatalf("expected runtime_error, got %s", res.Status)
	}
}

func TestExecutePollExhaustionTimesOut(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"token":"t"}`)
			return
		}
		if polls.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeSubmission(w, statusProcessing, "")
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	res := client.Execute(context.Background(), "x", "two-sum")

	if res.Status != models.ExecTimeout {
		t.Fatalf("expected timeout, got %s", res.Status)
	}
	if polls.Load() != pollAttempts {
		t.Fatalf("expected %d polls, got %d", pollAttempts, polls.Load())
	}
}

func TestExecuteUnknownProblem(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	res := client.Execute(context.Background(), "x", "no-such-problem")
	if res.Status != models.ExecInfraError || !strings.Contains(res.Stderr, "no-such-problem") {
		t.Fatalf("expected infra_error naming the problem, got %#v", res)
	}
	if calls.Load() != 0 {
		t.Fatalf("unknown problem must not reach judge0")
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	client.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	if res := client.Execute(ctx, "x", "two-sum"); res.Status != models.ExecInfraError {
		t.Fatalf("expected infra_error on cancellation, got %s", res.Status)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/about" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"version":"1.13.1"}`)
	}))
	client, _ := newTestClient(t, server.URL)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}

	server.Close()
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail once the server is gone")
	}
}
