package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/problems"
)

const (
	DefaultLanguageID = 63 // JavaScript (Node.js)

	submitAttempts   = 10
	serverErrorDelay = 1500 * time.Millisecond
	connErrorDelay   = 2 * time.Second

	pollAttempts  = 30
	pollSteadyGap = 2 * time.Second
)

var pollWarmup = []time.Duration{
	250 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
	1 * time.Second,
	2 * time.Second,
	2 * time.Second,
}

// errPermanent marks submit failures that must not be retried.
var errPermanent = errors.New("judge0 rejected submission")

// Harnesses resolves a problem id to its test program.
type Harnesses interface {
	Get(id string) (models.Problem, bool)
	RenderHarness(p models.Problem) (string, error)
}

// Recorder observes judge traffic.
type Recorder interface {
	SubmitRetried(reason string)
	Executed(status models.ExecutionStatus, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) SubmitRetried(string) {}

func (nopRecorder) Executed(models.ExecutionStatus, time.Duration) {}

type Config struct {
	Endpoint    string
	APIKey      string
	LanguageID  int
	HTTPTimeout time.Duration
}

// Client runs candidate code on a Judge0 instance. Execute never returns a Go error;
// every failure becomes a typed ExecutionResult.
type Client struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	apiHost    string
	languageID int
	harnesses  Harnesses
	recorder   Recorder
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

func WithRecorder(r Recorder) Option {
	return func(cl *Client) {
		if r != nil {
			cl.recorder = r
		}
	}
}

func NewClient(cfg Config, harnesses Harnesses, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	languageID := cfg.LanguageID
	if languageID == 0 {
		languageID = DefaultLanguageID
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		client:     &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		languageID: languageID,
		harnesses:  harnesses,
		recorder:   nopRecorder{},
		logger:     logger,
		sleep:      sleepCtx,
	}
	if u, err := url.Parse(c.baseURL); err == nil {
		c.apiHost = u.Host
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute combines source with the problem's harness, submits it and waits for the verdict.
func (c *Client) Execute(ctx context.Context, sourceCode, problemID string) models.ExecutionResult {
	start := time.Now()
	result := c.execute(ctx, sourceCode, problemID)
	c.recorder.Executed(result.Status, time.Since(start))
	return result
}

func (c *Client) execute(ctx context.Context, sourceCode, problemID string) models.ExecutionResult {
	problem, ok := c.harnesses.Get(problemID)
	if !ok {
		return infraResult(fmt.Sprintf("No test cases found for problem: %s", problemID))
	}
	harness, err := c.harnesses.RenderHarness(problem)
	if err != nil {
		return infraResult(err.Error())
	}

	program := Combine(sourceCode, harness, problemID)

	token, err := c.submit(ctx, program)
	if err != nil {
		c.logger.Error("judge0 submission failed", zap.String("problem_id", problemID), zap.Error(err))
		return infraResult(err.Error())
	}
	return c.poll(ctx, token)
}

// Combine strips the harness import of the solution module and prepends the candidate source.
func Combine(sourceCode, harness, problemID string) string {
	inline := strings.Replace(harness, problems.ImportLine(problemID), "", 1)
	return fmt.Sprintf("// Solution\n%s\n\n// Tests\n%s\n", sourceCode, inline)
}

type submissionRequest struct {
	LanguageID     int    `json:"language_id"`
	SourceCode     string `json:"source_code"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type submissionToken struct {
	Token string `json:"token"`
}

func (c *Client) submit(ctx context.Context, program string) (string, error) {
	body, err := json.Marshal(submissionRequest{
		LanguageID: c.languageID,
		SourceCode: base64.StdEncoding.EncodeToString([]byte(program)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode submission: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= submitAttempts; attempt++ {
		token, delay, err := c.submitOnce(ctx, body)
		if err == nil {
			return token, nil
		}
		if errors.Is(err, errPermanent) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
		c.recorder.SubmitRetried(retryReason(delay))
		c.logger.Warn("judge0 submit attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))
		if attempt == submitAttempts {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("submission cancelled: %w", err)
		}
	}
	return "", fmt.Errorf("failed to submit after %d attempts: %w", submitAttempts, lastErr)
}

// submitOnce returns the delay to wait before retrying when the failure is transient.
func (c *Client) submitOnce(ctx context.Context, body []byte) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/submissions?base64_encoded=true&wait=false", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", connErrorDelay, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", serverErrorDelay, fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	if resp.StatusCode != http.StatusCreated {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, fmt.Errorf("%w: status %d: %s", errPermanent, resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var tok submissionToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil || tok.Token == "" {
		return "", 0, fmt.Errorf("%w: no token in response", errPermanent)
	}
	return tok.Token, 0, nil
}

func (c *Client) poll(ctx context.Context, token string) models.ExecutionResult {
	for attempt := 0; attempt < pollAttempts; attempt++ {
		if err := c.sleep(ctx, pollDelay(attempt)); err != nil {
			return infraResult("execution cancelled")
		}

		sub, err := c.fetch(ctx, token)
		if err != nil {
			if ctx.Err() != nil {
				return infraResult("execution cancelled")
			}
			c.logger.Debug("judge0 poll attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		if sub.Status.ID == statusInQueue || sub.Status.ID == statusProcessing {
			continue
		}
		return sub.toResult()
	}
	return models.ExecutionResult{
		Status: models.ExecTimeout,
		Stderr: fmt.Sprintf("Execution did not finish after %d polling attempts", pollAttempts),
	}
}

func (c *Client) fetch(ctx context.Context, token string) (*submission, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/submissions/"+url.PathEscape(token)+"?base64_encoded=true", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var sub submission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, fmt.Errorf("failed to decode submission: %w", err)
	}
	return &sub, nil
}

// Ping checks that the Judge0 instance answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/about", nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("judge0 unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("judge0 unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)
}

// pollDelay is the wait before the given zero-based poll attempt.
func pollDelay(attempt int) time.Duration {
	if attempt < len(pollWarmup) {
		return pollWarmup[attempt]
	}
	return pollSteadyGap
}

func retryReason(delay time.Duration) string {
	if delay == connErrorDelay {
		return "connection"
	}
	return "server_error"
}

func infraResult(msg string) models.ExecutionResult {
	return models.ExecutionResult{Status: models.ExecInfraError, Stderr: msg}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
