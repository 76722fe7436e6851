package interviewer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"peerprep/interview/internal/llm"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/prompts"
)

type stubProvider struct {
	mu       sync.Mutex
	content  string
	err      error
	requests []llm.Request
}

func (s *stubProvider) GenerateContent(_ context.Context, req llm.Request) (*models.GenerationResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &models.GenerationResponse{Content: s.content, RequestID: req.RequestID}, nil
}

func (s *stubProvider) GetProviderName() string { return "stub" }

type memoryRecorder struct {
	contexts []*models.RequestContext
}

func (m *memoryRecorder) Remember(rc *models.RequestContext) {
	m.contexts = append(m.contexts, rc)
}

var twoSum = models.Problem{
	ID:    "two-sum",
	Title: "Two Sum",
	Hints: []string{
		"What do you need to know about each number as you pass it?",
		"A hash map gives constant-time lookups.",
		"Store each value's index and look up target minus the current value.",
		"Loop once; for each value check the map for its complement, then record the value.",
	},
}

func newTestGateway(t *testing.T, provider llm.Provider) (*Gateway, *memoryRecorder) {
	t.Helper()
	pm, err := prompts.NewPromptManager()
	if err != nil {
		t.Fatalf("failed to load prompts: %v", err)
	}
	mem := &memoryRecorder{}
	return NewGateway(provider, pm, mem, nil), mem
}

func TestReplyUsesProvider(t *testing.T) {
	provider := &stubProvider{content: "  How would you handle an empty array?  "}
	gw, mem := newTestGateway(t, provider)

	reply := gw.Reply(context.Background(), ChatContext{Problem: twoSum, Code: "function twoSum() {}"}, "Is my approach ok?")

	if reply.Fallback {
		t.Fatalf("expected a provider reply, got fallback")
	}
	if reply.Content != "How would you handle an empty array?" {
		t.Fatalf("unexpected content %q", reply.Content)
	}
	if reply.RequestID == "" {
		t.Fatalf("expected a request id")
	}

	req := provider.requests[0]
	if req.Temperature != chatTemperature || req.MaxTokens != chatMaxTokens {
		t.Fatalf("unexpected generation settings: %+v", req)
	}
	if !strings.Contains(req.Prompt, "Current Problem: Two Sum") || !strings.Contains(req.Prompt, "function twoSum() {}") {
		t.Fatalf("prompt is missing context: %s", req.Prompt)
	}
	if !strings.Contains(req.SystemPrompt, "Senior Technical Interviewer") {
		t.Fatalf("expected interviewer persona, got %s", req.SystemPrompt)
	}

	if len(mem.contexts) != 1 || mem.contexts[0].Model != "stub" || mem.contexts[0].RequestID != reply.RequestID {
		t.Fatalf("expected reply to be remembered, got %+v", mem.contexts)
	}
}

func TestReplyFallsBackByIntent(t *testing.T) {
	gw, mem := newTestGateway(t, &stubProvider{err: &llm.ProviderError{Provider: "stub", Code: llm.ErrCodeServiceDown, Message: "down"}})
	ctx := context.Background()

	reply := gw.Reply(ctx, ChatContext{Problem: twoSum, RecentError: "ReferenceError: x is not defined\n    at twoSum"}, "I'm stuck, any hint?")
	if !reply.Fallback || !strings.Contains(reply.Content, "`ReferenceError: x is not defined`") {
		t.Fatalf("expected error-aware hint, got %q", reply.Content)
	}

	reply = gw.Reply(ctx, ChatContext{Problem: twoSum}, "help")
	if !strings.Contains(reply.Content, twoSum.Hints[0]) {
		t.Fatalf("expected first ladder hint, got %q", reply.Content)
	}

	reply = gw.Reply(ctx, ChatContext{Problem: twoSum}, "Can you show me the solution?")
	if !strings.HasPrefix(reply.Content, "I'd love to help, but I can't write the code for you!") {
		t.Fatalf("unexpected solution response %q", reply.Content)
	}

	reply = gw.Reply(ctx, ChatContext{Problem: twoSum}, "Why are you so slow?")
	if !strings.Contains(reply.Content, "Offline Mode") {
		t.Fatalf("unexpected connection response %q", reply.Content)
	}

	reply = gw.Reply(ctx, ChatContext{Problem: twoSum}, "What's the input size?")
	if !strings.HasPrefix(reply.Content, "That's a great question.") {
		t.Fatalf("unexpected default response %q", reply.Content)
	}

	for _, rc := range mem.contexts {
		if rc.Model != fallbackModel {
			t.Fatalf("fallback replies should be remembered as %q, got %q", fallbackModel, rc.Model)
		}
	}
}

func TestProactiveHint(t *testing.T) {
	provider := &stubProvider{content: "Think about what you've already seen."}
	gw, mem := newTestGateway(t, provider)

	reply := gw.ProactiveHint(context.Background(), HintContext{
		Problem:           twoSum,
		Code:              "function twoSum() { return x; }",
		RecentError:       "ReferenceError: x is not defined",
		Level:             2,
		Trigger:           models.TriggerErrorStreak,
		ConsecutiveErrors: 3,
	})

	if reply.Fallback || reply.Level != 2 {
		t.Fatalf("unexpected reply %+v", reply)
	}
	req := provider.requests[0]
	if req.MaxTokens != hintMaxTokens {
		t.Fatalf("expected hint token cap %d, got %d", hintMaxTokens, req.MaxTokens)
	}
	if !strings.Contains(req.Prompt, "Hint level 2 of 4") || !strings.Contains(req.Prompt, "same failure 3 times") {
		t.Fatalf("prompt missing level or trigger: %s", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "(runtime)") {
		t.Fatalf("prompt missing error class: %s", req.Prompt)
	}
	if mem.contexts[0].RequestType != "hint" || mem.contexts[0].HintLevel != 2 {
		t.Fatalf("unexpected remembered context %+v", mem.contexts[0])
	}
}

func TestProactiveHintFallback(t *testing.T) {
	gw, _ := newTestGateway(t, &stubProvider{err: errors.New("boom")})

	reply := gw.ProactiveHint(context.Background(), HintContext{
		Problem:     twoSum,
		RecentError: "ReferenceError: x is not defined",
		Level:       9,
	})

	if !reply.Fallback || reply.Level != models.MaxHintLevel {
		t.Fatalf("expected clamped fallback, got %+v", reply)
	}
	if !strings.HasPrefix(reply.Content, "**Hint (Level 4/4):** "+twoSum.Hints[3]) {
		t.Fatalf("expected level 4 ladder hint, got %q", reply.Content)
	}
	if !strings.Contains(reply.Content, "typos") {
		t.Fatalf("expected not-defined guidance, got %q", reply.Content)
	}

	reply = gw.ProactiveHint(context.Background(), HintContext{Problem: models.Problem{ID: "custom"}, Level: 1})
	if !strings.Contains(reply.Content, GenericStuckHint) {
		t.Fatalf("expected generic hint without a ladder, got %q", reply.Content)
	}
}

func TestAnalyzeCode(t *testing.T) {
	provider := &stubProvider{content: "Here is my review:\n```json\n{\"time_complexity\": \"O(n)\", \"space_complexity\": \"O(n)\", \"quality_score\": \"8\", \"strengths\": [\"single pass\"], \"improvements\": []}\n```"}
	gw, _ := newTestGateway(t, provider)

	got := gw.AnalyzeCode(context.Background(), "function twoSum() {}", twoSum)
	if got.TimeComplexity != "O(n)" || got.QualityScore != 8 || len(got.Strengths) != 1 {
		t.Fatalf("unexpected analysis %+v", got)
	}
	req := provider.requests[0]
	if req.Temperature != analysisTemperature || req.MaxTokens != analysisMaxTokens {
		t.Fatalf("unexpected analysis settings %+v", req)
	}
	if !strings.Contains(req.SystemPrompt, "JSON only") {
		t.Fatalf("expected reviewer persona, got %q", req.SystemPrompt)
	}

	provider.content = "I think it's fine."
	if got := gw.AnalyzeCode(context.Background(), "x", twoSum); got.TimeComplexity != "Unable to analyze" || got.QualityScore != 5 {
		t.Fatalf("expected default analysis, got %+v", got)
	}

	nilGateway, _ := newTestGateway(t, nil)
	if got := nilGateway.AnalyzeCode(context.Background(), "x", twoSum); got.Improvements[0] != "Analysis unavailable" {
		t.Fatalf("expected default analysis without a provider, got %+v", got)
	}
}

func TestParseAnalysis(t *testing.T) {
	cases := []struct {
		name    string
		content string
		score   int
		wantErr bool
	}{
		{name: "numeric score", content: `{"time_complexity":"O(n)","space_complexity":"O(1)","quality_score":7}`, score: 7},
		{name: "clamped score", content: `{"time_complexity":"O(n)","space_complexity":"O(1)","quality_score":14.2}`, score: 10},
		{name: "missing complexity", content: `{"quality_score":7}`, wantErr: true},
		{name: "missing score", content: `{"time_complexity":"O(n)","space_complexity":"O(1)"}`, wantErr: true},
		{name: "not json", content: "nope", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAnalysis(tc.content)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.QualityScore != tc.score || got.Strengths == nil {
				t.Fatalf("unexpected analysis %+v", got)
			}
		})
	}
}
