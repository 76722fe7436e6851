// Package interviewer turns session context into interviewer replies, proactive
// hints and code reviews. Provider failures never reach the caller: every
// operation degrades to canned text.
package interviewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peerprep/interview/internal/llm"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/prompts"
	"peerprep/interview/internal/stuck"
	"peerprep/interview/internal/utils"
)

const (
	chatTemperature     = 0.7
	chatMaxTokens       = 500
	hintTemperature     = 0.7
	hintMaxTokens       = 200
	analysisTemperature = 0.3
	analysisMaxTokens   = 600

	defaultCallTimeout = 30 * time.Second
	maxErrorRunes      = 800

	fallbackModel = models.FallbackModel
)

// Memory keeps generated replies around so candidates can rate them.
type Memory interface {
	Remember(rc *models.RequestContext)
}

type ChatContext struct {
	Problem      models.Problem
	Code         string
	RecentError  string
	Introduction bool
}

type HintContext struct {
	Problem           models.Problem
	Code              string
	RecentError       string
	Level             int
	Trigger           models.HintTrigger
	ConsecutiveErrors int
}

// Reply is one interviewer message. Fallback is set when canned text was used.
type Reply struct {
	Content   string
	RequestID string
	Level     int
	Fallback  bool
}

type Gateway struct {
	provider    llm.Provider
	prompts     *prompts.PromptManager
	memory      Memory
	logger      *zap.Logger
	callTimeout time.Duration
	now         func() time.Time
}

// NewGateway wires a provider and prompt set. provider and memory may be nil.
func NewGateway(provider llm.Provider, pm *prompts.PromptManager, memory Memory, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		provider:    provider,
		prompts:     pm,
		memory:      memory,
		logger:      logger,
		callTimeout: defaultCallTimeout,
		now:         time.Now,
	}
}

// ProviderName reports the configured provider, or "fallback" when none is set.
func (g *Gateway) ProviderName() string {
	if g.provider == nil {
		return fallbackModel
	}
	return g.provider.GetProviderName()
}

// Reply answers a candidate's chat message.
func (g *Gateway) Reply(ctx context.Context, cc ChatContext, message string) Reply {
	requestID := uuid.NewString()
	variant := "default"
	if cc.Introduction {
		variant = "introduction"
	}

	prompt, err := g.prompts.BuildPrompt(prompts.ModeChat, variant, prompts.ChatData{
		ProblemTitle: cc.Problem.Title,
		Message:      message,
		Code:         cc.Code,
		RecentError:  utils.Truncate(cc.RecentError, maxErrorRunes),
	})
	if err == nil {
		var content string
		content, err = g.generate(ctx, prompt, chatTemperature, chatMaxTokens, requestID)
		if err == nil {
			g.remember(requestID, "chat", cc.Problem.ID, 0, prompt, content, g.ProviderName())
			return Reply{Content: content, RequestID: requestID}
		}
	}

	g.logger.Warn("chat reply fell back to canned response",
		zap.String("request_id", requestID),
		zap.String("problem_id", cc.Problem.ID),
		zap.Error(err))
	content := mockChatResponse(message, cc)
	g.remember(requestID, "chat", cc.Problem.ID, 0, prompt, content, fallbackModel)
	return Reply{Content: content, RequestID: requestID, Fallback: true}
}

// ProactiveHint produces an unprompted hint at the given level (1 subtle, 4 near step by step).
func (g *Gateway) ProactiveHint(ctx context.Context, hc HintContext) Reply {
	requestID := uuid.NewString()
	level := clamp(hc.Level)

	prompt, err := g.prompts.BuildPrompt(prompts.ModeHint, strconv.Itoa(level), prompts.HintData{
		ProblemTitle:      hc.Problem.Title,
		Code:              hc.Code,
		RecentError:       utils.Truncate(hc.RecentError, maxErrorRunes),
		ErrorType:         errorType(hc.RecentError),
		Trigger:           string(hc.Trigger),
		ConsecutiveErrors: hc.ConsecutiveErrors,
	})
	if err == nil {
		var content string
		content, err = g.generate(ctx, prompt, hintTemperature, hintMaxTokens, requestID)
		if err == nil {
			g.remember(requestID, "hint", hc.Problem.ID, level, prompt, content, g.ProviderName())
			return Reply{Content: content, RequestID: requestID, Level: level}
		}
	}

	g.logger.Warn("proactive hint fell back to hint ladder",
		zap.String("request_id", requestID),
		zap.String("problem_id", hc.Problem.ID),
		zap.Int("level", level),
		zap.Error(err))
	content := cannedHint(hc.Problem, level, hc.RecentError)
	g.remember(requestID, "hint", hc.Problem.ID, level, prompt, content, fallbackModel)
	return Reply{Content: content, RequestID: requestID, Level: level, Fallback: true}
}

// AnalyzeCode asks the model for a structured review and falls back to DefaultAnalysis.
func (g *Gateway) AnalyzeCode(ctx context.Context, code string, problem models.Problem) models.CodeAnalysis {
	requestID := uuid.NewString()
	analysis, err := g.analyze(ctx, code, problem, requestID)
	if err != nil {
		g.logger.Warn("code analysis unavailable",
			zap.String("request_id", requestID),
			zap.String("problem_id", problem.ID),
			zap.Error(err))
		return DefaultAnalysis()
	}
	return analysis
}

func (g *Gateway) analyze(ctx context.Context, code string, problem models.Problem, requestID string) (models.CodeAnalysis, error) {
	prompt, err := g.prompts.BuildPrompt(prompts.ModeAnalysis, "default", prompts.AnalysisData{
		ProblemTitle: problem.Title,
		Code:         utils.AddLineNumbers(code),
	})
	if err != nil {
		return models.CodeAnalysis{}, err
	}
	system, err := g.prompts.BuildPrompt(prompts.ModePersona, "reviewer", nil)
	if err != nil {
		return models.CodeAnalysis{}, err
	}
	content, err := g.call(ctx, llm.Request{
		SystemPrompt: system,
		Prompt:       prompt,
		Temperature:  analysisTemperature,
		MaxTokens:    analysisMaxTokens,
		RequestID:    requestID,
	})
	if err != nil {
		return models.CodeAnalysis{}, err
	}
	return ParseAnalysis(content)
}

func (g *Gateway) generate(ctx context.Context, prompt string, temperature float32, maxTokens int, requestID string) (string, error) {
	system, err := g.prompts.BuildPrompt(prompts.ModePersona, "interviewer", nil)
	if err != nil {
		return "", err
	}
	return g.call(ctx, llm.Request{
		SystemPrompt: system,
		Prompt:       prompt,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		RequestID:    requestID,
	})
}

func (g *Gateway) call(ctx context.Context, req llm.Request) (string, error) {
	if g.provider == nil {
		return "", errors.New("no llm provider configured")
	}
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	resp, err := g.provider.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", errors.New("empty response from provider")
	}
	return content, nil
}

func (g *Gateway) remember(requestID, requestType, problemID string, level int, prompt, response, model string) {
	if g.memory == nil {
		return
	}
	g.memory.Remember(&models.RequestContext{
		RequestID:   requestID,
		RequestType: requestType,
		ProblemID:   problemID,
		HintLevel:   level,
		Prompt:      prompt,
		Response:    response,
		Model:       model,
		Timestamp:   g.now(),
	})
}

type rawAnalysis struct {
	TimeComplexity  string          `json:"time_complexity"`
	SpaceComplexity string          `json:"space_complexity"`
	QualityScore    json.RawMessage `json:"quality_score"`
	Strengths       []string        `json:"strengths"`
	Improvements    []string        `json:"improvements"`
}

// ParseAnalysis reads a model's JSON review, tolerating markdown fences and a
// quality score given as a number or a numeric string.
func ParseAnalysis(content string) (models.CodeAnalysis, error) {
	body := utils.StripFences(content)
	if start, end := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}'); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return models.CodeAnalysis{}, fmt.Errorf("failed to parse analysis: %w", err)
	}
	if raw.TimeComplexity == "" || raw.SpaceComplexity == "" {
		return models.CodeAnalysis{}, errors.New("analysis is missing complexity fields")
	}

	score, err := parseScore(raw.QualityScore)
	if err != nil {
		return models.CodeAnalysis{}, err
	}
	return models.CodeAnalysis{
		TimeComplexity:  raw.TimeComplexity,
		SpaceComplexity: raw.SpaceComplexity,
		QualityScore:    score,
		Strengths:       nonNil(raw.Strengths),
		Improvements:    nonNil(raw.Improvements),
	}, nil
}

func parseScore(raw json.RawMessage) (int, error) {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		return 0, errors.New("analysis is missing quality_score")
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quality_score %q: %w", text, err)
	}
	return min(max(int(f+0.5), 1), 10), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// errorType labels a failure for the hint prompt.
func errorType(recentError string) string {
	if recentError == "" {
		return ""
	}
	if class := stuck.ClassifyError(recentError, ""); class != stuck.ErrorNone {
		return string(class)
	}
	return ""
}

func clamp(level int) int {
	return min(max(level, models.MinHintLevel), models.MaxHintLevel)
}
