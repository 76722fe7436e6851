package analysis

import (
	"strings"
	"time"

	"peerprep/interview/internal/models"
)

const (
	maxCorrectness    = 40
	maxEfficiency     = 20
	maxCodeQuality    = 20
	maxProblemSolving = 20
	hintPenalty       = 3
)

type ScoreInput struct {
	Code        string
	TestsPassed int
	TestsTotal  int
	Elapsed     time.Duration
	HintsUsed   int
}

// Score applies the interview rubric: correctness 40, efficiency 20, code quality 20, problem solving 20.
func Score(in ScoreInput) models.ScoreBreakdown {
	var b models.ScoreBreakdown

	if in.TestsTotal > 0 {
		passed := min(in.TestsPassed, in.TestsTotal)
		b.Correctness = passed * maxCorrectness / in.TestsTotal
	}

	minutes := in.Elapsed.Minutes()
	switch {
	case minutes <= 15:
		b.Efficiency = maxEfficiency
	case minutes <= 25:
		b.Efficiency = 15
	case minutes <= 40:
		b.Efficiency = 10
	default:
		b.Efficiency = 5
	}

	quality := maxCodeQuality
	if strings.Contains(in.Code, "var ") {
		quality -= 3
	}
	if !comment.MatchString(in.Code) {
		quality -= 2
	}
	if strings.Count(in.Code, "\n") < 3 {
		quality -= 2
	}
	if strings.Contains(in.Code, "console.log") {
		quality--
	}
	b.CodeQuality = max(0, quality)

	b.ProblemSolving = max(0, maxProblemSolving-in.HintsUsed*hintPenalty)
	return b
}

func Total(b models.ScoreBreakdown) int {
	return b.Correctness + b.Efficiency + b.CodeQuality + b.ProblemSolving
}

func Grade(total int) string {
	switch {
	case total >= 85:
		return "Excellent"
	case total >= 70:
		return "Good"
	case total >= 55:
		return "Satisfactory"
	default:
		return "Needs Improvement"
	}
}
