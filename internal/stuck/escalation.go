package stuck

import (
	"strings"
	"time"

	"peerprep/interview/internal/models"
)

// EstimateHintLevel picks how explicit the next hint should be. The result is in
// [MinHintLevel, MaxHintLevel] and never decreases when any input grows.
func EstimateHintLevel(hintsGiven, consecutiveErrors int, elapsed time.Duration) int {
	level := hintsGiven + 1
	if consecutiveErrors >= 5 {
		level++
	}
	switch {
	case elapsed >= 30*time.Minute:
		level += 2
	case elapsed >= 15*time.Minute:
		level++
	}
	return clampLevel(level)
}

func clampLevel(level int) int {
	if level < models.MinHintLevel {
		return models.MinHintLevel
	}
	if level > models.MaxHintLevel {
		return models.MaxHintLevel
	}
	return level
}

type ErrorClass string

const (
	ErrorNone    ErrorClass = "none"
	ErrorSyntax  ErrorClass = "syntax"
	ErrorTimeout ErrorClass = "timeout"
	ErrorRuntime ErrorClass = "runtime"
	ErrorLogic   ErrorClass = "logic"
)

var runtimeMarkers = []string{"undefined", "is not a function", "cannot read property", "typeerror", "referenceerror"}

// ClassifyError buckets a failed run by what kind of mistake it most likely is.
func ClassifyError(stderr, stdout string) ErrorClass {
	if stderr == "" && stdout == "" {
		return ErrorNone
	}
	combined := strings.ToLower(stderr + stdout)

	switch {
	case strings.Contains(combined, "syntax"):
		return ErrorSyntax
	case strings.Contains(combined, "maximum call stack"), strings.Contains(combined, "timeout"):
		return ErrorTimeout
	}
	for _, marker := range runtimeMarkers {
		if strings.Contains(combined, marker) {
			return ErrorRuntime
		}
	}
	if strings.Contains(combined, "✗ test") || strings.Contains(combined, "failed") {
		return ErrorLogic
	}
	return ErrorNone
}

// ErrorGuidance returns a short tip for well-known JavaScript errors, or "".
func ErrorGuidance(stderr string) string {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "is not defined"):
		return "Something is not defined: check for typos in variable and function names."
	case strings.Contains(lower, "undefined"):
		return "Your error mentions 'undefined': check that every variable is initialized before use."
	case strings.Contains(lower, "not a function"):
		return "'Not a function' errors often mean you're calling a method on the wrong type."
	case strings.Contains(lower, "cannot read property"):
		return "This error usually means you're accessing a property on null or undefined."
	}
	return ""
}
