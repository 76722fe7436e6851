package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"peerprep/interview/internal/analysis"
	"peerprep/interview/internal/judge"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/problems"
)

var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func difficultyColor(d models.Difficulty) string {
	switch d {
	case models.DifficultyEasy:
		return green(d)
	case models.DifficultyMedium:
		return yellow(d)
	default:
		return red(d)
	}
}

func listProblems(w io.Writer) error {
	catalog, err := problems.Load()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, bold("ID")+"\t"+bold("DIFFICULTY")+"\t"+bold("TITLE")+"\t"+bold("TESTS"))
	for _, p := range catalog.List() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, difficultyColor(p.Difficulty), p.Title, len(p.TestCases))
	}
	return tw.Flush()
}

func printHarness(w io.Writer, id string) error {
	catalog, err := problems.Load()
	if err != nil {
		return err
	}
	p, ok := catalog.Get(id)
	if !ok {
		return fmt.Errorf("unknown problem: %s", id)
	}
	harness, err := catalog.RenderHarness(p)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, harness)
	return err
}

func printAnalysis(w io.Writer, code string) {
	h := analysis.Summarize(code)
	fmt.Fprintf(w, "%s %d lines, functions: %s\n", bold("structure:"), h.Lines, strings.Join(h.Functions, ", "))
	fmt.Fprintf(w, "%s time %s, space %s\n", bold("complexity:"), h.EstimatedTime, h.EstimatedSpace)
	if len(h.Patterns) > 0 {
		fmt.Fprintf(w, "%s %s\n", bold("patterns:"), strings.Join(h.Patterns, ", "))
	}
	for _, issue := range h.Issues {
		fmt.Fprintf(w, "%s %s\n", yellow("issue:"), issue)
	}
}

// runSolution reports whether every test passed.
func runSolution(ctx context.Context, w io.Writer, cfg judge.Config, problemID, code string) (bool, error) {
	catalog, err := problems.Load()
	if err != nil {
		return false, err
	}
	if _, ok := catalog.Get(problemID); !ok {
		return false, fmt.Errorf("unknown problem: %s", problemID)
	}

	client := judge.NewClient(cfg, catalog, nil)
	started := time.Now()
	result := client.Execute(ctx, code, problemID)

	status := string(result.Status)
	switch {
	case result.AllPassed:
		status = green(status)
	case result.Status == models.ExecInfraError:
		status = yellow(status)
	default:
		status = red(status)
	}
	fmt.Fprintf(w, "%s %s (%d/%d tests passed, %s)\n", bold("status:"), status,
		result.TestsPassed, result.TestsTotal, time.Since(started).Round(time.Millisecond))
	if out := strings.TrimSpace(result.Stdout); out != "" {
		fmt.Fprintln(w, out)
	}
	if errOut := strings.TrimSpace(result.Stderr + result.CompileOutput); errOut != "" {
		fmt.Fprintln(w, red(errOut))
	}
	return result.AllPassed, nil
}

func issueToken(w io.Writer, secret, sessionID, candidate string, ttl time.Duration) error {
	token, err := middleware.IssueSessionToken(secret, sessionID, candidate, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
