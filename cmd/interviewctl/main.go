// Command interviewctl is a developer tool for the interview service: it lists
// the problem catalog, prints test harnesses, runs solutions against Judge0
// and mints WebSocket session tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"peerprep/interview/internal/judge"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "interviewctl",
		Usage: "inspect problems and exercise the interview service's collaborators",
		Commands: []*cli.Command{
			{
				Name:  "problems",
				Usage: "list the problem catalog",
				Action: func(ctx context.Context, c *cli.Command) error {
					return listProblems(c.Root().Writer)
				},
			},
			{
				Name:      "harness",
				Usage:     "print the generated test harness for a problem",
				ArgsUsage: "<problem-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected exactly one problem id", 2)
					}
					return printHarness(c.Root().Writer, c.Args().First())
				},
			},
			{
				Name:      "analyze",
				Usage:     "print structure and complexity heuristics for a solution file",
				ArgsUsage: "<file>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected a solution file", 2)
					}
					code, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					printAnalysis(c.Root().Writer, string(code))
					return nil
				},
			},
			{
				Name:      "run",
				Usage:     "execute a solution file against a problem's tests on Judge0",
				ArgsUsage: "<problem-id> <file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "endpoint",
						Usage:   "Judge0 base URL",
						Value:   "https://judge0-ce.p.rapidapi.com",
						Sources: cli.EnvVars("JUDGE0_ENDPOINT"),
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "RapidAPI key for hosted Judge0",
						Sources: cli.EnvVars("JUDGE0_API_KEY"),
					},
					&cli.IntFlag{
						Name:    "language-id",
						Value:   judge.DefaultLanguageID,
						Sources: cli.EnvVars("JUDGE0_LANGUAGE_ID"),
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return cli.Exit("expected <problem-id> <file>", 2)
					}
					code, err := os.ReadFile(c.Args().Get(1))
					if err != nil {
						return err
					}
					cfg := judge.Config{
						Endpoint:   c.String("endpoint"),
						APIKey:     c.String("api-key"),
						LanguageID: c.Int("language-id"),
					}
					ok, err := runSolution(ctx, c.Root().Writer, cfg, c.Args().First(), string(code))
					if err != nil {
						return err
					}
					if !ok {
						return cli.Exit("tests failed", 1)
					}
					return nil
				},
			},
			{
				Name:      "token",
				Usage:     "issue a session token for the WebSocket endpoint",
				ArgsUsage: "<session-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "secret",
						Usage:    "HMAC secret shared with the server",
						Sources:  cli.EnvVars("JWT_SECRET"),
						Required: true,
					},
					&cli.StringFlag{Name: "candidate", Usage: "candidate display name"},
					&cli.DurationFlag{Name: "ttl", Value: 2 * time.Hour},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected a session id", 2)
					}
					return issueToken(c.Root().Writer, c.String("secret"), c.Args().First(), c.String("candidate"), c.Duration("ttl"))
				},
			},
		},
	}
}

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
