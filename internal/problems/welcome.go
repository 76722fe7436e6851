package problems

import (
	"fmt"
	"strings"

	"peerprep/interview/internal/models"
)

// WelcomeMessage is the interviewer's opening chat message for a freshly joined session.
func WelcomeMessage(p models.Problem, candidate string) string {
	if strings.TrimSpace(candidate) == "" {
		candidate = "Candidate"
	}

	var examples strings.Builder
	for _, ex := range p.Examples {
		fmt.Fprintf(&examples, "- Input: %s\n  Output: %s\n", ex.Input, ex.Output)
		if ex.Explanation != "" {
			fmt.Fprintf(&examples, "  (%s)\n", ex.Explanation)
		}
	}

	var constraints strings.Builder
	for _, c := range p.Constraints {
		fmt.Fprintf(&constraints, "- %s\n", c)
	}

	difficulty := string(p.Difficulty)
	if difficulty != "" {
		difficulty = strings.ToUpper(difficulty[:1]) + difficulty[1:]
	}

	return fmt.Sprintf(`Hello %s!

Welcome to your technical interview. I'm your AI interviewer today and I'll be working through this coding challenge with you.

Before we start, please take a moment to introduce yourself: your background and what you enjoy about software development. You can speak or type your response.

---

**%s** (%s)

%s

**Examples:**
%s
**Constraints:**
%s
Feel free to ask clarifying questions. When you're ready, write your solution in the editor and click "Run Code" to test it.

Good luck!`, candidate, p.Title, difficulty, p.Statement, examples.String(), constraints.String())
}
