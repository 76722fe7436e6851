package models

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// CheckMode selects how the generated harness judges a test case.
type CheckMode string

const (
	CheckReturns CheckMode = "returns"
	CheckInPlace CheckMode = "in_place"
	CheckPairSum CheckMode = "pair_sum"
)

type Example struct {
	Input       string `toml:"input" json:"input"`
	Output      string `toml:"output" json:"output"`
	Explanation string `toml:"explanation" json:"explanation"`
}

// TestCase holds JavaScript literals: Args is the argument list, Expected the wanted value.
type TestCase struct {
	Args     string `toml:"args" json:"args"`
	Expected string `toml:"expected" json:"expected"`
}

type Problem struct {
	ID          string     `toml:"id" json:"id"`
	Title       string     `toml:"title" json:"title"`
	Difficulty  Difficulty `toml:"difficulty" json:"difficulty"`
	Statement   string     `toml:"statement" json:"statement"`
	StarterCode string     `toml:"starter_code" json:"starter_code"`
	Examples    []Example  `toml:"examples" json:"examples"`
	Constraints []string   `toml:"constraints" json:"constraints"`
	// Hints is the canned ladder, index 0 is level 1 (subtle), index 3 is level 4 (explicit).
	Hints     []string   `toml:"hints" json:"-"`
	CheckMode CheckMode  `toml:"check_mode" json:"-"`
	TestCases []TestCase `toml:"test_cases" json:"-"`
}

// HintForLevel returns the canned hint for a 1-based level, clamped to the ladder.
func (p Problem) HintForLevel(level int) string {
	if len(p.Hints) == 0 {
		return ""
	}
	idx := level - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.Hints) {
		idx = len(p.Hints) - 1
	}
	return p.Hints[idx]
}
