package problems

import (
	"embed"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"path"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"peerprep/interview/internal/models"
)

//go:embed catalog/*.toml
var catalogFS embed.FS

// exportOverrides covers problems whose function name is not the camelCase of the id.
var exportOverrides = map[string]string{
	"valid-palindrome":    "isPalindrome",
	"maximum-subarray":    "maxSubArray",
	"merge-sorted-arrays": "merge",
}

// difficulty bands keyed by the upper bound of experience years; the last band is open-ended
var experienceBands = []struct {
	maxYears     int
	difficulties []models.Difficulty
}{
	{2, []models.Difficulty{models.DifficultyEasy}},
	{5, []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium}},
	{-1, []models.Difficulty{models.DifficultyMedium, models.DifficultyHard}},
}

// Catalog is the read-only problem set loaded once at startup.
type Catalog struct {
	problems map[string]models.Problem
	order    []string
	harness  *xsync.MapOf[string, string]
	intn     func(n int) int
}

// Load reads the embedded catalog.
func Load() (*Catalog, error) {
	return LoadFS(catalogFS, "catalog")
}

// LoadFS reads every *.toml file under dir in lexical order.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	c := &Catalog{
		problems: make(map[string]models.Problem, len(names)),
		harness:  xsync.NewMapOf[string, string](),
		intn:     rand.IntN,
	}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var p models.Problem
		if err := toml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("invalid problem in %s: %w", name, err)
		}
		if _, dup := c.problems[p.ID]; dup {
			return nil, fmt.Errorf("duplicate problem id %q in %s", p.ID, name)
		}
		c.problems[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	if len(c.order) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", dir)
	}
	return c, nil
}

func validate(p models.Problem) error {
	if p.ID == "" || p.Title == "" {
		return fmt.Errorf("id and title are required")
	}
	switch p.Difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return fmt.Errorf("problem %s: unknown difficulty %q", p.ID, p.Difficulty)
	}
	switch p.CheckMode {
	case models.CheckReturns, models.CheckInPlace, models.CheckPairSum:
	default:
		return fmt.Errorf("problem %s: unknown check mode %q", p.ID, p.CheckMode)
	}
	if len(p.TestCases) == 0 {
		return fmt.Errorf("problem %s: no test cases", p.ID)
	}
	if len(p.Hints) != models.MaxHintLevel {
		return fmt.Errorf("problem %s: expected %d hints, got %d", p.ID, models.MaxHintLevel, len(p.Hints))
	}
	return nil
}

func (c *Catalog) Get(id string) (models.Problem, bool) {
	p, ok := c.problems[id]
	return p, ok
}

// List returns problems in catalog order.
func (c *Catalog) List() []models.Problem {
	out := make([]models.Problem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.problems[id])
	}
	return out
}

// ForExperience returns the problems whose difficulty suits the given experience.
func (c *Catalog) ForExperience(years int) []models.Problem {
	var allowed []models.Difficulty
	for _, band := range experienceBands {
		if band.maxYears < 0 || years <= band.maxYears {
			allowed = band.difficulties
			break
		}
	}

	var eligible []models.Problem
	for _, p := range c.List() {
		for _, d := range allowed {
			if p.Difficulty == d {
				eligible = append(eligible, p)
				break
			}
		}
	}
	if len(eligible) == 0 {
		return c.List()
	}
	return eligible
}

// RandomForExperience picks uniformly among ForExperience(years).
func (c *Catalog) RandomForExperience(years int) models.Problem {
	eligible := c.ForExperience(years)
	return eligible[c.intn(len(eligible))]
}

// ExportName is the JavaScript function the candidate must define for a problem.
func ExportName(problemID string) string {
	if name, ok := exportOverrides[problemID]; ok {
		return name
	}
	parts := strings.Split(problemID, "-")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
