// Package analysis holds best-effort pattern heuristics over JavaScript source.
// They look at text, not syntax, and can be fooled by comments or strings.
package analysis

import (
	"regexp"
	"strings"

	"peerprep/interview/internal/models"
)

var (
	funcPatterns = []*regexp.Regexp{
		regexp.MustCompile(`function\s+(\w+)\s*\(`),
		regexp.MustCompile(`const\s+(\w+)\s*=\s*\(.*\)\s*=>`),
		regexp.MustCompile(`const\s+(\w+)\s*=\s*function`),
	}
	forLoop     = regexp.MustCompile(`for\s*\(`)
	whileLoop   = regexp.MustCompile(`while\s*\(`)
	ifStatement = regexp.MustCompile(`if\s*\(`)
	nestedLoop  = regexp.MustCompile(`(?s)for.*\{[^}]*for|while.*\{[^}]*while`)
	nestedFor   = regexp.MustCompile(`(?s)for\s*\(.*for\s*\(`)
	comment     = regexp.MustCompile(`//|/\*`)
	looseEq     = regexp.MustCompile(`[^=!]==[^=]`)
)

type Structure struct {
	Lines        int
	Functions    []string
	Loops        int
	Conditionals int
	Patterns     []string
	Issues       []string
}

// AnalyzeStructure scans source for functions, loops and common patterns or smells.
func AnalyzeStructure(code string) Structure {
	var s Structure
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return s
	}
	s.Lines = len(strings.Split(trimmed, "\n"))

	for _, re := range funcPatterns {
		for _, m := range re.FindAllStringSubmatch(code, -1) {
			s.Functions = append(s.Functions, m[1])
		}
	}

	s.Loops = len(forLoop.FindAllString(code, -1)) + len(whileLoop.FindAllString(code, -1))
	if strings.Contains(code, ".forEach") {
		s.Loops++
	}
	if strings.Contains(code, ".map(") {
		s.Loops++
		s.Patterns = append(s.Patterns, "Functional programming (map)")
	}
	s.Conditionals = len(ifStatement.FindAllString(code, -1))

	if usesLookup(code) {
		s.Patterns = append(s.Patterns, "Hash map / object for lookup")
	}
	if strings.Contains(code, ".sort(") {
		s.Patterns = append(s.Patterns, "Sorting")
	}
	if strings.Contains(code, "new Set") {
		s.Patterns = append(s.Patterns, "Set for uniqueness")
	}
	if strings.Contains(code, ".reduce(") {
		s.Patterns = append(s.Patterns, "Reduce for aggregation")
	}

	if strings.Contains(code, "var ") {
		s.Issues = append(s.Issues, "Uses 'var', consider 'let' or 'const'")
	}
	if looseEq.MatchString(code) {
		s.Issues = append(s.Issues, "Uses loose equality '==', consider strict '==='")
	}
	if strings.Contains(code, "console.log") {
		s.Issues = append(s.Issues, "Contains console.log")
	}
	if nestedLoop.MatchString(code) {
		s.Issues = append(s.Issues, "Nested loops detected, O(n²) time possible")
	}
	return s
}

type Complexity struct {
	Time      string
	Space     string
	Reasoning []string
}

// EstimateComplexity guesses Big-O from loop nesting, lookups, sorting and recursion.
func EstimateComplexity(code string) Complexity {
	c := Complexity{Time: "O(n)", Space: "O(1)"}

	nested := nestedFor.MatchString(code)
	if nested {
		c.Time = "O(n²)"
		c.Reasoning = append(c.Reasoning, "Nested loops detected")
	}
	if usesLookup(code) {
		if !nested {
			c.Reasoning = append(c.Reasoning, "Hash map used for O(1) lookups")
		}
		c.Space = "O(n)"
		c.Reasoning = append(c.Reasoning, "Additional data structure stores elements")
	}
	if strings.Contains(code, ".sort(") {
		if c.Time == "O(n)" {
			c.Time = "O(n log n)"
		}
		c.Reasoning = append(c.Reasoning, "Sorting operation detected")
	}
	for _, m := range funcPatterns[0].FindAllStringSubmatchIndex(code, -1) {
		name := code[m[2]:m[3]]
		if strings.Contains(code[m[3]:], name) {
			c.Reasoning = append(c.Reasoning, "Recursive call to "+name+" detected")
		}
	}
	return c
}

// Summarize combines the structure scan and the complexity guess for a report.
func Summarize(code string) models.Heuristics {
	s := AnalyzeStructure(code)
	c := EstimateComplexity(code)
	return models.Heuristics{
		Lines:          s.Lines,
		Functions:      s.Functions,
		EstimatedTime:  c.Time,
		EstimatedSpace: c.Space,
		Patterns:       s.Patterns,
		Issues:         s.Issues,
	}
}

func usesLookup(code string) bool {
	return strings.Contains(code, "new Map") || strings.Contains(code, "{}") || strings.Contains(code, "Object")
}
