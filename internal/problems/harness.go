package problems

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"peerprep/interview/internal/models"
)

//go:embed harness.js.tmpl
var harnessSource string

var harnessTmpl = template.Must(template.New("harness").Funcs(template.FuncMap{
	"last": func(i int, cases []models.TestCase) bool { return i == len(cases)-1 },
}).Parse(harnessSource))

type harnessData struct {
	Export string
	Mode   string
	Cases  []models.TestCase
}

// RenderHarness returns the Node.js test program for a problem. Output depends only on
// the problem, so it is rendered once per id.
func (c *Catalog) RenderHarness(p models.Problem) (string, error) {
	if cached, ok := c.harness.Load(p.ID); ok {
		return cached, nil
	}
	out, err := renderHarness(p)
	if err != nil {
		return "", err
	}
	actual, _ := c.harness.LoadOrStore(p.ID, out)
	return actual, nil
}

func renderHarness(p models.Problem) (string, error) {
	var b strings.Builder
	err := harnessTmpl.Execute(&b, harnessData{
		Export: ExportName(p.ID),
		Mode:   string(p.CheckMode),
		Cases:  p.TestCases,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render harness for %s: %w", p.ID, err)
	}
	return b.String(), nil
}

// ImportLine is the require statement the harness opens with. The judge strips it
// before prepending the candidate's source.
func ImportLine(problemID string) string {
	return fmt.Sprintf("const { %s } = require('./solution.js');", ExportName(problemID))
}
