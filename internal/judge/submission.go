package judge

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"peerprep/interview/internal/models"
)

// Judge0 status ids
const (
	statusInQueue           = 1
	statusProcessing        = 2
	statusAccepted          = 3
	statusWrongAnswer       = 4
	statusTimeLimitExceeded = 5
	statusCompilationError  = 6
	statusRuntimeFirst      = 7  // SIGSEGV
	statusRuntimeLast       = 12 // NZEC and friends
	statusInternalError     = 13
	statusExecFormatError   = 14
)

// fallbackTestTotal is reported when the harness never printed its tally line.
const fallbackTestTotal = 5

type submissionStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type submission struct {
	Stdout        *string          `json:"stdout"`
	Stderr        *string          `json:"stderr"`
	CompileOutput *string          `json:"compile_output"`
	Status        submissionStatus `json:"status"`
	Time          json.RawMessage  `json:"time"`
	Memory        *int             `json:"memory"`
}

func (s *submission) toResult() models.ExecutionResult {
	stdout := decodeField(s.Stdout)
	passed, total, ok := parseTally(stdout)

	res := models.ExecutionResult{
		Stdout:        stdout,
		Stderr:        decodeField(s.Stderr),
		CompileOutput: decodeField(s.CompileOutput),
		Status:        mapStatus(s.Status.ID),
		Description:   s.Status.Description,
		Time:          parseSeconds(s.Time),
		Memory:        s.Memory,
		TestsPassed:   passed,
		TestsTotal:    total,
	}
	if !ok {
		res.TestsTotal = fallbackTestTotal
	}
	res.AllPassed = ok && passed == total && s.Status.ID == statusAccepted
	return res
}

func mapStatus(id int) models.ExecutionStatus {
	switch {
	case id == statusAccepted:
		return models.ExecAccepted
	case id == statusWrongAnswer:
		return models.ExecRuntimeError
	case id == statusTimeLimitExceeded:
		return models.ExecTimeout
	case id == statusCompilationError:
		return models.ExecCompileError
	case id >= statusRuntimeFirst && id <= statusRuntimeLast:
		return models.ExecRuntimeError
	default:
		return models.ExecInfraError
	}
}

// decodeField base64-decodes a Judge0 output field, keeping undecodable text as is.
func decodeField(v *string) string {
	if v == nil || *v == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(*v))
	if err != nil {
		return *v
	}
	return string(raw)
}

// parseTally reads the first "<passed>/<total> tests passed" line. Only that
// line counts: if its numbers do not parse, or it claims no tests, there is no tally.
func parseTally(stdout string) (passed, total int, ok bool) {
	for _, line := range strings.Split(stdout, "\n") {
		if strings.Contains(line, "/") && strings.Contains(line, "tests passed") {
			return parseTallyLine(line)
		}
	}
	return 0, 0, false
}

func parseTallyLine(line string) (passed, total int, ok bool) {
	parts := strings.Split(line, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	p, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	fields := strings.Fields(parts[1])
	if len(fields) == 0 {
		return 0, 0, false
	}
	t, err := strconv.Atoi(fields[0])
	if err != nil || t <= 0 || p < 0 || p > t {
		return 0, 0, false
	}
	return p, t, true
}

// parseSeconds accepts Judge0's time either as a JSON string or number.
func parseSeconds(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	s := strings.Trim(string(raw), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
