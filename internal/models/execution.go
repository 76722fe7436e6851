package models

type ExecutionStatus string

const (
	ExecAccepted     ExecutionStatus = "accepted"
	ExecRuntimeError ExecutionStatus = "runtime_error"
	ExecCompileError ExecutionStatus = "compile_error"
	ExecTimeout      ExecutionStatus = "timeout"
	ExecInfraError   ExecutionStatus = "infra_error"
)

// ExecutionResult is one judged run. It is never modified after it is produced.
type ExecutionResult struct {
	Stdout        string          `json:"stdout"`
	Stderr        string          `json:"stderr"`
	CompileOutput string          `json:"compile_output,omitempty"`
	Status        ExecutionStatus `json:"status"`
	Description   string          `json:"description,omitempty"`
	Time          *float64        `json:"time,omitempty"`
	Memory        *int            `json:"memory,omitempty"`
	TestsPassed   int             `json:"tests_passed"`
	TestsTotal    int             `json:"tests_total"`
	AllPassed     bool            `json:"all_passed"`
}
