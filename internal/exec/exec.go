// Package exec defines the sandboxed execution contract: the request
// handed to the isolation helper and the structured verdict it returns.
// Values in test cases are JSON-shaped (numbers, strings, booleans,
// sequences, maps and nested combinations).
package exec

import "context"

// TestCase pairs positional call arguments with the expected return value.
type TestCase struct {
	Input    []any `yaml:"input" json:"input"`
	Expected any   `yaml:"expected" json:"expected"`
}

// CaseResult is the outcome of one test case.
type CaseResult struct {
	Test     int    `json:"test"`
	Input    []any  `json:"input"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual,omitempty"`
	Passed   bool   `json:"passed"`
	Error    string `json:"error,omitempty"`
}

// Verdict is the overall result of running a submission against a set of
// test cases. Passed is true iff the entry point was found, every case
// passed and no top-level error occurred.
type Verdict struct {
	Passed  bool         `json:"passed"`
	Results []CaseResult `json:"results"`
	Error   string       `json:"error,omitempty"`
}

// ResourceLimit describes hard limits applied to the helper process.
type ResourceLimit struct {
	CPUTimeMs int64 `json:"cpuTimeMs"`
	MemoryMB  int64 `json:"memoryMB"`
	StackMB   int64 `json:"stackMB"`
	OutputMB  int64 `json:"outputMB"`
}

// Request contains everything needed to execute one submission.
type Request struct {
	Source        string        `json:"source"`
	EntryPoint    string        `json:"entryPoint"`
	Tests         []TestCase    `json:"tests"`
	TimeLimitMs   int64         `json:"timeLimitMs"`
	Limits        ResourceLimit `json:"limits"`
	EnableSeccomp bool          `json:"enableSeccomp"`
}

// Engine executes untrusted submissions in isolation. Implementations are
// stateless and safe for concurrent use; every call is independent.
type Engine interface {
	Execute(ctx context.Context, req Request) Verdict
}
