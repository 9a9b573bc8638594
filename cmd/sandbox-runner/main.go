// sandbox-runner is the isolation helper executed once per submission.
// It reads a JSON execution request on stdin, applies resource limits,
// evaluates the submission in a restricted Lua state and writes the JSON
// verdict to stdout. The host kills the whole process group on timeout.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"codearena/internal/exec"
	"codearena/internal/exec/runner"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run() error {
	req, err := decodeRequest(os.Stdin)
	if err != nil {
		return err
	}
	if req.EntryPoint == "" {
		return fmt.Errorf("entry point is required")
	}

	if err := applyRlimits(req.Limits); err != nil {
		return err
	}
	if req.EnableSeccomp {
		if err := applySeccomp(); err != nil {
			return err
		}
	}

	verdict := runner.Evaluate(req)

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(verdict); err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	return nil
}

func decodeRequest(r io.Reader) (exec.Request, error) {
	var req exec.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return exec.Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}
