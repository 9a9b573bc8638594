package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync/atomic"
	"time"

	"codearena/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	// killGrace is how long past the wall-clock limit the helper gets to
	// report its own timeout verdict before the process group is killed.
	killGrace = 500 * time.Millisecond

	defaultTimeLimit = 2 * time.Second
	verdictMaxBytes  = 1 << 20
)

// Config holds process engine settings.
type Config struct {
	// HelperPath is the sandbox-runner binary. Resolved via PATH when
	// not absolute.
	HelperPath string
	// TimeLimit is the default wall-clock budget per submission.
	TimeLimit time.Duration
	// Limits are applied inside the helper before evaluation starts.
	Limits ResourceLimit
	// EnableSeccomp turns on the syscall deny-list in the helper (Linux).
	EnableSeccomp bool
}

type processEngine struct {
	cfg Config
}

// NewEngine creates an engine that runs each submission in a dedicated
// helper process and force-kills the whole process group on timeout.
func NewEngine(cfg Config) (Engine, error) {
	if cfg.HelperPath == "" {
		cfg.HelperPath = "sandbox-runner"
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = defaultTimeLimit
	}
	return &processEngine{cfg: cfg}, nil
}

func (e *processEngine) Execute(ctx context.Context, req Request) Verdict {
	if req.TimeLimitMs <= 0 {
		req.TimeLimitMs = e.cfg.TimeLimit.Milliseconds()
	}
	if req.Limits == (ResourceLimit{}) {
		req.Limits = e.cfg.Limits
	}
	req.EnableSeccomp = req.EnableSeccomp || e.cfg.EnableSeccomp

	stdinPipe, err := jsonToPipe(req)
	if err != nil {
		return failVerdict(fmt.Sprintf("encode execution request: %v", err))
	}
	defer stdinPipe.Close()

	cmd := exec.CommandContext(ctx, e.cfg.HelperPath)
	cmd.SysProcAttr = helperSysProcAttr()
	cmd.Stdin = stdinPipe

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = newLimitedWriter(&stdout, verdictMaxBytes)
	cmd.Stderr = newLimitedWriter(&stderr, verdictMaxBytes)

	if err := cmd.Start(); err != nil {
		return failVerdict(fmt.Sprintf("sandbox failed to start: %v", err))
	}

	wallLimit := time.Duration(req.TimeLimitMs)*time.Millisecond + killGrace

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			killProcessGroup(cmd.Process.Pid)
		case <-time.After(wallLimit):
			timedOut.Store(true)
			killProcessGroup(cmd.Process.Pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	if timedOut.Load() {
		return failVerdict("time limit exceeded")
	}
	if waitErr != nil {
		if stderr.Len() > 0 {
			logger.Warn(ctx, "sandbox helper failed", zap.String("stderr", stderr.String()))
		}
		return failVerdict(fmt.Sprintf("sandbox execution failed: %v", waitErr))
	}

	var verdict Verdict
	if err := json.Unmarshal(stdout.Bytes(), &verdict); err != nil {
		logger.Warn(ctx, "sandbox verdict undecodable", zap.Error(err))
		return failVerdict("sandbox returned an invalid verdict")
	}
	return verdict
}

func failVerdict(msg string) Verdict {
	return Verdict{Passed: false, Error: msg}
}

func jsonToPipe(req Request) (io.ReadCloser, error) {
	reader, writer := io.Pipe()
	go func() {
		enc := json.NewEncoder(writer)
		err := enc.Encode(req)
		_ = writer.CloseWithError(err)
	}()
	return reader, nil
}

// limitedWriter discards bytes past the cap so a hostile submission
// cannot balloon host memory through the verdict channel.
type limitedWriter struct {
	dst *bytes.Buffer
	max int
}

func newLimitedWriter(dst *bytes.Buffer, max int) *limitedWriter {
	return &limitedWriter{dst: dst, max: max}
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.max - w.dst.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.dst.Write(p[:remaining])
		return len(p), nil
	}
	return w.dst.Write(p)
}
