package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// stderrLogCap bounds the stderr excerpt attached to ocr.exec.failed.
const stderrLogCap = 8 << 10

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// runTool runs one tool through the configured Runner and logs the outcome.
func (e *Extractor) runTool(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	out, errb, err := e.runner.Run(ctx, name, args...)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		stderr := string(errb)
		if len(stderr) > stderrLogCap {
			stderr = stderr[:stderrLogCap] + "...(truncated)"
		}
		e.logger.Error("ocr.exec.failed", "tool", name, "elapsed_ms", elapsed, "err", err, "stderr", stderr)
		return out, errb, err
	}
	e.logger.Debug("ocr.exec.ok", "tool", name, "elapsed_ms", elapsed, "stdout_bytes", len(out))
	return out, errb, nil
}
