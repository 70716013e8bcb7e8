// Package script executes the external directory scripts and classifies
// their JSON output.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/aulanet-io/ad-console/internal/logging"
)

// Runner abstracts script execution so handlers and services can be
// tested against a fake backend.
type Runner interface {
	// Run invokes the named script. When stdin is non-nil it is
	// marshalled as JSON onto the child's standard input. Extra args
	// are passed on the command line and must be pre-sanitized by the
	// caller.
	Run(ctx context.Context, name string, stdin any, args ...string) Outcome
}

// ScriptRunner runs scripts from a fixed directory with a bounded
// timeout per invocation.
type ScriptRunner struct {
	dir     string
	timeout time.Duration
	breaker *Breaker
	log     *slog.Logger
}

// NewRunner creates a runner for scripts under dir. A nil breaker
// disables fail-fast behavior.
func NewRunner(dir string, timeout time.Duration, breaker *Breaker) *ScriptRunner {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &ScriptRunner{
		dir:     dir,
		timeout: timeout,
		breaker: breaker,
		log:     logging.Component("script-runner"),
	}
}

// Run executes the script and classifies its output. The script name is
// resolved inside the configured directory only; callers never control
// the program path.
func (r *ScriptRunner) Run(ctx context.Context, name string, stdin any, args ...string) Outcome {
	if r.breaker != nil && r.breaker.IsOpen() {
		r.log.Warn("breaker open, refusing script call", "script", name)
		return Outcome{Kind: KindUnavailable, Message: "directory backend unavailable"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, filepath.Join(r.dir, name), args...)

	if stdin != nil {
		payload, err := json.Marshal(stdin)
		if err != nil {
			return Outcome{Kind: KindBadOutput, Message: "directory script failed", Details: "marshal stdin: " + err.Error()}
		}
		cmd.Stdin = bytes.NewReader(payload)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		r.log.Error("script timed out", "script", name, "timeout", r.timeout)
		r.record(false)
		return Outcome{Kind: KindTimeout, Message: "connection timeout", Details: name + " exceeded " + r.timeout.String()}
	}

	out := classify(stdout.Bytes(), stderr.Bytes(), err != nil)

	switch out.Kind {
	case KindBadOutput:
		r.log.Error("script failed", "script", name, "error", errString(err), "stderr", out.Details)
		r.record(false)
	default:
		r.log.Debug("script done", "script", name, "kind", out.Kind, "elapsed", elapsed)
		r.record(true)
	}
	return out
}

// record feeds the breaker. Script-level errors count as transport
// successes: the backend answered, the operation just failed logically.
func (r *ScriptRunner) record(ok bool) {
	if r.breaker == nil {
		return
	}
	if ok {
		r.breaker.Reset()
	} else {
		r.breaker.Record()
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.String()
	}
	return err.Error()
}
