package script

import (
	"bytes"
	"encoding/json"
)

// Kind classifies the result of a script invocation. Every invocation
// lands in exactly one of these branches.
type Kind int

const (
	// KindOK means stdout parsed as JSON with no "error" field.
	KindOK Kind = iota
	// KindScriptError means stdout parsed as JSON carrying an "error"
	// field. The process exit status is irrelevant: the scripts report
	// logical failures ("ya existe", unknown OU) through the envelope.
	KindScriptError
	// KindBadOutput means the process failed and stdout is not JSON.
	KindBadOutput
	// KindTimeout means the invocation hit its deadline.
	KindTimeout
	// KindUnavailable means the circuit breaker refused the call.
	KindUnavailable
)

// Outcome is the classified result of running a directory script.
type Outcome struct {
	Kind    Kind
	Data    json.RawMessage // payload, only when Kind == KindOK
	Message string          // error text for non-OK kinds
	Details string          // script "details" field or captured stderr
}

// errEnvelope mirrors the scripts' JSON error shape.
type errEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// classify turns raw process output into an Outcome. execFailed reports
// whether the process exited non-zero or could not run at all.
func classify(stdout, stderr []byte, execFailed bool) Outcome {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		var env errEnvelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Error != "" {
			return Outcome{Kind: KindScriptError, Message: env.Error, Details: env.Details}
		}
		return Outcome{Kind: KindOK, Data: json.RawMessage(trimmed)}
	}

	if execFailed {
		return Outcome{
			Kind:    KindBadOutput,
			Message: "directory script failed",
			Details: string(bytes.TrimSpace(stderr)),
		}
	}

	// Exit zero but unparseable output is still unusable.
	return Outcome{
		Kind:    KindBadOutput,
		Message: "directory script produced invalid output",
		Details: string(bytes.TrimSpace(stderr)),
	}
}
