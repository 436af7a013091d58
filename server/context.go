package server

import (
	"context"
	"os"
	"strings"

	"github.com/cliforge/mcp-adapter/logging"
)

// CallContext carries the per-invocation state handed to a tool handler.
// It is built once at invocation start, treated as immutable for the
// call's duration, and discarded when the call returns.
type CallContext struct {
	// RequestID identifies this invocation. Taken from the call options
	// when supplied, otherwise a fresh UUID.
	RequestID string

	// Logger is scoped with the tool name and request id.
	Logger logging.Logger

	// WorkDir is the working directory handlers should resolve relative
	// paths against.
	WorkDir string

	// Env is the filtered process environment. Variables whose names
	// suggest credentials are excluded.
	Env map[string]string

	// Progress reports stream events to the client. Nil unless the
	// inbound call carried a progress token; all reporter methods are
	// nil-safe no-ops.
	Progress *ProgressReporter
}

// callContextKey is the context key for the per-invocation call context.
type callContextKey struct{}

// ContextWithCall returns a context with the call context attached.
func ContextWithCall(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallFromContext returns the call context, or nil when the handler was
// not invoked through the pipeline.
func CallFromContext(ctx context.Context) *CallContext {
	cc, _ := ctx.Value(callContextKey{}).(*CallContext)
	return cc
}

// ProgressFromContext returns the invocation's progress reporter. The
// returned reporter may be nil; its methods are nil-safe.
func ProgressFromContext(ctx context.Context) *ProgressReporter {
	if cc := CallFromContext(ctx); cc != nil {
		return cc.Progress
	}
	return nil
}

// sensitiveEnvMarkers flags environment variables excluded from handler
// call contexts.
var sensitiveEnvMarkers = []string{"TOKEN", "SECRET", "PASSWORD", "CREDENTIAL", "API_KEY", "PRIVATE_KEY"}

// filteredEnv snapshots the process environment minus credential-shaped
// variables.
func filteredEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if isSensitiveEnv(name) {
			continue
		}
		env[name] = value
	}
	return env
}

func isSensitiveEnv(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range sensitiveEnvMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
