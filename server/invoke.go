package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/cliforge/mcp-adapter/protocol"
)

// CallOptions carries the optional per-invocation parameters.
type CallOptions struct {
	// RequestID identifies the invocation. Generated when empty.
	RequestID string

	// ProgressToken correlates progress notifications with this
	// invocation. A progress reporter is attached to the call context
	// iff a token is present.
	ProgressToken ProgressToken
}

// CallTool runs the tool invocation pipeline: lookup, input validation,
// call-context construction, handler execution, and error translation.
// The returned error, when non-nil, is always a *protocol.Error; handler
// panics and uncategorized errors are contained as internal errors and
// never escape.
func (s *Server) CallTool(ctx context.Context, name string, input json.RawMessage, opts *CallOptions) (any, error) {
	if opts == nil {
		opts = &CallOptions{}
	}

	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	tool, ok := s.LookupTool(name)
	if !ok {
		return nil, protocol.NewMethodNotFound("tool not found: " + name).
			WithData(map[string]any{"tool": name})
	}

	logger := s.logger.WithField("tool", name).WithField("request_id", requestID)
	logger.Debug("tool call received")

	if input == nil {
		input = json.RawMessage(`{}`)
	}

	if issues := tool.validate(input); issues != nil {
		logger.Debug("input validation failed", "issues", issues.Error())
		return nil, protocol.NewInvalidParams("input validation failed: "+issues.Error()).
			WithData(map[string]any{
				"tool":   name,
				"detail": issues.Error(),
				"issues": issues,
			})
	}

	cc := &CallContext{
		RequestID: requestID,
		Logger:    logger,
		WorkDir:   s.workDir,
		Env:       filteredEnv(),
	}
	if opts.ProgressToken != "" {
		cc.Progress = NewProgressReporter(opts.ProgressToken, s.boundNotifier())
	}
	ctx = ContextWithCall(ctx, cc)

	result, err := s.runContained(ctx, tool, input)
	if err != nil {
		perr := s.translateHandlerError(err, map[string]any{"tool": name})
		logger.Error("tool call failed", "code", perr.Code, "error", perr.Message)
		return nil, perr
	}

	logger.Info("tool call completed")
	return result, nil
}

// runContained executes the handler with panic containment.
func (s *Server) runContained(ctx context.Context, tool *Tool, input json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return tool.call(ctx, input)
}

// panicError converts a recovered panic value to an error, preserving
// the message when the value is error-like.
func panicError(v any) error {
	switch val := v.(type) {
	case error:
		return val
	case string:
		return fmt.Errorf("%s", val)
	default:
		return fmt.Errorf("handler panicked: %v", val)
	}
}

// translateHandlerError converts a handler failure into a protocol
// error. Domain errors translate through the category table; protocol
// errors pass through unchanged; anything else (including contained
// panics) becomes an internal error tagged as thrown.
func (s *Server) translateHandlerError(err error, data map[string]any) *protocol.Error {
	var catErr *CategoryError
	if errors.As(err, &catErr) {
		return Translate(catErr)
	}

	var perr *protocol.Error
	if errors.As(err, &perr) {
		return perr
	}

	msg := "tool execution failed"
	if err != nil {
		msg = err.Error()
	}

	thrown := make(map[string]any, len(data)+1)
	for k, v := range data {
		thrown[k] = v
	}
	thrown["thrown"] = true

	return protocol.NewInternalError(msg).WithData(thrown)
}
