package server

import (
	"context"

	"github.com/cliforge/mcp-adapter/protocol"
)

// Completion reference types.
const (
	CompletionRefPrompt   = "ref/prompt"
	CompletionRefResource = "ref/resource"
)

// maxCompletionValues caps a completion result per the MCP spec.
const maxCompletionValues = 100

// CompletionFunc produces completion suggestions for a partial argument
// value.
type CompletionFunc func(ctx context.Context, value string) ([]string, error)

// CompletionRef identifies the prompt or resource template a completion
// request targets.
type CompletionRef struct {
	Type string `json:"type"`           // "ref/prompt" or "ref/resource"
	Name string `json:"name,omitempty"` // For prompt references
	URI  string `json:"uri,omitempty"`  // For resource template references
}

// CompletionArgument is the argument being completed.
type CompletionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompletionResult contains completion suggestions.
type CompletionResult struct {
	Values  []string `json:"values"`
	Total   int      `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

// emptyCompletion is returned when the target has no completer for the
// argument; absence of completion support is not a failure mode.
func emptyCompletion() *CompletionResult {
	return &CompletionResult{Values: []string{}}
}

// Complete dispatches a completion request to the completer registered
// for the referenced prompt or resource-template argument.
func (s *Server) Complete(ctx context.Context, ref CompletionRef, arg CompletionArgument) (*CompletionResult, error) {
	var fn CompletionFunc

	switch ref.Type {
	case CompletionRefPrompt:
		prompt, ok := s.LookupPrompt(ref.Name)
		if !ok {
			return nil, protocol.NewMethodNotFound("prompt not found: " + ref.Name).
				WithData(map[string]any{"prompt": ref.Name})
		}
		fn = prompt.completers[arg.Name]

	case CompletionRefResource:
		rt, ok := s.LookupResourceTemplate(ref.URI)
		if !ok {
			return nil, protocol.NewMethodNotFound("resource template not found: " + ref.URI).
				WithData(map[string]any{"uriTemplate": ref.URI})
		}
		fn = rt.completers[arg.Name]

	default:
		return nil, protocol.NewInvalidRequest("unknown completion reference type: " + ref.Type)
	}

	if fn == nil {
		return emptyCompletion(), nil
	}

	values, err := s.completeContained(ctx, fn, arg.Value)
	if err != nil {
		return nil, s.translateHandlerError(err, map[string]any{"argument": arg.Name})
	}

	result := &CompletionResult{Values: values, Total: len(values)}
	if len(result.Values) > maxCompletionValues {
		result.Values = result.Values[:maxCompletionValues]
		result.HasMore = true
	}
	return result, nil
}

// completeContained executes a completion function with panic containment.
func (s *Server) completeContained(ctx context.Context, fn CompletionFunc, value string) (values []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(ctx, value)
}
