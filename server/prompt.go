package server

import (
	"context"

	"github.com/cliforge/mcp-adapter/protocol"
)

// TextContent represents text content in a prompt message.
type TextContent struct {
	Type string `json:"type"` // Always "text"
	Text string `json:"text"`
}

// ImageContent represents image content in a prompt message.
type ImageContent struct {
	Type     string `json:"type"` // Always "image"
	Data     string `json:"data"` // Base64 encoded
	MimeType string `json:"mimeType"`
}

// PromptMessage represents a message in a prompt result.
type PromptMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content any    `json:"content"`
}

// PromptResult is the result of getting a prompt.
type PromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// PromptArgument describes an argument for a prompt.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptHandler is the function signature for prompt handlers.
type PromptHandler func(ctx context.Context, args map[string]string) (*PromptResult, error)

// Prompt represents a reusable prompt template exposed to the client.
type Prompt struct {
	name        string
	description string
	arguments   []PromptArgument
	handler     PromptHandler
	completers  map[string]CompletionFunc
}

// PromptInfo represents metadata about a registered prompt.
type PromptInfo struct {
	Name        string
	Description string
	Arguments   []PromptArgument
}

// PromptBuilder provides a fluent API for building prompts.
type PromptBuilder struct {
	prompt *Prompt
	server *Server
}

// Prompt starts building a new prompt with the given name.
func (s *Server) Prompt(name string) *PromptBuilder {
	return &PromptBuilder{
		prompt: &Prompt{
			name:       name,
			completers: make(map[string]CompletionFunc),
		},
		server: s,
	}
}

// Description sets the prompt description.
func (b *PromptBuilder) Description(desc string) *PromptBuilder {
	b.prompt.description = desc
	return b
}

// Argument adds an argument to the prompt.
func (b *PromptBuilder) Argument(name, description string, required bool) *PromptBuilder {
	b.prompt.arguments = append(b.prompt.arguments, PromptArgument{
		Name:        name,
		Description: description,
		Required:    required,
	})
	return b
}

// Completer registers an argument-completion function for the named
// argument.
func (b *PromptBuilder) Completer(arg string, fn CompletionFunc) *PromptBuilder {
	b.prompt.completers[arg] = fn
	return b
}

// Handler sets the prompt handler function and registers the prompt.
func (b *PromptBuilder) Handler(fn PromptHandler) *PromptBuilder {
	b.prompt.handler = fn
	b.server.registerPrompt(b.prompt)
	return b
}

// GetPrompt validates the supplied arguments and runs the prompt
// handler. Every argument marked required must be present and non-empty.
// Handler failures are contained the same way as tool handler failures.
func (s *Server) GetPrompt(ctx context.Context, name string, args map[string]string) (*PromptResult, error) {
	prompt, ok := s.LookupPrompt(name)
	if !ok {
		return nil, protocol.NewMethodNotFound("prompt not found: " + name).
			WithData(map[string]any{"prompt": name})
	}

	logger := s.logger.WithField("prompt", name)

	for _, arg := range prompt.arguments {
		if !arg.Required {
			continue
		}
		if args == nil || args[arg.Name] == "" {
			logger.Debug("missing required argument", "argument", arg.Name)
			return nil, protocol.NewInvalidParams("missing required argument: "+arg.Name).
				WithData(map[string]any{"prompt": name, "argument": arg.Name})
		}
	}

	result, err := s.promptContained(ctx, prompt, args)
	if err != nil {
		perr := s.translateHandlerError(err, map[string]any{"prompt": name})
		logger.Error("prompt generation failed", "code", perr.Code, "error", perr.Message)
		return nil, perr
	}

	logger.Debug("prompt generated")
	return result, nil
}

// promptContained executes a prompt handler with panic containment.
func (s *Server) promptContained(ctx context.Context, p *Prompt, args map[string]string) (result *PromptResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return p.handler(ctx, args)
}
