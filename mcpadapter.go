// Package mcpadapter provides a typed protocol adapter for building MCP
// (Model Context Protocol) servers:
//   - Typed tool handlers with automatic JSON Schema generation and
//     input validation
//   - Exact and parametric (URI template) resources
//   - Prompts with required-argument validation and completion
//   - Deterministic domain-error translation to protocol error codes
//   - Progress, list-changed, resource-updated, and log-forwarding
//     notifications
//   - Pluggable transports (stdio, WebSocket) and middleware chains
//
// Basic usage:
//
//	srv := mcpadapter.NewServer(mcpadapter.ServerInfo{
//	    Name:    "my-server",
//	    Version: "1.0.0",
//	})
//
//	type SearchInput struct {
//	    Query string `json:"query" jsonschema:"required"`
//	}
//
//	srv.Tool("search").
//	    Description("Search for items").
//	    Handler(func(ctx context.Context, input SearchInput) ([]string, error) {
//	        return []string{"result1", "result2"}, nil
//	    })
//
//	mcpadapter.ServeStdio(ctx, srv)
package mcpadapter

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cliforge/mcp-adapter/logging"
	"github.com/cliforge/mcp-adapter/middleware"
	"github.com/cliforge/mcp-adapter/protocol"
	"github.com/cliforge/mcp-adapter/server"
	"github.com/cliforge/mcp-adapter/transport"
)

// Re-export core types for convenience

// ServerInfo contains server metadata exposed to clients.
type ServerInfo = server.Info

// Capabilities declares what features the server supports.
type Capabilities = server.Capabilities

// Server is the adapter server instance.
type Server = server.Server

// Option configures a Server.
type Option = server.Option

// Server options.
var (
	WithServerLogger = server.WithLogger
	WithWorkDir      = server.WithWorkDir
)

// Logger is the structured logging interface used throughout the adapter.
type Logger = logging.Logger

// NewSlogLogger adapts a *slog.Logger to the adapter's Logger interface.
var NewSlogLogger = logging.NewSlogLogger

// Domain error types. Handlers return a *CategoryError to signal a
// classified failure; the category decides the protocol error code.
type (
	Category      = server.Category
	CategoryError = server.CategoryError
)

// Domain error categories.
const (
	CategoryValidation = server.CategoryValidation
	CategoryNotFound   = server.CategoryNotFound
	CategoryPermission = server.CategoryPermission
	CategoryTimeout    = server.CategoryTimeout
	CategoryNetwork    = server.CategoryNetwork
	CategoryRateLimit  = server.CategoryRateLimit
	CategoryAuth       = server.CategoryAuth
	CategoryConflict   = server.CategoryConflict
	CategoryCancelled  = server.CategoryCancelled
	CategoryInternal   = server.CategoryInternal
)

// Domain error constructors.
var (
	NewError  = server.NewError
	Errorf    = server.Errorf
	WrapError = server.WrapError
)

// Resource types
type ResourceContent = server.ResourceContent
type ResourceInfo = server.ResourceInfo
type ResourceTemplateInfo = server.ResourceTemplateInfo

// Prompt types
type PromptResult = server.PromptResult
type PromptMessage = server.PromptMessage
type PromptArgument = server.PromptArgument
type PromptInfo = server.PromptInfo
type TextContent = server.TextContent
type ImageContent = server.ImageContent

// Completion types
type CompletionRef = server.CompletionRef
type CompletionArgument = server.CompletionArgument
type CompletionResult = server.CompletionResult
type CompletionFunc = server.CompletionFunc

// Progress types for streaming tool updates
type ProgressToken = server.ProgressToken
type ProgressReporter = server.ProgressReporter
type StreamEvent = server.StreamEvent
type StartEvent = server.StartEvent
type StepEvent = server.StepEvent
type ProgressEvent = server.ProgressEvent

// Call context types
type CallContext = server.CallContext

// ProgressFromContext returns the progress reporter from context. The
// returned reporter is nil unless the inbound call carried a progress
// token; its methods are nil-safe, so handlers can report
// unconditionally:
//
//	srv.Tool("process").Handler(func(ctx context.Context, input ProcessInput) (string, error) {
//	    progress := mcpadapter.ProgressFromContext(ctx)
//	    progress.Start("process")
//	    total := 100.0
//	    for i := 0; i < 100; i++ {
//	        progress.Progress(float64(i), &total, "")
//	        // do work...
//	    }
//	    return "done", nil
//	})
var ProgressFromContext = server.ProgressFromContext

// CallFromContext returns the per-invocation call context.
var CallFromContext = server.CallFromContext

// Logging types
type LogLevel = server.LogLevel
type Severity = server.Severity

// Protocol log levels.
const (
	LogLevelDebug     = server.LogLevelDebug
	LogLevelInfo      = server.LogLevelInfo
	LogLevelNotice    = server.LogLevelNotice
	LogLevelWarning   = server.LogLevelWarning
	LogLevelError     = server.LogLevelError
	LogLevelCritical  = server.LogLevelCritical
	LogLevelAlert     = server.LogLevelAlert
	LogLevelEmergency = server.LogLevelEmergency
)

// Internal log severities.
const (
	SeverityTrace = server.SeverityTrace
	SeverityDebug = server.SeverityDebug
	SeverityInfo  = server.SeverityInfo
	SeverityWarn  = server.SeverityWarn
	SeverityError = server.SeverityError
	SeverityFatal = server.SeverityFatal
)

// Middleware types
type Middleware = middleware.Middleware
type MiddlewareHandlerFunc = middleware.HandlerFunc

// Middleware re-exports.
var (
	Chain              = middleware.Chain
	Recover            = middleware.Recover
	RecoverWithHandler = middleware.RecoverWithHandler
	Timeout            = middleware.Timeout
	RequestID          = middleware.RequestID
	Logging            = middleware.Logging
	RateLimit          = middleware.RateLimit
	RateLimitByMethod  = middleware.RateLimitByMethod
	RateLimitByClient  = middleware.RateLimitByClient
	SizeLimit          = middleware.SizeLimit
	OTel               = middleware.OTel
)

// RequestIDFromContext returns the request ID from the context, or
// empty string if not set.
var RequestIDFromContext = middleware.RequestIDFromContext

// DefaultMiddleware returns the recommended production middleware stack.
func DefaultMiddleware(logger Logger) []Middleware {
	return middleware.DefaultStack(logger)
}

// DefaultMiddlewareWithTimeout returns the default stack with a timeout
// middleware.
func DefaultMiddlewareWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return middleware.DefaultStackWithTimeout(logger, timeout)
}

// Size limit presets.
const (
	KB = middleware.KB
	MB = middleware.MB
)

// ServeOption configures how the server is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []Middleware
	logger     Logger
}

// WithMiddleware adds middleware to the request handling chain.
func WithMiddleware(m ...Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithLogger sets the logger for the default middleware stack. It is
// ignored when WithMiddleware supplies an explicit chain.
func WithLogger(l Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = l
	}
}

// NewServer creates a new adapter server with the given info and options.
func NewServer(info ServerInfo, opts ...Option) *Server {
	return server.New(info, opts...)
}

// ServeStdio runs the server using stdio transport.
// This blocks until the context is canceled or an error occurs.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	t := transport.NewStdio()
	handler := NewRequestHandler(srv, opts...)
	return t.Serve(ctx, handler)
}

// WebSocketOption configures the WebSocket transport.
type WebSocketOption = transport.WebSocketOption

// ServeWebSocket runs the server using WebSocket transport.
// This blocks until the context is canceled or an error occurs.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, opts ...WebSocketOption) error {
	t := transport.NewWebSocket(addr, opts...)
	handler := NewRequestHandler(srv)
	return t.Serve(ctx, handler)
}

// ServeWebSocketWithMiddleware runs the server using WebSocket transport
// with middleware support.
func ServeWebSocketWithMiddleware(ctx context.Context, srv *Server, addr string, wsOpts []WebSocketOption, serveOpts ...ServeOption) error {
	t := transport.NewWebSocket(addr, wsOpts...)
	handler := NewRequestHandler(srv, serveOpts...)
	return t.Serve(ctx, handler)
}

// WithWebSocketReadTimeout sets the read timeout for WebSocket messages.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return transport.WithWebSocketReadTimeout(d)
}

// WithWebSocketWriteTimeout sets the write timeout for WebSocket messages.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return transport.WithWebSocketWriteTimeout(d)
}

// RequestHandler adapts a Server to the transport.Handler interface. It
// owns the JSON-RPC method dispatch: every protocol operation is routed
// to the corresponding server registry or pipeline.
type RequestHandler struct {
	srv        *Server
	handleFunc middleware.HandlerFunc
}

// NewRequestHandler builds the dispatch handler, wrapping it with the
// supplied middleware chain (or the default stack when only a logger is
// given).
func NewRequestHandler(srv *Server, opts ...ServeOption) *RequestHandler {
	options := &serveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	h := &RequestHandler{srv: srv}

	baseHandler := middleware.HandlerFunc(h.handle)

	switch {
	case len(options.middleware) > 0:
		h.handleFunc = middleware.Chain(options.middleware...)(baseHandler)
	case options.logger != nil:
		h.handleFunc = middleware.Chain(middleware.DefaultStack(options.logger)...)(baseHandler)
	default:
		h.handleFunc = baseHandler
	}

	return h
}

// HandleRequest implements transport.Handler.
func (h *RequestHandler) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return h.handleFunc(ctx, req)
}

func (h *RequestHandler) handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return h.handleInitialize(ctx, req)
	case protocol.MethodInitialized:
		return nil, nil
	case protocol.MethodPing:
		return protocol.NewResponse(req.ID, map[string]any{}), nil
	case protocol.MethodToolsList:
		return h.handleToolsList(req)
	case protocol.MethodToolsCall:
		return h.handleToolsCall(ctx, req)
	case protocol.MethodResourcesList:
		return h.handleResourcesList(req)
	case protocol.MethodResourceTemplatesList:
		return h.handleResourceTemplatesList(req)
	case protocol.MethodResourcesRead:
		return h.handleResourcesRead(ctx, req)
	case protocol.MethodResourcesSubscribe:
		return h.handleSubscribe(req, true)
	case protocol.MethodResourcesUnsubscribe:
		return h.handleSubscribe(req, false)
	case protocol.MethodPromptsList:
		return h.handlePromptsList(req)
	case protocol.MethodPromptsGet:
		return h.handlePromptsGet(ctx, req)
	case protocol.MethodCompletionComplete:
		return h.handleComplete(ctx, req)
	case protocol.MethodLoggingSetLevel:
		return h.handleSetLevel(req)
	case protocol.MethodCancelled:
		return h.handleCancelled(req)
	default:
		return nil, protocol.NewMethodNotFound(req.Method)
	}
}

func (h *RequestHandler) handleInitialize(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	// Initialization marks the start of a client session: bind the
	// transport so outbound notifications reach this client.
	if sender := transport.NotificationSenderFromContext(ctx); sender != nil {
		h.srv.Bind(sender)
	}

	manifest := h.srv.Manifest()

	capabilities := make(map[string]any)
	if manifest.Capabilities.Tools {
		capabilities["tools"] = map[string]any{"listChanged": true}
	}
	if manifest.Capabilities.Resources {
		capabilities["resources"] = map[string]any{
			"subscribe":   true,
			"listChanged": true,
		}
	}
	if manifest.Capabilities.Prompts {
		capabilities["prompts"] = map[string]any{"listChanged": true}
	}
	if manifest.Capabilities.Logging {
		capabilities["logging"] = map[string]any{}
	}

	result := map[string]any{
		"protocolVersion": manifest.ProtocolVersion,
		"serverInfo": map[string]any{
			"name":    manifest.Name,
			"version": manifest.Version,
		},
		"capabilities": capabilities,
	}

	return protocol.NewResponse(req.ID, result), nil
}

func (h *RequestHandler) handleToolsList(req *protocol.Request) (*protocol.Response, error) {
	tools := h.srv.Tools()

	toolList := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		item := map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		}
		if t.Annotations != nil {
			item["annotations"] = t.Annotations
		}
		toolList = append(toolList, item)
	}

	return protocol.NewResponse(req.ID, map[string]any{"tools": toolList}), nil
}

func (h *RequestHandler) handleToolsCall(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	opts := &server.CallOptions{
		RequestID:     middleware.RequestIDFromContext(ctx),
		ProgressToken: extractProgressToken(req.Params),
	}

	// Track the invocation under its JSON-RPC id so a later
	// notifications/cancelled for that id aborts the handler's context.
	if wireID := rawIDString(req.ID); wireID != "" {
		var cleanup context.CancelFunc
		ctx, cleanup = h.srv.Cancellation().Track(ctx, wireID)
		defer cleanup()
	}

	result, err := h.srv.CallTool(ctx, params.Name, params.Arguments, opts)
	if err != nil {
		return nil, err
	}

	text, err := formatToolResult(result)
	if err != nil {
		return nil, protocol.NewInternalError("failed to encode tool result: " + err.Error())
	}

	response := map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
	}

	return protocol.NewResponse(req.ID, response), nil
}

func (h *RequestHandler) handleResourcesList(req *protocol.Request) (*protocol.Response, error) {
	resources := h.srv.Resources()

	resourceList := make([]map[string]any, 0, len(resources))
	for _, r := range resources {
		item := map[string]any{
			"uri":  r.URI,
			"name": r.Name,
		}
		if r.Description != "" {
			item["description"] = r.Description
		}
		if r.MimeType != "" {
			item["mimeType"] = r.MimeType
		}
		resourceList = append(resourceList, item)
	}

	return protocol.NewResponse(req.ID, map[string]any{"resources": resourceList}), nil
}

func (h *RequestHandler) handleResourceTemplatesList(req *protocol.Request) (*protocol.Response, error) {
	templates := h.srv.ResourceTemplates()

	templateList := make([]map[string]any, 0, len(templates))
	for _, t := range templates {
		item := map[string]any{
			"uriTemplate": t.URITemplate,
			"name":        t.Name,
		}
		if t.Description != "" {
			item["description"] = t.Description
		}
		if t.MimeType != "" {
			item["mimeType"] = t.MimeType
		}
		templateList = append(templateList, item)
	}

	return protocol.NewResponse(req.ID, map[string]any{"resourceTemplates": templateList}), nil
}

func (h *RequestHandler) handleResourcesRead(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	content, err := h.srv.ReadResource(ctx, params.URI)
	if err != nil {
		return nil, err
	}

	item := map[string]any{
		"uri":      content.URI,
		"mimeType": content.MimeType,
		"text":     content.Text,
	}
	if content.Blob != "" {
		item["blob"] = content.Blob
	}

	return protocol.NewResponse(req.ID, map[string]any{
		"contents": []map[string]any{item},
	}), nil
}

func (h *RequestHandler) handleSubscribe(req *protocol.Request, subscribe bool) (*protocol.Response, error) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}
	if params.URI == "" {
		return nil, protocol.NewInvalidParams("uri is required")
	}

	if subscribe {
		h.srv.Subscribe(params.URI)
	} else {
		h.srv.Unsubscribe(params.URI)
	}

	return protocol.NewResponse(req.ID, map[string]any{}), nil
}

func (h *RequestHandler) handlePromptsList(req *protocol.Request) (*protocol.Response, error) {
	prompts := h.srv.Prompts()

	promptList := make([]map[string]any, 0, len(prompts))
	for _, p := range prompts {
		item := map[string]any{
			"name": p.Name,
		}
		if p.Description != "" {
			item["description"] = p.Description
		}
		if len(p.Arguments) > 0 {
			args := make([]map[string]any, 0, len(p.Arguments))
			for _, arg := range p.Arguments {
				argItem := map[string]any{
					"name":     arg.Name,
					"required": arg.Required,
				}
				if arg.Description != "" {
					argItem["description"] = arg.Description
				}
				args = append(args, argItem)
			}
			item["arguments"] = args
		}
		promptList = append(promptList, item)
	}

	return protocol.NewResponse(req.ID, map[string]any{"prompts": promptList}), nil
}

func (h *RequestHandler) handlePromptsGet(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	result, err := h.srv.GetPrompt(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, err
	}

	response := map[string]any{
		"messages": result.Messages,
	}
	if result.Description != "" {
		response["description"] = result.Description
	}

	return protocol.NewResponse(req.ID, response), nil
}

func (h *RequestHandler) handleComplete(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Ref      server.CompletionRef      `json:"ref"`
		Argument server.CompletionArgument `json:"argument"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	result, err := h.srv.Complete(ctx, params.Ref, params.Argument)
	if err != nil {
		return nil, err
	}

	return protocol.NewResponse(req.ID, map[string]any{"completion": result}), nil
}

func (h *RequestHandler) handleSetLevel(req *protocol.Request) (*protocol.Response, error) {
	var params server.SetLevelRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	level, ok := server.ParseLogLevel(string(params.Level))
	if !ok {
		return nil, protocol.NewInvalidParams("unknown log level: " + string(params.Level))
	}

	h.srv.SetLogLevel(level)
	return protocol.NewResponse(req.ID, map[string]any{}), nil
}

func (h *RequestHandler) handleCancelled(req *protocol.Request) (*protocol.Response, error) {
	var params server.CancelledNotification
	if err := json.Unmarshal(req.Params, &params); err != nil {
		// Malformed cancellation notifications are dropped
		return nil, nil
	}

	h.srv.Cancellation().Cancel(rawIDString(params.RequestID))
	return nil, nil
}

// extractProgressToken pulls the progress token out of the request's
// _meta block, if present. Numeric tokens are stringified.
func extractProgressToken(params json.RawMessage) server.ProgressToken {
	var meta struct {
		Meta struct {
			ProgressToken json.RawMessage `json:"progressToken"`
		} `json:"_meta"`
	}
	if err := json.Unmarshal(params, &meta); err != nil {
		return ""
	}
	return server.ProgressToken(rawIDString(meta.Meta.ProgressToken))
}

// rawIDString renders a raw JSON id or token as a plain string.
func rawIDString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return string(raw)
}

// formatToolResult renders a tool result as the text content of the
// response. Strings pass through; everything else is JSON encoded.
func formatToolResult(result any) (string, error) {
	if s, ok := result.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
