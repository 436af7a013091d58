// Package server implements the typed protocol adapter core: the
// registries of tools, resources, resource templates, and prompts, the
// tool invocation pipeline, the resource and prompt read paths, and the
// notification, progress, and log-forwarding subsystems.
package server

import (
	"context"
	"os"
	"sync"

	"github.com/cliforge/mcp-adapter/logging"
	"github.com/cliforge/mcp-adapter/protocol"
)

// Info contains server metadata exposed to clients.
type Info struct {
	Name         string
	Version      string
	Capabilities Capabilities
}

// Capabilities declares what features the server supports.
type Capabilities struct {
	Tools     bool
	Resources bool
	Prompts   bool
	Logging   bool
}

// Manifest represents the server manifest returned to clients.
type Manifest struct {
	Name            string       `json:"name"`
	Version         string       `json:"version"`
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
}

// NotificationSender is the transport binding consumed by the adapter's
// notification paths. The binding is optional; while absent, every
// notification call is a no-op.
type NotificationSender interface {
	SendNotification(method string, params any) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger used by the pipeline. The
// default is a no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkDir overrides the working directory exposed to handler call
// contexts. The default is the process working directory.
func WithWorkDir(dir string) Option {
	return func(s *Server) {
		s.workDir = dir
	}
}

// Server is the adapter instance: one logical server identity holding
// the registries and the per-client notification state. Registries are
// expected to be populated before serving begins; registration is
// mutex-guarded so a late registration is memory-safe, but no ordering
// guarantee is made against in-flight invocations.
type Server struct {
	mu sync.RWMutex

	info    Info
	logger  logging.Logger
	workDir string

	tools         map[string]*Tool
	resources     map[string]*Resource
	templates     map[string]*ResourceTemplate
	templateOrder []string
	prompts       map[string]*Prompt

	subscriptions *SubscriptionSet
	cancellation  *CancellationManager

	notifier NotificationSender
	logLevel *LogLevel // nil until the client opts in via logging/setLevel
}

// New creates a new adapter server with the given info and options.
func New(info Info, opts ...Option) *Server {
	workDir, _ := os.Getwd()

	s := &Server{
		info:          info,
		logger:        logging.GetNoopLogger(),
		workDir:       workDir,
		tools:         make(map[string]*Tool),
		resources:     make(map[string]*Resource),
		templates:     make(map[string]*ResourceTemplate),
		prompts:       make(map[string]*Prompt),
		subscriptions: NewSubscriptionSet(),
		cancellation:  NewCancellationManager(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Info returns the server info.
func (s *Server) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Manifest returns the server manifest for initialization.
func (s *Server) Manifest() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Manifest{
		Name:            s.info.Name,
		Version:         s.info.Version,
		ProtocolVersion: protocol.MCPVersion,
		Capabilities:    s.info.Capabilities,
	}
}

// Cancellation returns the in-flight request cancellation tracker.
func (s *Server) Cancellation() *CancellationManager {
	return s.cancellation
}

// Start is a lifecycle no-op that logs the server identity. It exists so
// embedders have a stable hook for serve-time setup.
func (s *Server) Start(_ context.Context) error {
	s.logger.Info("server starting", "name", s.info.Name, "version", s.info.Version)
	return nil
}

// Stop is the log-only counterpart to Start.
func (s *Server) Stop(_ context.Context) error {
	s.logger.Info("server stopping", "name", s.info.Name)
	return nil
}

// registerTool adds or replaces a tool. Last write wins.
func (s *Server) registerTool(t *Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[t.name] = t
}

// LookupTool retrieves a tool by name.
func (s *Server) LookupTool(name string) (*Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

// Tools returns info about all registered tools.
func (s *Server) Tools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ToolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		result = append(result, ToolInfo{
			Name:         t.name,
			Description:  t.description,
			InputSchema:  t.inputSchema,
			Annotations:  t.annotations,
			DeferLoading: t.deferLoading,
		})
	}
	return result
}

// registerResource adds or replaces an exact-URI resource.
func (s *Server) registerResource(r *Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.uri] = r
}

// LookupResource retrieves a resource by exact URI.
func (s *Server) LookupResource(uri string) (*Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[uri]
	return r, ok
}

// Resources returns info about all registered resources.
func (s *Server) Resources() []ResourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ResourceInfo, 0, len(s.resources))
	for _, r := range s.resources {
		result = append(result, ResourceInfo{
			URI:         r.uri,
			Name:        r.name,
			Description: r.description,
			MimeType:    r.mimeType,
		})
	}
	return result
}

// registerTemplate adds or replaces a resource template. A replaced
// template keeps its original position in the matching order.
func (s *Server) registerTemplate(rt *ResourceTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[rt.template.Raw()]; !exists {
		s.templateOrder = append(s.templateOrder, rt.template.Raw())
	}
	s.templates[rt.template.Raw()] = rt
}

// LookupResourceTemplate retrieves a template by its template string.
func (s *Server) LookupResourceTemplate(uriTemplate string) (*ResourceTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt, ok := s.templates[uriTemplate]
	return rt, ok
}

// ResourceTemplates returns info about all registered resource
// templates, in registration order.
func (s *Server) ResourceTemplates() []ResourceTemplateInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ResourceTemplateInfo, 0, len(s.templateOrder))
	for _, key := range s.templateOrder {
		rt := s.templates[key]
		result = append(result, ResourceTemplateInfo{
			URITemplate: rt.template.Raw(),
			Name:        rt.name,
			Description: rt.description,
			MimeType:    rt.mimeType,
		})
	}
	return result
}

// orderedTemplates returns the registered templates in registration
// order for the read path's fallback matching.
func (s *Server) orderedTemplates() []*ResourceTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ResourceTemplate, 0, len(s.templateOrder))
	for _, key := range s.templateOrder {
		result = append(result, s.templates[key])
	}
	return result
}

// registerPrompt adds or replaces a prompt. Last write wins.
func (s *Server) registerPrompt(p *Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[p.name] = p
}

// LookupPrompt retrieves a prompt by name.
func (s *Server) LookupPrompt(name string) (*Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[name]
	return p, ok
}

// Prompts returns info about all registered prompts.
func (s *Server) Prompts() []PromptInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]PromptInfo, 0, len(s.prompts))
	for _, p := range s.prompts {
		result = append(result, PromptInfo{
			Name:        p.name,
			Description: p.description,
			Arguments:   p.arguments,
		})
	}
	return result
}
