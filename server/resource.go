package server

import (
	"context"

	"github.com/cliforge/mcp-adapter/protocol"
)

// ResourceContent represents the content returned by a resource read.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // Base64 encoded binary data
}

// ResourceHandler is the function signature for resource read handlers.
// For exact-URI resources the variables map is empty; for template
// resources it carries the placeholder values extracted from the URI.
type ResourceHandler func(ctx context.Context, uri string, variables map[string]string) (*ResourceContent, error)

// Resource is an exact-URI resource. A resource without a read handler
// is metadata-only: listable but not readable.
type Resource struct {
	uri         string
	name        string
	description string
	mimeType    string
	handler     ResourceHandler
}

// ResourceInfo represents metadata about a registered resource.
type ResourceInfo struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// ResourceTemplate is a parametric resource whose URI contains {name}
// placeholders.
type ResourceTemplate struct {
	template    *Template
	name        string
	description string
	mimeType    string
	handler     ResourceHandler
	completers  map[string]CompletionFunc
}

// ResourceTemplateInfo represents metadata about a registered template.
type ResourceTemplateInfo struct {
	URITemplate string
	Name        string
	Description string
	MimeType    string
}

// ResourceBuilder provides a fluent API for building exact-URI resources.
type ResourceBuilder struct {
	resource *Resource
	server   *Server
}

// Resource starts building a new exact-URI resource.
func (s *Server) Resource(uri string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: &Resource{uri: uri},
		server:   s,
	}
}

// Name sets a human-readable name for the resource.
func (b *ResourceBuilder) Name(name string) *ResourceBuilder {
	b.resource.name = name
	return b
}

// Description sets the resource description.
func (b *ResourceBuilder) Description(desc string) *ResourceBuilder {
	b.resource.description = desc
	return b
}

// MimeType sets the MIME type of the resource content.
func (b *ResourceBuilder) MimeType(mimeType string) *ResourceBuilder {
	b.resource.mimeType = mimeType
	return b
}

// Handler sets the read handler and registers the resource.
func (b *ResourceBuilder) Handler(fn ResourceHandler) *ResourceBuilder {
	b.resource.handler = fn
	b.server.registerResource(b.resource)
	return b
}

// Register registers the resource without a read handler, making it
// metadata-only.
func (b *ResourceBuilder) Register() *ResourceBuilder {
	b.server.registerResource(b.resource)
	return b
}

// ResourceTemplateBuilder provides a fluent API for building resource
// templates.
type ResourceTemplateBuilder struct {
	rt     *ResourceTemplate
	server *Server
	err    error
}

// ResourceTemplate starts building a resource template from a URI
// template like "logs://{service}/{date}".
func (s *Server) ResourceTemplate(uriTemplate string) *ResourceTemplateBuilder {
	b := &ResourceTemplateBuilder{
		rt:     &ResourceTemplate{completers: make(map[string]CompletionFunc)},
		server: s,
	}

	tmpl, err := CompileTemplate(uriTemplate)
	if err != nil {
		b.err = err
		return b
	}
	b.rt.template = tmpl
	return b
}

// Name sets a human-readable name for the template.
func (b *ResourceTemplateBuilder) Name(name string) *ResourceTemplateBuilder {
	if b.err != nil {
		return b
	}
	b.rt.name = name
	return b
}

// Description sets the template description.
func (b *ResourceTemplateBuilder) Description(desc string) *ResourceTemplateBuilder {
	if b.err != nil {
		return b
	}
	b.rt.description = desc
	return b
}

// MimeType sets the MIME type of the generated content.
func (b *ResourceTemplateBuilder) MimeType(mimeType string) *ResourceTemplateBuilder {
	if b.err != nil {
		return b
	}
	b.rt.mimeType = mimeType
	return b
}

// Completer registers an argument-completion function for the named
// template parameter.
func (b *ResourceTemplateBuilder) Completer(param string, fn CompletionFunc) *ResourceTemplateBuilder {
	if b.err != nil {
		return b
	}
	b.rt.completers[param] = fn
	return b
}

// Handler sets the read handler and registers the template.
func (b *ResourceTemplateBuilder) Handler(fn ResourceHandler) *ResourceTemplateBuilder {
	if b.err != nil {
		return b
	}
	b.rt.handler = fn
	b.server.registerTemplate(b.rt)
	return b
}

// Err returns the first error encountered while building, or nil.
func (b *ResourceTemplateBuilder) Err() error {
	return b.err
}

// ReadResource resolves a URI to content. Exact-URI resources are tried
// first; on a miss, registered templates are matched in registration
// order and the first match wins. Handler failures are contained the
// same way as tool handler failures.
func (s *Server) ReadResource(ctx context.Context, uri string) (*ResourceContent, error) {
	logger := s.logger.WithField("uri", uri)

	if res, ok := s.LookupResource(uri); ok {
		if res.handler == nil {
			return nil, protocol.NewNotReadable("resource is not readable: " + uri).
				WithData(map[string]any{"uri": uri})
		}

		content, err := s.readContained(ctx, res.handler, uri, map[string]string{})
		if err != nil {
			perr := s.translateHandlerError(err, map[string]any{"uri": uri})
			logger.Error("resource read failed", "code", perr.Code, "error", perr.Message)
			return nil, perr
		}
		logger.Debug("resource read completed")
		return content, nil
	}

	for _, rt := range s.orderedTemplates() {
		vars, ok := rt.template.Match(uri)
		if !ok {
			continue
		}

		content, err := s.readContained(ctx, rt.handler, uri, vars)
		if err != nil {
			perr := s.translateHandlerError(err, map[string]any{"uri": uri})
			logger.Error("resource read failed", "code", perr.Code, "error", perr.Message)
			return nil, perr
		}
		logger.Debug("resource read completed", "template", rt.template.Raw())
		return content, nil
	}

	return nil, protocol.NewNotFound("resource not found: " + uri).
		WithData(map[string]any{"uri": uri})
}

// readContained executes a resource handler with panic containment.
func (s *Server) readContained(ctx context.Context, fn ResourceHandler, uri string, vars map[string]string) (content *ResourceContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(ctx, uri, vars)
}
