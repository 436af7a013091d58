package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/cliforge/mcp-adapter/protocol"
	"github.com/cliforge/mcp-adapter/schema"
)

// Tool represents a callable operation exposed to the client.
type Tool struct {
	name         string
	description  string
	inputType    reflect.Type
	inputSchema  *schema.Schema
	validator    *schema.Validator
	handler      any
	hasContext   bool
	deferLoading bool
	annotations  *ToolAnnotations
}

// ToolInfo represents metadata about a registered tool.
type ToolInfo struct {
	Name         string
	Description  string
	InputSchema  *schema.Schema
	Annotations  *ToolAnnotations
	DeferLoading bool
}

// ToolBuilder provides a fluent API for building tools.
type ToolBuilder struct {
	tool   *Tool
	server *Server
	err    error
}

// Tool starts building a new tool with the given name. Registering the
// same name again replaces the previous entry.
func (s *Server) Tool(name string) *ToolBuilder {
	return &ToolBuilder{
		tool: &Tool{
			name: name,
		},
		server: s,
	}
}

// Description sets the tool description.
func (b *ToolBuilder) Description(desc string) *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.description = desc
	return b
}

// DeferLoading marks the tool as deferred: listed, but not loaded by the
// client until first use.
func (b *ToolBuilder) DeferLoading() *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.deferLoading = true
	return b
}

// Handler sets the tool handler function and registers the tool.
// Handler signature must be one of:
//   - func(input T) (R, error)
//   - func(ctx context.Context, input T) (R, error)
func (b *ToolBuilder) Handler(fn any) *ToolBuilder {
	if b.err != nil {
		return b
	}

	if err := b.validateHandler(fn); err != nil {
		b.err = err
		return b
	}

	b.tool.handler = fn
	b.server.registerTool(b.tool)
	return b
}

// Err returns the first error encountered while building, or nil. A tool
// whose builder errored is not registered.
func (b *ToolBuilder) Err() error {
	return b.err
}

// validateHandler validates the handler function signature and compiles
// the input schema and validator.
func (b *ToolBuilder) validateHandler(fn any) error {
	fnType := reflect.TypeOf(fn)

	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %v", fnType)
	}

	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return fmt.Errorf("handler must have 1 or 2 parameters, got %d", numIn)
	}

	var inputParamIdx int
	if numIn == 2 {
		if !fnType.In(0).Implements(reflect.TypeOf((*context.Context)(nil)).Elem()) {
			return fmt.Errorf("first parameter must be context.Context when using 2 parameters")
		}
		b.tool.hasContext = true
		inputParamIdx = 1
	} else {
		inputParamIdx = 0
	}

	inputType := fnType.In(inputParamIdx)
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	b.tool.inputType = inputType

	inputSchema, err := schema.GenerateFromType(inputType)
	if err != nil {
		return fmt.Errorf("failed to generate input schema: %w", err)
	}
	b.tool.inputSchema = inputSchema

	validator, err := schema.NewValidator(inputSchema)
	if err != nil {
		return fmt.Errorf("failed to compile input validator: %w", err)
	}
	b.tool.validator = validator

	if fnType.NumOut() != 2 {
		return fmt.Errorf("handler must return (result, error), got %d return values", fnType.NumOut())
	}

	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errType) {
		return fmt.Errorf("second return value must be error")
	}

	return nil
}

// validate checks raw input against the tool's compiled input schema.
func (t *Tool) validate(input json.RawMessage) schema.ValidationErrors {
	if t.validator == nil {
		return nil
	}
	return t.validator.Validate(input)
}

// call decodes the validated input and runs the handler.
func (t *Tool) call(ctx context.Context, input json.RawMessage) (any, error) {
	inputPtr := reflect.New(t.inputType)
	if err := json.Unmarshal(input, inputPtr.Interface()); err != nil {
		return nil, protocol.NewInvalidParams(fmt.Sprintf("failed to parse input: %v", err))
	}

	fnVal := reflect.ValueOf(t.handler)
	var args []reflect.Value

	if t.hasContext {
		args = append(args, reflect.ValueOf(ctx))
	}
	args = append(args, inputPtr.Elem())

	results := fnVal.Call(args)

	resultVal := results[0].Interface()
	errVal := results[1].Interface()

	if errVal != nil {
		return nil, errVal.(error)
	}

	return resultVal, nil
}
