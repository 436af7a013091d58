// Package server implements the typed protocol adapter core.
//
// A Server owns four name-keyed registries (tools, exact-URI resources,
// parametric resource templates, and prompts) populated through fluent
// builders before serving begins:
//
//	srv := server.New(server.Info{Name: "craft", Version: "1.0.0"})
//
//	type AddInput struct {
//	    A float64 `json:"a" jsonschema:"required"`
//	    B float64 `json:"b" jsonschema:"required"`
//	}
//
//	srv.Tool("add").
//	    Description("Add two numbers").
//	    ReadOnly().
//	    Handler(func(input AddInput) (map[string]float64, error) {
//	        return map[string]float64{"sum": input.A + input.B}, nil
//	    })
//
// Once serving, each inbound operation is an independent stateless
// lookup-then-execute against the registries:
//
//   - CallTool runs the invocation pipeline: lookup, JSON Schema input
//     validation, per-call context construction, handler execution, and
//     deterministic error translation. Handler panics never escape.
//   - ReadResource tries an exact URI first, then matches resource
//     templates in registration order.
//   - GetPrompt validates required arguments and generates messages.
//   - Complete dispatches argument completion for prompts and resource
//     templates; a missing completer yields an empty result.
//
// Handlers signal classified failures by returning a *CategoryError;
// the closed category set translates to protocol error codes through a
// static table. Anything else a handler returns or panics with is
// contained as an internal error.
//
// Outbound notifications (resource-updated, list-changed, progress,
// forwarded log messages) flow through an optional transport binding
// set with Bind. Rebinding resets the client's log-forwarding threshold;
// subscriptions survive a rebind.
package server
