// Package middleware provides request middleware for the adapter's
// JSON-RPC dispatch path.
//
// Middleware follows the standard pattern where each middleware wraps the
// next handler in the chain, allowing pre- and post-processing of requests.
//
// # Basic Usage
//
// Create and compose middleware:
//
//	chain := middleware.Chain(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)
//	handler := chain(baseHandler)
//
// # Available Middleware
//
//   - Recover: Catches panics and converts them to internal errors
//   - RequestID: Injects unique request IDs into the context
//   - Timeout: Enforces request deadlines and maps them to timeout errors
//   - Logging: Logs request details and timing
//   - RateLimit: Token bucket rate limiting, globally or per key
//   - SizeLimit: Rejects oversized request params
//   - Auth: Authenticates requests and attaches an identity
//   - OTel: OpenTelemetry tracing and metrics
//
// # Default Stacks
//
// Pre-configured middleware stacks are available for common use cases:
//
//	// Recover + RequestID + Logging
//	stack := middleware.DefaultStack(logger)
//
//	// Recover + RequestID + Timeout + Logging
//	stack := middleware.DefaultStackWithTimeout(logger, 30*time.Second)
package middleware
