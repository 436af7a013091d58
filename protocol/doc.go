// Package protocol defines the JSON-RPC 2.0 message types, method names,
// and error codes spoken across the adapter boundary.
//
// This is the low-level wire vocabulary used by the server, middleware,
// and transport packages. Most users should use the root mcpadapter
// package instead.
//
// # Error Codes
//
// Standard JSON-RPC 2.0 error codes are defined as constants:
//
//	CodeParseError     = -32700  // Invalid JSON
//	CodeInvalidRequest = -32600  // Invalid Request object
//	CodeMethodNotFound = -32601  // Method not found
//	CodeInvalidParams  = -32602  // Invalid method parameters
//	CodeInternalError  = -32603  // Internal server error
//
// A second block of implementation-defined codes covers the adapter's
// domain error categories (not-found, unauthorized, rate-limited,
// timeout, conflict, unavailable, cancelled, not-readable). The server
// package owns the category-to-code translation table; this package
// only names the codes.
//
// Helper functions create properly formatted errors:
//
//	err := protocol.NewMethodNotFound("unknown/method")
//	err := protocol.NewInvalidParams("missing required field: name")
//
// # Method Constants
//
// All request and notification method names used by the adapter are
// defined as constants, including the list-changed, resource-updated,
// progress, and log-message notification methods.
package protocol
