package server

import (
	"github.com/cockroachdb/errors"

	"github.com/cliforge/mcp-adapter/protocol"
)

// Category classifies a domain error returned by an application handler.
// The set is closed; Translate maps every category to a protocol error
// code through a static table.
type Category string

// Domain error categories.
const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryPermission Category = "permission"
	CategoryTimeout    Category = "timeout"
	CategoryNetwork    Category = "network"
	CategoryRateLimit  Category = "rate_limit"
	CategoryAuth       Category = "auth"
	CategoryConflict   Category = "conflict"
	CategoryCancelled  Category = "cancelled"
	CategoryInternal   Category = "internal"
)

// categoryCodes is the static category-to-code translation table.
var categoryCodes = map[Category]int{
	CategoryValidation: protocol.CodeInvalidParams,
	CategoryNotFound:   protocol.CodeNotFound,
	CategoryPermission: protocol.CodeUnauthorized,
	CategoryTimeout:    protocol.CodeTimeout,
	CategoryNetwork:    protocol.CodeUnavailable,
	CategoryRateLimit:  protocol.CodeRateLimited,
	CategoryAuth:       protocol.CodeUnauthorized,
	CategoryConflict:   protocol.CodeConflict,
	CategoryCancelled:  protocol.CodeCancelled,
	CategoryInternal:   protocol.CodeInternalError,
}

// CategoryError is a domain error that handlers return to signal a
// classified failure. It wraps an underlying cause and carries a short
// machine tag that survives translation into the protocol error payload.
type CategoryError struct {
	category Category
	tag      string
	cause    error
}

// NewError creates a domain error in the given category.
func NewError(category Category, msg string) *CategoryError {
	return &CategoryError{
		category: category,
		tag:      string(category),
		cause:    errors.New(msg),
	}
}

// Errorf creates a domain error with a formatted message.
func Errorf(category Category, format string, args ...any) *CategoryError {
	return &CategoryError{
		category: category,
		tag:      string(category),
		cause:    errors.Newf(format, args...),
	}
}

// WrapError wraps an existing error as a domain error in the given category.
func WrapError(category Category, err error, msg string) *CategoryError {
	return &CategoryError{
		category: category,
		tag:      string(category),
		cause:    errors.Wrap(err, msg),
	}
}

// WithTag sets the machine tag carried in the translated error payload.
func (e *CategoryError) WithTag(tag string) *CategoryError {
	e.tag = tag
	return e
}

// Category returns the error's category.
func (e *CategoryError) Category() Category {
	return e.category
}

// Error implements the error interface.
func (e *CategoryError) Error() string {
	return e.cause.Error()
}

// Unwrap returns the underlying cause.
func (e *CategoryError) Unwrap() error {
	return e.cause
}

// Translate converts a domain error into a protocol error using the
// static category table. Unknown categories fall back to internal-error.
func Translate(e *CategoryError) *protocol.Error {
	code, ok := categoryCodes[e.category]
	if !ok {
		code = protocol.CodeInternalError
	}
	return &protocol.Error{
		Code:    code,
		Message: e.Error(),
		Data: map[string]any{
			"tag":      e.tag,
			"category": string(e.category),
		},
	}
}
