package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/cliforge/mcp-adapter/protocol"
)

// Timeout returns middleware that enforces a request deadline. When the
// handler fails because the deadline expired, the failure is translated
// to the adapter's timeout error code.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			resp, err := next(ctx, req)
			if err != nil && errors.Is(err, context.DeadlineExceeded) {
				return nil, &protocol.Error{
					Code:    protocol.CodeTimeout,
					Message: "request deadline exceeded",
					Data:    map[string]any{"method": req.Method, "timeout": d.String()},
				}
			}
			return resp, err
		}
	}
}
