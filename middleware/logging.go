package middleware

import (
	"context"
	"time"

	"github.com/cliforge/mcp-adapter/logging"
	"github.com/cliforge/mcp-adapter/protocol"
)

// Logging returns middleware that logs request details. Successful
// requests are logged at info level, errors at error level.
func Logging(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			args := []any{
				"method", req.Method,
				"duration", time.Since(start),
			}
			if requestID := RequestIDFromContext(ctx); requestID != "" {
				args = append(args, "request_id", requestID)
			}

			if err != nil {
				args = append(args, "error", err.Error())
				logger.Error("request failed", args...)
			} else {
				logger.Info("request completed", args...)
			}

			return resp, err
		}
	}
}
