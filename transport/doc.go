// Package transport provides the adapter's transport implementations.
//
// A transport owns the wire: it reads JSON-RPC requests, hands them to a
// Handler, writes responses back, and exposes a NotificationSender so the
// server can push notifications (progress, list-changed, resource
// updates, forwarded log messages) to the connected client.
//
// # Stdio Transport
//
// The stdio transport communicates via stdin/stdout, one JSON message
// per line. It suits local tools and CLI integrations:
//
//	t := transport.NewStdio()
//	err := t.Serve(ctx, handler)
//
// # WebSocket Transport
//
// The WebSocket transport serves bidirectional connections with graceful
// shutdown and per-connection notification delivery:
//
//	t := transport.NewWebSocket(":8080",
//	    transport.WithWebSocketReadTimeout(60*time.Second),
//	)
//	err := t.Serve(ctx, handler)
//
// # Handler Interface
//
// All transports expect a Handler that processes requests:
//
//	type Handler interface {
//	    HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
//	}
//
// # Usage with the root package
//
// Most users should use the root package's convenience functions:
//
//	mcpadapter.ServeStdio(ctx, srv)
//	mcpadapter.ServeWebSocket(ctx, srv, ":8080")
package transport
