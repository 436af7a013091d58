package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cliforge/mcp-adapter/logging"
	"github.com/cliforge/mcp-adapter/protocol"
)

// WebSocket implements the adapter transport over WebSocket connections.
// Each connection carries its own notification sender, so server-initiated
// notifications reach the client that issued the requests.
type WebSocket struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server
	logger   logging.Logger
	shutdown *ShutdownManager

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// wsClient represents a single WebSocket connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWebSocketReadTimeout sets the read timeout for WebSocket messages.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.readTimeout = d
	}
}

// WithWebSocketWriteTimeout sets the write timeout for WebSocket messages.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin sets the origin check function for WebSocket
// upgrades.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = fn
	}
}

// WithWebSocketLogger sets the logger for transport events.
func WithWebSocketLogger(l logging.Logger) WebSocketOption {
	return func(ws *WebSocket) {
		if l != nil {
			ws.logger = l
		}
	}
}

// WithWebSocketShutdown sets the graceful shutdown configuration.
func WithWebSocketShutdown(config ShutdownConfig) WebSocketOption {
	return func(ws *WebSocket) {
		ws.shutdown = NewShutdownManager(config)
	}
}

// NewWebSocket creates a new WebSocket transport.
func NewWebSocket(addr string, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:       logging.GetNoopLogger(),
		shutdown:     NewShutdownManager(DefaultShutdownConfig()),
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		clients:      make(map[*wsClient]struct{}),
	}

	for _, opt := range opts {
		opt(ws)
	}

	return ws
}

// Addr returns the transport address.
func (ws *WebSocket) Addr() string {
	return ws.addr
}

// Serve starts the WebSocket server and blocks until the context is
// cancelled or the listener fails. Cancellation drains in-flight
// requests before closing client connections.
func (ws *WebSocket) Serve(ctx context.Context, handler Handler) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws.handleConnection(ctx, w, r, handler)
	})

	ws.server = &http.Server{
		Addr:         ws.addr,
		Handler:      mux,
		ReadTimeout:  ws.readTimeout,
		WriteTimeout: ws.writeTimeout,
	}

	ws.logger.Info("websocket transport listening", "addr", ws.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := ws.shutdown.Shutdown(shutdownCtx); err != nil {
			ws.logger.Warn("drain incomplete", "error", err.Error(),
				"in_flight", ws.shutdown.InFlightRequests())
		}
		ws.closeAllClients()
		return ws.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (ws *WebSocket) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request, handler Handler) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Debug("websocket upgrade failed", "error", err.Error())
		return
	}

	client := &wsClient{conn: conn}

	ws.mu.Lock()
	ws.clients[client] = struct{}{}
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		delete(ws.clients, client)
		ws.mu.Unlock()
		_ = conn.Close()
	}()

	sender := &wsNotificationSender{client: client}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ws.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(ws.readTimeout))
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			// Close errors are the normal disconnect path
			return
		}

		var req protocol.Request
		if err := json.Unmarshal(message, &req); err != nil {
			_ = client.writeJSON(protocol.NewErrorResponse(nil, protocol.NewParseError(err.Error())))
			continue
		}

		if !ws.shutdown.TrackRequest() {
			if !req.IsNotification() {
				_ = client.writeJSON(protocol.NewErrorResponse(req.ID, &protocol.Error{
					Code:    protocol.CodeUnavailable,
					Message: "server is shutting down",
				}))
			}
			continue
		}

		reqCtx := ContextWithNotificationSender(ctx, sender)

		// Notifications (cancellation among them) are handled inline so
		// they take effect while requests are still in flight.
		if req.IsNotification() {
			_, _ = handler.HandleRequest(reqCtx, &req)
			ws.shutdown.CompleteRequest()
			continue
		}

		// Requests dispatch concurrently; responses serialize on the
		// client's write lock and correlate by ID.
		go func(req protocol.Request) {
			defer ws.shutdown.CompleteRequest()

			resp, err := handler.HandleRequest(reqCtx, &req)
			if err != nil {
				var mcpErr *protocol.Error
				if errors.As(err, &mcpErr) {
					resp = protocol.NewErrorResponse(req.ID, mcpErr)
				} else {
					resp = protocol.NewErrorResponse(req.ID, protocol.NewInternalError(err.Error()))
				}
			}

			if resp != nil {
				_ = client.writeJSON(resp)
			}
		}(req)
	}
}

func (ws *WebSocket) closeAllClients() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for client := range ws.clients {
		client.close()
	}
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

// wsNotificationSender sends notifications to a WebSocket client.
type wsNotificationSender struct {
	client *wsClient
}

func (s *wsNotificationSender) SendNotification(method string, params any) error {
	paramsData, err := json.Marshal(params)
	if err != nil {
		return err
	}

	notif := Notification{
		JSONRPC: protocol.JSONRPCVersion,
		Method:  method,
		Params:  paramsData,
	}

	return s.client.writeJSON(notif)
}
