package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cliforge/mcp-adapter/protocol"
)

func echoHandler() Handler {
	return HandlerFunc(func(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
		return protocol.NewResponse(req.ID, map[string]string{"method": req.Method}), nil
	})
}

func serveStdio(t *testing.T, input string, handler Handler) *bytes.Buffer {
	t.Helper()

	var out bytes.Buffer
	s := NewStdio(
		WithStdin(strings.NewReader(input)),
		WithStdout(&out),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Serve(ctx, handler); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	return &out
}

func decodeResponses(t *testing.T, out *bytes.Buffer) []protocol.Response {
	t.Helper()

	var responses []protocol.Response
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var resp protocol.Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestStdioRequestResponse(t *testing.T) {
	out := serveStdio(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n", echoHandler())

	responses := decodeResponses(t, out)
	if len(responses) != 1 {
		t.Fatalf("response count = %d, want 1", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("unexpected error: %v", responses[0].Error)
	}
	if string(responses[0].ID) != "1" {
		t.Errorf("response ID = %s, want 1", responses[0].ID)
	}
}

func TestStdioParseError(t *testing.T) {
	out := serveStdio(t, "not json\n", echoHandler())

	responses := decodeResponses(t, out)
	if len(responses) != 1 {
		t.Fatalf("response count = %d, want 1", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != protocol.CodeParseError {
		t.Errorf("error = %v, want parse error", responses[0].Error)
	}
}

func TestStdioNotificationNoResponse(t *testing.T) {
	out := serveStdio(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`+"\n", echoHandler())

	if out.Len() != 0 {
		t.Errorf("notification should not produce a response, got %q", out.String())
	}
}

func TestStdioHandlerError(t *testing.T) {
	handler := HandlerFunc(func(_ context.Context, _ *protocol.Request) (*protocol.Response, error) {
		return nil, protocol.NewNotFound("missing")
	})

	out := serveStdio(t, `{"jsonrpc":"2.0","id":7,"method":"resources/read"}`+"\n", handler)

	responses := decodeResponses(t, out)
	if len(responses) != 1 {
		t.Fatalf("response count = %d, want 1", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != protocol.CodeNotFound {
		t.Errorf("error = %v, want the handler's protocol error", responses[0].Error)
	}
	if string(responses[0].ID) != "7" {
		t.Errorf("response ID = %s, want 7", responses[0].ID)
	}
}

func TestStdioPlainHandlerErrorBecomesInternal(t *testing.T) {
	handler := HandlerFunc(func(_ context.Context, _ *protocol.Request) (*protocol.Response, error) {
		return nil, errors.New("broken")
	})

	out := serveStdio(t, `{"jsonrpc":"2.0","id":2,"method":"x"}`+"\n", handler)

	responses := decodeResponses(t, out)
	if responses[0].Error == nil || responses[0].Error.Code != protocol.CodeInternalError {
		t.Errorf("error = %v, want internal error", responses[0].Error)
	}
}

func TestStdioSendNotification(t *testing.T) {
	var out bytes.Buffer
	s := NewStdio(WithStdin(strings.NewReader("")), WithStdout(&out))

	if err := s.SendNotification("notifications/progress", map[string]any{"progress": 0.5}); err != nil {
		t.Fatalf("SendNotification() error = %v", err)
	}

	var notif Notification
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &notif); err != nil {
		t.Fatalf("invalid notification %q: %v", out.String(), err)
	}
	if notif.JSONRPC != protocol.JSONRPCVersion {
		t.Errorf("jsonrpc = %q", notif.JSONRPC)
	}
	if notif.Method != "notifications/progress" {
		t.Errorf("method = %q", notif.Method)
	}
}

func TestStdioNotificationSenderInContext(t *testing.T) {
	var sender NotificationSender
	handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		sender = NotificationSenderFromContext(ctx)
		return protocol.NewResponse(req.ID, nil), nil
	})

	serveStdio(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n", handler)

	if sender == nil {
		t.Error("handler should see the transport's notification sender")
	}
}

func TestStdioEOF(t *testing.T) {
	s := NewStdio(WithStdin(strings.NewReader("")), WithStdout(io.Discard))

	if err := s.Serve(context.Background(), echoHandler()); err != nil {
		t.Errorf("Serve() on EOF error = %v, want nil", err)
	}
}

func TestStdioAddr(t *testing.T) {
	if got := NewStdio().Addr(); got != "stdio" {
		t.Errorf("Addr() = %q, want stdio", got)
	}
}
