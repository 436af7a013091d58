package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/cliforge/mcp-adapter/protocol"
)

func TestRecoverCatchesPanic(t *testing.T) {
	tests := []struct {
		name     string
		panicVal any
		wantMsg  string
	}{
		{"string panic", "something broke", "something broke"},
		{"error panic", errors.New("wrapped failure"), "wrapped failure"},
		{"other panic", 42, "panic: 42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Recover()(func(_ context.Context, _ *protocol.Request) (*protocol.Response, error) {
				panic(tt.panicVal)
			})

			_, err := handler(context.Background(), testRequest("tools/call"))
			var perr *protocol.Error
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *protocol.Error", err)
			}
			if perr.Code != protocol.CodeInternalError {
				t.Errorf("code = %d, want %d", perr.Code, protocol.CodeInternalError)
			}
			if perr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", perr.Message, tt.wantMsg)
			}
			if perr.Data.(map[string]any)["thrown"] != true {
				t.Error("recovered panic should be marked as thrown")
			}
		})
	}
}

func TestRecoverPassthrough(t *testing.T) {
	handler := Recover()(okHandler)
	resp, err := handler(context.Background(), testRequest("ping"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if resp.Result != "ok" {
		t.Errorf("result = %v", resp.Result)
	}
}

func TestRecoverWithCustomHandler(t *testing.T) {
	handler := RecoverWithHandler(func(_ context.Context, req *protocol.Request, _ any) (*protocol.Response, error) {
		return protocol.NewResponse(req.ID, "recovered"), nil
	})(func(_ context.Context, _ *protocol.Request) (*protocol.Response, error) {
		panic("boom")
	})

	resp, err := handler(context.Background(), testRequest("ping"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if resp.Result != "recovered" {
		t.Errorf("result = %v, want the custom handler's response", resp.Result)
	}
}
