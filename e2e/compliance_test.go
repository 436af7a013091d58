// Package e2e exercises the full wire path: JSON-RPC requests written
// to a stdio transport, dispatched through the adapter, responses and
// notifications read back from the output stream.
package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	mcpadapter "github.com/cliforge/mcp-adapter"
	"github.com/cliforge/mcp-adapter/protocol"
	"github.com/cliforge/mcp-adapter/server"
	"github.com/cliforge/mcp-adapter/transport"
)

type convertInput struct {
	Value float64 `json:"value" jsonschema:"required"`
	Unit  string  `json:"unit" jsonschema:"required"`
}

// newComplianceServer builds a server covering every protocol surface:
// tools, exact and templated resources, prompts with completion,
// logging, progress, and a tool that emits a resource-updated
// notification so the wire path for subscriptions is observable.
func newComplianceServer() *server.Server {
	srv := mcpadapter.NewServer(mcpadapter.ServerInfo{
		Name:    "compliance",
		Version: "1.0.0",
		Capabilities: mcpadapter.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
			Logging:   true,
		},
	})

	srv.Tool("convert").
		Description("Convert a temperature value").
		Handler(func(input convertInput) (string, error) {
			if input.Unit == "F" {
				return fmt.Sprintf("%.1fC", (input.Value-32)*5/9), nil
			}
			return fmt.Sprintf("%.1fF", input.Value*9/5+32), nil
		})

	srv.Tool("long_task").
		Description("A task that reports progress").
		Handler(func(ctx context.Context, _ struct{}) (string, error) {
			progress := server.ProgressFromContext(ctx)
			progress.Start("long_task")
			total := 2.0
			progress.Progress(1, &total, "halfway")
			progress.Progress(2, &total, "done")
			return "finished", nil
		})

	srv.Resource("status://health").
		Name("health").
		MimeType("application/json").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*server.ResourceContent, error) {
			return &server.ResourceContent{URI: uri, MimeType: "application/json", Text: `{"ok":true}`}, nil
		})

	srv.ResourceTemplate("logs://{service}/{date}").
		Name("service logs").
		Handler(func(_ context.Context, uri string, vars map[string]string) (*server.ResourceContent, error) {
			return &server.ResourceContent{
				URI:      uri,
				MimeType: "text/plain",
				Text:     vars["service"] + " logs for " + vars["date"],
			}, nil
		})

	srv.Tool("touch_health").
		Description("Emit a health resource update").
		Handler(func(_ context.Context, _ struct{}) (string, error) {
			_ = srv.NotifyResourceUpdated("status://health")
			return "touched", nil
		})

	srv.Tool("log_warning").
		Description("Forward a warning log message").
		Handler(func(_ context.Context, _ struct{}) (string, error) {
			_ = srv.SendLogMessage(server.SeverityWarn, "something looks off", "compliance")
			return "logged", nil
		})

	srv.Prompt("explain").
		Description("Explain a concept").
		Argument("concept", "concept to explain", true).
		Completer("concept", func(_ context.Context, value string) ([]string, error) {
			var out []string
			for _, v := range []string{"goroutines", "channels", "contexts"} {
				if strings.HasPrefix(v, value) {
					out = append(out, v)
				}
			}
			return out, nil
		}).
		Handler(func(_ context.Context, args map[string]string) (*server.PromptResult, error) {
			return &server.PromptResult{
				Messages: []server.PromptMessage{
					{Role: "user", Content: server.TextContent{Type: "text", Text: "Explain " + args["concept"]}},
				},
			}, nil
		})

	return srv
}

// wireMessage is either a response (ID set) or a notification (Method
// set) read off the output stream.
type wireMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *protocol.Error `json:"error,omitempty"`
}

type session struct {
	responses     map[string]wireMessage
	notifications []wireMessage
}

// runSession writes the requests to a stdio transport, serves until
// EOF, and splits the output into responses keyed by ID and an ordered
// notification stream.
func runSession(t *testing.T, srv *server.Server, requests []string) *session {
	t.Helper()

	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	out := &bytes.Buffer{}

	tr := transport.NewStdio(
		transport.WithStdin(in),
		transport.WithStdout(out),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tr.Serve(ctx, mcpadapter.NewRequestHandler(srv)); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	s := &session{responses: make(map[string]wireMessage)}
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var msg wireMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			t.Fatalf("invalid output line %q: %v", scanner.Text(), err)
		}
		if len(msg.ID) > 0 {
			s.responses[string(msg.ID)] = msg
		} else {
			s.notifications = append(s.notifications, msg)
		}
	}
	return s
}

func (s *session) response(t *testing.T, id string) wireMessage {
	t.Helper()
	msg, ok := s.responses[id]
	if !ok {
		t.Fatalf("no response with id %s", id)
	}
	return msg
}

func (s *session) result(t *testing.T, id string) map[string]any {
	t.Helper()
	msg := s.response(t, id)
	if msg.Error != nil {
		t.Fatalf("response %s is an error: %v", id, msg.Error)
	}
	var result map[string]any
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("invalid result for %s: %v", id, err)
	}
	return result
}

func (s *session) notificationsFor(method string) []wireMessage {
	var out []wireMessage
	for _, n := range s.notifications {
		if n.Method == method {
			out = append(out, n)
		}
	}
	return out
}

func mapValues(m map[string]wireMessage) []wireMessage {
	out := make([]wireMessage, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func initRequest(id int) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"e2e","version":"1.0.0"}}}`, id)
}

func TestComplianceLifecycle(t *testing.T) {
	s := runSession(t, newComplianceServer(), []string{
		initRequest(1),
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	})

	init := s.result(t, "1")
	if init["protocolVersion"] != protocol.MCPVersion {
		t.Errorf("protocolVersion = %v", init["protocolVersion"])
	}
	serverInfo := init["serverInfo"].(map[string]any)
	if serverInfo["name"] != "compliance" {
		t.Errorf("serverInfo.name = %v", serverInfo["name"])
	}
	caps := init["capabilities"].(map[string]any)
	for _, name := range []string{"tools", "resources", "prompts", "logging"} {
		if _, ok := caps[name]; !ok {
			t.Errorf("capabilities missing %q", name)
		}
	}

	if result := s.result(t, "2"); len(result) != 0 {
		t.Errorf("ping result = %v, want empty", result)
	}
}

func TestComplianceTools(t *testing.T) {
	s := runSession(t, newComplianceServer(), []string{
		initRequest(1),
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"convert","arguments":{"value":212,"unit":"F"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"convert","arguments":{"value":"hot"}}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"does_not_exist","arguments":{}}}`,
	})

	tools := s.result(t, "2")["tools"].([]any)
	if len(tools) != 4 {
		t.Fatalf("tool count = %d, want 4", len(tools))
	}
	first := tools[0].(map[string]any)
	if first["inputSchema"] == nil {
		t.Error("listed tool should carry an input schema")
	}

	call := s.result(t, "3")
	content := call["content"].([]any)[0].(map[string]any)
	if content["text"] != "100.0C" {
		t.Errorf("convert result = %v", content["text"])
	}

	if msg := s.response(t, "4"); msg.Error == nil || msg.Error.Code != protocol.CodeInvalidParams {
		t.Errorf("validation error = %v, want invalid params", msg.Error)
	}
	if msg := s.response(t, "5"); msg.Error == nil || msg.Error.Code != protocol.CodeNotFound {
		t.Errorf("unknown tool error = %v, want not found", msg.Error)
	}
}

func TestComplianceResources(t *testing.T) {
	s := runSession(t, newComplianceServer(), []string{
		initRequest(1),
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"status://health"}}`,
		`{"jsonrpc":"2.0","id":4,"method":"resources/templates/list"}`,
		`{"jsonrpc":"2.0","id":5,"method":"resources/read","params":{"uri":"logs://api/2026-08-25"}}`,
		`{"jsonrpc":"2.0","id":6,"method":"resources/read","params":{"uri":"nothing://here"}}`,
	})

	resources := s.result(t, "2")["resources"].([]any)
	if len(resources) != 1 {
		t.Fatalf("resource count = %d, want 1", len(resources))
	}

	read := s.result(t, "3")["contents"].([]any)[0].(map[string]any)
	if read["text"] != `{"ok":true}` {
		t.Errorf("health content = %v", read["text"])
	}

	templates := s.result(t, "4")["resourceTemplates"].([]any)
	if len(templates) != 1 {
		t.Fatalf("template count = %d, want 1", len(templates))
	}
	if tmpl := templates[0].(map[string]any); tmpl["uriTemplate"] != "logs://{service}/{date}" {
		t.Errorf("uriTemplate = %v", tmpl["uriTemplate"])
	}

	logsRead := s.result(t, "5")["contents"].([]any)[0].(map[string]any)
	if logsRead["text"] != "api logs for 2026-08-25" {
		t.Errorf("template content = %v", logsRead["text"])
	}

	if msg := s.response(t, "6"); msg.Error == nil || msg.Error.Code != protocol.CodeNotFound {
		t.Errorf("unknown uri error = %v, want not found", msg.Error)
	}
}

func TestComplianceSubscriptions(t *testing.T) {
	s := runSession(t, newComplianceServer(), []string{
		initRequest(1),
		`{"jsonrpc":"2.0","id":2,"method":"resources/subscribe","params":{"uri":"status://health"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"touch_health","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"resources/unsubscribe","params":{"uri":"status://health"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"touch_health","arguments":{}}}`,
	})

	s.result(t, "2")
	s.result(t, "3")
	s.result(t, "4")
	s.result(t, "5")

	updates := s.notificationsFor(protocol.MethodResourceUpdated)
	if len(updates) != 1 {
		t.Fatalf("resource update count = %d, want 1 (only while subscribed)", len(updates))
	}
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(updates[0].Params, &params); err != nil {
		t.Fatalf("invalid update params: %v", err)
	}
	if params.URI != "status://health" {
		t.Errorf("update uri = %q", params.URI)
	}
}

func TestCompliancePrompts(t *testing.T) {
	s := runSession(t, newComplianceServer(), []string{
		initRequest(1),
		`{"jsonrpc":"2.0","id":2,"method":"prompts/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"prompts/get","params":{"name":"explain","arguments":{"concept":"channels"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"prompts/get","params":{"name":"explain"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"completion/complete","params":{"ref":{"type":"ref/prompt","name":"explain"},"argument":{"name":"concept","value":"ch"}}}`,
	})

	prompts := s.result(t, "2")["prompts"].([]any)
	if len(prompts) != 1 {
		t.Fatalf("prompt count = %d, want 1", len(prompts))
	}

	messages := s.result(t, "3")["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("message count = %d, want 1", len(messages))
	}
	msgContent := messages[0].(map[string]any)["content"].(map[string]any)
	if msgContent["text"] != "Explain channels" {
		t.Errorf("prompt text = %v", msgContent["text"])
	}

	if msg := s.response(t, "4"); msg.Error == nil || msg.Error.Code != protocol.CodeInvalidParams {
		t.Errorf("missing argument error = %v, want invalid params", msg.Error)
	}

	completion := s.result(t, "5")["completion"].(map[string]any)
	values := completion["values"].([]any)
	if len(values) != 1 || values[0] != "channels" {
		t.Errorf("completion values = %v, want [channels]", values)
	}
}

func TestComplianceLogging(t *testing.T) {
	t.Run("forwarded after opt in", func(t *testing.T) {
		s := runSession(t, newComplianceServer(), []string{
			initRequest(1),
			`{"jsonrpc":"2.0","id":2,"method":"logging/setLevel","params":{"level":"info"}}`,
			`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"log_warning","arguments":{}}}`,
		})

		s.result(t, "2")
		s.result(t, "3")

		messages := s.notificationsFor(protocol.MethodLogMessage)
		if len(messages) != 1 {
			t.Fatalf("log message count = %d, want 1", len(messages))
		}
		var params server.LoggingMessage
		if err := json.Unmarshal(messages[0].Params, &params); err != nil {
			t.Fatalf("invalid log params: %v", err)
		}
		if params.Level != server.LogLevelWarning {
			t.Errorf("level = %v, want warning", params.Level)
		}
	})

	t.Run("dropped without opt in", func(t *testing.T) {
		s := runSession(t, newComplianceServer(), []string{
			initRequest(1),
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"log_warning","arguments":{}}}`,
		})

		s.result(t, "2")
		if got := s.notificationsFor(protocol.MethodLogMessage); len(got) != 0 {
			t.Errorf("log message count = %d, want 0 before setLevel", len(got))
		}
	})
}

func TestComplianceProgress(t *testing.T) {
	s := runSession(t, newComplianceServer(), []string{
		initRequest(1),
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"long_task","arguments":{},"_meta":{"progressToken":"tok-1"}}}`,
	})

	s.result(t, "2")

	progress := s.notificationsFor(protocol.MethodProgress)
	if len(progress) != 3 {
		t.Fatalf("progress count = %d, want 3", len(progress))
	}
	var last struct {
		ProgressToken string  `json:"progressToken"`
		Progress      float64 `json:"progress"`
		Total         float64 `json:"total"`
	}
	if err := json.Unmarshal(progress[len(progress)-1].Params, &last); err != nil {
		t.Fatalf("invalid progress params: %v", err)
	}
	if last.ProgressToken != "tok-1" {
		t.Errorf("progressToken = %q", last.ProgressToken)
	}
	if last.Progress != 2 || last.Total != 2 {
		t.Errorf("final progress = %v/%v, want 2/2", last.Progress, last.Total)
	}
}

func TestComplianceProtocolErrors(t *testing.T) {
	s := runSession(t, newComplianceServer(), []string{
		initRequest(1),
		"this is not json",
		`{"jsonrpc":"2.0","id":3,"method":"no/such/method"}`,
	})

	// A parse error response carries a null ID, so it lands in the
	// notification stream when splitting by ID.
	var parseErrors int
	for _, msg := range append(s.notifications, mapValues(s.responses)...) {
		if msg.Error != nil && msg.Error.Code == protocol.CodeParseError {
			parseErrors++
		}
	}
	if parseErrors != 1 {
		t.Errorf("parse error count = %d, want 1", parseErrors)
	}

	if msg := s.response(t, "3"); msg.Error == nil || msg.Error.Code != protocol.CodeMethodNotFound {
		t.Errorf("error = %v, want method not found", msg.Error)
	}
}
