package server

import (
	"testing"

	"github.com/cliforge/mcp-adapter/protocol"
)

func TestSeverityMapping(t *testing.T) {
	tests := []struct {
		severity Severity
		want     LogLevel
	}{
		{SeverityTrace, LogLevelDebug},
		{SeverityDebug, LogLevelDebug},
		{SeverityInfo, LogLevelInfo},
		{SeverityWarn, LogLevelWarning},
		{SeverityError, LogLevelError},
		{SeverityFatal, LogLevelEmergency},
		{Severity("mystery"), LogLevelError},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			if got := tt.severity.LogLevel(); got != tt.want {
				t.Errorf("LogLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name    string
		message LogLevel
		min     LogLevel
		want    bool
	}{
		{"equal levels", LogLevelWarning, LogLevelWarning, true},
		{"above threshold", LogLevelError, LogLevelWarning, true},
		{"below threshold", LogLevelInfo, LogLevelWarning, false},
		{"debug at debug", LogLevelDebug, LogLevelDebug, true},
		{"emergency always", LogLevelEmergency, LogLevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldLog(tt.message, tt.min); got != tt.want {
				t.Errorf("ShouldLog(%q, %q) = %v, want %v", tt.message, tt.min, got, tt.want)
			}
		})
	}
}

func TestSendLogMessageRequiresOptIn(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})
	notifier := &mockNotifier{}
	srv.Bind(notifier)

	if err := srv.SendLogMessage(SeverityError, "before opt-in", "app"); err != nil {
		t.Fatalf("SendLogMessage() error = %v", err)
	}
	if notifier.count() != 0 {
		t.Error("no messages may be forwarded before the client sets a level")
	}

	srv.SetLogLevel(LogLevelWarning)

	if err := srv.SendLogMessage(SeverityError, "after opt-in", "app"); err != nil {
		t.Fatalf("SendLogMessage() error = %v", err)
	}

	sent := notifier.notifications()
	if len(sent) != 1 {
		t.Fatalf("notification count = %d, want 1", len(sent))
	}
	if sent[0].method != protocol.MethodLogMessage {
		t.Errorf("method = %q, want %q", sent[0].method, protocol.MethodLogMessage)
	}
	msg := sent[0].params.(LoggingMessage)
	if msg.Level != LogLevelError {
		t.Errorf("level = %q, want %q", msg.Level, LogLevelError)
	}
	if msg.Logger != "app" {
		t.Errorf("logger = %q, want %q", msg.Logger, "app")
	}
	if msg.Data != "after opt-in" {
		t.Errorf("data = %v", msg.Data)
	}
}

func TestSendLogMessageThresholdFiltering(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})
	notifier := &mockNotifier{}
	srv.Bind(notifier)
	srv.SetLogLevel(LogLevelWarning)

	if err := srv.SendLogMessage(SeverityDebug, "noise", ""); err != nil {
		t.Fatalf("SendLogMessage() error = %v", err)
	}
	if err := srv.SendLogMessage(SeverityInfo, "still noise", ""); err != nil {
		t.Fatalf("SendLogMessage() error = %v", err)
	}
	if notifier.count() != 0 {
		t.Error("messages below the threshold must be dropped")
	}

	if err := srv.SendLogMessage(SeverityWarn, "kept", ""); err != nil {
		t.Fatalf("SendLogMessage() error = %v", err)
	}
	if err := srv.SendLogMessage(SeverityFatal, "kept too", ""); err != nil {
		t.Fatalf("SendLogMessage() error = %v", err)
	}
	if notifier.count() != 2 {
		t.Errorf("notification count = %d, want 2", notifier.count())
	}
}

func TestRebindResetsLogThreshold(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})
	srv.Bind(&mockNotifier{})
	srv.SetLogLevel(LogLevelDebug)

	if _, ok := srv.LogThreshold(); !ok {
		t.Fatal("threshold should be set after SetLogLevel")
	}

	second := &mockNotifier{}
	srv.Bind(second)

	if _, ok := srv.LogThreshold(); ok {
		t.Error("rebinding must reset the log threshold")
	}

	if err := srv.SendLogMessage(SeverityError, "dropped", ""); err != nil {
		t.Fatalf("SendLogMessage() error = %v", err)
	}
	if second.count() != 0 {
		t.Error("new binding must opt back in before receiving log messages")
	}
}

func TestSendLogMessageWithoutBinding(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})
	srv.SetLogLevel(LogLevelDebug)

	if err := srv.SendLogMessage(SeverityError, "nowhere to go", ""); err != nil {
		t.Errorf("SendLogMessage() without binding error = %v", err)
	}
}
