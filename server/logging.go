package server

import (
	"github.com/cliforge/mcp-adapter/protocol"
)

// LogLevel represents protocol logging levels. These follow syslog
// severity levels per the MCP specification.
type LogLevel string

const (
	LogLevelDebug     LogLevel = "debug"
	LogLevelInfo      LogLevel = "info"
	LogLevelNotice    LogLevel = "notice"
	LogLevelWarning   LogLevel = "warning"
	LogLevelError     LogLevel = "error"
	LogLevelCritical  LogLevel = "critical"
	LogLevelAlert     LogLevel = "alert"
	LogLevelEmergency LogLevel = "emergency"
)

// Severity is an internal log severity emitted by application code,
// mapped onto protocol levels before forwarding.
type Severity string

const (
	SeverityTrace Severity = "trace"
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
	SeverityFatal Severity = "fatal"
)

// severityLevels is the fixed internal-to-protocol severity table.
var severityLevels = map[Severity]LogLevel{
	SeverityTrace: LogLevelDebug,
	SeverityDebug: LogLevelDebug,
	SeverityInfo:  LogLevelInfo,
	SeverityWarn:  LogLevelWarning,
	SeverityError: LogLevelError,
	SeverityFatal: LogLevelEmergency,
}

// LogLevel maps the internal severity to its protocol level. Unknown
// severities map to error as a conservative default.
func (s Severity) LogLevel() LogLevel {
	if level, ok := severityLevels[s]; ok {
		return level
	}
	return LogLevelError
}

// LoggingMessage is a log message forwarded to the client.
type LoggingMessage struct {
	Level  LogLevel `json:"level"`
	Logger string   `json:"logger,omitempty"`
	Data   any      `json:"data"`
}

// SetLevelRequest is sent by the client to set the logging level.
type SetLevelRequest struct {
	Level LogLevel `json:"level"`
}

// ParseLogLevel validates a client-supplied level string.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch level := LogLevel(s); level {
	case LogLevelDebug, LogLevelInfo, LogLevelNotice, LogLevelWarning,
		LogLevelError, LogLevelCritical, LogLevelAlert, LogLevelEmergency:
		return level, true
	default:
		return "", false
	}
}

// logLevelPriority returns the priority of a log level (higher = more
// severe).
func logLevelPriority(level LogLevel) int {
	switch level {
	case LogLevelDebug:
		return 0
	case LogLevelInfo:
		return 1
	case LogLevelNotice:
		return 2
	case LogLevelWarning:
		return 3
	case LogLevelError:
		return 4
	case LogLevelCritical:
		return 5
	case LogLevelAlert:
		return 6
	case LogLevelEmergency:
		return 7
	default:
		return 0
	}
}

// ShouldLog returns true if a message at the given level should be
// forwarded given the current minimum level.
func ShouldLog(messageLevel, minLevel LogLevel) bool {
	return logLevelPriority(messageLevel) >= logLevelPriority(minLevel)
}

// SetLogLevel records the client's log-forwarding threshold. Until the
// client calls this, no log messages are forwarded at all: forwarding
// is opt-in, not opt-out.
func (s *Server) SetLogLevel(level LogLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logLevel = &level
}

// LogThreshold returns the current threshold and whether the client has
// set one.
func (s *Server) LogThreshold() (LogLevel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logLevel == nil {
		return "", false
	}
	return *s.logLevel, true
}

// SendLogMessage forwards a log message to the client. The message is
// dropped unless a transport is bound, the client has set a threshold,
// and the mapped level meets it.
func (s *Server) SendLogMessage(severity Severity, data any, loggerName string) error {
	s.mu.RLock()
	notifier := s.notifier
	threshold := s.logLevel
	s.mu.RUnlock()

	if notifier == nil || threshold == nil {
		return nil
	}

	level := severity.LogLevel()
	if !ShouldLog(level, *threshold) {
		return nil
	}

	return notifier.SendNotification(protocol.MethodLogMessage, LoggingMessage{
		Level:  level,
		Logger: loggerName,
		Data:   data,
	})
}
