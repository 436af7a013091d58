package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/cliforge/mcp-adapter/protocol"
)

// ProgressToken is a client-supplied identifier correlating a sequence
// of progress notifications with one invocation.
type ProgressToken string

// StreamEvent is one of the three progress event variants a handler can
// emit: StartEvent, StepEvent, or ProgressEvent.
type StreamEvent interface {
	streamEvent()
}

// StartEvent marks the beginning of a command execution.
type StartEvent struct {
	Command   string
	Timestamp time.Time
}

// StepEvent reports a named step transitioning to a status, with an
// optional duration in milliseconds.
type StepEvent struct {
	Name       string
	Status     string
	DurationMS *int64
}

// ProgressEvent reports numeric progress, optionally against a total,
// with an optional message.
type ProgressEvent struct {
	Current float64
	Total   *float64
	Message string
}

func (StartEvent) streamEvent()    {}
func (StepEvent) streamEvent()     {}
func (ProgressEvent) streamEvent() {}

// ProgressReporter bridges stream events to protocol progress
// notifications keyed by the client's progress token. Exactly one
// notification is emitted per event, in call order. The numeric
// progress value is monotonic across event kinds: a step event carries
// the last numeric progress forward instead of resetting it.
//
// All methods are safe on a nil receiver, so handlers can report
// unconditionally.
type ProgressReporter struct {
	token    ProgressToken
	notifier NotificationSender
	mu       sync.Mutex
	last     float64
}

// NewProgressReporter creates a reporter for the given token. A reporter
// with an empty token or nil notifier silently drops events.
func NewProgressReporter(token ProgressToken, notifier NotificationSender) *ProgressReporter {
	return &ProgressReporter{
		token:    token,
		notifier: notifier,
	}
}

// Token returns the progress token, or empty when no progress tracking
// was requested.
func (p *ProgressReporter) Token() ProgressToken {
	if p == nil {
		return ""
	}
	return p.token
}

// Emit sends one protocol progress notification for the event.
func (p *ProgressReporter) Emit(ev StreamEvent) error {
	if p == nil || p.token == "" || p.notifier == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	params := map[string]any{
		"progressToken": string(p.token),
	}

	switch e := ev.(type) {
	case StartEvent:
		p.last = 0
		params["progress"] = 0.0
		params["message"] = "[start] " + e.Command

	case StepEvent:
		msg := fmt.Sprintf("[step] %s: %s", e.Name, e.Status)
		if e.DurationMS != nil {
			msg += fmt.Sprintf(" (%dms)", *e.DurationMS)
		}
		params["progress"] = p.last
		params["message"] = msg

	case ProgressEvent:
		p.last = e.Current
		params["progress"] = e.Current
		if e.Total != nil {
			params["total"] = *e.Total
		}
		if e.Message != "" {
			params["message"] = e.Message
		}

	default:
		return fmt.Errorf("unknown stream event type %T", ev)
	}

	return p.notifier.SendNotification(protocol.MethodProgress, params)
}

// Start emits a StartEvent for the given command.
func (p *ProgressReporter) Start(command string) error {
	return p.Emit(StartEvent{Command: command, Timestamp: time.Now()})
}

// Step emits a StepEvent. Pass a negative duration to omit it.
func (p *ProgressReporter) Step(name, status string, durationMS int64) error {
	ev := StepEvent{Name: name, Status: status}
	if durationMS >= 0 {
		ev.DurationMS = &durationMS
	}
	return p.Emit(ev)
}

// Progress emits a ProgressEvent. Pass a nil total when unknown.
func (p *ProgressReporter) Progress(current float64, total *float64, message string) error {
	return p.Emit(ProgressEvent{Current: current, Total: total, Message: message})
}
