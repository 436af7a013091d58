package server

import (
	"context"
	"encoding/json"
	"sync"
)

// CancelledNotification is sent by the client to cancel an in-flight
// request.
type CancelledNotification struct {
	// RequestID is the ID of the request to cancel.
	RequestID json.RawMessage `json:"requestId"`
	// Reason is an optional human-readable reason for cancellation.
	Reason string `json:"reason,omitempty"`
}

// CancellationManager tracks in-flight invocations so a client-sent
// cancelled notification can abort them. Cancellation is advisory: the
// derived context is cancelled, and propagation into the handler's own
// suspension points is the handler's responsibility.
type CancellationManager struct {
	mu       sync.RWMutex
	requests map[string]context.CancelFunc
}

// NewCancellationManager creates a new cancellation manager.
func NewCancellationManager() *CancellationManager {
	return &CancellationManager{
		requests: make(map[string]context.CancelFunc),
	}
}

// Track starts tracking a request for potential cancellation. The
// returned cleanup must be called when the request finishes.
func (m *CancellationManager) Track(ctx context.Context, requestID string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.requests[requestID] = cancel
	m.mu.Unlock()

	return ctx, func() {
		cancel()
		m.mu.Lock()
		delete(m.requests, requestID)
		m.mu.Unlock()
	}
}

// Cancel cancels a tracked request by its ID. Returns true if the
// request was found and cancelled.
func (m *CancellationManager) Cancel(requestID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.requests[requestID]; ok {
		cancel()
		delete(m.requests, requestID)
		return true
	}
	return false
}

// InFlight returns the number of tracked requests.
func (m *CancellationManager) InFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}
