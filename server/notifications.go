package server

import (
	"github.com/cliforge/mcp-adapter/protocol"
)

// Bind attaches (or replaces) the transport binding used for outbound
// notifications. Rebinding models a client reconnect: the log-forwarding
// threshold is reset to unset, so the new client must opt back in via
// logging/setLevel. Subscriptions survive a rebind. Binding nil detaches
// the transport and turns every notification path into a no-op.
func (s *Server) Bind(notifier NotificationSender) {
	s.mu.Lock()
	s.notifier = notifier
	s.logLevel = nil
	s.mu.Unlock()

	s.logger.Debug("transport binding replaced", "bound", notifier != nil)
}

// boundNotifier returns the current transport binding, or nil.
func (s *Server) boundNotifier() NotificationSender {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifier
}

// NotifyResourceUpdated emits a resource-updated notification. It is a
// no-op unless the URI is currently subscribed and a transport is bound.
func (s *Server) NotifyResourceUpdated(uri string) error {
	if !s.subscriptions.Contains(uri) {
		return nil
	}

	notifier := s.boundNotifier()
	if notifier == nil {
		return nil
	}

	return notifier.SendNotification(protocol.MethodResourceUpdated, ResourceUpdatedNotification{URI: uri})
}

// NotifyToolsListChanged broadcasts that the tool registry changed.
// List-changed notifications are unconditional: they require only a
// bound transport, with no subscription gating.
func (s *Server) NotifyToolsListChanged() error {
	return s.broadcast(protocol.MethodToolsListChanged)
}

// NotifyResourcesListChanged broadcasts that the resource registry
// changed.
func (s *Server) NotifyResourcesListChanged() error {
	return s.broadcast(protocol.MethodResourcesListChanged)
}

// NotifyPromptsListChanged broadcasts that the prompt registry changed.
func (s *Server) NotifyPromptsListChanged() error {
	return s.broadcast(protocol.MethodPromptsListChanged)
}

func (s *Server) broadcast(method string) error {
	notifier := s.boundNotifier()
	if notifier == nil {
		return nil
	}
	return notifier.SendNotification(method, struct{}{})
}
