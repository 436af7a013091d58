package server

import (
	"sort"
	"sync"
)

// SubscribeRequest is sent by the client to subscribe to resource updates.
type SubscribeRequest struct {
	URI string `json:"uri"`
}

// UnsubscribeRequest is sent by the client to unsubscribe from resource
// updates.
type UnsubscribeRequest struct {
	URI string `json:"uri"`
}

// ResourceUpdatedNotification is sent when a subscribed resource changes.
type ResourceUpdatedNotification struct {
	URI string `json:"uri"`
}

// SubscriptionSet tracks the resource URIs the connected client is
// watching. Subscribe and Unsubscribe are idempotent.
type SubscriptionSet struct {
	mu   sync.RWMutex
	uris map[string]struct{}
}

// NewSubscriptionSet creates an empty subscription set.
func NewSubscriptionSet() *SubscriptionSet {
	return &SubscriptionSet{
		uris: make(map[string]struct{}),
	}
}

// Add records interest in a URI. Adding twice has no further effect.
func (s *SubscriptionSet) Add(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uris[uri] = struct{}{}
}

// Remove drops interest in a URI. Removing an absent URI is a no-op.
func (s *SubscriptionSet) Remove(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uris, uri)
}

// Contains reports whether the URI is currently subscribed.
func (s *SubscriptionSet) Contains(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.uris[uri]
	return ok
}

// URIs returns the subscribed URIs in sorted order.
func (s *SubscriptionSet) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.uris))
	for uri := range s.uris {
		result = append(result, uri)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of subscribed URIs.
func (s *SubscriptionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uris)
}

// Subscribe records the client's interest in update notifications for a
// resource URI.
func (s *Server) Subscribe(uri string) {
	s.subscriptions.Add(uri)
	s.logger.Debug("resource subscribed", "uri", uri)
}

// Unsubscribe drops the client's interest in a resource URI.
func (s *Server) Unsubscribe(uri string) {
	s.subscriptions.Remove(uri)
	s.logger.Debug("resource unsubscribed", "uri", uri)
}

// Subscriptions returns the currently subscribed URIs.
func (s *Server) Subscriptions() []string {
	return s.subscriptions.URIs()
}
