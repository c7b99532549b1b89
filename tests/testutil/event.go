// Package testutil holds helpers shared by the integration tests.
package testutil

import (
	"context"
	"sync"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
)

// EventRecorder is an event handler that keeps every event it receives
type EventRecorder struct {
	mu         sync.Mutex
	eventTypes []string
	events     []shared.DomainEvent
}

// NewEventRecorder subscribes to eventTypes
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{eventTypes: eventTypes}
}

// EventTypes implements shared.EventHandler
func (r *EventRecorder) EventTypes() []string {
	return r.eventTypes
}

// Handle implements shared.EventHandler
func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Count returns the number of recorded events of eventType
func (r *EventRecorder) Count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

// Applied returns the recorded TemplateApplied events in publish order
func (r *EventRecorder) Applied() []*provisioning.TemplateAppliedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*provisioning.TemplateAppliedEvent
	for _, e := range r.events {
		if applied, ok := e.(*provisioning.TemplateAppliedEvent); ok {
			out = append(out, applied)
		}
	}
	return out
}
