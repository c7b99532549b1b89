package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded about an aggregate. TenantID is the
// organization it concerns, uuid.Nil for global aggregates such as templates.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// AggregateRef names the aggregate an event is about.
type AggregateRef struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// EventMeta is embedded by concrete events to satisfy DomainEvent.
type EventMeta struct {
	ID        uuid.UUID    `json:"id"`
	Type      string       `json:"type"`
	At        time.Time    `json:"occurred_at"`
	Aggregate AggregateRef `json:"aggregate"`
	Tenant    uuid.UUID    `json:"tenant_id"`
}

func NewEventMeta(eventType string, aggregate AggregateRef, tenantID uuid.UUID) EventMeta {
	return EventMeta{
		ID:        uuid.New(),
		Type:      eventType,
		At:        time.Now().UTC(),
		Aggregate: aggregate,
		Tenant:    tenantID,
	}
}

func (m EventMeta) EventID() uuid.UUID     { return m.ID }
func (m EventMeta) EventType() string      { return m.Type }
func (m EventMeta) OccurredAt() time.Time  { return m.At }
func (m EventMeta) AggregateID() uuid.UUID { return m.Aggregate.ID }
func (m EventMeta) AggregateType() string  { return m.Aggregate.Type }
func (m EventMeta) TenantID() uuid.UUID    { return m.Tenant }

// EventHandler receives the event types it lists, or all of them when the
// list is empty.
type EventHandler interface {
	EventTypes() []string
	Handle(ctx context.Context, event DomainEvent) error
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers between Start and
// Stop.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
