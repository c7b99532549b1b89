package event

import (
	"testing"

	"github.com/erp/provisioner/internal/domain/organization"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newRecordingHandler()

	registry.Register(handler, provisioning.EventTypeTemplateCreated, provisioning.EventTypeTemplateUpdated)

	assert.Len(t, registry.GetHandlers(provisioning.EventTypeTemplateCreated), 1)
	assert.Len(t, registry.GetHandlers(provisioning.EventTypeTemplateUpdated), 1)
	assert.Empty(t, registry.GetHandlers(provisioning.EventTypeTemplateDeleted))
}

func TestHandlerRegistry_RegisterTwiceIsNoop(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newRecordingHandler()

	registry.Register(handler, provisioning.EventTypeTemplateApplied)
	registry.Register(handler, provisioning.EventTypeTemplateApplied)
	registry.Register(handler)
	registry.Register(handler)

	handlers := registry.GetHandlers(provisioning.EventTypeTemplateApplied)
	require.Len(t, handlers, 1)
	assert.Same(t, handler, handlers[0])
	assert.Equal(t, 1, registry.Len())
}

func TestHandlerRegistry_WildcardAfterTyped(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := newRecordingHandler()
	wildcard := newRecordingHandler()

	registry.Register(wildcard)
	registry.Register(typed, organization.EventTypeOrganizationCreated)

	handlers := registry.GetHandlers(organization.EventTypeOrganizationCreated)
	require.Len(t, handlers, 2)
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])

	handlers = registry.GetHandlers(provisioning.EventTypeTemplateDeleted)
	require.Len(t, handlers, 1)
	assert.Same(t, wildcard, handlers[0])
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	first := newRecordingHandler()
	second := newRecordingHandler()
	wildcard := newRecordingHandler()

	registry.Register(first, provisioning.EventTypeTemplateApplied, provisioning.EventTypeTemplateApplyFailed)
	registry.Register(second, provisioning.EventTypeTemplateApplied)
	registry.Register(wildcard)
	assert.Equal(t, 3, registry.Len())

	registry.Unregister(first)
	registry.Unregister(wildcard)

	handlers := registry.GetHandlers(provisioning.EventTypeTemplateApplied)
	require.Len(t, handlers, 1)
	assert.Same(t, second, handlers[0])
	assert.Empty(t, registry.GetHandlers(provisioning.EventTypeTemplateApplyFailed))
	assert.Equal(t, 1, registry.Len())
}
