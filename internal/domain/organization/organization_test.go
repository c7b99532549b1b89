package organization

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrganization(t *testing.T) {
	t.Run("creates organization with uppercase code", func(t *testing.T) {
		org, err := NewOrganization("acme", "Acme Retail")
		require.NoError(t, err)
		assert.Equal(t, "ACME", org.Code)
		assert.Equal(t, "Acme Retail", org.Name)
		assert.Equal(t, org.ID, org.GetTenantID())
		assert.False(t, org.HasAppliedTemplate())

		events := org.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeOrganizationCreated, events[0].EventType())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewOrganization("", "Acme")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewOrganization("AC ME", "Acme")
		assert.Error(t, err)
		_, err = NewOrganization("ACME", "")
		assert.Error(t, err)
	})
}

func TestOrganization_RecordTemplateApplied(t *testing.T) {
	org, err := NewOrganization("ACME", "Acme")
	require.NoError(t, err)
	version := org.Version

	at := time.Now()
	org.RecordTemplateApplied("RETAIL_BASIC", at)

	assert.True(t, org.HasAppliedTemplate())
	assert.Equal(t, "RETAIL_BASIC", org.AppliedTemplateCode)
	require.NotNil(t, org.AppliedAt)
	assert.True(t, org.AppliedAt.Equal(at))
	assert.Equal(t, version+1, org.Version)
}

func TestIsApplicableTemplateCode(t *testing.T) {
	assert.True(t, IsApplicableTemplateCode("RETAIL_BASIC"))
	assert.False(t, IsApplicableTemplateCode(""))
	assert.False(t, IsApplicableTemplateCode("   "))
	assert.False(t, IsApplicableTemplateCode("CUSTOM"))
	assert.False(t, IsApplicableTemplateCode("custom"))
}

func TestProvisioningRun(t *testing.T) {
	orgID := uuid.New()
	templateID := uuid.New()

	t.Run("succeed records counts", func(t *testing.T) {
		run := StartRun(orgID, "RETAIL_BASIC")
		run.Succeed(templateID, 3, 1, 0)

		assert.Equal(t, RunStatusSucceeded, run.Status)
		require.NotNil(t, run.TemplateID)
		assert.Equal(t, templateID, *run.TemplateID)
		assert.Equal(t, 3, run.Processed)
		assert.False(t, run.FinishedAt.Before(run.StartedAt))
		assert.GreaterOrEqual(t, run.Duration(), time.Duration(0))
	})

	t.Run("fail records message", func(t *testing.T) {
		run := StartRun(orgID, "MISSING")
		assert.Equal(t, time.Duration(0), run.Duration())
		run.Fail(nil, 0, 0, errors.New("Template not found: MISSING"))

		assert.Equal(t, RunStatusFailed, run.Status)
		assert.Nil(t, run.TemplateID)
		assert.Equal(t, "Template not found: MISSING", run.Message)
	})
}
