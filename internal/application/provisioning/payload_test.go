package provisioning

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	t.Run("tax rate from string, float and json number", func(t *testing.T) {
		for _, rate := range []any{"7.25", 7.25, json.Number("7.25")} {
			payload, err := DecodePayload(provisioning.EntityTaxRule, map[string]any{
				"countryCode": "US",
				"taxRate":     rate,
			})
			require.NoError(t, err)
			p := payload.(*TaxRulePayload)
			require.NotNil(t, p.TaxRate)
			assert.Equal(t, "7.25", p.TaxRate.String())
		}
	})

	t.Run("malformed decimal is an invalid input error", func(t *testing.T) {
		_, err := DecodePayload(provisioning.EntityTaxRule, map[string]any{
			"countryCode": "US",
			"taxRate":     "seven",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("product payload with uuid and optional variant fields", func(t *testing.T) {
		unitID := uuid.New()
		payload, err := DecodePayload(provisioning.EntityProductTemplate, map[string]any{
			"name":            "Milk",
			"unitOfMeasureId": unitID.String(),
			"requiresExpiry":  "true",
			"reorderPoint":    json.Number("12"),
		})
		require.NoError(t, err)
		p := payload.(*ProductTemplatePayload)
		require.NotNil(t, p.UnitOfMeasureID)
		assert.Equal(t, unitID, *p.UnitOfMeasureID)
		assert.True(t, p.RequiresExpiry)
		assert.Equal(t, "12", p.ReorderPoint.String())
		assert.False(t, p.HasVariantFields())
		assert.True(t, p.HasUnitOfMeasure())
	})

	t.Run("unit reference prefers unitOfMeasureCode", func(t *testing.T) {
		payload, err := DecodePayload(provisioning.EntityProductTemplate, map[string]any{
			"name":              "Milk",
			"unitOfMeasureCode": "L",
			"uomCode":           "EA",
		})
		require.NoError(t, err)
		assert.Equal(t, "L", payload.(*ProductTemplatePayload).UnitOfMeasureRef())
	})

	t.Run("category isActive is optional", func(t *testing.T) {
		payload, err := DecodePayload(provisioning.EntityCategory, map[string]any{"code": "A", "name": "A"})
		require.NoError(t, err)
		assert.Nil(t, payload.(*CategoryPayload).IsActive)

		payload, err = DecodePayload(provisioning.EntityCategory, map[string]any{"code": "A", "name": "A", "isActive": false})
		require.NoError(t, err)
		require.NotNil(t, payload.(*CategoryPayload).IsActive)
		assert.False(t, *payload.(*CategoryPayload).IsActive)
	})

	t.Run("each type decodes into its own payload", func(t *testing.T) {
		for _, entityType := range provisioning.SupportedEntityTypes {
			payload, err := DecodePayload(entityType, map[string]any{})
			require.NoError(t, err)
			assert.Equal(t, entityType, payload.EntityType())
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := DecodePayload("Warehouse", map[string]any{"code": "X"})
		assert.Error(t, err)
	})
}
