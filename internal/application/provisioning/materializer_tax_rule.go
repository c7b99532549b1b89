package provisioning

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
)

// TaxRuleMaterializer creates one tax rule per country and organization.
type TaxRuleMaterializer struct{}

func (m *TaxRuleMaterializer) EntityType() provisioning.EntityType {
	return provisioning.EntityTaxRule
}

func (m *TaxRuleMaterializer) Materialize(ctx context.Context, run *RunContext, payload Payload) (Decision, error) {
	p, ok := payload.(*TaxRulePayload)
	if !ok {
		return Decision{}, unexpectedPayload(provisioning.EntityTaxRule, payload)
	}
	if strings.TrimSpace(p.CountryCode) == "" {
		return Decision{}, missingField(provisioning.EntityTaxRule, "countryCode")
	}
	if p.TaxRate == nil {
		return Decision{}, missingField(provisioning.EntityTaxRule, "taxRate")
	}

	orgID := run.Organization.ID
	repo := run.Repos.TaxRuleRepo()
	existing, err := repo.FindByCountryCode(ctx, orgID, catalog.NormalizeCode(p.CountryCode))
	if err == nil {
		return Skipped(existing.ID, "tax rule already exists"), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Decision{}, err
	}

	rule, err := catalog.NewTaxRule(orgID, p.CountryCode, *p.TaxRate)
	if err != nil {
		return Decision{}, err
	}
	rule.SetDescription(p.Description)
	if err := repo.Save(ctx, rule); err != nil {
		return Decision{}, err
	}
	return Processed(rule.ID), nil
}
