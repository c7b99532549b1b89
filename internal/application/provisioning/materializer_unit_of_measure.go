package provisioning

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
)

// UnitOfMeasureMaterializer creates units of measure and registers their codes.
type UnitOfMeasureMaterializer struct{}

func (m *UnitOfMeasureMaterializer) EntityType() provisioning.EntityType {
	return provisioning.EntityUnitOfMeasure
}

func (m *UnitOfMeasureMaterializer) Materialize(ctx context.Context, run *RunContext, payload Payload) (Decision, error) {
	p, ok := payload.(*UnitOfMeasurePayload)
	if !ok {
		return Decision{}, unexpectedPayload(provisioning.EntityUnitOfMeasure, payload)
	}
	if strings.TrimSpace(p.Code) == "" {
		return Decision{}, missingField(provisioning.EntityUnitOfMeasure, "code")
	}
	if strings.TrimSpace(p.Name) == "" {
		return Decision{}, missingField(provisioning.EntityUnitOfMeasure, "name")
	}

	orgID := run.Organization.ID
	repo := run.Repos.UnitOfMeasureRepo()
	existing, err := repo.FindByCode(ctx, orgID, catalog.NormalizeCode(p.Code))
	if err == nil {
		return Skipped(existing.ID, "unit of measure already exists"), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Decision{}, err
	}

	unit, err := catalog.NewUnitOfMeasure(orgID, p.Code, p.Name)
	if err != nil {
		return Decision{}, err
	}
	unit.SetDescription(p.Description)
	if err := repo.Save(ctx, unit); err != nil {
		return Decision{}, err
	}
	run.Refs.Register(provisioning.EntityUnitOfMeasure, unit.Code, unit.ID)
	return Processed(unit.ID), nil
}
