package organization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/domain/organization"
	domainprov "github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultApplyLockTTL bounds how long one apply may hold its lock.
const DefaultApplyLockTTL = 5 * time.Minute

// TemplateApplier applies a template to an organization
type TemplateApplier interface {
	ApplyTemplate(ctx context.Context, org provisioning.OrganizationRef, templateCode string) (*provisioning.ProvisioningResult, error)
}

// OrganizationService handles organizations and the apply entry point
type OrganizationService struct {
	orgRepo organization.OrganizationRepository
	runRepo organization.ProvisioningRunRepository
	applier TemplateApplier
	locker  shared.Locker
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(
	orgRepo organization.OrganizationRepository,
	runRepo organization.ProvisioningRunRepository,
	applier TemplateApplier,
	locker shared.Locker,
	logger *zap.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
		runRepo: runRepo,
		applier: applier,
		locker:  locker,
		lockTTL: DefaultApplyLockTTL,
		logger:  logger,
	}
}

// WithLockTTL sets the apply lock lifetime
func (s *OrganizationService) WithLockTTL(ttl time.Duration) *OrganizationService {
	if ttl > 0 {
		s.lockTTL = ttl
	}
	return s
}

// Create creates an organization and applies the requested template, if any
func (s *OrganizationService) Create(ctx context.Context, req CreateOrganizationRequest) (*CreateOrganizationResponse, error) {
	exists, err := s.orgRepo.ExistsByCode(ctx, strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Organization with this code already exists")
	}

	org, err := organization.NewOrganization(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}

	resp := &CreateOrganizationResponse{Organization: ToOrganizationResponse(org)}
	if !organization.IsApplicableTemplateCode(req.TemplateCode) {
		return resp, nil
	}

	result, err := s.ApplyTemplate(ctx, org.ID, req.TemplateCode)
	if err != nil {
		s.logger.Warn("template apply after organization creation failed",
			zap.String("organization_id", org.ID.String()),
			zap.String("template_code", req.TemplateCode),
			zap.Error(err),
		)
		resp.ApplyError = err.Error()
	}
	resp.Provisioning = result
	if reloaded, err := s.orgRepo.FindByID(ctx, org.ID); err == nil {
		resp.Organization = ToOrganizationResponse(reloaded)
	}
	return resp, nil
}

// GetByID retrieves an organization
func (s *OrganizationService) GetByID(ctx context.Context, id uuid.UUID) (*OrganizationResponse, error) {
	org, err := s.findOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOrganizationResponse(org), nil
}

// ApplyTemplate applies a template to an existing organization. Concurrent
// applies of the same template to the same organization are rejected with
// APPLY_IN_PROGRESS. Every attempt after the organization lookup is recorded
// as a provisioning run.
func (s *OrganizationService) ApplyTemplate(ctx context.Context, orgID uuid.UUID, templateCode string) (*provisioning.ProvisioningResult, error) {
	templateCode = strings.TrimSpace(templateCode)
	if !organization.IsApplicableTemplateCode(templateCode) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Template code is required and cannot be CUSTOM")
	}
	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	lease, err := s.locker.TryLock(ctx, applyLockKey(orgID, templateCode), s.lockTTL)
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			return nil, domainprov.ErrApplyInProgress(templateCode)
		}
		return nil, fmt.Errorf("failed to acquire apply lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release apply lock", zap.Error(err))
		}
	}()

	run := organization.StartRun(org.ID, templateCode)
	result, applyErr := s.applier.ApplyTemplate(ctx, provisioning.OrganizationRef{ID: org.ID, Name: org.Name}, templateCode)
	if applyErr != nil {
		var templateID *uuid.UUID
		skipped, errCount := 0, 0
		if result != nil {
			templateID = &result.TemplateID
			skipped, errCount = result.SkippedCount, result.ErrorCount
		}
		run.Fail(templateID, skipped, errCount, applyErr)
		s.saveRun(ctx, run)
		return result, applyErr
	}

	run.Succeed(result.TemplateID, result.ProcessedCount, result.SkippedCount, result.ErrorCount)
	org.RecordTemplateApplied(templateCode, run.FinishedAt)
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}
	s.saveRun(ctx, run)
	return result, nil
}

// ListRuns lists the apply history of an organization, newest first
func (s *OrganizationService) ListRuns(ctx context.Context, orgID uuid.UUID, filter RunListFilter) ([]ProvisioningRunResponse, int64, error) {
	if _, err := s.findOrganization(ctx, orgID); err != nil {
		return nil, 0, err
	}
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	runs, total, err := s.runRepo.FindByOrganization(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProvisioningRunResponse, len(runs))
	for i := range runs {
		out[i] = ToProvisioningRunResponse(&runs[i])
	}
	return out, total, nil
}

func (s *OrganizationService) findOrganization(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, organization.ErrOrganizationNotFound(id)
		}
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) saveRun(ctx context.Context, run *organization.ProvisioningRun) {
	if err := s.runRepo.Save(ctx, run); err != nil {
		s.logger.Error("failed to record provisioning run",
			zap.String("run_id", run.ID.String()),
			zap.String("organization_id", run.OrganizationID.String()),
			zap.Error(err),
		)
	}
}

func applyLockKey(orgID uuid.UUID, templateCode string) string {
	return "provisioning:apply:" + orgID.String() + ":" + templateCode
}
