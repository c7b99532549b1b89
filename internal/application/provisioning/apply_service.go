package provisioning

import (
	"context"
	"errors"
	"time"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ItemOutcome is the per-item record of an apply run.
type ItemOutcome struct {
	ItemID     uuid.UUID               `json:"item_id"`
	EntityType provisioning.EntityType `json:"entity_type"`
	Outcome    Outcome                 `json:"outcome"`
	EntityID   *uuid.UUID              `json:"entity_id,omitempty"`
	Reason     string                  `json:"reason,omitempty"`
}

// ProvisioningResult summarizes one apply run.
type ProvisioningResult struct {
	TemplateID     uuid.UUID     `json:"template_id"`
	TemplateCode   string        `json:"template_code"`
	OrganizationID uuid.UUID     `json:"organization_id"`
	ProcessedCount int           `json:"processed_count"`
	SkippedCount   int           `json:"skipped_count"`
	ErrorCount     int           `json:"error_count"`
	Items          []ItemOutcome `json:"items"`
	Duration       time.Duration `json:"duration"`
}

// Failed reports whether nothing was created and at least one item failed.
func (r *ProvisioningResult) Failed() bool {
	return r.ProcessedCount == 0 && r.ErrorCount > 0
}

func (r *ProvisioningResult) record(outcome ItemOutcome) {
	switch outcome.Outcome {
	case OutcomeProcessed:
		r.ProcessedCount++
	case OutcomeSkipped:
		r.SkippedCount++
	case OutcomeError:
		r.ErrorCount++
	}
	r.Items = append(r.Items, outcome)
}

// ApplyService materializes a template's items into one organization.
type ApplyService struct {
	txScope       TransactionScope
	materializers map[provisioning.EntityType]Materializer
	publisher     shared.EventPublisher
	logger        *zap.Logger
}

// NewApplyService creates a new ApplyService with the default materializers
func NewApplyService(txScope TransactionScope, logger *zap.Logger) *ApplyService {
	s := &ApplyService{
		txScope:       txScope,
		materializers: make(map[provisioning.EntityType]Materializer),
		logger:        logger,
	}
	for _, m := range DefaultMaterializers() {
		s.materializers[m.EntityType()] = m
	}
	return s
}

// WithEventPublisher sets the publisher for applied and failed events
func (s *ApplyService) WithEventPublisher(publisher shared.EventPublisher) *ApplyService {
	s.publisher = publisher
	return s
}

// WithMaterializer replaces the materializer for its entity type
func (s *ApplyService) WithMaterializer(m Materializer) *ApplyService {
	s.materializers[m.EntityType()] = m
	return s
}

// ApplyTemplate applies the active template with the given code to org.
//
// Items run in (sortOrder, createdAt, id) order inside one transaction, each
// in its own savepoint. Item failures are counted and do not stop the run.
// When nothing was processed and at least one item failed the result is
// returned together with a *provisioning.ProvisioningFailedError; the
// transaction is committed either way.
func (s *ApplyService) ApplyTemplate(ctx context.Context, org OrganizationRef, templateCode string) (*ProvisioningResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "provisioning.apply_template",
		telemetry.AttrOrganizationID.String(org.ID.String()),
		telemetry.AttrTemplateCode.String(templateCode),
	)
	defer span.End()

	start := time.Now()
	var result *ProvisioningResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		tmpl, err := repos.TemplateRepo().FindByCode(ctx, templateCode)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return provisioning.ErrTemplateNotFound(templateCode)
			}
			return err
		}
		if !tmpl.Active {
			return provisioning.ErrTemplateInactive(templateCode)
		}
		result = s.applyItems(ctx, org, tmpl, repos)
		return nil
	})
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	result.Duration = time.Since(start)

	telemetry.Counts(span, map[string]int{
		"processed_count": result.ProcessedCount,
		"skipped_count":   result.SkippedCount,
		"error_count":     result.ErrorCount,
	})

	if result.Failed() {
		failure := &provisioning.ProvisioningFailedError{
			TemplateCode: templateCode,
			ErrorCount:   result.ErrorCount,
			SkipCount:    result.SkippedCount,
		}
		telemetry.Fail(span, failure)
		s.logger.Error("template apply failed",
			zap.String("template_code", templateCode),
			zap.String("organization_id", org.ID.String()),
			zap.Int("error_count", result.ErrorCount),
		)
		s.publish(ctx, provisioning.NewTemplateApplyFailedEvent(
			result.TemplateID, org.ID, templateCode, result.SkippedCount, result.ErrorCount, result.Duration,
		))
		return result, failure
	}

	span.SetStatus(codes.Ok, "")
	s.logger.Info("template applied",
		zap.String("template_code", templateCode),
		zap.String("organization_id", org.ID.String()),
		zap.Int("processed", result.ProcessedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", result.ErrorCount),
		zap.Duration("duration", result.Duration),
	)
	s.publish(ctx, provisioning.NewTemplateAppliedEvent(
		result.TemplateID, org.ID, templateCode,
		result.ProcessedCount, result.SkippedCount, result.ErrorCount, result.Duration,
	))
	return result, nil
}

func (s *ApplyService) applyItems(ctx context.Context, org OrganizationRef, tmpl *provisioning.Template, repos TransactionalRepositories) *ProvisioningResult {
	result := &ProvisioningResult{
		TemplateID:     tmpl.ID,
		TemplateCode:   tmpl.Code,
		OrganizationID: org.ID,
		Items:          make([]ItemOutcome, 0, len(tmpl.Items)),
	}
	refs := NewReferenceTable()
	for _, item := range tmpl.OrderedItems() {
		result.record(s.applyItem(ctx, org, tmpl.Code, refs, repos, item))
	}
	return result
}

func (s *ApplyService) applyItem(
	ctx context.Context,
	org OrganizationRef,
	templateCode string,
	refs *ReferenceTable,
	repos TransactionalRepositories,
	item provisioning.TemplateItem,
) ItemOutcome {
	entityType, _ := provisioning.NormalizeEntityType(item.EntityType.String())
	outcome := ItemOutcome{ItemID: item.ID, EntityType: entityType}
	logger := s.logger.With(
		zap.String("item_id", item.ID.String()),
		zap.String("entity_type", entityType.String()),
		zap.String("template_code", templateCode),
		zap.String("organization_id", org.ID.String()),
	)

	if !item.HasPayload() {
		logger.Debug("skipping item without payload")
		outcome.Outcome, outcome.Reason = OutcomeSkipped, "empty payload"
		return outcome
	}
	materializer, ok := s.materializers[entityType]
	if !entityType.IsSupported() || !ok {
		logger.Warn("skipping item with unsupported entity type")
		outcome.Outcome, outcome.Reason = OutcomeSkipped, "unsupported entity type"
		return outcome
	}

	payload, err := DecodePayload(entityType, provisioning.NormalizePayload(item.Data))
	if err != nil {
		logger.Warn("invalid item payload", zap.Error(err))
		outcome.Outcome, outcome.Reason = OutcomeError, err.Error()
		return outcome
	}

	var decision Decision
	err = repos.Savepoint(ctx, func(itemRepos TransactionalRepositories) error {
		var err error
		decision, err = materializer.Materialize(ctx, &RunContext{
			Organization: org,
			TemplateCode: templateCode,
			Refs:         refs,
			Repos:        itemRepos,
			Logger:       logger,
		}, payload)
		return err
	})
	if err != nil {
		logger.Warn("failed to materialize item", zap.Error(err))
		outcome.Outcome, outcome.Reason = OutcomeError, err.Error()
		return outcome
	}

	outcome.Outcome, outcome.Reason = decision.Outcome, decision.Reason
	if decision.EntityID != uuid.Nil {
		id := decision.EntityID
		outcome.EntityID = &id
	}
	return outcome
}

func (s *ApplyService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish provisioning events", zap.Error(err))
	}
}
