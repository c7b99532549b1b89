package provisioning

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateService handles template authoring
type TemplateService struct {
	templates provisioning.TemplateRepository
	txScope   TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templates provisioning.TemplateRepository, txScope TransactionScope, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		txScope:   txScope,
		logger:    logger,
	}
}

// WithEventPublisher sets the publisher for template lifecycle events
func (s *TemplateService) WithEventPublisher(publisher shared.EventPublisher) *TemplateService {
	s.publisher = publisher
	return s
}

// Create creates template metadata without items
func (s *TemplateService) Create(ctx context.Context, req CreateTemplateRequest) (*TemplateResponse, error) {
	code := strings.TrimSpace(req.Code)
	exists, err := s.templates.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, provisioning.ErrTemplateCodeTaken(code)
	}

	tmpl, err := provisioning.NewTemplate(code, req.Name, req.Type)
	if err != nil {
		return nil, err
	}
	if req.Version != nil {
		if err := tmpl.SetRevision(*req.Version); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil && !*req.IsActive {
		tmpl.Deactivate()
	}
	if err := tmpl.SetDescription(req.Description); err != nil {
		return nil, err
	}

	if err := s.templates.Save(ctx, tmpl); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, tmpl)
	return ToTemplateResponse(tmpl), nil
}

// GetByID retrieves a template with its items
func (s *TemplateService) GetByID(ctx context.Context, id uuid.UUID) (*TemplateResponse, error) {
	tmpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToTemplateResponse(tmpl), nil
}

// GetByCode retrieves a template with its items
func (s *TemplateService) GetByCode(ctx context.Context, code string) (*TemplateResponse, error) {
	tmpl, err := s.templates.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return ToTemplateResponse(tmpl), nil
}

// List lists templates without their items
func (s *TemplateService) List(ctx context.Context, filter TemplateListFilter) ([]TemplateResponse, int64, error) {
	domainFilter := provisioning.TemplateFilter{
		Filter:     shared.DefaultFilter(),
		Type:       strings.TrimSpace(filter.Type),
		ActiveOnly: filter.ActiveOnly,
	}
	domainFilter.OrderBy = "code"
	domainFilter.OrderDir = "asc"
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}

	templates, total, err := s.templates.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]TemplateResponse, len(templates))
	for i := range templates {
		out[i] = *ToTemplateResponse(&templates[i])
	}
	return out, total, nil
}

// Update changes template metadata. The code never changes.
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (*TemplateResponse, error) {
	tmpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if code := strings.TrimSpace(req.Code); code != "" && code != tmpl.Code {
		return nil, shared.NewDomainError("INVALID_INPUT", "Template code cannot be changed")
	}

	name, templateType, revision, active, description := tmpl.Name, tmpl.Type, tmpl.Revision, tmpl.Active, tmpl.Description
	if req.Name != nil {
		name = *req.Name
	}
	if req.Type != nil {
		templateType = *req.Type
	}
	if req.Version != nil {
		revision = *req.Version
	}
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if req.Description != nil {
		description = *req.Description
	}
	if err := tmpl.Update(name, templateType, revision, active, description); err != nil {
		return nil, err
	}

	if err := s.templates.Save(ctx, tmpl); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, tmpl)
	return ToTemplateResponse(tmpl), nil
}

// Delete soft-deletes a template and its items
func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	tmpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := tmpl.MarkDeleted(); err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvents(ctx, tmpl)
	return nil
}

// AddItem appends an item. The entity type must be supported; data field
// names are normalized; the sort order defaults to one past the highest.
func (s *TemplateService) AddItem(ctx context.Context, templateID uuid.UUID, req AddItemRequest) (*TemplateItemResponse, error) {
	tmpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	item, err := tmpl.AddItem(req.EntityType, req.Data, req.SortOrder)
	if err != nil {
		return nil, err
	}
	if err := s.templates.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	resp := ToTemplateItemResponse(item)
	return &resp, nil
}

// ListItems lists the items of a template in application order
func (s *TemplateService) ListItems(ctx context.Context, templateID uuid.UUID) ([]TemplateItemResponse, error) {
	if _, err := s.templates.FindByID(ctx, templateID); err != nil {
		return nil, err
	}
	items, err := s.templates.FindItems(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return ToTemplateItemResponses(items), nil
}

// RemoveItem soft-deletes one item of a template
func (s *TemplateService) RemoveItem(ctx context.Context, templateID, itemID uuid.UUID) error {
	if _, err := s.templates.FindByID(ctx, templateID); err != nil {
		return err
	}
	return s.templates.DeleteItem(ctx, templateID, itemID)
}

// CreateFromJSON creates a template and its items from a bundle document.
// Unsupported items are dropped and reported; ProductTemplate items that carry
// a literal sku are rejected.
func (s *TemplateService) CreateFromJSON(ctx context.Context, body []byte) (*ImportResult, error) {
	doc, err := parseImportDocument(body)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(doc.Template.Code)
	exists, err := s.templates.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, provisioning.ErrTemplateCodeTaken(code)
	}

	tmpl, err := newTemplateFromBundle(doc.Template)
	if err != nil {
		return nil, err
	}
	dropped := addBundleItems(tmpl, doc.Items)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		return saveTemplateWithItems(ctx, repos.TemplateRepo(), tmpl)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, tmpl)
	s.logger.Info("template imported",
		zap.String("code", tmpl.Code),
		zap.Int("items", len(tmpl.Items)),
		zap.Int("dropped", len(dropped)),
	)
	return &ImportResult{Template: ToTemplateResponse(tmpl), Dropped: dropped}, nil
}

// UpdateFromJSON replaces a template's metadata and items from a bundle
// document. The document code must equal the stored code.
func (s *TemplateService) UpdateFromJSON(ctx context.Context, id uuid.UUID, body []byte) (*ImportResult, error) {
	doc, err := parseImportDocument(body)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Template.Code) != tmpl.Code {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Template code mismatch: expected %s, got %s", tmpl.Code, doc.Template.Code))
	}

	revision := tmpl.Revision
	if doc.Template.Version != nil {
		revision = *doc.Template.Version
	}
	active := tmpl.Active
	if doc.Template.IsActive != nil {
		active = *doc.Template.IsActive
	}
	if err := tmpl.Update(doc.Template.Name, doc.Template.Type, revision, active, doc.Template.Description); err != nil {
		return nil, err
	}
	tmpl.ClearItems()
	dropped := addBundleItems(tmpl, doc.Items)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.TemplateRepo().DeleteItems(ctx, tmpl.ID); err != nil {
			return err
		}
		return saveTemplateWithItems(ctx, repos.TemplateRepo(), tmpl)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, tmpl)
	return &ImportResult{Template: ToTemplateResponse(tmpl), Dropped: dropped}, nil
}

func parseImportDocument(body []byte) (*BundleDocument, error) {
	doc, err := ParseBundleBytes(body)
	if err != nil {
		return nil, err
	}
	if doc.Template == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Template block is required")
	}
	for _, item := range doc.Items {
		entityType, _ := provisioning.NormalizeEntityType(item.RawType)
		if entityType != provisioning.EntityProductTemplate {
			continue
		}
		if _, ok := item.Data["sku"]; ok {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Item %d: ProductTemplate cannot set sku, use skuPrefix", item.Index))
		}
	}
	return doc, nil
}

// addBundleItems adds doc items in order and reports the ones it dropped.
func addBundleItems(tmpl *provisioning.Template, items []BundleItem) []DroppedItem {
	var dropped []DroppedItem
	accepted := 0
	for _, item := range items {
		order := accepted
		if item.SortOrder != nil {
			order = *item.SortOrder
		}
		if _, err := tmpl.AddItem(item.RawType, item.Data, &order); err != nil {
			dropped = append(dropped, DroppedItem{Index: item.Index, EntityType: item.RawType, Reason: err.Error()})
			continue
		}
		accepted++
	}
	return dropped
}

func (s *TemplateService) publishEvents(ctx context.Context, tmpl *provisioning.Template) {
	events := tmpl.GetDomainEvents()
	tmpl.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish template events", zap.Error(err))
	}
}
