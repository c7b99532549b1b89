package provisioning

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

// memTemplateRepo is an in-memory TemplateRepository
type memTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]provisioning.Template
	items     map[uuid.UUID]provisioning.TemplateItem
	deleted   map[uuid.UUID]bool
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{
		templates: make(map[uuid.UUID]provisioning.Template),
		items:     make(map[uuid.UUID]provisioning.TemplateItem),
		deleted:   make(map[uuid.UUID]bool),
	}
}

func (r *memTemplateRepo) load(t provisioning.Template) *provisioning.Template {
	t.Items = nil
	for _, item := range r.items {
		if item.TemplateID == t.ID && !r.deleted[item.ID] {
			t.Items = append(t.Items, item)
		}
	}
	provisioning.SortItems(t.Items)
	return &t
}

func (r *memTemplateRepo) FindByID(_ context.Context, id uuid.UUID) (*provisioning.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok || t.IsDeleted() {
		return nil, shared.ErrNotFound
	}
	return r.load(t), nil
}

func (r *memTemplateRepo) FindByCode(_ context.Context, code string) (*provisioning.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.Code == code && !t.IsDeleted() {
			return r.load(t), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memTemplateRepo) FindAll(_ context.Context, filter provisioning.TemplateFilter) ([]provisioning.Template, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []provisioning.Template
	for _, t := range r.templates {
		if t.IsDeleted() || (filter.ActiveOnly && !t.Active) || (filter.Type != "" && t.Type != filter.Type) {
			continue
		}
		t.Items = nil
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, int64(len(out)), nil
}

func (r *memTemplateRepo) FindItems(_ context.Context, templateID uuid.UUID) ([]provisioning.TemplateItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[templateID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r.load(t).Items, nil
}

func (r *memTemplateRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTemplateRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.templates)), nil
}

func (r *memTemplateRepo) Save(_ context.Context, t *provisioning.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	stored.Items = nil
	stored.ClearDomainEvents()
	r.templates[t.ID] = stored
	return nil
}

func (r *memTemplateRepo) SaveItem(_ context.Context, item *provisioning.TemplateItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *memTemplateRepo) DeleteItem(_ context.Context, templateID, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok || item.TemplateID != templateID || r.deleted[itemID] {
		return shared.ErrNotFound
	}
	r.deleted[itemID] = true
	return nil
}

func (r *memTemplateRepo) DeleteItems(_ context.Context, templateID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.TemplateID == templateID {
			r.deleted[id] = true
		}
	}
	return nil
}

func (r *memTemplateRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return shared.ErrNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	r.templates[id] = t
	for itemID, item := range r.items {
		if item.TemplateID == id {
			r.deleted[itemID] = true
		}
	}
	return nil
}

// memCatalog holds every catalog repository in memory
type memCatalog struct {
	brands     map[string]catalog.Brand
	categories map[uuid.UUID]catalog.Category
	units      map[uuid.UUID]catalog.UnitOfMeasure
	products   map[uuid.UUID]catalog.ProductTemplate
	variants   map[uuid.UUID]catalog.ProductVariant
	taxRules   map[uuid.UUID]catalog.TaxRule
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		brands:     make(map[string]catalog.Brand),
		categories: make(map[uuid.UUID]catalog.Category),
		units:      make(map[uuid.UUID]catalog.UnitOfMeasure),
		products:   make(map[uuid.UUID]catalog.ProductTemplate),
		variants:   make(map[uuid.UUID]catalog.ProductVariant),
		taxRules:   make(map[uuid.UUID]catalog.TaxRule),
	}
}

type memBrandRepo struct{ c *memCatalog }

func (r memBrandRepo) FindByName(_ context.Context, name string) (*catalog.Brand, error) {
	if b, ok := r.c.brands[name]; ok {
		return &b, nil
	}
	return nil, shared.ErrNotFound
}

func (r memBrandRepo) Save(_ context.Context, b *catalog.Brand) error {
	if _, ok := r.c.brands[b.Name]; ok {
		return shared.ErrAlreadyExists
	}
	r.c.brands[b.Name] = *b
	return nil
}

type memCategoryRepo struct{ c *memCatalog }

func (r memCategoryRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*catalog.Category, error) {
	if c, ok := r.c.categories[id]; ok && c.TenantID == tenantID {
		return &c, nil
	}
	return nil, shared.ErrNotFound
}

func (r memCategoryRepo) FindByCode(_ context.Context, tenantID uuid.UUID, code string) (*catalog.Category, error) {
	for _, c := range r.c.categories {
		if c.TenantID == tenantID && c.Code == code {
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memCategoryRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range r.c.categories {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCategoryRepo) Save(_ context.Context, c *catalog.Category) error {
	r.c.categories[c.ID] = *c
	return nil
}

type memUnitRepo struct{ c *memCatalog }

func (r memUnitRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*catalog.UnitOfMeasure, error) {
	if u, ok := r.c.units[id]; ok && u.TenantID == tenantID {
		return &u, nil
	}
	return nil, shared.ErrNotFound
}

func (r memUnitRepo) FindByCode(_ context.Context, tenantID uuid.UUID, code string) (*catalog.UnitOfMeasure, error) {
	for _, u := range r.c.units {
		if u.TenantID == tenantID && u.Code == code {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memUnitRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]catalog.UnitOfMeasure, error) {
	var out []catalog.UnitOfMeasure
	for _, u := range r.c.units {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUnitRepo) Save(_ context.Context, u *catalog.UnitOfMeasure) error {
	r.c.units[u.ID] = *u
	return nil
}

type memProductRepo struct{ c *memCatalog }

func (r memProductRepo) FindByName(_ context.Context, tenantID uuid.UUID, name string) (*catalog.ProductTemplate, error) {
	key := catalog.NameKey(name)
	for _, p := range r.c.products {
		if p.TenantID == tenantID && p.NameKey == key {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memProductRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*catalog.ProductTemplate, error) {
	if p, ok := r.c.products[id]; ok && p.TenantID == tenantID {
		return &p, nil
	}
	return nil, shared.ErrNotFound
}

func (r memProductRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]catalog.ProductTemplate, error) {
	var out []catalog.ProductTemplate
	for _, p := range r.c.products {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProductRepo) Save(_ context.Context, p *catalog.ProductTemplate) error {
	r.c.products[p.ID] = *p
	return nil
}

type memVariantRepo struct{ c *memCatalog }

func (r memVariantRepo) SKUsWithPrefix(_ context.Context, tenantID uuid.UUID, prefix string) ([]string, error) {
	var out []string
	for _, v := range r.c.variants {
		if v.TenantID == tenantID && strings.HasPrefix(v.SKU, prefix) {
			out = append(out, v.SKU)
		}
	}
	return out, nil
}

func (r memVariantRepo) ExistsByBarcode(_ context.Context, tenantID uuid.UUID, barcode string) (bool, error) {
	for _, v := range r.c.variants {
		if v.TenantID == tenantID && v.Barcode == barcode {
			return true, nil
		}
	}
	return false, nil
}

func (r memVariantRepo) FindByProductTemplate(_ context.Context, tenantID, productTemplateID uuid.UUID) ([]catalog.ProductVariant, error) {
	var out []catalog.ProductVariant
	for _, v := range r.c.variants {
		if v.TenantID == tenantID && v.ProductTemplateID == productTemplateID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memVariantRepo) Save(_ context.Context, v *catalog.ProductVariant) error {
	r.c.variants[v.ID] = *v
	return nil
}

type memTaxRuleRepo struct{ c *memCatalog }

func (r memTaxRuleRepo) FindByCountryCode(_ context.Context, tenantID uuid.UUID, countryCode string) (*catalog.TaxRule, error) {
	for _, t := range r.c.taxRules {
		if t.TenantID == tenantID && t.CountryCode == countryCode {
			return &t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memTaxRuleRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]catalog.TaxRule, error) {
	var out []catalog.TaxRule
	for _, t := range r.c.taxRules {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTaxRuleRepo) Save(_ context.Context, t *catalog.TaxRule) error {
	r.c.taxRules[t.ID] = *t
	return nil
}

// testEnv wires the in-memory repositories into a NoOpTransactionScope
type testEnv struct {
	templates *memTemplateRepo
	catalog   *memCatalog
	scope     *NoOpTransactionScope
}

func newTestEnv() *testEnv {
	templates := newMemTemplateRepo()
	c := newMemCatalog()
	return &testEnv{
		templates: templates,
		catalog:   c,
		scope: NewNoOpTransactionScope(NoOpRepositories{
			Templates: templates,
			Brands:    memBrandRepo{c},
			Cats:      memCategoryRepo{c},
			Units:     memUnitRepo{c},
			Products:  memProductRepo{c},
			Variants:  memVariantRepo{c},
			TaxRules:  memTaxRuleRepo{c},
		}),
	}
}

// memBundleSource serves bundles from a map
type memBundleSource struct {
	files   map[string]string
	listErr error
	openErr map[string]error
}

func (s *memBundleSource) List(_ context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	return names, nil
}

func (s *memBundleSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := s.openErr[name]; err != nil {
		return nil, err
	}
	body, ok := s.files[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
