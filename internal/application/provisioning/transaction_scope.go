package provisioning

import (
	"context"

	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/provisioning"
)

// TransactionScope provides transactional access to the repositories an apply
// or a seed touches. If fn returns an error the transaction is rolled back,
// otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all provisioning repositories
// within a transaction. All repositories returned share the same transaction.
type TransactionalRepositories interface {
	TemplateRepo() provisioning.TemplateRepository
	BrandRepo() catalog.BrandRepository
	CategoryRepo() catalog.CategoryRepository
	UnitOfMeasureRepo() catalog.UnitOfMeasureRepository
	ProductTemplateRepo() catalog.ProductTemplateRepository
	ProductVariantRepo() catalog.ProductVariantRepository
	TaxRuleRepo() catalog.TaxRuleRepository

	// Savepoint runs fn in a nested transaction. An error from fn rolls back
	// only the writes fn made; the outer transaction stays usable.
	Savepoint(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope runs functions directly against the given repositories
// without a real transaction. Used in tests.
type NoOpTransactionScope struct {
	templates provisioning.TemplateRepository
	brands    catalog.BrandRepository
	cats      catalog.CategoryRepository
	units     catalog.UnitOfMeasureRepository
	products  catalog.ProductTemplateRepository
	variants  catalog.ProductVariantRepository
	taxRules  catalog.TaxRuleRepository
}

// NoOpRepositories lists the repositories a NoOpTransactionScope hands out.
type NoOpRepositories struct {
	Templates provisioning.TemplateRepository
	Brands    catalog.BrandRepository
	Cats      catalog.CategoryRepository
	Units     catalog.UnitOfMeasureRepository
	Products  catalog.ProductTemplateRepository
	Variants  catalog.ProductVariantRepository
	TaxRules  catalog.TaxRuleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos NoOpRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		templates: repos.Templates,
		brands:    repos.Brands,
		cats:      repos.Cats,
		units:     repos.Units,
		products:  repos.Products,
		variants:  repos.Variants,
		taxRules:  repos.TaxRules,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Savepoint runs the function without a real savepoint.
func (s *NoOpTransactionScope) Savepoint(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) TemplateRepo() provisioning.TemplateRepository { return s.templates }
func (s *NoOpTransactionScope) BrandRepo() catalog.BrandRepository            { return s.brands }
func (s *NoOpTransactionScope) CategoryRepo() catalog.CategoryRepository      { return s.cats }
func (s *NoOpTransactionScope) UnitOfMeasureRepo() catalog.UnitOfMeasureRepository {
	return s.units
}
func (s *NoOpTransactionScope) ProductTemplateRepo() catalog.ProductTemplateRepository {
	return s.products
}
func (s *NoOpTransactionScope) ProductVariantRepo() catalog.ProductVariantRepository {
	return s.variants
}
func (s *NoOpTransactionScope) TaxRuleRepo() catalog.TaxRuleRepository { return s.taxRules }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
