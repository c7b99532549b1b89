package persistence

import (
	"context"

	appprov "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appprov.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Savepoint runs fn inside a nested transaction, which GORM maps to a
// SAVEPOINT on the enclosing one.
func (r *gormTransactionalRepositories) Savepoint(ctx context.Context, fn func(repos appprov.TransactionalRepositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

func (r *gormTransactionalRepositories) TemplateRepo() provisioning.TemplateRepository {
	return NewGormTemplateRepository(r.tx)
}

func (r *gormTransactionalRepositories) BrandRepo() catalog.BrandRepository {
	return NewGormBrandRepository(r.tx)
}

func (r *gormTransactionalRepositories) CategoryRepo() catalog.CategoryRepository {
	return NewGormCategoryRepository(r.tx)
}

func (r *gormTransactionalRepositories) UnitOfMeasureRepo() catalog.UnitOfMeasureRepository {
	return NewGormUnitOfMeasureRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductTemplateRepo() catalog.ProductTemplateRepository {
	return NewGormProductTemplateRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductVariantRepo() catalog.ProductVariantRepository {
	return NewGormProductVariantRepository(r.tx)
}

func (r *gormTransactionalRepositories) TaxRuleRepo() catalog.TaxRuleRepository {
	return NewGormTaxRuleRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appprov.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appprov.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
