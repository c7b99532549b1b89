package persistence_test

import (
	"context"
	"errors"
	"testing"

	appprov "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/infrastructure/persistence"
	"github.com/erp/provisioner/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db := persistencetest.NewSQLiteDB(t)
		scope := persistence.NewGormTransactionScope(db)

		err := scope.Execute(ctx, func(repos appprov.TransactionalRepositories) error {
			brand, err := catalog.NewBrand("Acme")
			if err != nil {
				return err
			}
			return repos.BrandRepo().Save(ctx, brand)
		})
		require.NoError(t, err)

		_, err = persistence.NewGormBrandRepository(db).FindByName(ctx, "Acme")
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := persistencetest.NewSQLiteDB(t)
		scope := persistence.NewGormTransactionScope(db)
		boom := errors.New("boom")

		err := scope.Execute(ctx, func(repos appprov.TransactionalRepositories) error {
			brand, err := catalog.NewBrand("Acme")
			if err != nil {
				return err
			}
			if err := repos.BrandRepo().Save(ctx, brand); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = persistence.NewGormBrandRepository(db).FindByName(ctx, "Acme")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("savepoint rolls back only its own writes", func(t *testing.T) {
		db := persistencetest.NewSQLiteDB(t)
		scope := persistence.NewGormTransactionScope(db)

		err := scope.Execute(ctx, func(repos appprov.TransactionalRepositories) error {
			err := repos.Savepoint(ctx, func(inner appprov.TransactionalRepositories) error {
				brand, _ := catalog.NewBrand("Kept")
				return inner.BrandRepo().Save(ctx, brand)
			})
			if err != nil {
				return err
			}

			failed := repos.Savepoint(ctx, func(inner appprov.TransactionalRepositories) error {
				brand, _ := catalog.NewBrand("Dropped")
				if err := inner.BrandRepo().Save(ctx, brand); err != nil {
					return err
				}
				dup, _ := catalog.NewBrand("Kept")
				return inner.BrandRepo().Save(ctx, dup)
			})
			assert.True(t, errors.Is(failed, shared.ErrAlreadyExists))
			return nil
		})
		require.NoError(t, err)

		brands := persistence.NewGormBrandRepository(db)
		_, err = brands.FindByName(ctx, "Kept")
		assert.NoError(t, err)
		_, err = brands.FindByName(ctx, "Dropped")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
