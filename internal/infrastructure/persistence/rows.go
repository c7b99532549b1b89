package persistence

import (
	"context"

	"gorm.io/gorm"
)

// row is a GORM model M that converts to the domain type D
type row[M, D any] interface {
	*M
	ToDomain() *D
}

// findOne loads the first M matching query. A miss is shared.ErrNotFound.
func findOne[D, M any, PM row[M, D]](ctx context.Context, db *gorm.DB, what, query string, args ...any) (*D, error) {
	var m M
	if err := db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		return nil, translateError(err, what)
	}
	return PM(&m).ToDomain(), nil
}

// findAll loads every M matching query in the given order
func findAll[D, M any, PM row[M, D]](ctx context.Context, db *gorm.DB, order, query string, args ...any) ([]D, error) {
	var rows []M
	if err := db.WithContext(ctx).Where(query, args...).Order(order).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]D, len(rows))
	for i := range rows {
		out[i] = *PM(&rows[i]).ToDomain()
	}
	return out, nil
}

// exists reports whether any row of model matches query
func exists(ctx context.Context, db *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// save upserts model. A unique violation becomes shared.ErrAlreadyExists
// naming what.
func save(ctx context.Context, db *gorm.DB, model any, what string) error {
	return translateError(db.WithContext(ctx).Save(model).Error, what)
}
