// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) on the catalog endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// TagsStats returns the number of tags and the latest UpdatedAt among them.
// maxUpdatedAt is nil when the table is empty.
func TagsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(ctx, db, &domain.Tag{})
}

// IngredientsStats returns the number of ingredients and the latest
// UpdatedAt among them. maxUpdatedAt is nil when the table is empty.
func IngredientsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(ctx, db, &domain.Ingredient{})
}

func tableStats(ctx context.Context, db *gorm.DB, model any) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(model).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
