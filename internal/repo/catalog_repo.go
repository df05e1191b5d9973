// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read access to the reference catalog:
// tags and ingredients.
//
// The catalog is read-only through the API. Rows are created by the fixture
// importer, so the only writes here are test helpers in _test files.
package repo

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// ListTags returns every tag ordered by ID.
func ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	var out []domain.Tag
	err := db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// GetTag fetches a single tag, or ErrNotFound.
func GetTag(ctx context.Context, db *gorm.DB, id uint) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListIngredients returns ingredients whose name starts with prefix,
// compared case-insensitively. An empty prefix lists the whole catalog.
// Results are ordered by name, then ID.
func ListIngredients(ctx context.Context, db *gorm.DB, prefix string) ([]domain.Ingredient, error) {
	q := db.WithContext(ctx).Model(&domain.Ingredient{})
	if p := domain.FoldName(prefix); p != "" {
		q = q.Where(`name_folded LIKE ? ESCAPE '\'`, escapeLike(p)+"%")
	}
	var out []domain.Ingredient
	err := q.Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

// GetIngredient fetches a single ingredient, or ErrNotFound.
func GetIngredient(ctx context.Context, db *gorm.DB, id uint) (*domain.Ingredient, error) {
	var i domain.Ingredient
	if err := db.WithContext(ctx).First(&i, id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

// MissingTagIDs returns the subset of ids with no tag row, sorted ascending.
func MissingTagIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]uint, error) {
	return missingIDs(ctx, db, &domain.Tag{}, ids)
}

// MissingIngredientIDs returns the subset of ids with no ingredient row, sorted ascending.
func MissingIngredientIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]uint, error) {
	return missingIDs(ctx, db, &domain.Ingredient{}, ids)
}

func missingIDs(ctx context.Context, db *gorm.DB, model any, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	have := make(map[uint]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []uint
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
			have[id] = struct{}{}
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
