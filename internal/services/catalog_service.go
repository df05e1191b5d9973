package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CatalogService serves the read-only tag and ingredient catalog.
type CatalogService struct {
	DB *gorm.DB
}

// ListTags returns every tag ordered by ID.
func (s *CatalogService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := repo.ListTags(ctx, s.DB)
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, err
}

// GetTag returns one tag or ErrTagNotFound.
func (s *CatalogService) GetTag(ctx context.Context, id uint) (*domain.Tag, error) {
	t, err := repo.GetTag(ctx, s.DB, id)
	if isNotFound(err) {
		return nil, ErrTagNotFound
	}
	return t, err
}

// SearchIngredients returns ingredients whose name starts with prefix,
// ignoring case.
func (s *CatalogService) SearchIngredients(ctx context.Context, prefix string) ([]domain.Ingredient, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "SearchIngredients", trace.WithAttributes(attribute.String("prefix", prefix)))
	defer span.End()

	out, err := repo.ListIngredients(ctx, s.DB, prefix)
	if out == nil {
		out = []domain.Ingredient{}
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, err
}

// GetIngredient returns one ingredient or ErrIngredientNotFound.
func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error) {
	i, err := repo.GetIngredient(ctx, s.DB, id)
	if isNotFound(err) {
		return nil, ErrIngredientNotFound
	}
	return i, err
}

// TagsVersion returns the row count and latest change time of the tag table,
// used to build ETags.
func (s *CatalogService) TagsVersion(ctx context.Context) (int64, *time.Time, error) {
	return repo.TagsStats(ctx, s.DB)
}

// IngredientsVersion is TagsVersion for the ingredient table.
func (s *CatalogService) IngredientsVersion(ctx context.Context) (int64, *time.Time, error) {
	return repo.IngredientsStats(ctx, s.DB)
}
