// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for recipes,
// their ingredient lines and their tag links.
//
// All functions are context-aware and accept a *gorm.DB handle so they can
// run inside a caller's transaction. Multi-row writes (create, replace,
// delete) must be wrapped in a transaction by the caller; they do not open
// their own.
//
// Error semantics:
//   - Missing recipes yield ErrNotFound.
//   - Unique violations on the recipe name yield ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// RecipeFilter narrows recipe listings. Zero values mean "no constraint".
type RecipeFilter struct {
	AuthorID    string
	TagSlugs    []string // any-of
	FavoritedBy string
	InCartOf    string
}

func (f RecipeFilter) apply(db *gorm.DB) *gorm.DB {
	sub := db.Session(&gorm.Session{NewDB: true})
	q := db
	if f.AuthorID != "" {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		q = q.Where("recipes.id IN (?)", sub.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs))
	}
	if f.FavoritedBy != "" {
		q = q.Where("recipes.id IN (?)", sub.Table("favorites").
			Select("recipe_id").Where("user_id = ?", f.FavoritedBy))
	}
	if f.InCartOf != "" {
		q = q.Where("recipes.id IN (?)", sub.Table("shopping_cart").
			Select("recipe_id").Where("user_id = ?", f.InCartOf))
	}
	return q
}

// preloadRecipe loads everything a full recipe view needs.
func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.id ASC") }).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("recipe_ingredients.id ASC") }).
		Preload("Ingredients.Ingredient")
}

// CreateRecipe inserts the recipe row, its ingredient lines and its tag
// links. r.ID is populated on success.
func CreateRecipe(ctx context.Context, db *gorm.DB, r *domain.Recipe, lines []domain.RecipeIngredient, tagIDs []uint) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if err := insertLines(ctx, db, r.ID, lines); err != nil {
		return err
	}
	return insertTagLinks(ctx, db, r.ID, tagIDs)
}

// GetRecipe fetches a recipe with author, tags and ingredient lines, or ErrNotFound.
func GetRecipe(ctx context.Context, db *gorm.DB, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := preloadRecipe(db.WithContext(ctx)).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecipeAuthor returns the author ID of a recipe, or ErrNotFound.
func GetRecipeAuthor(ctx context.Context, db *gorm.DB, id uint) (string, error) {
	var r domain.Recipe
	if err := db.WithContext(ctx).Select("id", "author_id").First(&r, id).Error; err != nil {
		return "", err
	}
	return r.AuthorID, nil
}

// GetShortRecipe loads only the columns of the short representation.
func GetShortRecipe(ctx context.Context, db *gorm.DB, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := db.WithContext(ctx).Select("id", "name", "image", "cooking_time").First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRecipeFields overwrites the scalar columns of a recipe.
// Returns ErrNotFound when no row matched and ErrDuplicate on a name clash.
func UpdateRecipeFields(ctx context.Context, db *gorm.DB, id uint, name, image, text string, cookingTime int) error {
	res := db.WithContext(ctx).Model(&domain.Recipe{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":         name,
			"image":        image,
			"text":         text,
			"cooking_time": cookingTime,
		})
	if res.Error != nil {
		if IsDuplicate(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRecipeIngredients deletes every line of the recipe and inserts the
// given ones. Callers run it inside a transaction so readers never observe
// a partial set.
func ReplaceRecipeIngredients(ctx context.Context, db *gorm.DB, recipeID uint, lines []domain.RecipeIngredient) error {
	if err := db.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&domain.RecipeIngredient{}).Error; err != nil {
		return err
	}
	return insertLines(ctx, db, recipeID, lines)
}

// ReplaceRecipeTags swaps the tag links of a recipe for tagIDs.
func ReplaceRecipeTags(ctx context.Context, db *gorm.DB, recipeID uint, tagIDs []uint) error {
	if err := db.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&domain.RecipeTag{}).Error; err != nil {
		return err
	}
	return insertTagLinks(ctx, db, recipeID, tagIDs)
}

// DeleteRecipe removes a recipe and every row that references it.
// The dependent rows are removed explicitly so the result does not depend on
// the driver honoring ON DELETE CASCADE.
func DeleteRecipe(ctx context.Context, db *gorm.DB, id uint) error {
	tx := db.WithContext(ctx)
	for _, model := range []any{&domain.RecipeTag{}, &domain.RecipeIngredient{}, &domain.Favorite{}, &domain.CartEntry{}} {
		if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	res := tx.Delete(&domain.Recipe{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRecipes returns the number of recipes matching f.
func CountRecipes(ctx context.Context, db *gorm.DB, f RecipeFilter) (int64, error) {
	var n int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Recipe{})).Count(&n).Error
	return n, err
}

// ListRecipesPage returns a page of recipes matching f, fully preloaded and
// ordered by publication date (oldest first), then ID.
func ListRecipesPage(ctx context.Context, db *gorm.DB, f RecipeFilter, offset, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	err := preloadRecipe(f.apply(db.WithContext(ctx).Model(&domain.Recipe{}))).
		Order("recipes.pub_date ASC, recipes.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListAuthorRecipes returns the short columns of an author's recipes.
// A limit <= 0 returns all of them.
func ListAuthorRecipes(ctx context.Context, db *gorm.DB, authorID string, limit int) ([]domain.Recipe, error) {
	q := db.WithContext(ctx).
		Select("id", "name", "image", "cooking_time", "pub_date").
		Where("author_id = ?", authorID).
		Order("pub_date ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Recipe
	err := q.Find(&out).Error
	return out, err
}

// CountRecipesByAuthors returns recipe counts keyed by author ID.
func CountRecipesByAuthors(ctx context.Context, db *gorm.DB, authorIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AuthorID string
		N        int64
	}
	err := db.WithContext(ctx).Model(&domain.Recipe{}).
		Select("author_id, COUNT(*) AS n").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.AuthorID] = r.N
	}
	return out, nil
}

// RecipeExists reports whether a recipe row exists.
func RecipeExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Recipe{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func insertLines(ctx context.Context, db *gorm.DB, recipeID uint, lines []domain.RecipeIngredient) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]domain.RecipeIngredient, len(lines))
	for i, l := range lines {
		rows[i] = domain.RecipeIngredient{RecipeID: recipeID, IngredientID: l.IngredientID, Amount: l.Amount}
	}
	err := db.WithContext(ctx).Omit(clause.Associations).Create(&rows).Error
	if IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func insertTagLinks(ctx context.Context, db *gorm.DB, recipeID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]domain.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = domain.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	err := db.WithContext(ctx).Create(&rows).Error
	if IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}
