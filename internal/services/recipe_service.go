// Package services – RecipeService
//
// This file implements RecipeService, which owns the recipe lifecycle:
// validated creation (optionally idempotent), full-replacement updates and
// author-only deletion, plus the per-viewer read paths.
//
// Every write runs in a single transaction. Updates delete and re-insert the
// ingredient lines inside that transaction, so a concurrent reader sees either
// the old line set or the new one.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IngredientAmount references a catalog ingredient with the amount a recipe needs.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount" minimum:"1" maximum:"32767"`
}

// RecipeInput is the complete writable state of a recipe. Updates replace
// every field, the tag set and the ingredient lines.
type RecipeInput struct {
	Name        string             `json:"name"`
	Image       string             `json:"image"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
	Ingredients []IngredientAmount `json:"ingredients"`
	Tags        []uint             `json:"tags"`
}

// RecipeQuery selects recipes for a listing.
type RecipeQuery struct {
	AuthorID         string
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService coordinates recipe persistence and per-viewer rendering.
type RecipeService struct {
	DB *gorm.DB

	// IdempotencyTTL is how long an Idempotency-Key stays bound to the
	// recipe it created.
	IdempotencyTTL time.Duration
}

// Validate checks the input shape without touching the store: required
// fields, bounds, and repeated ingredient or tag references. Inputs are
// normalized in place (trimmed strings).
func (in *RecipeInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)
	in.Image = strings.TrimSpace(in.Image)

	switch {
	case in.Name == "":
		return invalid("name", "name is required")
	case utf8.RuneCountInString(in.Name) > domain.MaxRecipeNameLen:
		return invalid("name", "name must be at most %d characters", domain.MaxRecipeNameLen)
	case in.Text == "":
		return invalid("text", "text is required")
	case in.CookingTime < 1:
		return invalid("cooking_time", "cooking_time must be at least 1")
	case in.CookingTime > domain.MaxQuantity:
		return invalid("cooking_time", "cooking_time must be at most %d", domain.MaxQuantity)
	case len(in.Ingredients) == 0:
		return invalid("ingredients", "at least one ingredient is required")
	case len(in.Tags) == 0:
		return invalid("tags", "at least one tag is required")
	}

	seen := make(map[uint]struct{}, len(in.Ingredients))
	for _, ia := range in.Ingredients {
		if ia.ID == 0 {
			return invalid("ingredients", "ingredient id is required")
		}
		if ia.Amount < 1 {
			return invalid("ingredients", "amount for ingredient %d must be at least 1", ia.ID)
		}
		if ia.Amount > domain.MaxQuantity {
			return invalid("ingredients", "amount for ingredient %d must be at most %d", ia.ID, domain.MaxQuantity)
		}
		if _, dup := seen[ia.ID]; dup {
			return invalid("ingredients", "ingredient %d is listed more than once", ia.ID)
		}
		seen[ia.ID] = struct{}{}
	}

	seenTags := make(map[uint]struct{}, len(in.Tags))
	for _, id := range in.Tags {
		if id == 0 {
			return invalid("tags", "tag id is required")
		}
		if _, dup := seenTags[id]; dup {
			return invalid("tags", "tag %d is listed more than once", id)
		}
		seenTags[id] = struct{}{}
	}
	return nil
}

// Create validates in and stores a new recipe authored by authorID.
//
// When idemKey is non-empty the key is bound to the new recipe for
// (authorID, scope) in the same transaction. A retried request with the same
// key returns the recipe created the first time and replayed=true; no second
// recipe is written.
func (s *RecipeService) Create(ctx context.Context, authorID string, in RecipeInput, scope, idemKey string) (view *RecipeView, replayed bool, err error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", authorID),
			attribute.Bool("idempotent", idemKey != ""),
		),
	)
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, false, err
	}

	if idemKey != "" {
		if id, ok, err := s.replay(ctx, authorID, scope, idemKey); err != nil {
			return nil, false, err
		} else if ok {
			v, err := s.Get(ctx, authorID, id)
			if !errors.Is(err, ErrRecipeNotFound) {
				return v, true, err
			}
			// The recipe behind the key was deleted; the key is free again.
			if err := repo.DeleteIdempotency(ctx, s.DB, authorID, scope, idemKey); err != nil {
				return nil, false, err
			}
		}
	}

	var recipeID uint
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}
		r := &domain.Recipe{
			AuthorID:    authorID,
			Name:        in.Name,
			Image:       in.Image,
			Text:        in.Text,
			CookingTime: in.CookingTime,
		}
		if err := repo.CreateRecipe(ctx, tx, r, lines(in), in.Tags); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return invalid("name", "a recipe with this name already exists")
			}
			return err
		}
		recipeID = r.ID
		if idemKey != "" {
			if _, err := repo.CreateIdempotency(ctx, tx, authorID, scope, idemKey,
				strconv.FormatUint(uint64(r.ID), 10), 201, s.ttl()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// A concurrent request with the same key may have won the race, in
		// which case either the key or the recipe name collided.
		if idemKey != "" {
			if id, ok, rerr := s.replay(ctx, authorID, scope, idemKey); rerr == nil && ok {
				v, gerr := s.Get(ctx, authorID, id)
				return v, true, gerr
			}
		}
		return nil, false, err
	}

	span.SetAttributes(attribute.Int64("recipe.id", int64(recipeID)))
	v, err := s.Get(ctx, authorID, recipeID)
	return v, false, err
}

// Update replaces every field, the tags and the ingredient lines of recipe id.
// Only the author may update; others get ErrForbidden.
func (s *RecipeService) Update(ctx context.Context, userID string, id uint, in RecipeInput) (*RecipeView, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("recipe.id", int64(id)),
		),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorize(ctx, tx, userID, id); err != nil {
			return err
		}
		if err := in.Validate(); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}
		if err := repo.UpdateRecipeFields(ctx, tx, id, in.Name, in.Image, in.Text, in.CookingTime); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return invalid("name", "a recipe with this name already exists")
			}
			if isNotFound(err) {
				return ErrRecipeNotFound
			}
			return err
		}
		if err := repo.ReplaceRecipeTags(ctx, tx, id, in.Tags); err != nil {
			return err
		}
		return repo.ReplaceRecipeIngredients(ctx, tx, id, lines(in))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Delete removes recipe id together with its lines, tag links, favorites,
// cart entries and the idempotency keys that created it. Only the author may
// delete.
func (s *RecipeService) Delete(ctx context.Context, userID string, id uint) error {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("recipe.id", int64(id)),
		),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorize(ctx, tx, userID, id); err != nil {
			return err
		}
		if err := repo.DeleteRecipe(ctx, tx, id); err != nil {
			if isNotFound(err) {
				return ErrRecipeNotFound
			}
			return err
		}
		// Keys bound to this recipe must not replay a later row that reuses its id.
		return repo.DeleteIdempotencyForResource(ctx, tx, userID, strconv.FormatUint(uint64(id), 10))
	})
}

// Get returns the full view of recipe id for viewer (may be empty for
// anonymous callers).
func (s *RecipeService) Get(ctx context.Context, viewer string, id uint) (*RecipeView, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.Int64("recipe.id", int64(id))))
	defer span.End()

	r, err := repo.GetRecipe(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	views, err := recipeViews(ctx, s.DB, viewer, []domain.Recipe{*r})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListPage returns one page of recipes matching q, rendered for viewer, and
// the total number of matches. The favorited and in-cart filters match
// nothing for anonymous viewers.
func (s *RecipeService) ListPage(ctx context.Context, viewer string, q RecipeQuery, page, pageSize int) ([]RecipeView, int64, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if viewer == "" && (q.IsFavorited || q.IsInShoppingCart) {
		return []RecipeView{}, 0, nil
	}
	f := repo.RecipeFilter{AuthorID: q.AuthorID, TagSlugs: q.TagSlugs}
	if q.IsFavorited {
		f.FavoritedBy = viewer
	}
	if q.IsInShoppingCart {
		f.InCartOf = viewer
	}

	_, size, offset := utils.PageBounds(page, pageSize)
	total, err := repo.CountRecipes(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []RecipeView{}, 0, nil
	}
	rs, err := repo.ListRecipesPage(ctx, s.DB, f, offset, size)
	if err != nil {
		return nil, 0, err
	}
	views, err := recipeViews(ctx, s.DB, viewer, rs)
	return views, total, err
}

// replay looks up a live idempotency record and returns the recipe it points at.
func (s *RecipeService) replay(ctx context.Context, userID, scope, key string) (uint, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, time.Now().UTC())
	if err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	id, ok := utils.ParseID(rec.ResourceID)
	return id, ok, nil
}

func (s *RecipeService) authorize(ctx context.Context, tx *gorm.DB, userID string, id uint) error {
	author, err := repo.GetRecipeAuthor(ctx, tx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrRecipeNotFound
		}
		return err
	}
	if author != userID {
		return ErrForbidden
	}
	return nil
}

func (s *RecipeService) ttl() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}

// checkReferences rejects unknown ingredient or tag IDs, naming all of them.
func checkReferences(ctx context.Context, tx *gorm.DB, in RecipeInput) error {
	ingIDs := make([]uint, len(in.Ingredients))
	for i, ia := range in.Ingredients {
		ingIDs[i] = ia.ID
	}
	missing, err := repo.MissingIngredientIDs(ctx, tx, ingIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return invalid("ingredients", "unknown ingredient ids: %s", joinIDs(missing))
	}
	missing, err = repo.MissingTagIDs(ctx, tx, in.Tags)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return invalid("tags", "unknown tag ids: %s", joinIDs(missing))
	}
	return nil
}

func lines(in RecipeInput) []domain.RecipeIngredient {
	out := make([]domain.RecipeIngredient, len(in.Ingredients))
	for i, ia := range in.Ingredients {
		out[i] = domain.RecipeIngredient{IngredientID: ia.ID, Amount: ia.Amount}
	}
	return out
}

func joinIDs(ids []uint) string {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ", ")
}
