// Package services – MembershipService
//
// This file implements the favorite and shopping-cart toggles. Both follow
// the same rules: the recipe must exist, adding an existing pair is a
// conflict, and removing a missing pair is not-found. The unique index on
// (user, recipe) is the final arbiter, so concurrent duplicate adds produce
// exactly one row and a conflict for every other caller.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MembershipService manages a user's favorites and shopping cart.
type MembershipService struct {
	DB *gorm.DB
}

type membership struct {
	add, remove      func(context.Context, *gorm.DB, string, uint) error
	exists, notFound error
}

var (
	favorites = membership{add: repo.AddFavorite, remove: repo.RemoveFavorite, exists: ErrAlreadyFavorited, notFound: ErrNotFavorited}
	cart      = membership{add: repo.AddToCart, remove: repo.RemoveFromCart, exists: ErrAlreadyInCart, notFound: ErrNotInCart}
)

// AddFavorite marks recipeID as a favorite of userID and returns the short
// recipe representation.
func (s *MembershipService) AddFavorite(ctx context.Context, userID string, recipeID uint) (*ShortRecipe, error) {
	return s.add(ctx, "AddFavorite", favorites, userID, recipeID)
}

// RemoveFavorite unmarks recipeID as a favorite of userID.
func (s *MembershipService) RemoveFavorite(ctx context.Context, userID string, recipeID uint) error {
	return s.remove(ctx, "RemoveFavorite", favorites, userID, recipeID)
}

// AddToCart puts recipeID in userID's shopping cart and returns the short
// recipe representation.
func (s *MembershipService) AddToCart(ctx context.Context, userID string, recipeID uint) (*ShortRecipe, error) {
	return s.add(ctx, "AddToCart", cart, userID, recipeID)
}

// RemoveFromCart takes recipeID out of userID's shopping cart.
func (s *MembershipService) RemoveFromCart(ctx context.Context, userID string, recipeID uint) error {
	return s.remove(ctx, "RemoveFromCart", cart, userID, recipeID)
}

func (s *MembershipService) add(ctx context.Context, op string, m membership, userID string, recipeID uint) (*ShortRecipe, error) {
	ctx, span := startMembershipSpan(ctx, op, userID, recipeID)
	defer span.End()

	r, err := repo.GetShortRecipe(ctx, s.DB, recipeID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if err := m.add(ctx, s.DB, userID, recipeID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, m.exists
		}
		return nil, err
	}
	sr := shortRecipe(*r)
	return &sr, nil
}

func (s *MembershipService) remove(ctx context.Context, op string, m membership, userID string, recipeID uint) error {
	ctx, span := startMembershipSpan(ctx, op, userID, recipeID)
	defer span.End()

	ok, err := repo.RecipeExists(ctx, s.DB, recipeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRecipeNotFound
	}
	if err := m.remove(ctx, s.DB, userID, recipeID); err != nil {
		if isNotFound(err) {
			return m.notFound
		}
		return err
	}
	return nil
}

func startMembershipSpan(ctx context.Context, op, userID string, recipeID uint) (context.Context, trace.Span) {
	return otel.Tracer("services/MembershipService").Start(ctx, op,
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("recipe.id", int64(recipeID)),
		),
	)
}
