// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the (user, recipe) membership relations:
// favorites and the shopping cart.
//
// Both relations share one shape and one rule set:
//   - Add inserts the pair and relies on the unique index as the arbiter, so
//     concurrent duplicate adds resolve to exactly one row and ErrDuplicate
//     for the loser.
//   - Remove deletes the pair and returns ErrNotFound when nothing matched.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// AddFavorite marks recipeID as a favorite of userID.
func AddFavorite(ctx context.Context, db *gorm.DB, userID string, recipeID uint) error {
	return addPair(ctx, db, &domain.Favorite{UserID: userID, RecipeID: recipeID})
}

// RemoveFavorite unmarks recipeID as a favorite of userID.
func RemoveFavorite(ctx context.Context, db *gorm.DB, userID string, recipeID uint) error {
	return removePair(ctx, db, &domain.Favorite{}, userID, recipeID)
}

// AddToCart puts recipeID in userID's shopping cart.
func AddToCart(ctx context.Context, db *gorm.DB, userID string, recipeID uint) error {
	return addPair(ctx, db, &domain.CartEntry{UserID: userID, RecipeID: recipeID})
}

// RemoveFromCart takes recipeID out of userID's shopping cart.
func RemoveFromCart(ctx context.Context, db *gorm.DB, userID string, recipeID uint) error {
	return removePair(ctx, db, &domain.CartEntry{}, userID, recipeID)
}

// FavoriteFlags returns the subset of recipeIDs that userID has favorited.
func FavoriteFlags(ctx context.Context, db *gorm.DB, userID string, recipeIDs []uint) (map[uint]bool, error) {
	return pairFlags(ctx, db, &domain.Favorite{}, userID, recipeIDs)
}

// CartFlags returns the subset of recipeIDs that are in userID's cart.
func CartFlags(ctx context.Context, db *gorm.DB, userID string, recipeIDs []uint) (map[uint]bool, error) {
	return pairFlags(ctx, db, &domain.CartEntry{}, userID, recipeIDs)
}

func addPair(ctx context.Context, db *gorm.DB, row any) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func removePair(ctx context.Context, db *gorm.DB, model any, userID string, recipeID uint) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func pairFlags(ctx context.Context, db *gorm.DB, model any, userID string, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(recipeIDs))
	if userID == "" || len(recipeIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
