// Package services defines the business logic for recipes, the catalog,
// favorites, the shopping cart, subscriptions and shopping-list generation.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/repo"
)

// Not-found errors.
var (
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrIngredientNotFound = errors.New("ingredient not found")

	// ErrNotFavorited is returned when removing a favorite that does not exist.
	ErrNotFavorited = errors.New("recipe is not in favorites")

	// ErrNotInCart is returned when removing a cart entry that does not exist.
	ErrNotInCart = errors.New("recipe is not in the shopping cart")

	// ErrNotSubscribed is returned when unsubscribing from an author the
	// caller does not follow.
	ErrNotSubscribed = errors.New("not subscribed to this author")
)

// Conflict errors.
var (
	ErrAlreadyFavorited  = errors.New("recipe is already in favorites")
	ErrAlreadyInCart     = errors.New("recipe is already in the shopping cart")
	ErrAlreadySubscribed = errors.New("already subscribed to this author")
)

var (
	// ErrForbidden is returned when a non-author tries to change a recipe.
	ErrForbidden = errors.New("only the author may modify this recipe")

	// ErrSelfSubscription is returned when a user tries to follow themselves.
	ErrSelfSubscription = errors.New("cannot subscribe to yourself")
)

// ValidationError reports a rejected input field. It is returned before any
// write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
