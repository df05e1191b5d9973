// Package handlers exposes the REST API over the application services.
//
// Handlers are transport-thin: they parse and validate the request, call a
// service with the caller identity passed explicitly, and translate results
// and errors into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RecipeService defines the recipe lifecycle consumed by HTTP handlers.
type RecipeService interface {
	Create(ctx context.Context, authorID string, in services.RecipeInput, scope, idemKey string) (*services.RecipeView, bool, error)
	Update(ctx context.Context, userID string, id uint, in services.RecipeInput) (*services.RecipeView, error)
	Delete(ctx context.Context, userID string, id uint) error
	Get(ctx context.Context, viewer string, id uint) (*services.RecipeView, error)
	ListPage(ctx context.Context, viewer string, q services.RecipeQuery, page, pageSize int) ([]services.RecipeView, int64, error)
}

// CatalogService serves tags and ingredients. The version methods return the
// row count and latest change time used for ETags.
type CatalogService interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTag(ctx context.Context, id uint) (*domain.Tag, error)
	SearchIngredients(ctx context.Context, prefix string) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error)
	TagsVersion(ctx context.Context) (int64, *time.Time, error)
	IngredientsVersion(ctx context.Context) (int64, *time.Time, error)
}

// MembershipService toggles favorites and cart entries.
type MembershipService interface {
	AddFavorite(ctx context.Context, userID string, recipeID uint) (*services.ShortRecipe, error)
	RemoveFavorite(ctx context.Context, userID string, recipeID uint) error
	AddToCart(ctx context.Context, userID string, recipeID uint) (*services.ShortRecipe, error)
	RemoveFromCart(ctx context.Context, userID string, recipeID uint) error
}

// SubscriptionService manages user cards and follows.
type SubscriptionService interface {
	GetUser(ctx context.Context, viewer, id string) (*services.UserView, error)
	Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*services.AuthorView, error)
	Unsubscribe(ctx context.Context, userID, authorID string) error
	ListPage(ctx context.Context, userID string, page, pageSize, recipesLimit int) ([]services.AuthorView, int64, error)
}

// ShoppingListService builds the aggregated shopping list of a user's cart.
type ShoppingListService interface {
	Build(ctx context.Context, userID string) (*services.ShoppingList, error)
}

// Services bundles the dependencies of Handlers.
type Services struct {
	Recipes       RecipeService
	Catalog       CatalogService
	Memberships   MembershipService
	Subscriptions SubscriptionService
	ShoppingList  ShoppingListService
}

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	recipes  RecipeService
	catalog  CatalogService
	members  MembershipService
	subs     SubscriptionService
	shopping ShoppingListService
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		recipes:  s.Recipes,
		catalog:  s.Catalog,
		members:  s.Memberships,
		subs:     s.Subscriptions,
		shopping: s.ShoppingList,
	}
}
