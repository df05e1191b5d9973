package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

// ---- stub services; nil funcs return zero values ----

type stubRecipes struct {
	create func(ctx context.Context, authorID string, in services.RecipeInput, scope, key string) (*services.RecipeView, bool, error)
	update func(ctx context.Context, userID string, id uint, in services.RecipeInput) (*services.RecipeView, error)
	del    func(ctx context.Context, userID string, id uint) error
	get    func(ctx context.Context, viewer string, id uint) (*services.RecipeView, error)
	list   func(ctx context.Context, viewer string, q services.RecipeQuery, page, pageSize int) ([]services.RecipeView, int64, error)
}

func (s stubRecipes) Create(ctx context.Context, authorID string, in services.RecipeInput, scope, key string) (*services.RecipeView, bool, error) {
	if s.create != nil {
		return s.create(ctx, authorID, in, scope, key)
	}
	return &services.RecipeView{}, false, nil
}

func (s stubRecipes) Update(ctx context.Context, userID string, id uint, in services.RecipeInput) (*services.RecipeView, error) {
	if s.update != nil {
		return s.update(ctx, userID, id, in)
	}
	return &services.RecipeView{ID: id}, nil
}

func (s stubRecipes) Delete(ctx context.Context, userID string, id uint) error {
	if s.del != nil {
		return s.del(ctx, userID, id)
	}
	return nil
}

func (s stubRecipes) Get(ctx context.Context, viewer string, id uint) (*services.RecipeView, error) {
	if s.get != nil {
		return s.get(ctx, viewer, id)
	}
	return &services.RecipeView{ID: id}, nil
}

func (s stubRecipes) ListPage(ctx context.Context, viewer string, q services.RecipeQuery, page, pageSize int) ([]services.RecipeView, int64, error) {
	if s.list != nil {
		return s.list(ctx, viewer, q, page, pageSize)
	}
	return nil, 0, nil
}

type stubCatalog struct {
	tags        []domain.Tag
	ingredients []domain.Ingredient
	version     func(ctx context.Context) (int64, *time.Time, error)
	search      func(ctx context.Context, prefix string) ([]domain.Ingredient, error)
}

func (s stubCatalog) ListTags(context.Context) ([]domain.Tag, error) { return s.tags, nil }

func (s stubCatalog) GetTag(_ context.Context, id uint) (*domain.Tag, error) {
	for _, t := range s.tags {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, services.ErrTagNotFound
}

func (s stubCatalog) SearchIngredients(ctx context.Context, prefix string) ([]domain.Ingredient, error) {
	if s.search != nil {
		return s.search(ctx, prefix)
	}
	return s.ingredients, nil
}

func (s stubCatalog) GetIngredient(_ context.Context, id uint) (*domain.Ingredient, error) {
	for _, i := range s.ingredients {
		if i.ID == id {
			return &i, nil
		}
	}
	return nil, services.ErrIngredientNotFound
}

func (s stubCatalog) TagsVersion(ctx context.Context) (int64, *time.Time, error) {
	return s.Version(ctx)
}

func (s stubCatalog) IngredientsVersion(ctx context.Context) (int64, *time.Time, error) {
	return s.Version(ctx)
}

func (s stubCatalog) Version(ctx context.Context) (int64, *time.Time, error) {
	if s.version != nil {
		return s.version(ctx)
	}
	return 0, nil, nil
}

type stubMembers struct {
	add    func(ctx context.Context, userID string, recipeID uint) (*services.ShortRecipe, error)
	remove func(ctx context.Context, userID string, recipeID uint) error
}

func (s stubMembers) AddFavorite(ctx context.Context, userID string, recipeID uint) (*services.ShortRecipe, error) {
	return s.add(ctx, userID, recipeID)
}

func (s stubMembers) RemoveFavorite(ctx context.Context, userID string, recipeID uint) error {
	return s.remove(ctx, userID, recipeID)
}

func (s stubMembers) AddToCart(ctx context.Context, userID string, recipeID uint) (*services.ShortRecipe, error) {
	return s.add(ctx, userID, recipeID)
}

func (s stubMembers) RemoveFromCart(ctx context.Context, userID string, recipeID uint) error {
	return s.remove(ctx, userID, recipeID)
}

type stubSubs struct {
	get         func(ctx context.Context, viewer, id string) (*services.UserView, error)
	subscribe   func(ctx context.Context, userID, authorID string, limit int) (*services.AuthorView, error)
	unsubscribe func(ctx context.Context, userID, authorID string) error
	list        func(ctx context.Context, userID string, page, pageSize, limit int) ([]services.AuthorView, int64, error)
}

func (s stubSubs) GetUser(ctx context.Context, viewer, id string) (*services.UserView, error) {
	return s.get(ctx, viewer, id)
}

func (s stubSubs) Subscribe(ctx context.Context, userID, authorID string, limit int) (*services.AuthorView, error) {
	return s.subscribe(ctx, userID, authorID, limit)
}

func (s stubSubs) Unsubscribe(ctx context.Context, userID, authorID string) error {
	return s.unsubscribe(ctx, userID, authorID)
}

func (s stubSubs) ListPage(ctx context.Context, userID string, page, pageSize, limit int) ([]services.AuthorView, int64, error) {
	return s.list(ctx, userID, page, pageSize, limit)
}

type stubShopping struct {
	build func(ctx context.Context, userID string) (*services.ShoppingList, error)
}

func (s stubShopping) Build(ctx context.Context, userID string) (*services.ShoppingList, error) {
	return s.build(ctx, userID)
}

// ---- harness ----

// testRouter mounts every handler the way the real router does, with the
// caller identity taken from X-User-ID.
func testRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Authenticate(middleware.AuthOptions{TrustUserHeader: true}))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.GET("/tags", h.ListTags)
	r.GET("/tags/:id", h.GetTag)
	r.GET("/ingredients", h.ListIngredients)
	r.GET("/ingredients/:id", h.GetIngredient)
	r.GET("/recipes", h.ListRecipes)
	r.POST("/recipes", h.CreateRecipe)
	r.GET("/recipes/:id", h.GetRecipe)
	r.PATCH("/recipes/:id", h.UpdateRecipe)
	r.DELETE("/recipes/:id", h.DeleteRecipe)
	r.POST("/recipes/:id/favorite", h.AddFavorite)
	r.DELETE("/recipes/:id/favorite", h.RemoveFavorite)
	r.POST("/recipes/:id/shopping_cart", h.AddToCart)
	r.DELETE("/recipes/:id/shopping_cart", h.RemoveFromCart)
	r.GET("/shopping_list", h.DownloadShoppingList)
	r.GET("/users/:id", h.GetUser)
	r.POST("/users/:id/subscribe", h.Subscribe)
	r.DELETE("/users/:id/subscribe", h.Unsubscribe)
	r.GET("/subscriptions", h.ListSubscriptions)
	return r
}

// do sends a request as user (empty for anonymous) with optional extra
// headers given as key/value pairs.
func do(r http.Handler, method, path, user, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
