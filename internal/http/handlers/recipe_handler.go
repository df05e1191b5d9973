// Recipe HTTP handlers.
//
// This file exposes REST endpoints for recipes:
//   - GET    /recipes        (list, paginated, filterable)
//   - GET    /recipes/{id}   (full view)
//   - POST   /recipes        (create, Idempotency-Key aware)
//   - PATCH  /recipes/{id}   (full replacement, author only)
//   - DELETE /recipes/{id}   (author only)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

// RecipeRequest is the JSON payload for creating or updating a recipe.
type RecipeRequest struct {
	Name        string                      `json:"name" example:"Pancakes"`
	Image       string                      `json:"image" example:"recipes/images/pancakes.png"`
	Text        string                      `json:"text" example:"Whisk, rest, fry."`
	CookingTime int                         `json:"cooking_time" example:"20" minimum:"1" maximum:"32767"`
	Ingredients []services.IngredientAmount `json:"ingredients"`
	Tags        []uint                      `json:"tags" example:"1,2"`
}

func (r RecipeRequest) input() services.RecipeInput {
	return services.RecipeInput{
		Name:        r.Name,
		Image:       r.Image,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Ingredients: r.Ingredients,
		Tags:        r.Tags,
	}
}

// ListRecipesResponse wraps a page of recipes and pagination information.
type ListRecipesResponse struct {
	Results    []services.RecipeView `json:"results"`
	Pagination Pagination            `json:"pagination"`
}

// bindRecipe decodes the request body, answering 400 on malformed JSON.
func bindRecipe(c *gin.Context) (services.RecipeInput, bool) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return services.RecipeInput{}, false
	}
	return req.input(), true
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     List recipes (paginated)
// @Description Returns recipes ordered by publication date. The favorited and in-cart filters only match for authenticated callers.
// @Tags        Recipes
// @Produce     json
//
// @Param       author               query  string  false  "Author user ID"
// @Param       tags                 query  []string false "Tag slug (repeatable, any-of)"  collectionFormat(multi)
// @Param       is_favorited         query  int     false  "1 to list the caller's favorites"      Enums(0, 1)
// @Param       is_in_shopping_cart  query  int     false  "1 to list the caller's cart"           Enums(0, 1)
// @Param       page                 query  int     false  "Page number"                  minimum(1) default(1)
// @Param       page_size            query  int     false  "Items per page (alias limit)" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListRecipesResponse
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	page, pageSize := clampPagination(c)
	q := services.RecipeQuery{
		AuthorID:         strings.TrimSpace(c.Query("author")),
		TagSlugs:         nonEmpty(c.QueryArray("tags")),
		IsFavorited:      c.Query("is_favorited") == "1",
		IsInShoppingCart: c.Query("is_in_shopping_cart") == "1",
	}

	items, total, err := h.recipes.ListPage(c.Request.Context(), middleware.UserID(c), q, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListRecipesResponse{
		Results:    items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetRecipe godoc
// @ID          getRecipe
// @Summary     Get a recipe
// @Tags        Recipes
// @Produce     json
// @Param       id   path  int  true  "Recipe ID"  minimum(1)
// @Success     200  {object} services.RecipeView
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id} [get]
func (h *Handlers) GetRecipe(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	v, err := h.recipes.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// CreateRecipe godoc
// @ID          createRecipe
// @Summary     Create a recipe
// @Description Creates a recipe authored by the caller. With an Idempotency-Key, a retried request returns the recipe created first and sets Idempotency-Replayed.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Client key for safe retries"  example(7f9c2e4a-create-1)
// @Param       body             body    handlers.RecipeRequest  true  "Recipe"
//
// @Success     201  {object} services.RecipeView
// @Header      201  {string} Idempotency-Replayed "true when served from a previous request"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes [post]
func (h *Handlers) CreateRecipe(c *gin.Context) {
	in, valid := bindRecipe(c)
	if !valid {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	v, replayed, err := h.recipes.Create(c.Request.Context(), middleware.UserID(c), in, middleware.IdempotencyScope(c), key)
	if err != nil {
		failErr(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, v)
}

// UpdateRecipe godoc
// @ID          updateRecipe
// @Summary     Replace a recipe
// @Description Replaces every field, the tags and the ingredient lines. Only the author may update.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  int  true  "Recipe ID"  minimum(1)
// @Param       body  body  handlers.RecipeRequest  true  "Recipe"
//
// @Success     200  {object} services.RecipeView
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id} [patch]
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	in, valid := bindRecipe(c)
	if !valid {
		return
	}
	v, err := h.recipes.Update(c.Request.Context(), middleware.UserID(c), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// DeleteRecipe godoc
// @ID          deleteRecipe
// @Summary     Delete a recipe
// @Tags        Recipes
// @Security    BearerAuth
// @Param       id   path  int  true  "Recipe ID"  minimum(1)
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id} [delete]
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

func nonEmpty(vals []string) []string {
	out := vals[:0:0]
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
