package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

type addFunc func(ctx context.Context, userID string, recipeID uint) (*services.ShortRecipe, error)
type removeFunc func(ctx context.Context, userID string, recipeID uint) error

func (h *Handlers) add(c *gin.Context, fn addFunc) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	short, err := fn(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, short)
}

func (h *Handlers) remove(c *gin.Context, fn removeFunc) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := fn(c.Request.Context(), middleware.UserID(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Add a recipe to favorites
// @Tags        Recipes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  int  true  "Recipe ID"  minimum(1)
// @Success     201  {object} services.ShortRecipe
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Failure     409  {object} handlers.ErrorResponse "Already in favorites"
// @Router      /recipes/{id}/favorite [post]
func (h *Handlers) AddFavorite(c *gin.Context) { h.add(c, h.members.AddFavorite) }

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a recipe from favorites
// @Tags        Recipes
// @Security    BearerAuth
// @Param       id   path  int  true  "Recipe ID"  minimum(1)
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found or not in favorites"
// @Router      /recipes/{id}/favorite [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) { h.remove(c, h.members.RemoveFavorite) }

// AddToCart godoc
// @ID          addToCart
// @Summary     Add a recipe to the shopping cart
// @Tags        Recipes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  int  true  "Recipe ID"  minimum(1)
// @Success     201  {object} services.ShortRecipe
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Failure     409  {object} handlers.ErrorResponse "Already in the cart"
// @Router      /recipes/{id}/shopping_cart [post]
func (h *Handlers) AddToCart(c *gin.Context) { h.add(c, h.members.AddToCart) }

// RemoveFromCart godoc
// @ID          removeFromCart
// @Summary     Remove a recipe from the shopping cart
// @Tags        Recipes
// @Security    BearerAuth
// @Param       id   path  int  true  "Recipe ID"  minimum(1)
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found or not in the cart"
// @Router      /recipes/{id}/shopping_cart [delete]
func (h *Handlers) RemoveFromCart(c *gin.Context) { h.remove(c, h.members.RemoveFromCart) }
