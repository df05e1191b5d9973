// User and subscription HTTP handlers.
//
//   - GET    /users/{id}            (user card)
//   - POST   /users/{id}/subscribe  (follow an author)
//   - DELETE /users/{id}/subscribe  (unfollow)
//   - GET    /subscriptions         (followed authors, paginated)
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

// ListSubscriptionsResponse wraps a page of followed authors.
type ListSubscriptionsResponse struct {
	Results    []services.AuthorView `json:"results"`
	Pagination Pagination            `json:"pagination"`
}

// recipesLimit parses the optional recipes_limit query parameter. Zero or
// absent means no limit. Invalid values answer 400.
func recipesLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("recipes_limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		failField(c, http.StatusBadRequest, ErrCodeValidation, "recipes_limit must be a non-negative integer", "recipes_limit")
		return 0, false
	}
	return n, true
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user card
// @Tags        Users
// @Produce     json
// @Param       id   path  string  true  "User ID"
// @Success     200  {object} services.UserView
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.subs.GetUser(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// Subscribe godoc
// @ID          subscribe
// @Summary     Subscribe to an author
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       id             path   string  true  "Author user ID"
// @Param       recipes_limit  query  int     false "Recipes in the returned card"  minimum(0)
// @Success     201  {object} services.AuthorView
// @Failure     400  {object} handlers.ErrorResponse "Self subscription"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     409  {object} handlers.ErrorResponse "Already subscribed"
// @Router      /users/{id}/subscribe [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	limit, valid := recipesLimit(c)
	if !valid {
		return
	}
	a, err := h.subs.Subscribe(c.Request.Context(), middleware.UserID(c), c.Param("id"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// Unsubscribe godoc
// @ID          unsubscribe
// @Summary     Unsubscribe from an author
// @Tags        Users
// @Security    BearerAuth
// @Param       id   path  string  true  "Author user ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "User not found or not subscribed"
// @Router      /users/{id}/subscribe [delete]
func (h *Handlers) Unsubscribe(c *gin.Context) {
	if err := h.subs.Unsubscribe(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListSubscriptions godoc
// @ID          listSubscriptions
// @Summary     List followed authors (paginated)
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       page           query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size      query  int  false "Items per page"  minimum(1) maximum(100) default(20)
// @Param       recipes_limit  query  int  false "Recipes per author card"  minimum(0)
// @Success     200  {object} handlers.ListSubscriptionsResponse
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Router      /subscriptions [get]
func (h *Handlers) ListSubscriptions(c *gin.Context) {
	limit, valid := recipesLimit(c)
	if !valid {
		return
	}
	page, pageSize := clampPagination(c)
	items, total, err := h.subs.ListPage(c.Request.Context(), middleware.UserID(c), page, pageSize, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListSubscriptionsResponse{
		Results:    items,
		Pagination: newPagination(page, pageSize, total),
	})
}
