package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
)

// DownloadShoppingList godoc
// @ID          downloadShoppingList
// @Summary     Download the shopping list
// @Description Aggregates the ingredients of every recipe in the caller's cart into a plain-text attachment, one "name - amount unit" line per ingredient and unit.
// @Tags        Recipes
// @Produce     plain
// @Security    BearerAuth
// @Success     200  {string} string "Shopping list"
// @Header      200  {string} Content-Disposition "attachment; filename=\"<username>_shopping_list.txt\""
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /shopping_list [get]
func (h *Handlers) DownloadShoppingList(c *gin.Context) {
	list, err := h.shopping.Build(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.ObserveShoppingList(len(list.Items))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", list.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", list.Content)
}
