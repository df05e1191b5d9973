// Catalog HTTP handlers.
//
// Tags and ingredients are read-only reference data:
//   - GET /tags               (list, ETag support)
//   - GET /tags/{id}
//   - GET /ingredients        (list, ?name= prefix search, ETag support)
//   - GET /ingredients/{id}
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// notModified sets a weak ETag derived from the catalog version and reports
// whether the client copy is current, in which case a 304 has been written.
// Version lookup failures skip the ETag and let the request proceed.
func notModified(c *gin.Context, kind string, version func(context.Context) (int64, *time.Time, error)) bool {
	count, maxTS, err := version(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return false
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, kind, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// ListTags godoc
// @ID          listTags
// @Summary     List tags
// @Description Returns every tag. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Tags
// @Produce     json
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"tags:3:1700000000\")
// @Success     200  {array}  domain.Tag
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /tags [get]
func (h *Handlers) ListTags(c *gin.Context) {
	if notModified(c, "tags", h.catalog.TagsVersion) {
		return
	}
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, tags)
}

// GetTag godoc
// @ID          getTag
// @Summary     Get a tag
// @Tags        Tags
// @Produce     json
// @Param       id   path  int  true  "Tag ID"  minimum(1)
// @Success     200  {object} domain.Tag
// @Failure     404  {object} handlers.ErrorResponse "Tag not found"
// @Router      /tags/{id} [get]
func (h *Handlers) GetTag(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	tag, err := h.catalog.GetTag(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, tag)
}

// ListIngredients godoc
// @ID          listIngredients
// @Summary     Search ingredients
// @Description Returns ingredients whose name starts with `name` (case-insensitive), or all of them. Unfiltered listings support weak ETags.
// @Tags        Ingredients
// @Produce     json
// @Param       name           query   string  false "Name prefix"  example(sal)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {array}  domain.Ingredient
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /ingredients [get]
func (h *Handlers) ListIngredients(c *gin.Context) {
	prefix := strings.TrimSpace(c.Query("name"))
	if prefix == "" && notModified(c, "ingredients", h.catalog.IngredientsVersion) {
		return
	}
	items, err := h.catalog.SearchIngredients(c.Request.Context(), prefix)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetIngredient godoc
// @ID          getIngredient
// @Summary     Get an ingredient
// @Tags        Ingredients
// @Produce     json
// @Param       id   path  int  true  "Ingredient ID"  minimum(1)
// @Success     200  {object} domain.Ingredient
// @Failure     404  {object} handlers.ErrorResponse "Ingredient not found"
// @Router      /ingredients/{id} [get]
func (h *Handlers) GetIngredient(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	ing, err := h.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ing)
}
