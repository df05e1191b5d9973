package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

func TestListRecipes_FiltersAndPagination(t *testing.T) {
	var (
		gotViewer string
		gotQuery  services.RecipeQuery
		gotPage   int
		gotSize   int
	)
	h := New(Services{Recipes: stubRecipes{
		list: func(_ context.Context, viewer string, q services.RecipeQuery, page, pageSize int) ([]services.RecipeView, int64, error) {
			gotViewer, gotQuery, gotPage, gotSize = viewer, q, page, pageSize
			return []services.RecipeView{{ID: 1}, {ID: 2}}, 12, nil
		},
	}})
	r := testRouter(h)

	w := do(r, http.MethodGet, "/recipes?author=u9&tags=breakfast&tags=+&tags=dinner&is_favorited=1&is_in_shopping_cart=0&page=2&limit=5", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	want := services.RecipeQuery{AuthorID: "u9", TagSlugs: []string{"breakfast", "dinner"}, IsFavorited: true}
	if gotViewer != "u1" || !reflect.DeepEqual(gotQuery, want) || gotPage != 2 || gotSize != 5 {
		t.Fatalf("service got viewer=%q q=%+v page=%d size=%d", gotViewer, gotQuery, gotPage, gotSize)
	}

	var resp ListRecipesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Results) != 2 || resp.Pagination.Total != 12 || resp.Pagination.TotalPages != 3 || !resp.Pagination.HasNext {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListRecipes_AnonymousViewer(t *testing.T) {
	var gotViewer = "unset"
	h := New(Services{Recipes: stubRecipes{
		list: func(_ context.Context, viewer string, _ services.RecipeQuery, _, _ int) ([]services.RecipeView, int64, error) {
			gotViewer = viewer
			return nil, 0, nil
		},
	}})
	w := do(testRouter(h), http.MethodGet, "/recipes?is_favorited=1", "", "")
	if w.Code != http.StatusOK || gotViewer != "" {
		t.Fatalf("status=%d viewer=%q", w.Code, gotViewer)
	}
}

func TestGetRecipe(t *testing.T) {
	h := New(Services{Recipes: stubRecipes{
		get: func(_ context.Context, _ string, id uint) (*services.RecipeView, error) {
			if id == 7 {
				return &services.RecipeView{ID: 7, Name: "Soup"}, nil
			}
			return nil, services.ErrRecipeNotFound
		},
	}})
	r := testRouter(h)

	if w := do(r, http.MethodGet, "/recipes/7", "", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/recipes/8", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
	if w := do(r, http.MethodGet, "/recipes/x", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
}

func TestCreateRecipe(t *testing.T) {
	const body = `{"name":"Pancakes","text":"Fry.","cooking_time":20,"tags":[1],"ingredients":[{"id":3,"amount":200}]}`

	var (
		gotAuthor string
		gotIn     services.RecipeInput
		gotScope  string
		gotKey    string
	)
	replay := false
	h := New(Services{Recipes: stubRecipes{
		create: func(_ context.Context, authorID string, in services.RecipeInput, scope, key string) (*services.RecipeView, bool, error) {
			gotAuthor, gotIn, gotScope, gotKey = authorID, in, scope, key
			return &services.RecipeView{ID: 11, Name: in.Name}, replay, nil
		},
	}})
	r := testRouter(h)

	w := do(r, http.MethodPost, "/recipes", "u1", body, middleware.HeaderIdempotencyKey, "create-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if gotAuthor != "u1" || gotScope != "/recipes" || gotKey != "create-1" {
		t.Fatalf("author=%q scope=%q key=%q", gotAuthor, gotScope, gotKey)
	}
	if gotIn.Name != "Pancakes" || gotIn.CookingTime != 20 || len(gotIn.Ingredients) != 1 || gotIn.Ingredients[0].Amount != 200 {
		t.Fatalf("unexpected input: %+v", gotIn)
	}
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first create must not be marked replayed")
	}

	replay = true
	w = do(r, http.MethodPost, "/recipes", "u1", body, middleware.HeaderIdempotencyKey, "create-1")
	if w.Code != http.StatusCreated || w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay: status=%d header=%q", w.Code, w.Header().Get(middleware.HeaderIdempotencyReplayed))
	}
}

func TestCreateRecipe_Errors(t *testing.T) {
	h := New(Services{Recipes: stubRecipes{
		create: func(context.Context, string, services.RecipeInput, string, string) (*services.RecipeView, bool, error) {
			return nil, false, &services.ValidationError{Field: "ingredients", Message: "ingredients must not be empty"}
		},
	}})
	r := testRouter(h)

	w := do(r, http.MethodPost, "/recipes", "u1", `{"name":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed: status = %d", w.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeBadRequest {
		t.Fatalf("malformed: code = %q", er.Code)
	}

	w = do(r, http.MethodPost, "/recipes", "u1", `{"name":"x"}`)
	er = ErrorResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if w.Code != http.StatusBadRequest || er.Code != ErrCodeValidation || er.Field != "ingredients" {
		t.Fatalf("validation: status=%d body=%+v", w.Code, er)
	}
	if er.RequestID == "" || er.RequestID != w.Header().Get("X-Request-ID") {
		t.Fatalf("request id not echoed: %+v", er)
	}
}

func TestUpdateAndDeleteRecipe(t *testing.T) {
	h := New(Services{Recipes: stubRecipes{
		update: func(_ context.Context, userID string, id uint, _ services.RecipeInput) (*services.RecipeView, error) {
			if userID != "author" {
				return nil, services.ErrForbidden
			}
			return &services.RecipeView{ID: id}, nil
		},
		del: func(_ context.Context, userID string, id uint) error {
			if id != 5 {
				return services.ErrRecipeNotFound
			}
			if userID != "author" {
				return services.ErrForbidden
			}
			return nil
		},
	}})
	r := testRouter(h)

	cases := []struct {
		method, path, user, body string
		status                   int
	}{
		{http.MethodPatch, "/recipes/5", "author", `{"name":"n"}`, http.StatusOK},
		{http.MethodPatch, "/recipes/5", "other", `{"name":"n"}`, http.StatusForbidden},
		{http.MethodPatch, "/recipes/5", "author", `[`, http.StatusBadRequest},
		{http.MethodDelete, "/recipes/5", "author", "", http.StatusNoContent},
		{http.MethodDelete, "/recipes/5", "other", "", http.StatusForbidden},
		{http.MethodDelete, "/recipes/6", "author", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		if w := do(r, tc.method, tc.path, tc.user, tc.body); w.Code != tc.status {
			t.Fatalf("%s %s as %s: status = %d; want %d", tc.method, tc.path, tc.user, w.Code, tc.status)
		}
	}
}
