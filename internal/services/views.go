package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

// UserView is a user as seen by a particular viewer.
type UserView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// IngredientLineView is one ingredient of a recipe with its amount.
type IngredientLineView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the full recipe representation.
type RecipeView struct {
	ID               uint                 `json:"id"`
	Tags             []domain.Tag         `json:"tags"`
	Author           UserView             `json:"author"`
	Ingredients      []IngredientLineView `json:"ingredients"`
	IsFavorited      bool                 `json:"is_favorited"`
	IsInShoppingCart bool                 `json:"is_in_shopping_cart"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Text             string               `json:"text"`
	CookingTime      int                  `json:"cooking_time"`
	PubDate          time.Time            `json:"pub_date"`
}

// ShortRecipe is the compact representation returned by favorite/cart
// toggles and embedded in author cards.
type ShortRecipe struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// AuthorView is a followed author with a preview of their recipes.
type AuthorView struct {
	UserView
	Recipes      []ShortRecipe `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

func shortRecipe(r domain.Recipe) ShortRecipe {
	return ShortRecipe{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func userView(u domain.User, subscribed bool) UserView {
	return UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// recipeViews renders preloaded recipes for viewer, computing the per-viewer
// flags in three batched queries. An empty viewer gets all flags false.
func recipeViews(ctx context.Context, db *gorm.DB, viewer string, recipes []domain.Recipe) ([]RecipeView, error) {
	out := make([]RecipeView, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}
	ids := make([]uint, len(recipes))
	authors := make([]string, 0, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		authors = append(authors, r.AuthorID)
	}

	fav, err := repo.FavoriteFlags(ctx, db, viewer, ids)
	if err != nil {
		return nil, err
	}
	cart, err := repo.CartFlags(ctx, db, viewer, ids)
	if err != nil {
		return nil, err
	}
	subs, err := repo.SubscribedSet(ctx, db, viewer, authors)
	if err != nil {
		return nil, err
	}

	for _, r := range recipes {
		tags := r.Tags
		if tags == nil {
			tags = []domain.Tag{}
		}
		lines := make([]IngredientLineView, 0, len(r.Ingredients))
		for _, l := range r.Ingredients {
			lines = append(lines, IngredientLineView{
				ID:              l.IngredientID,
				Name:            l.Ingredient.Name,
				MeasurementUnit: l.Ingredient.MeasurementUnit,
				Amount:          l.Amount,
			})
		}
		out = append(out, RecipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           userView(r.Author, subs[r.AuthorID]),
			Ingredients:      lines,
			IsFavorited:      fav[r.ID],
			IsInShoppingCart: cart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			PubDate:          r.PubDate,
		})
	}
	return out, nil
}
