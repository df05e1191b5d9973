package repo

import (
	"context"

	"gorm.io/gorm"
)

// CartLine is one ingredient line of one recipe in a user's cart, before
// aggregation.
type CartLine struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// CartIngredientLines joins the user's cart to the ingredient lines of every
// carted recipe and returns one row per line. Grouping and ordering are left
// to the caller so the result does not depend on database collation.
func CartIngredientLines(ctx context.Context, db *gorm.DB, userID string) ([]CartLine, error) {
	var out []CartLine
	err := db.WithContext(ctx).
		Table("shopping_cart").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_cart.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_cart.user_id = ?", userID).
		Scan(&out).Error
	return out, err
}
