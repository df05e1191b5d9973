// Package domain defines the persistence models for users, the recipe
// catalog, and the per-user favorite, shopping cart and subscription
// relations. These types are mapped with GORM and form the core data layer
// of the recipe backend.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// MaxRecipeNameLen is the longest recipe name accepted, in runes.
const MaxRecipeNameLen = 200

// MaxQuantity is the largest cooking time or ingredient amount stored; both
// columns hold small integers.
const MaxQuantity = 32767

// User is an account that can author recipes and follow other authors.
// Users are reference data: they are imported, never registered through the API.
type User struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(254);not null;uniqueIndex"`
	Username  string    `json:"username"   gorm:"type:varchar(150);not null;uniqueIndex"`
	FirstName string    `json:"first_name" gorm:"type:varchar(150);not null;default:''"`
	LastName  string    `json:"last_name"  gorm:"type:varchar(150);not null;default:''"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Ingredient is a catalog entry with a fixed measurement unit.
//
// NameFolded holds a case-folded copy of Name and backs the prefix search;
// it is maintained by BeforeSave and never exposed.
type Ingredient struct {
	ID              uint      `json:"id"               gorm:"primaryKey"`
	Name            string    `json:"name"             gorm:"type:varchar(200);not null;uniqueIndex"`
	NameFolded      string    `json:"-"                gorm:"type:varchar(200);not null;index"`
	MeasurementUnit string    `json:"measurement_unit" gorm:"type:varchar(200);not null"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// TableName returns the database table name for Ingredient.
func (Ingredient) TableName() string { return "ingredients" }

// BeforeSave normalizes the name and refreshes the search key.
func (i *Ingredient) BeforeSave(*gorm.DB) error {
	i.Name = norm.NFC.String(strings.TrimSpace(i.Name))
	i.MeasurementUnit = strings.TrimSpace(i.MeasurementUnit)
	i.NameFolded = FoldName(i.Name)
	return nil
}

// FoldName returns the case-insensitive search key for an ingredient name.
func FoldName(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Tag labels recipes. Name, Color (#RRGGBB) and Slug are each unique.
type Tag struct {
	ID        uint      `json:"id"    gorm:"primaryKey"`
	Name      string    `json:"name"  gorm:"type:varchar(200);not null;uniqueIndex"`
	Color     string    `json:"color" gorm:"type:varchar(7);not null;uniqueIndex"`
	Slug      string    `json:"slug"  gorm:"type:varchar(200);not null;uniqueIndex"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Recipe is authored by a user and owns its ingredient lines.
//
// Fields:
//   - Name: unique across all recipes, at most MaxRecipeNameLen runes.
//   - Image: opaque reference to the stored picture.
//   - CookingTime: minutes, 1..MaxQuantity (enforced by DB constraint).
//   - PubDate: publication time; recipe listings are ordered by it.
//   - Tags: linked through the recipe_tags join table.
//   - Ingredients: owned lines, cascade-deleted with the recipe.
type Recipe struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	AuthorID    string    `json:"author_id"    gorm:"type:char(36);not null;index"`
	Name        string    `json:"name"         gorm:"type:varchar(200);not null;uniqueIndex"`
	Image       string    `json:"image"        gorm:"type:varchar(512);not null;default:''"`
	Text        string    `json:"text"         gorm:"type:text;not null"`
	CookingTime int       `json:"cooking_time" gorm:"not null;check:chk_recipes_cooking_time,cooking_time BETWEEN 1 AND 32767"`
	PubDate     time.Time `json:"pub_date"     gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `json:"-"`

	Author      User               `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tags        []Tag              `json:"-" gorm:"many2many:recipe_tags"`
	Ingredients []RecipeIngredient `json:"-" gorm:"foreignKey:RecipeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipes" }

// RecipeTag is the join row between a recipe and a tag.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey"`
	TagID    uint `gorm:"primaryKey;index"`
}

// TableName returns the database table name for RecipeTag.
func (RecipeTag) TableName() string { return "recipe_tags" }

// RecipeIngredient is one ingredient line of a recipe. A recipe lists a given
// ingredient at most once.
type RecipeIngredient struct {
	ID           uint `json:"-"      gorm:"primaryKey"`
	RecipeID     uint `json:"-"      gorm:"not null;uniqueIndex:ux_recipe_ingredient,priority:1"`
	IngredientID uint `json:"id"     gorm:"not null;uniqueIndex:ux_recipe_ingredient,priority:2;index"`
	Amount       int  `json:"amount" gorm:"not null;check:chk_recipe_ingredients_amount,amount BETWEEN 1 AND 32767"`

	Ingredient Ingredient `json:"-" gorm:"foreignKey:IngredientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for RecipeIngredient.
func (RecipeIngredient) TableName() string { return "recipe_ingredients" }

// Favorite marks a recipe as a user's favorite. One row per (user, recipe).
type Favorite struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:ux_favorite_user_recipe,priority:1"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:ux_favorite_user_recipe,priority:2;index"`
	CreatedAt time.Time

	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// CartEntry puts a recipe in a user's shopping cart. One row per (user, recipe).
type CartEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:ux_cart_user_recipe,priority:1"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:ux_cart_user_recipe,priority:2;index"`
	CreatedAt time.Time

	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CartEntry.
func (CartEntry) TableName() string { return "shopping_cart" }

// Subscription records that UserID follows AuthorID. Users cannot follow
// themselves.
type Subscription struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:ux_subscription_user_author,priority:1;check:chk_subscriptions_self,user_id <> author_id"`
	AuthorID  string    `gorm:"type:char(36);not null;uniqueIndex:ux_subscription_user_author,priority:2;index"`
	CreatedAt time.Time

	User   User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }
