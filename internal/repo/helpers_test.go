package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// newTestDB opens a private in-memory database. With migrate=true the full
// schema is created through AutoMigrate.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) domain.User {
	t.Helper()
	u := domain.User{ID: uuid.NewString(), Email: username + "@example.com", Username: username}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) domain.Ingredient {
	t.Helper()
	i := domain.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(&i).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return i
}

func seedTag(t *testing.T, db *gorm.DB, name, color, slug string) domain.Tag {
	t.Helper()
	tg := domain.Tag{Name: name, Color: color, Slug: slug}
	if err := db.Create(&tg).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	return tg
}

// seedRecipe creates a recipe with lines given as ingredientID -> amount.
func seedRecipe(t *testing.T, db *gorm.DB, author domain.User, name string, lines map[uint]int, tagIDs ...uint) domain.Recipe {
	t.Helper()
	r := domain.Recipe{AuthorID: author.ID, Name: name, Text: "text of " + name, CookingTime: 5}
	var ls []domain.RecipeIngredient
	for id, amt := range lines {
		ls = append(ls, domain.RecipeIngredient{IngredientID: id, Amount: amt})
	}
	if err := CreateRecipe(context.Background(), db, &r, ls, tagIDs); err != nil {
		t.Fatalf("seed recipe: %v", err)
	}
	return r
}
