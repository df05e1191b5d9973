package services

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fixture is a small seeded catalog shared by the service tests.
type fixture struct {
	db                 *gorm.DB
	alice, bob         domain.User
	salt, flour, sugar domain.Ingredient
	breakfast, dinner  domain.Tag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db}
	f.alice = mustCreate(t, db, domain.User{ID: uuid.NewString(), Email: "alice@example.com", Username: "alice"})
	f.bob = mustCreate(t, db, domain.User{ID: uuid.NewString(), Email: "bob@example.com", Username: "bob"})
	f.salt = mustCreate(t, db, domain.Ingredient{Name: "salt", MeasurementUnit: "g"})
	f.flour = mustCreate(t, db, domain.Ingredient{Name: "flour", MeasurementUnit: "g"})
	f.sugar = mustCreate(t, db, domain.Ingredient{Name: "sugar", MeasurementUnit: "g"})
	f.breakfast = mustCreate(t, db, domain.Tag{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"})
	f.dinner = mustCreate(t, db, domain.Tag{Name: "Dinner", Color: "#8775D2", Slug: "dinner"})
	return f
}

func mustCreate[T any](t *testing.T, db *gorm.DB, v T) T {
	t.Helper()
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
	return v
}

func (f *fixture) input(name string, ings ...IngredientAmount) RecipeInput {
	return RecipeInput{
		Name:        name,
		Text:        "Mix and cook.",
		CookingTime: 10,
		Ingredients: ings,
		Tags:        []uint{f.breakfast.ID},
	}
}
