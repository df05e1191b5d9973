package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

const sample = `
ingredients:
  - {name: salt, measurement_unit: g}
  - {name: milk, measurement_unit: ml}
tags:
  - {name: Breakfast, color: "#e26c2d", slug: breakfast}
users:
  - id: 5f0c7a52-8a8e-4c1b-9d5e-3f1f2f4b6a10
    email: alice@example.com
    username: alice
    first_name: Alice
  - {email: bob@example.com, username: bob}
`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:fixtures_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
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

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(s.Ingredients) != 2 || len(s.Tags) != 1 || len(s.Users) != 2 {
		t.Fatalf("unexpected set: %+v", s)
	}
	if s.Users[0].FirstName != "Alice" {
		t.Fatalf("first_name not decoded: %+v", s.Users[0])
	}

	// JSON is valid YAML.
	js, err := Parse([]byte(`{"ingredients":[{"name":"flour","measurement_unit":"g"}]}`))
	if err != nil || len(js.Ingredients) != 1 {
		t.Fatalf("json: %v %+v", err, js)
	}

	empty, err := Parse(nil)
	if err != nil || len(empty.Ingredients) != 0 {
		t.Fatalf("empty: %v %+v", err, empty)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "ingredient:\n  - {name: salt}\n",
		"missing unit":    "ingredients:\n  - {name: salt}\n",
		"bad color":       "tags:\n  - {name: T, color: red, slug: t}\n",
		"bad slug":        "tags:\n  - {name: T, color: \"#000000\", slug: \"a b\"}\n",
		"missing email":   "users:\n  - {username: x}\n",
		"bad user id":     "users:\n  - {id: nope, email: a@b.c, username: x}\n",
		"malformed input": "ingredients: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil || !strings.HasPrefix(err.Error(), "fixtures:") {
				t.Fatalf("expected fixtures error, got %v", err)
			}
		})
	}
}

func TestImport_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	res, err := Import(ctx, db, s)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res != (Result{Ingredients: 2, Tags: 1, Users: 2}) {
		t.Fatalf("first import = %+v", res)
	}

	res, err = Import(ctx, db, s)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if res != (Result{}) {
		t.Fatalf("second import inserted rows: %+v", res)
	}

	var salt domain.Ingredient
	if err := db.Where("name = ?", "salt").First(&salt).Error; err != nil {
		t.Fatalf("salt: %v", err)
	}
	if salt.NameFolded != "salt" {
		t.Fatalf("folded name not maintained: %q", salt.NameFolded)
	}
	var tag domain.Tag
	if err := db.First(&tag, "slug = ?", "breakfast").Error; err != nil || tag.Color != "#E26C2D" {
		t.Fatalf("tag: %v %+v", err, tag)
	}
	var users int64
	db.Model(&domain.User{}).Count(&users)
	if users != 2 {
		t.Fatalf("users = %d; want 2", users)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := LoadFile(path)
	if err != nil || len(s.Tags) != 1 {
		t.Fatalf("LoadFile: %v %+v", err, s)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
