// Package fixtures imports reference data (ingredients, tags and users) from
// a YAML or JSON document. Ingredients, tags and users are never created
// through the API; they are loaded here at startup.
//
// Import is idempotent: rows whose natural key already exists are skipped,
// so the same file can be applied on every boot.
//
// Example document:
//
//	ingredients:
//	  - {name: salt, measurement_unit: g}
//	tags:
//	  - {name: Breakfast, color: "#E26C2D", slug: breakfast}
//	users:
//	  - {id: 8b0f..., email: alice@example.com, username: alice}
package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

var (
	colorRE = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugRE  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Set is a parsed fixture document.
type Set struct {
	Ingredients []Ingredient `yaml:"ingredients"`
	Tags        []Tag        `yaml:"tags"`
	Users       []User       `yaml:"users"`
}

// Ingredient is a catalog entry; Name is its natural key.
type Ingredient struct {
	Name            string `yaml:"name"`
	MeasurementUnit string `yaml:"measurement_unit"`
}

// Tag is a recipe label. Color is #RRGGBB and is stored uppercased.
type Tag struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	Slug  string `yaml:"slug"`
}

// User is an imported account. An empty ID gets a random UUID.
type User struct {
	ID        string `yaml:"id"`
	Email     string `yaml:"email"`
	Username  string `yaml:"username"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Result counts the rows actually inserted by Import.
type Result struct {
	Ingredients int64
	Tags        int64
	Users       int64
}

// Parse decodes a fixture document. JSON is accepted as a subset of YAML.
// Unknown keys are rejected so typos do not silently drop data.
func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Set
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("fixtures: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses the fixture file at path.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	return Parse(data)
}

// Validate checks every entry against the catalog constraints.
func (s *Set) Validate() error {
	for i, in := range s.Ingredients {
		if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.MeasurementUnit) == "" {
			return fmt.Errorf("fixtures: ingredients[%d]: name and measurement_unit are required", i)
		}
	}
	for i, t := range s.Tags {
		switch {
		case strings.TrimSpace(t.Name) == "":
			return fmt.Errorf("fixtures: tags[%d]: name is required", i)
		case !colorRE.MatchString(t.Color):
			return fmt.Errorf("fixtures: tags[%d]: color %q is not #RRGGBB", i, t.Color)
		case !slugRE.MatchString(t.Slug):
			return fmt.Errorf("fixtures: tags[%d]: invalid slug %q", i, t.Slug)
		}
	}
	for i, u := range s.Users {
		if strings.TrimSpace(u.Email) == "" || strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("fixtures: users[%d]: email and username are required", i)
		}
		if u.ID != "" {
			if _, err := uuid.Parse(u.ID); err != nil {
				return fmt.Errorf("fixtures: users[%d]: id %q is not a UUID", i, u.ID)
			}
		}
	}
	return nil
}

// Import inserts the set in one transaction, skipping rows that collide with
// an existing unique key.
func Import(ctx context.Context, db *gorm.DB, s *Set) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip := func() *gorm.DB { return tx.Clauses(clause.OnConflict{DoNothing: true}) }

		if len(s.Ingredients) > 0 {
			rows := make([]domain.Ingredient, 0, len(s.Ingredients))
			for _, in := range s.Ingredients {
				rows = append(rows, domain.Ingredient{
					Name:            strings.TrimSpace(in.Name),
					MeasurementUnit: strings.TrimSpace(in.MeasurementUnit),
				})
			}
			r := skip().Create(&rows)
			if r.Error != nil {
				return fmt.Errorf("ingredients: %w", r.Error)
			}
			res.Ingredients = r.RowsAffected
		}

		if len(s.Tags) > 0 {
			rows := make([]domain.Tag, 0, len(s.Tags))
			for _, t := range s.Tags {
				rows = append(rows, domain.Tag{Name: strings.TrimSpace(t.Name), Color: strings.ToUpper(t.Color), Slug: t.Slug})
			}
			r := skip().Create(&rows)
			if r.Error != nil {
				return fmt.Errorf("tags: %w", r.Error)
			}
			res.Tags = r.RowsAffected
		}

		if len(s.Users) > 0 {
			rows := make([]domain.User, 0, len(s.Users))
			for _, u := range s.Users {
				id := u.ID
				if id == "" {
					id = uuid.NewString()
				}
				rows = append(rows, domain.User{
					ID:        id,
					Email:     strings.TrimSpace(u.Email),
					Username:  strings.TrimSpace(u.Username),
					FirstName: u.FirstName,
					LastName:  u.LastName,
				})
			}
			r := skip().Create(&rows)
			if r.Error != nil {
				return fmt.Errorf("users: %w", r.Error)
			}
			res.Users = r.RowsAffected
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("fixtures: import: %w", err)
	}
	return res, nil
}
