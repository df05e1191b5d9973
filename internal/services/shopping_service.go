// Package services – ShoppingListService
//
// This file implements the shopping-list aggregator. Given a user, it reads
// every ingredient line of every recipe in that user's cart, groups the lines
// by (ingredient name, measurement unit), sums the amounts and renders the
// groups as a plain-text document.
//
// Grouping and ordering are done here rather than in SQL so that the output
// is byte-for-byte stable across databases and collations:
//   - groups are ordered by name, then unit, comparing raw bytes;
//   - units are never converted, so "salt, g" and "salt, kg" stay separate;
//   - the document is the header line, one line per group, each terminated
//     by "\n".
package services

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultShoppingListHeader is used when ShoppingListService.Header is empty.
const DefaultShoppingListHeader = "Shopping list"

// ShoppingItem is one aggregated line of the shopping list.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int64  `json:"amount"`
}

// ShoppingList is the rendered document plus the data it was built from.
type ShoppingList struct {
	Filename string
	Content  []byte
	Items    []ShoppingItem
}

// ShoppingListService builds downloadable shopping lists.
type ShoppingListService struct {
	DB *gorm.DB

	// Header is the first line of every list.
	Header string
}

// Build aggregates userID's cart into a shopping list. An empty cart yields
// a document containing only the header line.
func (s *ShoppingListService) Build(ctx context.Context, userID string) (*ShoppingList, error) {
	tr := otel.Tracer("services/ShoppingListService")
	ctx, span := tr.Start(ctx, "Build", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	rows, err := repo.CartIngredientLines(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	items := Aggregate(rows)
	span.SetAttributes(attribute.Int("shopping.items", len(items)))

	name := u.Username
	if name == "" {
		name = u.ID
	}
	return &ShoppingList{
		Filename: name + "_shopping_list.txt",
		Content:  Render(s.header(), items),
		Items:    items,
	}, nil
}

func (s *ShoppingListService) header() string {
	if h := strings.TrimSpace(s.Header); h != "" {
		return h
	}
	return DefaultShoppingListHeader
}

type itemKey struct{ name, unit string }

// Aggregate groups raw cart lines by (name, unit), sums amounts and orders
// the result by name then unit in byte order. It never returns nil.
func Aggregate(rows []repo.CartLine) []ShoppingItem {
	sums := make(map[itemKey]int64, len(rows))
	for _, r := range rows {
		sums[itemKey{r.Name, r.MeasurementUnit}] += r.Amount
	}
	out := make([]ShoppingItem, 0, len(sums))
	for k, amt := range sums {
		out = append(out, ShoppingItem{Name: k.name, MeasurementUnit: k.unit, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MeasurementUnit < out[j].MeasurementUnit
	})
	return out
}

// Render formats items as "{name} - {amount} {unit}" lines below header.
func Render(header string, items []ShoppingItem) []byte {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, it := range items {
		b.WriteString(it.Name)
		b.WriteString(" - ")
		b.WriteString(strconv.FormatInt(it.Amount, 10))
		b.WriteByte(' ')
		b.WriteString(it.MeasurementUnit)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
