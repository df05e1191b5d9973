package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

func cartSize(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.CartEntry{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count cart: %v", err)
	}
	return n
}

func TestCartToggle_ConflictAndNotFound(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	a := seedIngredient(t, db, "A", "g")
	r := seedRecipe(t, db, alice, "R", map[uint]int{a.ID: 1})

	if err := AddToCart(ctx, db, alice.ID, r.ID); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := AddToCart(ctx, db, alice.ID, r.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second add should be ErrDuplicate, got %v", err)
	}
	if n := cartSize(t, db, alice.ID); n != 1 {
		t.Fatalf("cart size changed on duplicate add: %d", n)
	}
	if err := RemoveFromCart(ctx, db, alice.ID, r.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RemoveFromCart(ctx, db, alice.ID, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove absent should be ErrNotFound, got %v", err)
	}
}

func TestFavoriteToggle_AndFlags(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	a := seedIngredient(t, db, "A", "g")
	r1 := seedRecipe(t, db, alice, "R1", map[uint]int{a.ID: 1})
	r2 := seedRecipe(t, db, alice, "R2", map[uint]int{a.ID: 1})

	if err := AddFavorite(ctx, db, bob.ID, r1.ID); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if err := AddFavorite(ctx, db, bob.ID, r1.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := AddToCart(ctx, db, bob.ID, r2.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	fav, err := FavoriteFlags(ctx, db, bob.ID, []uint{r1.ID, r2.ID})
	if err != nil || !fav[r1.ID] || fav[r2.ID] {
		t.Fatalf("unexpected favorite flags: %v %v", fav, err)
	}
	cart, err := CartFlags(ctx, db, bob.ID, []uint{r1.ID, r2.ID})
	if err != nil || cart[r1.ID] || !cart[r2.ID] {
		t.Fatalf("unexpected cart flags: %v %v", cart, err)
	}
	anon, err := FavoriteFlags(ctx, db, "", []uint{r1.ID})
	if err != nil || len(anon) != 0 {
		t.Fatalf("anonymous viewer should have no flags: %v %v", anon, err)
	}

	if err := RemoveFavorite(ctx, db, bob.ID, r2.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddToCart_ConcurrentDuplicatesLeaveOneRow(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	a := seedIngredient(t, db, "A", "g")
	r := seedRecipe(t, db, alice, "R", map[uint]int{a.ID: 1})

	// Shared-cache memory databases report table locks on parallel writers;
	// one connection serializes the inserts while still racing the goroutines.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := AddToCart(ctx, db, alice.ID, r.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicate):
				dups++
			}
		}()
	}
	wg.Wait()

	if cnt := cartSize(t, db, alice.ID); cnt != 1 {
		t.Fatalf("expected exactly one cart row, got %d", cnt)
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful add, got ok=%d dups=%d", ok, dups)
	}
}
