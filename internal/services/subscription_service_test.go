package services

import (
	"context"
	"errors"
	"testing"
)

func TestSubscription_Rules(t *testing.T) {
	f := newFixture(t)
	svc := &SubscriptionService{DB: f.db}
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, f.alice.ID, f.alice.ID, 0); !errors.Is(err, ErrSelfSubscription) {
		t.Fatalf("self: got %v", err)
	}
	if _, err := svc.Subscribe(ctx, f.alice.ID, "ghost", 0); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown author: got %v", err)
	}
	av, err := svc.Subscribe(ctx, f.alice.ID, f.bob.ID, 0)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if av.ID != f.bob.ID || !av.IsSubscribed || av.RecipesCount != 0 || av.Recipes == nil {
		t.Fatalf("unexpected author view %+v", av)
	}
	if _, err := svc.Subscribe(ctx, f.alice.ID, f.bob.ID, 0); !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("duplicate: got %v", err)
	}

	u, err := svc.GetUser(ctx, f.alice.ID, f.bob.ID)
	if err != nil || !u.IsSubscribed {
		t.Fatalf("GetUser: %+v %v", u, err)
	}
	if u, _ := svc.GetUser(ctx, f.bob.ID, f.alice.ID); u.IsSubscribed {
		t.Fatalf("subscription must be directional")
	}

	if err := svc.Unsubscribe(ctx, f.alice.ID, f.bob.ID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := svc.Unsubscribe(ctx, f.alice.ID, f.bob.ID); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("second unsubscribe: got %v", err)
	}
	if err := svc.Unsubscribe(ctx, f.alice.ID, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unsubscribe unknown: got %v", err)
	}
}

func TestSubscription_ListPage_RecipesLimit(t *testing.T) {
	f := newFixture(t)
	svc := &SubscriptionService{DB: f.db}
	recipes := &RecipeService{DB: f.db}
	ctx := context.Background()

	for _, name := range []string{"B1", "B2", "B3"} {
		if _, _, err := recipes.Create(ctx, f.bob.ID, f.input(name, IngredientAmount{f.salt.ID, 1}), "", ""); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	if _, err := svc.Subscribe(ctx, f.alice.ID, f.bob.ID, 0); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	got, total, err := svc.ListPage(ctx, f.alice.ID, 1, 10, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("total=%d len=%d", total, len(got))
	}
	if got[0].RecipesCount != 3 || len(got[0].Recipes) != 2 {
		t.Fatalf("expected 3 counted and 2 shown, got %d / %d", got[0].RecipesCount, len(got[0].Recipes))
	}

	none, total, err := svc.ListPage(ctx, f.bob.ID, 1, 10, 0)
	if err != nil || total != 0 || len(none) != 0 || none == nil {
		t.Fatalf("bob follows nobody: %+v total=%d err=%v", none, total, err)
	}
}
