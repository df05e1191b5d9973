// Package services – SubscriptionService
//
// This file implements author subscriptions and the user cards built on them.
// A user cannot follow themselves, a follow pair exists at most once, and
// every card carries is_subscribed computed for the viewer.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SubscriptionService manages who follows whom and renders user cards.
type SubscriptionService struct {
	DB *gorm.DB
}

// GetUser returns the card of user id as seen by viewer.
func (s *SubscriptionService) GetUser(ctx context.Context, viewer, id string) (*UserView, error) {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "GetUser", trace.WithAttributes(attribute.String("target.id", id)))
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	subs, err := repo.SubscribedSet(ctx, s.DB, viewer, []string{id})
	if err != nil {
		return nil, err
	}
	v := userView(*u, subs[id])
	return &v, nil
}

// UserExists reports whether id names a known user. The auth middleware uses
// it to reject tokens for deleted accounts.
func (s *SubscriptionService) UserExists(ctx context.Context, id string) (bool, error) {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "UserExists", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	return repo.UserExists(ctx, s.DB, id)
}

// Subscribe makes userID follow authorID and returns the author card with
// up to recipesLimit recipes (all when recipesLimit <= 0).
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*AuthorView, error) {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "Subscribe",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("author.id", authorID),
		),
	)
	defer span.End()

	author, err := repo.GetUser(ctx, s.DB, authorID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if userID == authorID {
		return nil, ErrSelfSubscription
	}
	if err := repo.CreateSubscription(ctx, s.DB, userID, authorID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}
	views, err := s.authorViews(ctx, []domain.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe removes the follow relation.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "Unsubscribe",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("author.id", authorID),
		),
	)
	defer span.End()

	if ok, err := repo.UserExists(ctx, s.DB, authorID); err != nil {
		return err
	} else if !ok {
		return ErrUserNotFound
	}
	if err := repo.DeleteSubscription(ctx, s.DB, userID, authorID); err != nil {
		if isNotFound(err) {
			return ErrNotSubscribed
		}
		return err
	}
	return nil
}

// ListPage returns a page of the authors userID follows, each with up to
// recipesLimit recipes, and the total number followed.
func (s *SubscriptionService) ListPage(ctx context.Context, userID string, page, pageSize, recipesLimit int) ([]AuthorView, int64, error) {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	_, size, offset := utils.PageBounds(page, pageSize)
	total, err := repo.CountSubscriptions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []AuthorView{}, 0, nil
	}
	authors, err := repo.ListSubscribedAuthorsPage(ctx, s.DB, userID, offset, size)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.authorViews(ctx, authors, recipesLimit)
	return views, total, err
}

// authorViews renders followed authors; IsSubscribed is true by construction.
func (s *SubscriptionService) authorViews(ctx context.Context, authors []domain.User, recipesLimit int) ([]AuthorView, error) {
	ids := make([]string, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	counts, err := repo.CountRecipesByAuthors(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]AuthorView, 0, len(authors))
	for _, a := range authors {
		rs, err := repo.ListAuthorRecipes(ctx, s.DB, a.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		short := make([]ShortRecipe, 0, len(rs))
		for _, r := range rs {
			short = append(short, shortRecipe(r))
		}
		out = append(out, AuthorView{
			UserView:     userView(a, true),
			Recipes:      short,
			RecipesCount: counts[a.ID],
		})
	}
	return out, nil
}
