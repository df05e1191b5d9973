package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// CreateSubscription records that userID follows authorID.
// Returns ErrDuplicate if the pair already exists.
func CreateSubscription(ctx context.Context, db *gorm.DB, userID, authorID string) error {
	return addPair(ctx, db, &domain.Subscription{UserID: userID, AuthorID: authorID})
}

// DeleteSubscription removes the pair, or returns ErrNotFound.
func DeleteSubscription(ctx context.Context, db *gorm.DB, userID, authorID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&domain.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SubscribedSet returns the subset of authorIDs that userID follows.
func SubscribedSet(ctx context.Context, db *gorm.DB, userID string, authorIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(authorIDs))
	if userID == "" || len(authorIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// CountSubscriptions returns how many authors userID follows.
func CountSubscriptions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Subscription{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// ListSubscribedAuthorsPage returns the authors userID follows, in the order
// the subscriptions were made.
func ListSubscribedAuthorsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "subscriptions", Name: "id"}}).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
