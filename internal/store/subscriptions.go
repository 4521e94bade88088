package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"farmtrack-backend/internal/model"
)

// UpsertSubscription creates or refreshes a push subscription for a
// user, keyed by endpoint.
func (s *gormStore) UpsertSubscription(ctx context.Context, ownerID uint, sub model.PushSubscription) error {
	sub.UserID = ownerID
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(&sub).Error
}

// SubscriptionByEndpoint returns a user's subscription, hiding other
// users' endpoints behind not found.
func (s *gormStore) SubscriptionByEndpoint(ctx context.Context, ownerID uint, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("endpoint = ? AND user_id = ?", endpoint, ownerID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubscription removes a user's own subscription.
func (s *gormStore) DeleteSubscription(ctx context.Context, ownerID uint, endpoint string) error {
	return s.db.WithContext(ctx).
		Where("endpoint = ? AND user_id = ?", endpoint, ownerID).
		Delete(&model.PushSubscription{}).Error
}

// SubscriptionsForUser returns every endpoint registered by a user.
func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID uint) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// DropEndpoint removes an endpoint regardless of owner. Used by the
// alert worker when a push service reports the subscription gone.
func (s *gormStore) DropEndpoint(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&model.PushSubscription{}).Error
}
