// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// database-window rate limit counters applied to abuse-prone actions.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// CountRateLimitEvents returns how many events the user accrued for action
// since the window start (inclusive).
func CountRateLimitEvents(ctx context.Context, db *gorm.DB, userID, action string, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.RateLimitEvent{}).
		Where("user_id = ? AND action = ? AND created_at >= ?", userID, action, since.UTC()).
		Count(&total).Error
	return total, err
}

// CountRateLimitEventsByTarget returns how many events the user accrued for
// (action, target) since the window start (inclusive). Used for per-target
// windows such as the message-thread cap.
func CountRateLimitEventsByTarget(ctx context.Context, db *gorm.DB, userID, action, targetID string, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.RateLimitEvent{}).
		Where("user_id = ? AND action = ? AND target_id = ? AND created_at >= ?", userID, action, targetID, since.UTC()).
		Count(&total).Error
	return total, err
}

// LatestRateLimitEvent returns the newest event for (user, action, target), or
// (nil, nil) when the user never hit that target. Used for per-target
// cooldowns.
func LatestRateLimitEvent(ctx context.Context, db *gorm.DB, userID, action, targetID string) (*domain.RateLimitEvent, error) {
	var ev domain.RateLimitEvent
	err := db.WithContext(ctx).
		Where("user_id = ? AND action = ? AND target_id = ?", userID, action, targetID).
		Order("created_at desc").
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// RecordRateLimitEvent inserts one counted event for (user, action) with an
// optional target id.
func RecordRateLimitEvent(ctx context.Context, db *gorm.DB, userID, action string, targetID *string) error {
	ev := &domain.RateLimitEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		TargetID:  targetID,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(ev).Error
}
