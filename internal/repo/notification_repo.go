// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the outbound
// notification delivery log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// CreateNotificationDelivery inserts one delivery outcome row. The dispatcher
// treats failures as best-effort: a delivery row that cannot be written is
// logged, never surfaced.
func CreateNotificationDelivery(ctx context.Context, db *gorm.DB, d *domain.NotificationDelivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(d).Error
}

// ListNotificationDeliveries returns all delivery rows for a user, newest
// first. Used by tests and the admin surface.
func ListNotificationDeliveries(ctx context.Context, db *gorm.DB, userID string) ([]domain.NotificationDelivery, error) {
	var out []domain.NotificationDelivery
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
