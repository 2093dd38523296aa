// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// idempotency-key records that deduplicate lead creation retries.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// ErrDuplicateKey is returned when inserting an idempotency record that
// already exists for (user, key). The caller re-reads the existing record and
// replays its stored response.
var ErrDuplicateKey = errors.New("idempotency key already exists")

// GetIdempotencyKey fetches the unexpired record for (userID, key). Expired
// records are treated as absent, so a retried request after the TTL creates a
// fresh lead. Returns ErrNotFound when no live record exists.
func GetIdempotencyKey(ctx context.Context, db *gorm.DB, userID, key string) (*domain.IdempotencyKey, error) {
	var rec domain.IdempotencyKey
	err := db.WithContext(ctx).
		Where("user_id = ? AND key = ? AND expires_at > ?", userID, key, time.Now().UTC()).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotencyKey inserts a record binding (userID, key) to the created
// lead. Returns ErrDuplicateKey when a concurrent request won the insert race.
func CreateIdempotencyKey(ctx context.Context, db *gorm.DB, userID, key, leadID string, status int, ttl time.Duration) error {
	now := time.Now().UTC()
	rec := &domain.IdempotencyKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Key:       key,
		LeadID:    leadID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// DeleteExpiredIdempotencyKeys removes records past their TTL. Invoked
// opportunistically; expiry correctness never depends on it because reads
// filter on expires_at.
func DeleteExpiredIdempotencyKeys(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&domain.IdempotencyKey{})
	return res.RowsAffected, res.Error
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
// The pure-Go driver exposes no typed error, so this matches the message text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "constraint failed: unique")
}
