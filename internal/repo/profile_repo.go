// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model resolved by the authorization guard on every authenticated request.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// GetProfile fetches the profile row for userID. Returns ErrNotFound when the
// user is authenticated but has not completed onboarding (no profile row).
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).
		Where("id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
