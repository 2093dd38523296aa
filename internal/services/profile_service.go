// Package services – ProfileService
//
// This file implements the "me" view: the caller's profile joined with their
// verification state, which the client uses to decide what to render before
// attempting a gated operation.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/repo"
)

// Me bundles a profile with the verification state relevant to its role.
// VerificationStatus is nil when the user never submitted one. Vendor is the
// vendor owned by a vendor-role user, nil otherwise.
type Me struct {
	Profile            *domain.Profile
	VerificationStatus *string
	Vendor             *domain.Vendor
}

// ProfileService resolves the authenticated caller's account view.
type ProfileService struct {
	DB *gorm.DB
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// GetMe returns the caller's profile, verification status, and owned vendor.
// Returns ErrProfileNotFound when no profile row exists.
func (s *ProfileService) GetMe(ctx context.Context, userID string) (*Me, error) {
	profile, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	me := &Me{Profile: profile}
	switch profile.Role {
	case domain.RoleDoctor:
		v, err := repo.GetDoctorVerification(ctx, s.DB, userID)
		if err != nil {
			return nil, err
		}
		if v != nil {
			me.VerificationStatus = &v.Status
		}
	case domain.RoleVendor:
		v, err := repo.GetVendorVerification(ctx, s.DB, userID)
		if err != nil {
			return nil, err
		}
		if v != nil {
			me.VerificationStatus = &v.Status
		}
		vendor, err := repo.GetVendorByOwner(ctx, s.DB, userID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			me.Vendor = vendor
		}
	}
	return me, nil
}
