// Package services – VendorService
//
// This file implements the public marketplace surface over vendors: listing
// published vendors with optional category/name filters and fetching a single
// published vendor. Pending and hidden vendors are invisible here.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/repo"
)

// VendorService serves the read-only vendor catalog.
type VendorService struct {
	DB *gorm.DB
}

// NewVendorService constructs a VendorService.
func NewVendorService(db *gorm.DB) *VendorService {
	return &VendorService{DB: db}
}

// Get returns a published vendor by id, or ErrVendorNotFound for absent,
// pending, and hidden vendors alike.
func (s *VendorService) Get(ctx context.Context, id string) (*domain.Vendor, error) {
	v, err := repo.GetPublishedVendor(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	return v, nil
}

// ListPage returns a page of published vendors, newest first, with the total
// count. category filters by exact match, nameQuery by substring.
func (s *VendorService) ListPage(ctx context.Context, category, nameQuery string, page, pageSize int) ([]domain.Vendor, int64, error) {
	category = strings.TrimSpace(category)
	nameQuery = strings.TrimSpace(nameQuery)
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountPublishedVendors(ctx, s.DB, category, nameQuery)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Vendor{}, 0, nil
	}
	items, err := repo.ListPublishedVendorsPage(ctx, s.DB, category, nameQuery, offset, pageSize)
	return items, total, err
}
