// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vendor
// model and the per-user verification records consumed by the authorization
// guard.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// GetPublishedVendor fetches a vendor by id, restricted to published rows.
// Hidden and pending vendors are invisible to the marketplace, so the caller
// receives ErrNotFound for them just as for absent ids.
func GetPublishedVendor(ctx context.Context, db *gorm.DB, id string) (*domain.Vendor, error) {
	var v domain.Vendor
	err := db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.VendorStatusPublished).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVendorByOwner fetches the vendor owned by userID regardless of
// publication status. Returns ErrNotFound when the user owns no vendor.
func GetVendorByOwner(ctx context.Context, db *gorm.DB, userID string) (*domain.Vendor, error) {
	var v domain.Vendor
	err := db.WithContext(ctx).
		Where("owner_user_id = ?", userID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CountPublishedVendors returns the number of published vendors matching the
// optional category and name-substring filters.
func CountPublishedVendors(ctx context.Context, db *gorm.DB, category, nameQuery string) (int64, error) {
	q := publishedVendorsQuery(db.WithContext(ctx).Model(&domain.Vendor{}), category, nameQuery)
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListPublishedVendorsPage returns a page of published vendors matching the
// optional filters, newest first.
func ListPublishedVendorsPage(ctx context.Context, db *gorm.DB, category, nameQuery string, offset, limit int) ([]domain.Vendor, error) {
	q := publishedVendorsQuery(db.WithContext(ctx), category, nameQuery)
	var out []domain.Vendor
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func publishedVendorsQuery(q *gorm.DB, category, nameQuery string) *gorm.DB {
	q = q.Where("status = ?", domain.VendorStatusPublished)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if nameQuery != "" {
		q = q.Where("name LIKE ?", "%"+nameQuery+"%")
	}
	return q
}

// GetDoctorVerification fetches the doctor verification record for userID.
// Returns (nil, nil) when no record exists: the guard distinguishes "never
// submitted" from "submitted but not approved" via that nil.
func GetDoctorVerification(ctx context.Context, db *gorm.DB, userID string) (*domain.DoctorVerification, error) {
	var v domain.DoctorVerification
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetDoctorVerificationByID fetches a doctor verification record by primary
// key. Returns ErrNotFound when absent.
func GetDoctorVerificationByID(ctx context.Context, db *gorm.DB, id string) (*domain.DoctorVerification, error) {
	var v domain.DoctorVerification
	err := db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVendorVerification fetches the vendor verification record for userID,
// with the same (nil, nil) semantics as GetDoctorVerification.
func GetVendorVerification(ctx context.Context, db *gorm.DB, userID string) (*domain.VendorVerification, error) {
	var v domain.VendorVerification
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CountDoctorVerifications returns the number of doctor verification records,
// optionally filtered by status.
func CountDoctorVerifications(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.DoctorVerification{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListDoctorVerificationsPage returns a page of doctor verification records,
// newest first, optionally filtered by status.
func ListDoctorVerificationsPage(ctx context.Context, db *gorm.DB, status string, offset, limit int) ([]domain.DoctorVerification, error) {
	q := db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.DoctorVerification
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
