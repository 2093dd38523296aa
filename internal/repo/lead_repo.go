// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead
// aggregate: the base lead row, its append-only status history, and its
// attachments.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a lead is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Visibility: the original deployment delegated row visibility to the
// database's row-level-security policies. This port has no such external
// layer, so every read takes a LeadScope and applies the equivalent
// conditions in the query itself.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// LeadScope restricts which lead rows a caller may see. The zero value is the
// unrestricted (admin) scope. When DoctorUserID is set, only leads created by
// that doctor match; when VendorID is set, only leads targeting that vendor.
type LeadScope struct {
	DoctorUserID string
	VendorID     string
}

// scopeLeads applies the LeadScope conditions to a leads query.
func scopeLeads(q *gorm.DB, scope LeadScope) *gorm.DB {
	if scope.DoctorUserID != "" {
		q = q.Where("doctor_user_id = ?", scope.DoctorUserID)
	}
	if scope.VendorID != "" {
		q = q.Where("vendor_id = ?", scope.VendorID)
	}
	return q
}

// CreateLead inserts a new lead row. The id is a randomly generated UUID and
// CreatedAt is set to UTC; the caller provides all business fields including
// the initial status. On success the persisted row is returned.
func CreateLead(ctx context.Context, db *gorm.DB, l *domain.Lead) (*domain.Lead, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// GetLead fetches a single lead visible under scope, with its vendor
// association preloaded. Returns ErrNotFound when the row is absent or out of
// scope (the two cases are indistinguishable to the caller, as they were
// under the original policy layer).
func GetLead(ctx context.Context, db *gorm.DB, id string, scope LeadScope) (*domain.Lead, error) {
	var l domain.Lead
	err := scopeLeads(db.WithContext(ctx).Preload("Vendor"), scope).
		Where("id = ?", id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CountLeads returns the number of leads visible under scope, optionally
// filtered by status.
func CountLeads(ctx context.Context, db *gorm.DB, scope LeadScope, status string) (int64, error) {
	q := scopeLeads(db.WithContext(ctx).Model(&domain.Lead{}), scope)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListLeadsPage returns a page of leads visible under scope, newest first,
// optionally filtered by status, with vendors preloaded.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListLeadsPage(ctx context.Context, db *gorm.DB, scope LeadScope, status string, offset, limit int) ([]domain.Lead, error) {
	q := scopeLeads(db.WithContext(ctx).Preload("Vendor"), scope)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Lead
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateLeadStatus sets the status column of a lead. Returns ErrNotFound when
// no row was affected.
//
// This is a plain read-then-write protocol: no row lock and no conditional
// "WHERE status = expected" clause, so two concurrent transitions on the same
// lead race and the last write wins, matching the original behavior.
func UpdateLeadStatus(ctx context.Context, db *gorm.DB, id, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLead bumps a lead's updated_at so collection ETags change when thread
// activity occurs without a status transition. Returns ErrNotFound when no row
// was affected.
func TouchLead(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendLeadStatusHistory inserts one immutable history row. fromStatus is nil
// for the creation row.
func AppendLeadStatusHistory(ctx context.Context, db *gorm.DB, leadID string, fromStatus *string, toStatus, changedBy string) error {
	h := &domain.LeadStatusHistory{
		ID:         uuid.NewString(),
		LeadID:     leadID,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		ChangedBy:  changedBy,
		CreatedAt:  time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(h).Error
}

// ListLeadStatusHistory returns all history rows for a lead in creation order
// ascending, reconstructing the full transition chain.
func ListLeadStatusHistory(ctx context.Context, db *gorm.DB, leadID string) ([]domain.LeadStatusHistory, error) {
	var out []domain.LeadStatusHistory
	err := db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// CreateLeadAttachments inserts one attachment row per file id as a single
// batch. An empty fileIDs slice is a no-op.
func CreateLeadAttachments(ctx context.Context, db *gorm.DB, leadID string, fileIDs []string, createdBy string) error {
	if len(fileIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.LeadAttachment, 0, len(fileIDs))
	for _, fid := range fileIDs {
		rows = append(rows, domain.LeadAttachment{
			ID:        uuid.NewString(),
			LeadID:    leadID,
			FileID:    fid,
			CreatedBy: createdBy,
			CreatedAt: now,
		})
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// ListLeadAttachments returns all attachments for a lead in creation order
// ascending.
func ListLeadAttachments(ctx context.Context, db *gorm.DB, leadID string) ([]domain.LeadAttachment, error) {
	var out []domain.LeadAttachment
	err := db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
