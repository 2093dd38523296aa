// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// audit trail written after privileged mutations.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// AuditLogFilter narrows the admin audit listing. All fields are optional.
// ActionPrefix matches actions hierarchically ("lead." matches
// "lead.status_change"); StartDate/EndDate bound created_at inclusively at
// day granularity.
type AuditLogFilter struct {
	ActionPrefix string
	TargetType   string
	ActorUserID  string
	StartDate    *time.Time
	EndDate      *time.Time
}

// CreateAuditLog inserts one audit row. Callers treat failures as
// best-effort: the audit service logs and swallows the returned error.
func CreateAuditLog(ctx context.Context, db *gorm.DB, actorUserID, action, targetType, targetID string, metadata *string) error {
	row := &domain.AuditLog{
		ID:          uuid.NewString(),
		ActorUserID: actorUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(row).Error
}

// CountAuditLogs returns the number of audit rows matching the filter.
func CountAuditLogs(ctx context.Context, db *gorm.DB, f AuditLogFilter) (int64, error) {
	var total int64
	err := auditQuery(db.WithContext(ctx).Model(&domain.AuditLog{}), f).Count(&total).Error
	return total, err
}

// ListAuditLogsPage returns a page of audit rows matching the filter,
// newest first.
func ListAuditLogsPage(ctx context.Context, db *gorm.DB, f AuditLogFilter, offset, limit int) ([]domain.AuditLog, error) {
	var out []domain.AuditLog
	err := auditQuery(db.WithContext(ctx), f).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func auditQuery(q *gorm.DB, f AuditLogFilter) *gorm.DB {
	if f.ActionPrefix != "" {
		q = q.Where("action LIKE ?", f.ActionPrefix+"%")
	}
	if f.TargetType != "" {
		q = q.Where("target_type = ?", f.TargetType)
	}
	if f.ActorUserID != "" {
		q = q.Where("actor_user_id = ?", f.ActorUserID)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", f.StartDate.UTC().Truncate(24*time.Hour))
	}
	if f.EndDate != nil {
		// End of day, inclusive.
		q = q.Where("created_at < ?", f.EndDate.UTC().Truncate(24*time.Hour).Add(24*time.Hour))
	}
	return q
}
