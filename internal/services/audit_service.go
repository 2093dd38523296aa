// Package services – AuditService
//
// This file implements the audit trail written after privileged mutations
// (status transitions, verification decisions). Record is fire-and-forget: an
// audit insert that fails must never undo or fail the operation it describes,
// so the error is logged and swallowed. The admin listing endpoint reads the
// trail back with filters and pagination.
package services

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/repo"
)

// Audit action names. Dot-separated so the admin listing can filter by
// prefix ("lead." matches every lead action).
const (
	AuditLeadStatusChange    = "lead.status_change"
	AuditVerificationApprove = "verification.approve"
	AuditVerificationReject  = "verification.reject"
)

// Audit target types.
const (
	TargetLead         = "lead"
	TargetVerification = "doctor_verification"
)

// AuditService records and lists audit rows.
type AuditService struct {
	DB *gorm.DB
}

// NewAuditService constructs an AuditService.
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

// Record inserts one audit row. metadata is marshaled to JSON when non-nil.
// Failures are logged and swallowed so the caller's mutation stands.
func (s *AuditService) Record(ctx context.Context, actorUserID, action, targetType, targetID string, metadata map[string]any) {
	var meta *string
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("audit metadata marshal failed; recording without metadata")
		} else {
			str := string(b)
			meta = &str
		}
	}
	if err := repo.CreateAuditLog(ctx, s.DB, actorUserID, action, targetType, targetID, meta); err != nil {
		log.Error().
			Err(err).
			Str("actor_user_id", actorUserID).
			Str("action", action).
			Str("target_type", targetType).
			Str("target_id", targetID).
			Msg("audit log insert failed")
	}
}

// List returns a page of audit rows matching the filter, newest first, with
// the total count for pagination.
func (s *AuditService) List(ctx context.Context, f repo.AuditLogFilter, page, pageSize int) ([]domain.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountAuditLogs(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.AuditLog{}, 0, nil
	}
	items, err := repo.ListAuditLogsPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}
