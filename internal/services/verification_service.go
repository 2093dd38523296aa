// Package services – VerificationService
//
// This file implements the doctor verification workflow: a doctor submits a
// license for review, an admin approves or rejects it, and the decision is
// audited and notified by email. Approval is the gate for every doctor-only
// operation, so the submit path is rate limited and an approved record cannot
// be overwritten by a resubmission.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/notify"
	"github.com/medihub/go-medihub-backend/internal/observability"
	"github.com/medihub/go-medihub-backend/internal/repo"
)

// Notifier is the delivery dependency of VerificationService. Satisfied by
// *notify.Dispatcher; tests substitute a recorder.
type Notifier interface {
	Send(ctx context.Context, userID, notifType string, msg notify.Message) notify.RetryResult[struct{}]
}

// SubmitVerificationInput carries a doctor verification submission.
type SubmitVerificationInput struct {
	LicenseNumber string
	HospitalName  *string
}

// VerificationService owns doctor verification submission and review.
type VerificationService struct {
	DB        *gorm.DB
	RateLimit *RateLimitService
	Audit     *AuditService
	Notifier  Notifier
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(db *gorm.DB, rl *RateLimitService, audit *AuditService, notifier Notifier) *VerificationService {
	return &VerificationService{DB: db, RateLimit: rl, Audit: audit, Notifier: notifier}
}

// Submit creates or resets the doctor verification record for userID to
// pending. A rejected record may be resubmitted; an approved one may not
// (ErrVerificationApproved). Submissions count against the daily rate limit.
func (s *VerificationService) Submit(ctx context.Context, userID string, in SubmitVerificationInput) (*domain.DoctorVerification, error) {
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	if in.LicenseNumber == "" {
		return nil, ErrMissingLicense
	}

	if s.RateLimit != nil {
		if err := s.RateLimit.CheckVerificationSubmit(ctx, userID); err != nil {
			return nil, err
		}
	}

	existing, err := repo.GetDoctorVerification(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == domain.VerificationApproved {
		return nil, ErrVerificationApproved
	}

	var rec *domain.DoctorVerification
	if existing != nil {
		existing.LicenseNumber = in.LicenseNumber
		existing.HospitalName = in.HospitalName
		existing.Status = domain.VerificationPending
		existing.RejectReason = nil
		if err := s.DB.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, err
		}
		rec = existing
	} else {
		rec = &domain.DoctorVerification{
			ID:            uuid.NewString(),
			UserID:        userID,
			LicenseNumber: in.LicenseNumber,
			HospitalName:  in.HospitalName,
			Status:        domain.VerificationPending,
		}
		if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
			return nil, err
		}
	}

	if s.RateLimit != nil {
		if err := s.RateLimit.RecordVerificationSubmit(ctx, userID); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("verification rate limit event insert failed")
		}
	}
	return rec, nil
}

// GetMine returns the caller's verification record, or ErrVerificationNotFound
// when none was ever submitted.
func (s *VerificationService) GetMine(ctx context.Context, userID string) (*domain.DoctorVerification, error) {
	rec, err := repo.GetDoctorVerification(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrVerificationNotFound
	}
	return rec, nil
}

// ListPage returns a page of verification records for the admin review queue,
// newest first, optionally filtered by status.
func (s *VerificationService) ListPage(ctx context.Context, status string, page, pageSize int) ([]domain.DoctorVerification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountDoctorVerifications(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.DoctorVerification{}, 0, nil
	}
	items, err := repo.ListDoctorVerificationsPage(ctx, s.DB, status, offset, pageSize)
	return items, total, err
}

// Approve marks a pending verification approved, audits the decision, and
// notifies the doctor by email. Only pending records may be decided.
func (s *VerificationService) Approve(ctx context.Context, adminUserID, verificationID string) (*domain.DoctorVerification, error) {
	return s.decide(ctx, adminUserID, verificationID, domain.VerificationApproved, nil)
}

// Reject marks a pending verification rejected with an optional reason,
// audits the decision, and notifies the doctor by email.
func (s *VerificationService) Reject(ctx context.Context, adminUserID, verificationID, reason string) (*domain.DoctorVerification, error) {
	reason = strings.TrimSpace(reason)
	var rp *string
	if reason != "" {
		rp = &reason
	}
	return s.decide(ctx, adminUserID, verificationID, domain.VerificationRejected, rp)
}

func (s *VerificationService) decide(ctx context.Context, adminUserID, verificationID, status string, rejectReason *string) (*domain.DoctorVerification, error) {
	rec, err := repo.GetDoctorVerificationByID(ctx, s.DB, verificationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	if rec.Status != domain.VerificationPending {
		return nil, ErrVerificationDecided
	}

	rec.Status = status
	rec.RejectReason = rejectReason
	rec.UpdatedAt = time.Now().UTC()
	if err := s.DB.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, err
	}
	observability.VerificationDecisions.WithLabelValues(status).Inc()

	action := AuditVerificationApprove
	meta := map[string]any{"status": status}
	if status == domain.VerificationRejected {
		action = AuditVerificationReject
		if rejectReason != nil {
			meta["reason"] = *rejectReason
		}
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, adminUserID, action, TargetVerification, rec.ID, meta)
	}

	s.notifyDecision(ctx, rec, rejectReason)
	return rec, nil
}

// notifyDecision emails the doctor about the decision. Best-effort: a missing
// profile or a failed delivery is logged, never surfaced.
func (s *VerificationService) notifyDecision(ctx context.Context, rec *domain.DoctorVerification, rejectReason *string) {
	if s.Notifier == nil {
		return
	}
	profile, err := repo.GetProfile(ctx, s.DB, rec.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", rec.UserID).Msg("cannot notify verification decision: profile lookup failed")
		return
	}

	var msg notify.Message
	var notifType string
	switch rec.Status {
	case domain.VerificationApproved:
		notifType = notify.TypeVerificationApproved
		msg = notify.VerificationApprovedMail(profile.Email, profile.DisplayName)
	case domain.VerificationRejected:
		notifType = notify.TypeVerificationRejected
		reason := ""
		if rejectReason != nil {
			reason = *rejectReason
		}
		msg = notify.VerificationRejectedMail(profile.Email, profile.DisplayName, reason)
	default:
		return
	}
	s.Notifier.Send(ctx, rec.UserID, notifType, msg)
}
