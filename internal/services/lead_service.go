// Package services – LeadService
//
// This file implements LeadService, the application-level component that owns
// the lead lifecycle: creation by approved doctors, scoped listing and detail
// reads, the status-transition workflow, and the per-lead message thread
// between the doctor and the vendor.
//
// Creation is resilient: once the lead row itself is persisted, the follow-up
// writes (initial history row, attachments, idempotency record, rate-limit
// event) are each best-effort. A failure there is logged and the created lead
// is still returned; a doctor's inquiry must never be lost to bookkeeping.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// lead/user identifiers where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/notify"
	"github.com/medihub/go-medihub-backend/internal/observability"
	"github.com/medihub/go-medihub-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreateLeadInput carries the fields of a lead creation request after JSON
// binding. Pointer fields are optional.
type CreateLeadInput struct {
	VendorID         string
	ServiceName      *string
	ContactName      string
	ContactPhone     string
	ContactEmail     *string
	PreferredChannel *string
	PreferredTime    *string
	Content          string
	FileIDs          []string

	// IdempotencyKey deduplicates retried submissions. Empty disables the
	// check.
	IdempotencyKey string
}

// LeadDetail bundles a lead with its history and attachments for the detail
// endpoint.
type LeadDetail struct {
	Lead        *domain.Lead
	History     []domain.LeadStatusHistory
	Attachments []domain.LeadAttachment
}

// LeadService coordinates lead persistence, rate limits, the status workflow,
// and the per-lead message thread.
type LeadService struct {
	DB        *gorm.DB
	RateLimit *RateLimitService
	Audit     *AuditService

	// Notifier delivers the new-message notice to the thread counterparty.
	// Nil disables message notifications.
	Notifier Notifier

	// IdempotencyTTL bounds how long a creation replay window stays open.
	IdempotencyTTL time.Duration
}

// NewLeadService constructs a LeadService.
func NewLeadService(db *gorm.DB, rl *RateLimitService, audit *AuditService, notifier Notifier, idempotencyTTL time.Duration) *LeadService {
	return &LeadService{DB: db, RateLimit: rl, Audit: audit, Notifier: notifier, IdempotencyTTL: idempotencyTTL}
}

// Create validates and persists a new lead for doctorUserID targeting a
// published vendor. The returned bool reports an idempotent replay: true means
// a previously created lead was returned and no new row was written.
//
// Order of checks: input validation, vendor existence, rate limits, then
// idempotency lookup. After the insert, history, attachments, idempotency, and
// rate-limit bookkeeping are best-effort.
func (s *LeadService) Create(ctx context.Context, doctorUserID string, in CreateLeadInput) (*domain.Lead, bool, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", doctorUserID),
			attribute.String("vendor.id", in.VendorID),
		),
	)
	defer span.End()

	in.Content = strings.TrimSpace(in.Content)
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	if in.Content == "" {
		return nil, false, ErrEmptyContent
	}
	if in.ContactName == "" || in.ContactPhone == "" {
		return nil, false, ErrMissingContact
	}

	vendor, err := repo.GetPublishedVendor(ctx, s.DB, in.VendorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, ErrVendorNotFound
		}
		return nil, false, err
	}

	if s.RateLimit != nil {
		if err := s.RateLimit.CheckLeadCreate(ctx, doctorUserID, vendor.ID); err != nil {
			return nil, false, err
		}
	}

	if in.IdempotencyKey != "" {
		rec, err := repo.GetIdempotencyKey(ctx, s.DB, doctorUserID, in.IdempotencyKey)
		if err == nil {
			existing, gerr := repo.GetLead(ctx, s.DB, rec.LeadID, repo.LeadScope{DoctorUserID: doctorUserID})
			if gerr == nil {
				return existing, true, nil
			}
			log.Warn().Err(gerr).Str("lead_id", rec.LeadID).Msg("idempotency record points at unreadable lead; creating anew")
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, false, err
		}
	}

	lead := &domain.Lead{
		DoctorUserID:     doctorUserID,
		VendorID:         vendor.ID,
		ServiceName:      in.ServiceName,
		ContactName:      in.ContactName,
		ContactPhone:     in.ContactPhone,
		ContactEmail:     in.ContactEmail,
		PreferredChannel: in.PreferredChannel,
		PreferredTime:    in.PreferredTime,
		Content:          in.Content,
		Status:           domain.LeadStatusSubmitted,
	}
	if _, err := repo.CreateLead(ctx, s.DB, lead); err != nil {
		return nil, false, err
	}
	lead.Vendor = *vendor
	span.SetAttributes(attribute.String("lead.id", lead.ID))
	observability.LeadsCreated.Inc()

	// Best-effort follow-ups. Each failure is logged; none undoes the lead.
	if err := repo.AppendLeadStatusHistory(ctx, s.DB, lead.ID, nil, lead.Status, doctorUserID); err != nil {
		log.Error().Err(err).Str("lead_id", lead.ID).Msg("initial status history insert failed")
	}
	if err := repo.CreateLeadAttachments(ctx, s.DB, lead.ID, in.FileIDs, doctorUserID); err != nil {
		log.Error().Err(err).Str("lead_id", lead.ID).Msg("lead attachment insert failed")
	}
	if in.IdempotencyKey != "" {
		if err := repo.CreateIdempotencyKey(ctx, s.DB, doctorUserID, in.IdempotencyKey, lead.ID, 201, s.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicateKey) {
			log.Warn().Err(err).Str("lead_id", lead.ID).Msg("idempotency record insert failed")
		}
	}
	if s.RateLimit != nil {
		if err := s.RateLimit.RecordLeadCreate(ctx, doctorUserID, vendor.ID); err != nil {
			log.Warn().Err(err).Str("lead_id", lead.ID).Msg("rate limit event insert failed")
		}
	}

	return lead, false, nil
}

// GetDetail fetches a lead visible under scope with its full status history
// and attachments. Returns ErrLeadNotFound when absent or out of scope.
func (s *LeadService) GetDetail(ctx context.Context, scope repo.LeadScope, id string) (*LeadDetail, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "GetDetail",
		trace.WithAttributes(attribute.String("lead.id", id)),
	)
	defer span.End()

	lead, err := repo.GetLead(ctx, s.DB, id, scope)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	history, err := repo.ListLeadStatusHistory(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	attachments, err := repo.ListLeadAttachments(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	return &LeadDetail{Lead: lead, History: history, Attachments: attachments}, nil
}

// ListPage returns a page of leads visible under scope, newest first, with the
// total count for pagination. status optionally filters; it must be a known
// status or empty.
func (s *LeadService) ListPage(ctx context.Context, scope repo.LeadScope, status string, page, pageSize int) ([]domain.Lead, int64, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if status != "" && !domain.IsLeadStatus(status) {
		return nil, 0, ErrInvalidStatus
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountLeads(ctx, s.DB, scope, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Lead{}, 0, nil
	}
	items, err := repo.ListLeadsPage(ctx, s.DB, scope, status, offset, pageSize)
	return items, total, err
}

// Stats returns the count and max updated_at of leads visible under scope,
// used by the HTTP layer for weak ETag generation.
func (s *LeadService) Stats(ctx context.Context, scope repo.LeadScope) (int64, *time.Time, error) {
	return repo.LeadStats(ctx, s.DB, scope)
}

// ChangeStatus applies a status transition to a lead visible under scope.
//
// Rules, checked in order:
//   - toStatus must be an enumerated status (ErrInvalidStatus otherwise).
//   - The lead must exist and be visible under scope (ErrLeadNotFound).
//   - Doctors may only transition to canceled (ErrDoctorCancelOnly).
//   - A transition to the current status is an accepted no-op: the lead is
//     returned unchanged and no history or audit row is written.
//
// After an effective transition, the history row and audit record are
// best-effort.
func (s *LeadService) ChangeStatus(ctx context.Context, actorUserID, actorRole string, scope repo.LeadScope, leadID, toStatus string) (*domain.Lead, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "ChangeStatus",
		trace.WithAttributes(
			attribute.String("lead.id", leadID),
			attribute.String("user.id", actorUserID),
			attribute.String("lead.status", toStatus),
		),
	)
	defer span.End()

	if !domain.IsLeadStatus(toStatus) {
		return nil, ErrInvalidStatus
	}

	lead, err := repo.GetLead(ctx, s.DB, leadID, scope)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	if actorRole == domain.RoleDoctor && toStatus != domain.LeadStatusCanceled {
		return nil, ErrDoctorCancelOnly
	}

	if lead.Status == toStatus {
		return lead, nil
	}

	fromStatus := lead.Status
	if err := repo.UpdateLeadStatus(ctx, s.DB, leadID, toStatus); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	lead.Status = toStatus
	lead.UpdatedAt = time.Now().UTC()
	observability.LeadStatusTransitions.WithLabelValues(toStatus).Inc()

	if err := repo.AppendLeadStatusHistory(ctx, s.DB, leadID, &fromStatus, toStatus, actorUserID); err != nil {
		log.Error().Err(err).Str("lead_id", leadID).Msg("status history insert failed")
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, actorUserID, AuditLeadStatusChange, TargetLead, leadID, map[string]any{
			"from": fromStatus,
			"to":   toStatus,
		})
	}
	return lead, nil
}

// LeadMessagePage bundles one page of a lead's message thread with the total
// row count and the caller's unread count.
type LeadMessagePage struct {
	Items  []domain.LeadMessage
	Total  int64
	Unread int64
}

// ListMessages returns a page of the lead's message thread in chronological
// order. The lead must be visible under scope (ErrLeadNotFound otherwise);
// Unread counts messages sent by the other party that the caller has not
// marked read.
func (s *LeadService) ListMessages(ctx context.Context, scope repo.LeadScope, userID, leadID string, page, pageSize int) (*LeadMessagePage, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "ListMessages",
		trace.WithAttributes(attribute.String("lead.id", leadID)),
	)
	defer span.End()

	if _, err := repo.GetLead(ctx, s.DB, leadID, scope); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	total, err := repo.CountLeadMessages(ctx, s.DB, leadID)
	if err != nil {
		return nil, err
	}
	unread, err := repo.CountUnreadLeadMessages(ctx, s.DB, leadID, userID)
	if err != nil {
		return nil, err
	}
	items := []domain.LeadMessage{}
	if total > 0 {
		items, err = repo.ListLeadMessagesPage(ctx, s.DB, leadID, (page-1)*pageSize, pageSize)
		if err != nil {
			return nil, err
		}
	}
	return &LeadMessagePage{Items: items, Total: total, Unread: unread}, nil
}

// AddMessage appends a message to the lead's thread. Admins may read threads
// but not write into them (ErrAdminCannotMessage). Messages within one thread
// are capped per minute and sender. After the insert, the lead's updated_at is
// bumped so list ETags reflect thread activity, and the counterparty is
// notified; both follow-ups are best-effort.
func (s *LeadService) AddMessage(ctx context.Context, actorUserID, actorRole string, scope repo.LeadScope, leadID, content string) (*domain.LeadMessage, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "AddMessage",
		trace.WithAttributes(
			attribute.String("lead.id", leadID),
			attribute.String("user.id", actorUserID),
		),
	)
	defer span.End()

	if actorRole == domain.RoleAdmin {
		return nil, ErrAdminCannotMessage
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	lead, err := repo.GetLead(ctx, s.DB, leadID, scope)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	if s.RateLimit != nil {
		if err := s.RateLimit.CheckLeadMessage(ctx, actorUserID, leadID); err != nil {
			return nil, err
		}
	}

	msg := &domain.LeadMessage{
		LeadID:       leadID,
		SenderUserID: actorUserID,
		Content:      content,
	}
	if err := repo.CreateLeadMessage(ctx, s.DB, msg); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("message.id", msg.ID))

	// Best-effort follow-ups. Each failure is logged; none undoes the message.
	if err := repo.TouchLead(ctx, s.DB, leadID); err != nil {
		log.Warn().Err(err).Str("lead_id", leadID).Msg("lead touch after message failed")
	}
	if s.RateLimit != nil {
		if err := s.RateLimit.RecordLeadMessage(ctx, actorUserID, leadID); err != nil {
			log.Warn().Err(err).Str("lead_id", leadID).Msg("message rate limit event insert failed")
		}
	}
	s.notifyMessage(ctx, lead, actorUserID, content)

	return msg, nil
}

// MarkMessagesRead stamps read_at on the given messages of a visible lead.
// Only messages sent by the other party are affected; the caller cannot mark
// their own messages.
func (s *LeadService) MarkMessagesRead(ctx context.Context, scope repo.LeadScope, userID, leadID string, messageIDs []string) error {
	if _, err := repo.GetLead(ctx, s.DB, leadID, scope); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrLeadNotFound
		}
		return err
	}
	return repo.MarkLeadMessagesRead(ctx, s.DB, leadID, userID, messageIDs)
}

// notifyMessage emails the thread counterparty about a new message.
// Best-effort: a missing profile or failed delivery is logged, never surfaced.
func (s *LeadService) notifyMessage(ctx context.Context, lead *domain.Lead, senderID, content string) {
	if s.Notifier == nil {
		return
	}
	recipientID := lead.Vendor.OwnerUserID
	if senderID != lead.DoctorUserID {
		recipientID = lead.DoctorUserID
	}
	if recipientID == "" || recipientID == senderID {
		return
	}

	recipient, err := repo.GetProfile(ctx, s.DB, recipientID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", recipientID).Msg("cannot notify lead message: profile lookup failed")
		return
	}
	senderName := "상대방"
	if sp, serr := repo.GetProfile(ctx, s.DB, senderID); serr == nil {
		senderName = sp.DisplayName
	}
	s.Notifier.Send(ctx, recipientID, notify.TypeLeadMessageReceived,
		notify.LeadMessageMail(recipient.Email, recipient.DisplayName, senderName, clipRunes(content, 100)))
}

// clipRunes truncates s to at most n runes for body previews.
func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
