package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/notify"
	"github.com/medihub/go-medihub-backend/internal/repo"
)

// seedLeadWithThread creates a published vendor owned by ownerID and a lead
// from doctorID targeting it.
func seedLeadWithThread(t *testing.T, db *gorm.DB, svc *LeadService, doctorID, ownerID string) (*domain.Lead, *domain.Vendor) {
	t.Helper()
	v := &domain.Vendor{
		ID:          uuid.NewString(),
		OwnerUserID: ownerID,
		Name:        "한빛원외탕전",
		Category:    "원외탕전",
		Status:      domain.VendorStatusPublished,
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	lead, _, err := svc.Create(context.Background(), doctorID, validInput(v.ID))
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return lead, v
}

func TestAddMessage_AdminCannotWrite(t *testing.T) {
	db := newTestDB(t)
	svc := newLeadSvc(db)
	lead, _ := seedLeadWithThread(t, db, svc, "doc1", uuid.NewString())

	_, err := svc.AddMessage(context.Background(), "admin1", domain.RoleAdmin, repo.LeadScope{}, lead.ID, "상태가 어떻게 되나요?")
	if !errors.Is(err, ErrAdminCannotMessage) {
		t.Fatalf("expected ErrAdminCannotMessage, got %v", err)
	}

	var total int64
	if err := db.Model(&domain.LeadMessage{}).Count(&total).Error; err != nil || total != 0 {
		t.Fatalf("message rows = %d; want 0", total)
	}
}

func TestAddMessage_EmptyContent(t *testing.T) {
	db := newTestDB(t)
	svc := newLeadSvc(db)
	lead, _ := seedLeadWithThread(t, db, svc, "doc1", uuid.NewString())

	scope := repo.LeadScope{DoctorUserID: "doc1"}
	_, err := svc.AddMessage(context.Background(), "doc1", domain.RoleDoctor, scope, lead.ID, "   ")
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestAddMessage_OutOfScopeIsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newLeadSvc(db)
	lead, _ := seedLeadWithThread(t, db, svc, "doc1", uuid.NewString())

	foreign := repo.LeadScope{DoctorUserID: "doc2"}
	_, err := svc.AddMessage(context.Background(), "doc2", domain.RoleDoctor, foreign, lead.ID, "견적 부탁드립니다")
	if !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound for foreign doctor, got %v", err)
	}
}

func TestAddMessage_PerMinuteLimitIsPerThread(t *testing.T) {
	db := newTestDB(t)
	rl := NewRateLimitService(db, RateLimitPolicy{}, RateLimitPolicy{PerMinute: 2}, RateLimitPolicy{})
	svc := NewLeadService(db, rl, nil, nil, time.Hour)
	lead, v := seedLeadWithThread(t, db, svc, "doc1", uuid.NewString())

	scope := repo.LeadScope{DoctorUserID: "doc1"}
	for i := 0; i < 2; i++ {
		if _, err := svc.AddMessage(context.Background(), "doc1", domain.RoleDoctor, scope, lead.ID, "메시지"); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}

	_, err := svc.AddMessage(context.Background(), "doc1", domain.RoleDoctor, scope, lead.ID, "메시지")
	var rle *RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rle.Scope != "message_minute" || rle.Limit != 2 {
		t.Fatalf("unexpected limit details: %+v", rle)
	}
	if rle.RetryAfter != time.Minute {
		t.Fatalf("retry after = %v; want 1m", rle.RetryAfter)
	}

	// The cap is per thread: a second lead's thread is unaffected.
	other, _, err := svc.Create(context.Background(), "doc1", validInput(v.ID))
	if err != nil {
		t.Fatalf("create second lead: %v", err)
	}
	if _, err := svc.AddMessage(context.Background(), "doc1", domain.RoleDoctor, scope, other.ID, "메시지"); err != nil {
		t.Fatalf("second thread must not be limited, got %v", err)
	}
}

func TestAddMessage_BumpsLeadUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	svc := newLeadSvc(db)
	lead, _ := seedLeadWithThread(t, db, svc, "doc1", uuid.NewString())

	scope := repo.LeadScope{DoctorUserID: "doc1"}
	before, err := repo.GetLead(context.Background(), db, lead.ID, scope)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}

	if _, err := svc.AddMessage(context.Background(), "doc1", domain.RoleDoctor, scope, lead.ID, "견적 부탁드립니다"); err != nil {
		t.Fatalf("add message: %v", err)
	}

	after, err := repo.GetLead(context.Background(), db, lead.ID, scope)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("updated_at must advance on thread activity: before=%v after=%v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestAddMessage_NotifiesCounterparty(t *testing.T) {
	db := newTestDB(t)
	rec := &recordingNotifier{}
	svc := NewLeadService(db, nil, nil, rec, time.Hour)

	doctor := seedProfile(t, db, domain.RoleDoctor)
	owner := seedProfile(t, db, domain.RoleVendor)
	lead, v := seedLeadWithThread(t, db, svc, doctor.ID, owner.ID)

	// Doctor writes: the vendor owner is notified.
	doctorScope := repo.LeadScope{DoctorUserID: doctor.ID}
	if _, err := svc.AddMessage(context.Background(), doctor.ID, domain.RoleDoctor, doctorScope, lead.ID, "견적 부탁드립니다"); err != nil {
		t.Fatalf("doctor message: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("notifier calls = %d; want 1", len(rec.calls))
	}
	call := rec.calls[0]
	if call.UserID != owner.ID || call.Type != notify.TypeLeadMessageReceived {
		t.Fatalf("unexpected notification: %+v", call)
	}
	if call.Msg.To != owner.Email {
		t.Fatalf("recipient = %q; want %q", call.Msg.To, owner.Email)
	}

	// Vendor replies: the doctor is notified.
	vendorScope := repo.LeadScope{VendorID: v.ID}
	if _, err := svc.AddMessage(context.Background(), owner.ID, domain.RoleVendor, vendorScope, lead.ID, "견적서 전달드립니다"); err != nil {
		t.Fatalf("vendor message: %v", err)
	}
	if len(rec.calls) != 2 || rec.calls[1].UserID != doctor.ID {
		t.Fatalf("doctor not notified on reply: %+v", rec.calls)
	}
}

func TestListMessages_UnreadAndReadMarking(t *testing.T) {
	db := newTestDB(t)
	svc := newLeadSvc(db)
	owner := uuid.NewString()
	lead, v := seedLeadWithThread(t, db, svc, "doc1", owner)
	ctx := context.Background()

	doctorScope := repo.LeadScope{DoctorUserID: "doc1"}
	first, err := svc.AddMessage(ctx, "doc1", domain.RoleDoctor, doctorScope, lead.ID, "첫 문의입니다")
	if err != nil {
		t.Fatalf("first message: %v", err)
	}
	second, err := svc.AddMessage(ctx, "doc1", domain.RoleDoctor, doctorScope, lead.ID, "추가 문의입니다")
	if err != nil {
		t.Fatalf("second message: %v", err)
	}

	// The vendor sees both, unread, in send order.
	vendorScope := repo.LeadScope{VendorID: v.ID}
	pg, err := svc.ListMessages(ctx, vendorScope, owner, lead.ID, 1, 10)
	if err != nil {
		t.Fatalf("vendor list: %v", err)
	}
	if pg.Total != 2 || pg.Unread != 2 || len(pg.Items) != 2 {
		t.Fatalf("total=%d unread=%d len=%d; want 2/2/2", pg.Total, pg.Unread, len(pg.Items))
	}
	if pg.Items[0].ID != first.ID || pg.Items[1].ID != second.ID {
		t.Fatalf("thread out of order: %+v", pg.Items)
	}

	// The sender cannot mark their own messages read.
	if err := svc.MarkMessagesRead(ctx, doctorScope, "doc1", lead.ID, []string{first.ID, second.ID}); err != nil {
		t.Fatalf("doctor mark read: %v", err)
	}
	pg, err = svc.ListMessages(ctx, vendorScope, owner, lead.ID, 1, 10)
	if err != nil {
		t.Fatalf("vendor relist: %v", err)
	}
	if pg.Unread != 2 {
		t.Fatalf("own-sender marking must not consume unread; got %d", pg.Unread)
	}

	// The counterparty can.
	if err := svc.MarkMessagesRead(ctx, vendorScope, owner, lead.ID, []string{first.ID, second.ID}); err != nil {
		t.Fatalf("vendor mark read: %v", err)
	}
	pg, err = svc.ListMessages(ctx, vendorScope, owner, lead.ID, 1, 10)
	if err != nil {
		t.Fatalf("vendor final list: %v", err)
	}
	if pg.Unread != 0 {
		t.Fatalf("unread = %d; want 0 after marking", pg.Unread)
	}
	if pg.Items[0].ReadAt == nil || pg.Items[1].ReadAt == nil {
		t.Fatalf("read_at not stamped: %+v", pg.Items)
	}

	// The doctor's own unread count was never affected by their own sends.
	pg, err = svc.ListMessages(ctx, doctorScope, "doc1", lead.ID, 1, 10)
	if err != nil {
		t.Fatalf("doctor list: %v", err)
	}
	if pg.Unread != 0 {
		t.Fatalf("doctor unread = %d; want 0", pg.Unread)
	}
}

func TestListMessages_OutOfScopeIsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newLeadSvc(db)
	lead, _ := seedLeadWithThread(t, db, svc, "doc1", uuid.NewString())

	otherVendor := repo.LeadScope{VendorID: uuid.NewString()}
	_, err := svc.ListMessages(context.Background(), otherVendor, "v-user", lead.ID, 1, 10)
	if !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound for out-of-scope thread, got %v", err)
	}
}
