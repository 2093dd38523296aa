package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/notify"
)

// recordingNotifier captures Send calls instead of delivering mail.
type recordingNotifier struct {
	calls []recordedSend
}

type recordedSend struct {
	UserID string
	Type   string
	Msg    notify.Message
}

func (r *recordingNotifier) Send(ctx context.Context, userID, notifType string, msg notify.Message) notify.RetryResult[struct{}] {
	r.calls = append(r.calls, recordedSend{UserID: userID, Type: notifType, Msg: msg})
	return notify.RetryResult[struct{}]{Success: true}
}

func seedProfile(t *testing.T, db *gorm.DB, role string) *domain.Profile {
	t.Helper()
	p := &domain.Profile{
		ID:          uuid.NewString(),
		Role:        role,
		DisplayName: "김한의",
		Email:       "doctor@example.kr",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return p
}

func newVerifSvc(db *gorm.DB, n Notifier) *VerificationService {
	return NewVerificationService(db, nil, NewAuditService(db), n)
}

func TestVerificationSubmit_MissingLicense(t *testing.T) {
	db := newTestDB(t)
	svc := newVerifSvc(db, nil)

	_, err := svc.Submit(context.Background(), "doc1", SubmitVerificationInput{LicenseNumber: "  "})
	if !errors.Is(err, ErrMissingLicense) {
		t.Fatalf("expected ErrMissingLicense, got %v", err)
	}
}

func TestVerificationSubmit_CreatesPending(t *testing.T) {
	db := newTestDB(t)
	svc := newVerifSvc(db, nil)

	hospital := "한빛한의원"
	rec, err := svc.Submit(context.Background(), "doc1", SubmitVerificationInput{
		LicenseNumber: "LIC-12345",
		HospitalName:  &hospital,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Status != domain.VerificationPending {
		t.Fatalf("status = %q; want pending", rec.Status)
	}
	if rec.UserID != "doc1" || rec.LicenseNumber != "LIC-12345" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestVerificationSubmit_ResubmitAfterRejection(t *testing.T) {
	db := newTestDB(t)
	svc := newVerifSvc(db, nil)
	ctx := context.Background()

	first, err := svc.Submit(ctx, "doc1", SubmitVerificationInput{LicenseNumber: "LIC-1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Reject(ctx, "admin1", first.ID, "면허번호가 확인되지 않습니다"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	second, err := svc.Submit(ctx, "doc1", SubmitVerificationInput{LicenseNumber: "LIC-2"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmission must reuse the record; got %s want %s", second.ID, first.ID)
	}
	if second.Status != domain.VerificationPending {
		t.Fatalf("status = %q; want pending", second.Status)
	}
	if second.RejectReason != nil {
		t.Fatalf("resubmission must clear the reject reason, got %q", *second.RejectReason)
	}
	if second.LicenseNumber != "LIC-2" {
		t.Fatalf("license = %q; want LIC-2", second.LicenseNumber)
	}

	var total int64
	if err := db.Model(&domain.DoctorVerification{}).Count(&total).Error; err != nil || total != 1 {
		t.Fatalf("verification rows = %d; want 1", total)
	}
}

func TestVerificationSubmit_ApprovedIsTerminal(t *testing.T) {
	db := newTestDB(t)
	svc := newVerifSvc(db, nil)
	ctx := context.Background()

	rec, err := svc.Submit(ctx, "doc1", SubmitVerificationInput{LicenseNumber: "LIC-1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(ctx, "admin1", rec.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = svc.Submit(ctx, "doc1", SubmitVerificationInput{LicenseNumber: "LIC-2"})
	if !errors.Is(err, ErrVerificationApproved) {
		t.Fatalf("expected ErrVerificationApproved, got %v", err)
	}
}

func TestVerificationDecide_PendingOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newVerifSvc(db, nil)
	ctx := context.Background()

	rec, err := svc.Submit(ctx, "doc1", SubmitVerificationInput{LicenseNumber: "LIC-1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(ctx, "admin1", rec.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.Approve(ctx, "admin1", rec.ID); !errors.Is(err, ErrVerificationDecided) {
		t.Fatalf("double approve: expected ErrVerificationDecided, got %v", err)
	}
	if _, err := svc.Reject(ctx, "admin1", rec.ID, "too late"); !errors.Is(err, ErrVerificationDecided) {
		t.Fatalf("reject after approve: expected ErrVerificationDecided, got %v", err)
	}
}

func TestVerificationDecide_UnknownID(t *testing.T) {
	db := newTestDB(t)
	svc := newVerifSvc(db, nil)

	_, err := svc.Approve(context.Background(), "admin1", uuid.NewString())
	if !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound, got %v", err)
	}
}

func TestVerificationDecide_AuditsAndNotifies(t *testing.T) {
	db := newTestDB(t)
	rec := &recordingNotifier{}
	svc := newVerifSvc(db, rec)
	ctx := context.Background()

	doctor := seedProfile(t, db, domain.RoleDoctor)
	v, err := svc.Submit(ctx, doctor.ID, SubmitVerificationInput{LicenseNumber: "LIC-1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(ctx, "admin1", v.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if len(rec.calls) != 1 {
		t.Fatalf("notifier calls = %d; want 1", len(rec.calls))
	}
	call := rec.calls[0]
	if call.UserID != doctor.ID || call.Type != notify.TypeVerificationApproved {
		t.Fatalf("unexpected notification: %+v", call)
	}
	if call.Msg.To != doctor.Email {
		t.Fatalf("recipient = %q; want %q", call.Msg.To, doctor.Email)
	}

	var logs []domain.AuditLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("load audit logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("audit rows = %d; want 1", len(logs))
	}
	if logs[0].Action != AuditVerificationApprove || logs[0].TargetID != v.ID {
		t.Fatalf("unexpected audit row: %+v", logs[0])
	}
}

func TestVerificationDecide_MissingProfileSkipsNotification(t *testing.T) {
	db := newTestDB(t)
	rec := &recordingNotifier{}
	svc := newVerifSvc(db, rec)
	ctx := context.Background()

	// No profile row for this user id.
	v, err := svc.Submit(ctx, uuid.NewString(), SubmitVerificationInput{LicenseNumber: "LIC-1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, err := svc.Reject(ctx, "admin1", v.ID, "서류 미비")
	if err != nil {
		t.Fatalf("reject must succeed without a profile, got %v", err)
	}
	if got.Status != domain.VerificationRejected {
		t.Fatalf("status = %q; want rejected", got.Status)
	}
	if got.RejectReason == nil || *got.RejectReason != "서류 미비" {
		t.Fatalf("reject reason not stored: %v", got.RejectReason)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("no notification expected without a profile, got %d", len(rec.calls))
	}
}

func TestVerificationGetMine(t *testing.T) {
	db := newTestDB(t)
	svc := newVerifSvc(db, nil)
	ctx := context.Background()

	if _, err := svc.GetMine(ctx, "doc1"); !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound, got %v", err)
	}

	if _, err := svc.Submit(ctx, "doc1", SubmitVerificationInput{LicenseNumber: "LIC-1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	rec, err := svc.GetMine(ctx, "doc1")
	if err != nil {
		t.Fatalf("get mine: %v", err)
	}
	if rec.Status != domain.VerificationPending {
		t.Fatalf("status = %q; want pending", rec.Status)
	}
}

func TestVerificationListPage_StatusFilter(t *testing.T) {
	db := newTestDB(t)
	svc := newVerifSvc(db, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(ctx, uuid.NewString(), SubmitVerificationInput{LicenseNumber: "LIC-1"}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	pending, total, err := svc.ListPage(ctx, domain.VerificationPending, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(pending) != 2 {
		t.Fatalf("total=%d len=%d; want 3/2", total, len(pending))
	}

	approved, total, err := svc.ListPage(ctx, domain.VerificationApproved, 1, 10)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if total != 0 || len(approved) != 0 {
		t.Fatalf("approved filter should be empty, got total=%d", total)
	}
}
