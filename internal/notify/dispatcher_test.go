package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/medihub/go-medihub-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notify_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeMailer fails the first failures sends, then succeeds.
type fakeMailer struct {
	failures int
	calls    int
}

func (m *fakeMailer) Send(ctx context.Context, msg Message) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("smtp unavailable")
	}
	return nil
}

func TestDispatcherSend_RecordsSuccess(t *testing.T) {
	db := newTestDB(t)
	d := NewDispatcher(db, &fakeMailer{}, 3, time.Millisecond)

	msg := VerificationApprovedMail("doctor@example.kr", "김한의")
	res := d.Send(context.Background(), "doc1", TypeVerificationApproved, msg)
	if !res.Success || res.RetryCount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	rows, err := repo.ListNotificationDeliveries(context.Background(), db, "doc1")
	if err != nil {
		t.Fatalf("list deliveries: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("delivery rows = %d; want 1", len(rows))
	}
	row := rows[0]
	if row.Type != TypeVerificationApproved || row.Channel != "email" || row.Provider != "smtp" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Recipient != "doctor@example.kr" || row.Subject != msg.Subject {
		t.Fatalf("recipient/subject mismatch: %+v", row)
	}
	if row.SentAt == nil || row.FailedAt != nil {
		t.Fatalf("success row must set SentAt only: sent=%v failed=%v", row.SentAt, row.FailedAt)
	}
}

func TestDispatcherSend_RetriesThenSucceeds(t *testing.T) {
	db := newTestDB(t)
	m := &fakeMailer{failures: 2}
	d := NewDispatcher(db, m, 3, time.Millisecond)

	res := d.Send(context.Background(), "doc1", TypeVerificationApproved, Message{To: "a@b.kr", Subject: "s", Body: "b"})
	if !res.Success {
		t.Fatalf("expected eventual success: %+v", res)
	}
	if res.RetryCount != 2 || m.calls != 3 {
		t.Fatalf("retries=%d calls=%d; want 2/3", res.RetryCount, m.calls)
	}

	rows, _ := repo.ListNotificationDeliveries(context.Background(), db, "doc1")
	if len(rows) != 1 || rows[0].RetryCount != 2 {
		t.Fatalf("delivery row must carry retry count, got %+v", rows)
	}
}

func TestDispatcherSend_RecordsFailureAfterExhaustion(t *testing.T) {
	db := newTestDB(t)
	d := NewDispatcher(db, &fakeMailer{failures: 100}, 2, time.Millisecond)

	res := d.Send(context.Background(), "doc1", TypeVerificationRejected, Message{To: "a@b.kr", Subject: "s", Body: "b"})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.RetryCount != 2 {
		t.Fatalf("RetryCount = %d; want 2", res.RetryCount)
	}

	rows, err := repo.ListNotificationDeliveries(context.Background(), db, "doc1")
	if err != nil || len(rows) != 1 {
		t.Fatalf("delivery rows = %d (err=%v); want 1", len(rows), err)
	}
	row := rows[0]
	if row.FailedAt == nil || row.SentAt != nil {
		t.Fatalf("failed row must set FailedAt only: sent=%v failed=%v", row.SentAt, row.FailedAt)
	}
	if row.ErrorMessage == nil || !strings.Contains(*row.ErrorMessage, "smtp unavailable") {
		t.Fatalf("error message not recorded: %v", row.ErrorMessage)
	}
}

func TestDispatcherSend_TruncatesBodyPreview(t *testing.T) {
	db := newTestDB(t)
	d := NewDispatcher(db, &fakeMailer{}, 0, time.Millisecond)

	body := strings.Repeat("가", 300)
	d.Send(context.Background(), "doc1", TypeVerificationApproved, Message{To: "a@b.kr", Subject: "s", Body: body})

	rows, _ := repo.ListNotificationDeliveries(context.Background(), db, "doc1")
	if len(rows) != 1 {
		t.Fatalf("delivery rows = %d; want 1", len(rows))
	}
	if got := len([]rune(rows[0].BodyPreview)); got != 120 {
		t.Fatalf("preview runes = %d; want 120", got)
	}
}

func TestVerificationMailTemplates(t *testing.T) {
	approved := VerificationApprovedMail("doctor@example.kr", "김한의")
	if approved.To != "doctor@example.kr" {
		t.Fatalf("to = %q", approved.To)
	}
	if !strings.Contains(approved.Subject, "승인") {
		t.Fatalf("approved subject = %q", approved.Subject)
	}
	if !strings.Contains(approved.Body, "김한의") {
		t.Fatalf("approved body must address the doctor")
	}

	rejected := VerificationRejectedMail("doctor@example.kr", "김한의", "면허번호 불일치")
	if !strings.Contains(rejected.Subject, "반려") {
		t.Fatalf("rejected subject = %q", rejected.Subject)
	}
	if !strings.Contains(rejected.Body, "면허번호 불일치") {
		t.Fatalf("rejected body must include the reason")
	}
}
