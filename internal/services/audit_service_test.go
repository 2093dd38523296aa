package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/repo"
)

func TestAuditRecord_MarshalsMetadata(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)

	svc.Record(context.Background(), "admin1", AuditLeadStatusChange, TargetLead, "lead-1", map[string]any{
		"from": "submitted",
		"to":   "in_progress",
	})

	var row domain.AuditLog
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load audit row: %v", err)
	}
	if row.ActorUserID != "admin1" || row.Action != AuditLeadStatusChange {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Metadata == nil {
		t.Fatalf("metadata not stored")
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(*row.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["from"] != "submitted" || meta["to"] != "in_progress" {
		t.Fatalf("metadata = %v", meta)
	}
}

func TestAuditRecord_NilMetadata(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)

	svc.Record(context.Background(), "admin1", AuditVerificationApprove, TargetVerification, "v-1", nil)

	var row domain.AuditLog
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load audit row: %v", err)
	}
	if row.Metadata != nil {
		t.Fatalf("metadata = %v; want nil", *row.Metadata)
	}
}

func TestAuditRecord_SwallowsInsertFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)

	if err := db.Callback().Create().Before("gorm:create").Register("force_err_audit", func(tx *gorm.DB) {
		if tx.Statement != nil && tx.Statement.Table == "audit_logs" {
			tx.AddError(errors.New("boom"))
		}
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	// Must not panic or propagate.
	svc.Record(context.Background(), "admin1", AuditLeadStatusChange, TargetLead, "lead-1", nil)

	var total int64
	if err := db.Table("audit_logs").Count(&total).Error; err != nil || total != 0 {
		t.Fatalf("audit rows = %d; want 0", total)
	}
}

func TestAuditList_Filters(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)
	ctx := context.Background()

	svc.Record(ctx, "admin1", AuditLeadStatusChange, TargetLead, "lead-1", nil)
	svc.Record(ctx, "admin1", AuditVerificationApprove, TargetVerification, "v-1", nil)
	svc.Record(ctx, "admin2", AuditVerificationReject, TargetVerification, "v-2", nil)

	all, total, err := svc.List(ctx, repo.AuditLogFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total=%d len=%d; want 3/3", total, len(all))
	}

	// Hierarchical action prefix.
	verifs, total, err := svc.List(ctx, repo.AuditLogFilter{ActionPrefix: "verification."}, 1, 10)
	if err != nil {
		t.Fatalf("list by prefix: %v", err)
	}
	if total != 2 || len(verifs) != 2 {
		t.Fatalf("prefix filter: total=%d; want 2", total)
	}

	// Actor filter.
	_, total, err = svc.List(ctx, repo.AuditLogFilter{ActorUserID: "admin2"}, 1, 10)
	if err != nil {
		t.Fatalf("list by actor: %v", err)
	}
	if total != 1 {
		t.Fatalf("actor filter: total=%d; want 1", total)
	}

	// Target type filter combined with prefix.
	_, total, err = svc.List(ctx, repo.AuditLogFilter{ActionPrefix: "verification.", TargetType: TargetVerification, ActorUserID: "admin1"}, 1, 10)
	if err != nil {
		t.Fatalf("combined filter: %v", err)
	}
	if total != 1 {
		t.Fatalf("combined filter: total=%d; want 1", total)
	}
}

func TestAuditList_DateBounds(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)
	ctx := context.Background()

	svc.Record(ctx, "admin1", AuditLeadStatusChange, TargetLead, "lead-1", nil)

	today := time.Now().UTC()
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	_, total, err := svc.List(ctx, repo.AuditLogFilter{StartDate: &yesterday, EndDate: &today}, 1, 10)
	if err != nil {
		t.Fatalf("list in range: %v", err)
	}
	if total != 1 {
		t.Fatalf("in-range total=%d; want 1 (end date is inclusive)", total)
	}

	_, total, err = svc.List(ctx, repo.AuditLogFilter{StartDate: &tomorrow}, 1, 10)
	if err != nil {
		t.Fatalf("list future: %v", err)
	}
	if total != 0 {
		t.Fatalf("future start: total=%d; want 0", total)
	}
}

func TestAuditList_Pagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Record(ctx, "admin1", AuditLeadStatusChange, TargetLead, "lead-1", nil)
	}

	page1, total, err := svc.List(ctx, repo.AuditLogFilter{}, 1, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if total != 5 || len(page1) != 2 {
		t.Fatalf("page 1: total=%d len=%d; want 5/2", total, len(page1))
	}
	page3, _, err := svc.List(ctx, repo.AuditLogFilter{}, 3, 2)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("page 3 len=%d; want 1", len(page3))
	}
}
