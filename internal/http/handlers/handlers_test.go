package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/http/middleware"
	"github.com/medihub/go-medihub-backend/internal/repo"
	"github.com/medihub/go-medihub-backend/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

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

// newTestServer wires a minimal engine around real services: header auth and
// idempotency middleware, no observability stack.
func newTestServer(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Authenticate(nil, true))
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			if userID == "" {
				return false, nil
			}
			rec, err := repo.GetIdempotencyKey(ctx, db, userID, key)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rateSvc := services.NewRateLimitService(db,
		services.RateLimitPolicy{PerDay: 100, PerWeek: 1000},
		services.RateLimitPolicy{PerMinute: 100},
		services.RateLimitPolicy{PerDay: 100},
	)
	auditSvc := services.NewAuditService(db)
	leadSvc := services.NewLeadService(db, rateSvc, auditSvc, nil, time.Hour)
	vendSvc := services.NewVendorService(db)
	verifSvc := services.NewVerificationService(db, rateSvc, auditSvc, nil)
	profSvc := services.NewProfileService(db)

	h := New(db, leadSvc, vendSvc, verifSvc, profSvc, auditSvc)

	api := r.Group("/api")
	{
		api.GET("/vendors", h.ListVendors)
		api.GET("/vendors/:id", h.GetVendor)
		api.POST("/leads", h.CreateLead())
		api.GET("/leads", h.ListLeads())
		api.GET("/leads/:id", h.GetLead())
		api.PATCH("/leads/:id/status", h.ChangeLeadStatus())
		api.GET("/leads/:id/messages", h.ListLeadMessages())
		api.POST("/leads/:id/messages", h.SendLeadMessage())
		api.POST("/leads/:id/messages/read", h.MarkLeadMessagesRead())
		api.POST("/verifications/doctor", h.SubmitVerification())
		api.GET("/verifications/doctor", h.GetMyVerification())
		api.GET("/me", h.GetMe())
		api.GET("/admin/verifications", h.ListVerifications())
		api.POST("/admin/verifications/:id/approve", h.ApproveVerification())
		api.POST("/admin/verifications/:id/reject", h.RejectVerification())
		api.GET("/admin/audit-logs", h.ListAuditLogs())
	}
	return r
}

//
// Seed helpers
//

func seedProfile(t *testing.T, db *gorm.DB, role string) *domain.Profile {
	t.Helper()
	p := &domain.Profile{
		ID:          uuid.NewString(),
		Role:        role,
		DisplayName: "테스트사용자",
		Email:       "user@example.kr",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return p
}

func seedApprovedDoctor(t *testing.T, db *gorm.DB) *domain.Profile {
	t.Helper()
	p := seedProfile(t, db, domain.RoleDoctor)
	v := &domain.DoctorVerification{
		ID:            uuid.NewString(),
		UserID:        p.ID,
		LicenseNumber: "제12345호",
		Status:        domain.VerificationApproved,
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed doctor verification: %v", err)
	}
	return p
}

func seedApprovedVendorUser(t *testing.T, db *gorm.DB) (*domain.Profile, *domain.Vendor) {
	t.Helper()
	p := seedProfile(t, db, domain.RoleVendor)
	vv := &domain.VendorVerification{
		ID:             uuid.NewString(),
		UserID:         p.ID,
		BusinessNumber: "123-45-67890",
		Status:         domain.VerificationApproved,
	}
	if err := db.Create(vv).Error; err != nil {
		t.Fatalf("seed vendor verification: %v", err)
	}
	v := seedPublishedVendorOwnedBy(t, db, p.ID)
	return p, v
}

func seedPublishedVendorOwnedBy(t *testing.T, db *gorm.DB, ownerID string) *domain.Vendor {
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
	return v
}

func seedPublishedVendor(t *testing.T, db *gorm.DB) *domain.Vendor {
	return seedPublishedVendorOwnedBy(t, db, uuid.NewString())
}

//
// Request helpers
//

type testRequest struct {
	method  string
	path    string
	userID  string
	body    any
	headers map[string]string
}

func do(t *testing.T, r *gin.Engine, req testRequest) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	httpReq := httptest.NewRequest(req.method, req.path, rd)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.userID != "" {
		httpReq.Header.Set("X-User-ID", req.userID)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

// envelope is the generic decoded response body.
type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", w.Body.String(), err)
	}
	return env
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
	env := decode(t, w)
	if env.Code != code {
		t.Fatalf("code = %q; want %q", env.Code, code)
	}
	return env
}

func wantSuccess(t *testing.T, w *httptest.ResponseRecorder, status int) envelope {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
	env := decode(t, w)
	if env.Code != CodeSuccess {
		t.Fatalf("code = %q; want %q", env.Code, CodeSuccess)
	}
	return env
}

func leadPayload(vendorID string) gin.H {
	return gin.H{
		"vendorId":     vendorID,
		"contactName":  "김한의",
		"contactPhone": "010-1234-5678",
		"content":      "원외탕전 견적 문의드립니다",
	}
}

// createLeadAs submits a lead for the doctor and returns the created lead id.
func createLeadAs(t *testing.T, r *gin.Engine, doctorID, vendorID string) string {
	t.Helper()
	w := do(t, r, testRequest{method: http.MethodPost, path: "/api/leads", userID: doctorID, body: leadPayload(vendorID)})
	env := wantSuccess(t, w, http.StatusCreated)
	var lead struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &lead); err != nil || lead.ID == "" {
		t.Fatalf("create lead response missing id: %s", env.Data)
	}
	return lead.ID
}
