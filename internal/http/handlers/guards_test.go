package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

func TestGuard_AnonymousIsUnauthorized(t *testing.T) {
	db := newTestDB(t)
	r := newTestServer(t, db)

	for _, path := range []string{"/api/leads", "/api/me", "/api/admin/verifications"} {
		w := do(t, r, testRequest{method: http.MethodGet, path: path})
		env := wantError(t, w, http.StatusUnauthorized, CodeUnauthorized)
		if env.Message != MsgUnauthorized {
			t.Fatalf("%s: message = %q; want %q", path, env.Message, MsgUnauthorized)
		}
	}
}

func TestGuard_MissingProfileIsUnauthorized(t *testing.T) {
	db := newTestDB(t)
	r := newTestServer(t, db)

	// Authenticated identity with no profile row: the session cannot act, so
	// the outcome is 401, not a role mismatch.
	w := do(t, r, testRequest{method: http.MethodGet, path: "/api/leads", userID: uuid.NewString()})
	env := wantError(t, w, http.StatusUnauthorized, CodeUnauthorized)
	if env.Message != MsgNoProfile {
		t.Fatalf("message = %q; want %q", env.Message, MsgNoProfile)
	}
}

func TestGuard_RoleMismatch(t *testing.T) {
	db := newTestDB(t)
	r := newTestServer(t, db)

	doctor := seedApprovedDoctor(t, db)

	// A doctor is not an admin.
	w := do(t, r, testRequest{method: http.MethodGet, path: "/api/admin/verifications", userID: doctor.ID})
	wantError(t, w, http.StatusForbidden, CodeForbidden)

	// A vendor cannot submit doctor verifications.
	vendorUser, _ := seedApprovedVendorUser(t, db)
	w = do(t, r, testRequest{
		method: http.MethodPost,
		path:   "/api/verifications/doctor",
		userID: vendorUser.ID,
		body:   map[string]string{"licenseNumber": "제12345호"},
	})
	wantError(t, w, http.StatusForbidden, CodeForbidden)
}

func TestGuard_UnverifiedDoctorCannotCreateLeads(t *testing.T) {
	db := newTestDB(t)
	r := newTestServer(t, db)

	doctor := seedProfile(t, db, domain.RoleDoctor)
	vendor := seedPublishedVendor(t, db)

	w := do(t, r, testRequest{method: http.MethodPost, path: "/api/leads", userID: doctor.ID, body: leadPayload(vendor.ID)})
	env := wantError(t, w, http.StatusForbidden, CodeApprovalRequired)

	// Never submitted: details.status is null.
	var details struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(env.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Status != nil {
		t.Fatalf("status = %v; want null", *details.Status)
	}
}

func TestGuard_PendingDoctorGetsStatusDetail(t *testing.T) {
	db := newTestDB(t)
	r := newTestServer(t, db)

	doctor := seedProfile(t, db, domain.RoleDoctor)
	v := &domain.DoctorVerification{
		ID:            uuid.NewString(),
		UserID:        doctor.ID,
		LicenseNumber: "제12345호",
		Status:        domain.VerificationPending,
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed verification: %v", err)
	}
	vendor := seedPublishedVendor(t, db)

	w := do(t, r, testRequest{method: http.MethodPost, path: "/api/leads", userID: doctor.ID, body: leadPayload(vendor.ID)})
	env := wantError(t, w, http.StatusForbidden, CodeApprovalRequired)

	var details struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(env.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Status == nil || *details.Status != domain.VerificationPending {
		t.Fatalf("status = %v; want pending", details.Status)
	}
}

func TestGuard_ApprovedVendorWithoutVendorRowIsForbidden(t *testing.T) {
	db := newTestDB(t)
	r := newTestServer(t, db)

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

	// Approved verification but no vendor record: must not fall into an
	// unrestricted scope.
	w := do(t, r, testRequest{method: http.MethodGet, path: "/api/leads", userID: p.ID})
	wantError(t, w, http.StatusForbidden, CodeForbidden)
}

func TestGuard_UnverifiedVendorCannotListLeads(t *testing.T) {
	db := newTestDB(t)
	r := newTestServer(t, db)

	p := seedProfile(t, db, domain.RoleVendor)
	seedPublishedVendorOwnedBy(t, db, p.ID)

	w := do(t, r, testRequest{method: http.MethodGet, path: "/api/leads", userID: p.ID})
	wantError(t, w, http.StatusForbidden, CodeApprovalRequired)
}

func TestGuard_RevokedApprovalTakesEffectImmediately(t *testing.T) {
	db := newTestDB(t)
	r := newTestServer(t, db)

	doctor := seedApprovedDoctor(t, db)
	vendor := seedPublishedVendor(t, db)

	createLeadAs(t, r, doctor.ID, vendor.ID)

	// Revoke the approval directly; the next request must be gated because
	// guards re-read the verification row.
	if err := db.Model(&domain.DoctorVerification{}).
		Where("user_id = ?", doctor.ID).
		Update("status", domain.VerificationRejected).Error; err != nil {
		t.Fatalf("revoke approval: %v", err)
	}

	vendor2 := seedPublishedVendor(t, db)
	w := do(t, r, testRequest{method: http.MethodPost, path: "/api/leads", userID: doctor.ID, body: leadPayload(vendor2.ID)})
	wantError(t, w, http.StatusForbidden, CodeApprovalRequired)
}
