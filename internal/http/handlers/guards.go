// Package handlers – authorization guards.
//
// This file implements the guard wrappers applied to protected endpoints.
// Authentication middleware only resolves the caller's user id; everything
// else (profile, role, verification gates) is re-read from the database here
// on every request, so a revoked approval takes effect immediately.
//
// Guard outcomes map to stable codes:
//   - no identity              → 401 "8999"
//   - identity with no profile → 401 "8999" (the session is unusable)
//   - role mismatch            → 403 "8991"
//   - approval gate not passed → 403 "8001" with {"status": ...} details,
//     where status is the current verification status or null when the user
//     never submitted one
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/http/middleware"
	"github.com/medihub/go-medihub-backend/internal/repo"
)

// Actor is the authenticated caller as resolved by the guards.
type Actor struct {
	UserID  string
	Profile *domain.Profile
}

// Role returns the actor's profile role.
func (a *Actor) Role() string { return a.Profile.Role }

// withAuth requires an authenticated identity. The profile is not loaded;
// use withRole when the endpoint needs one.
func (h *Handlers) withAuth(next func(c *gin.Context, userID string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)
		if uid == "" {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, MsgUnauthorized)
			return
		}
		next(c, uid)
	}
}

// withRole requires an authenticated caller whose profile role is one of
// roles. A missing profile is treated as a role mismatch.
func (h *Handlers) withRole(roles []string, next func(c *gin.Context, actor *Actor)) gin.HandlerFunc {
	return h.withAuth(func(c *gin.Context, uid string) {
		actor, ok := h.loadActor(c, uid)
		if !ok {
			return
		}
		for _, r := range roles {
			if actor.Profile.Role == r {
				next(c, actor)
				return
			}
		}
		fail(c, http.StatusForbidden, CodeForbidden, MsgForbidden)
	})
}

// withApprovedDoctor requires a doctor whose verification is approved.
func (h *Handlers) withApprovedDoctor(next func(c *gin.Context, actor *Actor)) gin.HandlerFunc {
	return h.withRole([]string{domain.RoleDoctor}, func(c *gin.Context, actor *Actor) {
		v, err := repo.GetDoctorVerification(c.Request.Context(), h.db, actor.UserID)
		if err != nil {
			fail(c, http.StatusInternalServerError, CodeInternal, MsgInternal)
			return
		}
		if v == nil || v.Status != domain.VerificationApproved {
			var status *string
			if v != nil {
				status = &v.Status
			}
			failWith(c, http.StatusForbidden, CodeApprovalRequired, MsgApprovalRequired, gin.H{"status": status})
			return
		}
		next(c, actor)
	})
}

// withApprovedVendor requires a vendor-role caller whose verification is
// approved and who owns a vendor record; the vendor is passed to next for
// scoping.
func (h *Handlers) withApprovedVendor(next func(c *gin.Context, actor *Actor, vendor *domain.Vendor)) gin.HandlerFunc {
	return h.withRole([]string{domain.RoleVendor}, func(c *gin.Context, actor *Actor) {
		v, err := repo.GetVendorVerification(c.Request.Context(), h.db, actor.UserID)
		if err != nil {
			fail(c, http.StatusInternalServerError, CodeInternal, MsgInternal)
			return
		}
		if v == nil || v.Status != domain.VerificationApproved {
			var status *string
			if v != nil {
				status = &v.Status
			}
			failWith(c, http.StatusForbidden, CodeApprovalRequired, MsgApprovalRequired, gin.H{"status": status})
			return
		}
		vendor, err := repo.GetVendorByOwner(c.Request.Context(), h.db, actor.UserID)
		if err != nil {
			// Approved but no vendor record registered yet.
			fail(c, http.StatusForbidden, CodeForbidden, MsgForbidden)
			return
		}
		next(c, actor, vendor)
	})
}

// withLeadScope admits any role that may touch leads and resolves the
// visibility scope: doctors see their own leads, vendors (approved, with a
// registered vendor) see leads targeting their vendor, admins see all.
func (h *Handlers) withLeadScope(next func(c *gin.Context, actor *Actor, scope repo.LeadScope)) gin.HandlerFunc {
	return h.withAuth(func(c *gin.Context, uid string) {
		actor, ok := h.loadActor(c, uid)
		if !ok {
			return
		}
		switch actor.Profile.Role {
		case domain.RoleDoctor:
			next(c, actor, repo.LeadScope{DoctorUserID: uid})
		case domain.RoleAdmin:
			next(c, actor, repo.LeadScope{})
		case domain.RoleVendor:
			h.withApprovedVendor(func(c *gin.Context, actor *Actor, vendor *domain.Vendor) {
				next(c, actor, repo.LeadScope{VendorID: vendor.ID})
			})(c)
		default:
			fail(c, http.StatusForbidden, CodeForbidden, MsgForbidden)
		}
	})
}

// loadActor fetches the caller's profile, writing the error response itself
// when that fails. The bool reports success.
func (h *Handlers) loadActor(c *gin.Context, uid string) (*Actor, bool) {
	profile, err := repo.GetProfile(c.Request.Context(), h.db, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, MsgNoProfile)
		} else {
			fail(c, http.StatusInternalServerError, CodeInternal, MsgInternal)
		}
		return nil, false
	}
	return &Actor{UserID: uid, Profile: profile}, true
}
