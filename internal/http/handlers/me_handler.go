// "Me" HTTP handler.
//
// GET /api/me returns the caller's profile joined with the verification state
// relevant to their role. Clients use it to decide what to render before
// attempting a gated operation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medihub/go-medihub-backend/internal/view"
)

// MeData is the response payload of GET /api/me. VerificationStatus is null
// when the caller never submitted one; Vendor is set only for vendor-role
// users with a registered vendor.
type MeData struct {
	Profile            view.ProfileView     `json:"profile"`
	VerificationStatus *string              `json:"verificationStatus"`
	Vendor             *view.VendorListItem `json:"vendor,omitempty"`
}

// GetMe godoc
// @ID          getMe
// @Summary     Get own account view
// @Description Returns the caller's profile, verification status, and owned vendor (for vendor-role users).
// @Tags        Me
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.MeData}
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     404  {object} handlers.ErrorResponse "Profile not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /me [get]
func (h *Handlers) GetMe() gin.HandlerFunc {
	return h.withAuth(func(c *gin.Context, uid string) {
		me, err := h.profSvc.GetMe(c.Request.Context(), uid)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		data := MeData{
			Profile:            view.NewProfileView(me.Profile),
			VerificationStatus: me.VerificationStatus,
		}
		if me.Vendor != nil {
			v := view.NewVendorListItem(me.Vendor)
			data.Vendor = &v
		}
		ok(c, http.StatusOK, data)
	})
}
