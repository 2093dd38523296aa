// Verification HTTP handlers.
//
// This file exposes the doctor-side verification endpoints:
//   - POST /api/verifications/doctor  (submit or resubmit a license)
//   - GET  /api/verifications/doctor  (read own record)
//
// The admin review endpoints live in admin_handler.go.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/services"
	"github.com/medihub/go-medihub-backend/internal/view"
)

// SubmitVerificationRequest is the JSON payload for a doctor verification
// submission.
type SubmitVerificationRequest struct {
	LicenseNumber string  `json:"licenseNumber" binding:"required" example:"제12345호"`
	HospitalName  *string `json:"hospitalName" example:"한빛한의원"`
}

// SubmitVerification godoc
// @ID          submitVerification
// @Summary     Submit doctor verification
// @Description Creates or resets the caller's verification record to pending. An approved record cannot be resubmitted. Daily submission cap applies.
// @Tags        Verifications
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       body           body    handlers.SubmitVerificationRequest true "Submission payload"
//
// @Success     201  {object} handlers.SuccessResponse{data=view.VerificationView}
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Not a doctor"
// @Failure     409  {object} handlers.ErrorResponse "Already approved"
// @Failure     429  {object} handlers.ErrorResponse "Submission cap reached"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /verifications/doctor [post]
func (h *Handlers) SubmitVerification() gin.HandlerFunc {
	return h.withRole([]string{domain.RoleDoctor}, func(c *gin.Context, actor *Actor) {
		var req SubmitVerificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		rec, err := h.verifSvc.Submit(c.Request.Context(), actor.UserID, services.SubmitVerificationInput{
			LicenseNumber: req.LicenseNumber,
			HospitalName:  req.HospitalName,
		})
		if err != nil {
			mapServiceError(c, err)
			return
		}
		ok(c, http.StatusCreated, view.NewDoctorVerificationView(rec))
	})
}

// GetMyVerification godoc
// @ID          getMyVerification
// @Summary     Get own doctor verification
// @Description Returns the caller's verification record, or 404 when none was ever submitted.
// @Tags        Verifications
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
//
// @Success     200  {object} handlers.SuccessResponse{data=view.VerificationView}
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Not a doctor"
// @Failure     404  {object} handlers.ErrorResponse "Never submitted"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /verifications/doctor [get]
func (h *Handlers) GetMyVerification() gin.HandlerFunc {
	return h.withRole([]string{domain.RoleDoctor}, func(c *gin.Context, actor *Actor) {
		rec, err := h.verifSvc.GetMine(c.Request.Context(), actor.UserID)
		if err != nil {
			mapServiceError(c, err)
			return
		}
		ok(c, http.StatusOK, view.NewDoctorVerificationView(rec))
	})
}
