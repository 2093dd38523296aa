// Admin HTTP handlers.
//
// This file exposes the admin-only surface:
//   - GET  /api/admin/verifications              (review queue, paginated)
//   - POST /api/admin/verifications/{id}/approve
//   - POST /api/admin/verifications/{id}/reject
//   - GET  /api/admin/audit-logs                 (filtered audit trail)
//
// Every endpoint requires the admin role; decisions are audited and the
// affected doctor is notified by email (best-effort).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/repo"
	"github.com/medihub/go-medihub-backend/internal/view"
)

// RejectVerificationRequest is the JSON payload for a rejection; the reason is
// optional and surfaced to the doctor.
type RejectVerificationRequest struct {
	Reason string `json:"reason" example:"면허번호를 확인할 수 없습니다"`
}

// ListVerificationsData wraps a page of verification records.
type ListVerificationsData struct {
	Items      []view.VerificationView `json:"items"`
	Pagination Pagination              `json:"pagination"`
}

// ListAuditLogsData wraps a page of audit trail entries.
type ListAuditLogsData struct {
	Items      []view.AuditLogItem `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// adminOnly wraps next with the admin role guard.
func (h *Handlers) adminOnly(next func(c *gin.Context, actor *Actor)) gin.HandlerFunc {
	return h.withRole([]string{domain.RoleAdmin}, next)
}

// ListVerifications godoc
// @ID          listVerifications
// @Summary     List doctor verifications (admin)
// @Description Returns the verification review queue, newest first, optionally filtered by status.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       status         query   string  false "Filter by status" Enums(pending, approved, rejected)
// @Param       page           query   int     false "Page number"    minimum(1) default(1)
// @Param       pageSize       query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.ListVerificationsData}
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Not an admin"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/verifications [get]
func (h *Handlers) ListVerifications() gin.HandlerFunc {
	return h.adminOnly(func(c *gin.Context, actor *Actor) {
		page, pageSize := clampPagination(c)

		rows, total, err := h.verifSvc.ListPage(c.Request.Context(), c.Query("status"), page, pageSize)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		items := make([]view.VerificationView, 0, len(rows))
		for i := range rows {
			items = append(items, view.NewDoctorVerificationView(&rows[i]))
		}
		ok(c, http.StatusOK, ListVerificationsData{
			Items:      items,
			Pagination: newPagination(page, pageSize, total),
		})
	})
}

// ApproveVerification godoc
// @ID          approveVerification
// @Summary     Approve a doctor verification (admin)
// @Description Marks a pending verification approved, audits the decision, and notifies the doctor.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Verification ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.SuccessResponse{data=view.VerificationView}
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Not an admin"
// @Failure     404  {object} handlers.ErrorResponse "Verification not found"
// @Failure     409  {object} handlers.ErrorResponse "Already decided"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/verifications/{id}/approve [post]
func (h *Handlers) ApproveVerification() gin.HandlerFunc {
	return h.adminOnly(func(c *gin.Context, actor *Actor) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		rec, err := h.verifSvc.Approve(c.Request.Context(), actor.UserID, id)
		if err != nil {
			mapServiceError(c, err)
			return
		}
		ok(c, http.StatusOK, view.NewDoctorVerificationView(rec))
	})
}

// RejectVerification godoc
// @ID          rejectVerification
// @Summary     Reject a doctor verification (admin)
// @Description Marks a pending verification rejected with an optional reason, audits the decision, and notifies the doctor.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Verification ID (UUID)" format(uuid)
// @Param       body           body    handlers.RejectVerificationRequest false "Rejection payload"
//
// @Success     200  {object} handlers.SuccessResponse{data=view.VerificationView}
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Not an admin"
// @Failure     404  {object} handlers.ErrorResponse "Verification not found"
// @Failure     409  {object} handlers.ErrorResponse "Already decided"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/verifications/{id}/reject [post]
func (h *Handlers) RejectVerification() gin.HandlerFunc {
	return h.adminOnly(func(c *gin.Context, actor *Actor) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		// An empty body is a rejection without a reason.
		var req RejectVerificationRequest
		_ = c.ShouldBindJSON(&req)

		rec, err := h.verifSvc.Reject(c.Request.Context(), actor.UserID, id, req.Reason)
		if err != nil {
			mapServiceError(c, err)
			return
		}
		ok(c, http.StatusOK, view.NewDoctorVerificationView(rec))
	})
}

// ListAuditLogs godoc
// @ID          listAuditLogs
// @Summary     List audit logs (admin)
// @Description Returns the audit trail, newest first. action matches by prefix; startDate/endDate bound created_at inclusively (YYYY-MM-DD).
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       action         query   string  false "Action prefix filter" example(lead.)
// @Param       targetType     query   string  false "Target type filter"   example(lead)
// @Param       actorId        query   string  false "Actor user id filter"
// @Param       startDate      query   string  false "Inclusive start day (YYYY-MM-DD)"
// @Param       endDate        query   string  false "Inclusive end day (YYYY-MM-DD)"
// @Param       page           query   int     false "Page number"    minimum(1) default(1)
// @Param       pageSize       query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.ListAuditLogsData}
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Not an admin"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/audit-logs [get]
func (h *Handlers) ListAuditLogs() gin.HandlerFunc {
	return h.adminOnly(func(c *gin.Context, actor *Actor) {
		page, pageSize := clampPagination(c)

		f := repo.AuditLogFilter{
			ActionPrefix: c.Query("action"),
			TargetType:   c.Query("targetType"),
			ActorUserID:  c.Query("actorId"),
		}
		if s := c.Query("startDate"); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
				return
			}
			f.StartDate = &t
		}
		if s := c.Query("endDate"); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
				return
			}
			f.EndDate = &t
		}

		rows, total, err := h.auditSvc.List(c.Request.Context(), f, page, pageSize)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		items := make([]view.AuditLogItem, 0, len(rows))
		for i := range rows {
			items = append(items, view.NewAuditLogItem(&rows[i]))
		}
		ok(c, http.StatusOK, ListAuditLogsData{
			Items:      items,
			Pagination: newPagination(page, pageSize, total),
		})
	})
}
