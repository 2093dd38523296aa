// Lead HTTP handlers.
//
// This file exposes REST endpoints for lead resources:
//   - POST   /api/leads             (create, approved doctors only)
//   - GET    /api/leads             (scoped list, paginated, ETag support)
//   - GET    /api/leads/{id}        (scoped detail with history/attachments)
//   - PATCH  /api/leads/{id}/status (status transition)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/http/middleware"
	"github.com/medihub/go-medihub-backend/internal/repo"
	"github.com/medihub/go-medihub-backend/internal/services"
	"github.com/medihub/go-medihub-backend/internal/utils"
	"github.com/medihub/go-medihub-backend/internal/view"
)

//
// Service contracts (context-aware)
//

// LeadService defines lead lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LeadService interface {
	// Create persists a new lead for the doctor; the bool reports an
	// idempotent replay.
	Create(ctx context.Context, doctorUserID string, in services.CreateLeadInput) (*domain.Lead, bool, error)
	// GetDetail returns a lead with its history and attachments.
	GetDetail(ctx context.Context, scope repo.LeadScope, id string) (*services.LeadDetail, error)
	// ListPage returns a page of leads visible under scope and the total.
	ListPage(ctx context.Context, scope repo.LeadScope, status string, page, pageSize int) ([]domain.Lead, int64, error)
	// Stats returns count and max updated_at for ETag generation.
	Stats(ctx context.Context, scope repo.LeadScope) (int64, *time.Time, error)
	// ChangeStatus applies a status transition under the workflow rules.
	ChangeStatus(ctx context.Context, actorUserID, actorRole string, scope repo.LeadScope, leadID, toStatus string) (*domain.Lead, error)
	// ListMessages returns a page of the lead's message thread with the total
	// and the caller's unread count.
	ListMessages(ctx context.Context, scope repo.LeadScope, userID, leadID string, page, pageSize int) (*services.LeadMessagePage, error)
	// AddMessage appends a message to the lead's thread.
	AddMessage(ctx context.Context, actorUserID, actorRole string, scope repo.LeadScope, leadID, content string) (*domain.LeadMessage, error)
	// MarkMessagesRead stamps read_at on the given counterparty messages.
	MarkMessagesRead(ctx context.Context, scope repo.LeadScope, userID, leadID string, messageIDs []string) error
}

// VendorService defines the public vendor catalog operations.
type VendorService interface {
	Get(ctx context.Context, id string) (*domain.Vendor, error)
	ListPage(ctx context.Context, category, nameQuery string, page, pageSize int) ([]domain.Vendor, int64, error)
}

// VerificationService defines doctor verification submission and review.
type VerificationService interface {
	Submit(ctx context.Context, userID string, in services.SubmitVerificationInput) (*domain.DoctorVerification, error)
	GetMine(ctx context.Context, userID string) (*domain.DoctorVerification, error)
	ListPage(ctx context.Context, status string, page, pageSize int) ([]domain.DoctorVerification, int64, error)
	Approve(ctx context.Context, adminUserID, verificationID string) (*domain.DoctorVerification, error)
	Reject(ctx context.Context, adminUserID, verificationID, reason string) (*domain.DoctorVerification, error)
}

// ProfileService resolves the caller's account view.
type ProfileService interface {
	GetMe(ctx context.Context, userID string) (*services.Me, error)
}

// AuditService lists the audit trail for admins.
type AuditService interface {
	List(ctx context.Context, f repo.AuditLogFilter, page, pageSize int) ([]domain.AuditLog, int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for leads, vendors, verifications, the
// admin surface, and the "me" view. It depends on abstract service interfaces
// to keep transport concerns separate from business logic; the raw DB handle
// is used only by the guards (profile/verification reads).
type Handlers struct {
	db       *gorm.DB
	leadSvc  LeadService
	vendSvc  VendorService
	verifSvc VerificationService
	profSvc  ProfileService
	auditSvc AuditService
}

// New constructs a Handlers instance bound to the given services.
func New(db *gorm.DB, leadSvc LeadService, vendSvc VendorService, verifSvc VerificationService, profSvc ProfileService, auditSvc AuditService) *Handlers {
	return &Handlers{
		db:       db,
		leadSvc:  leadSvc,
		vendSvc:  vendSvc,
		verifSvc: verifSvc,
		profSvc:  profSvc,
		auditSvc: auditSvc,
	}
}

//
// DTOs
//

// CreateLeadRequest is the JSON payload for creating a lead.
type CreateLeadRequest struct {
	VendorID         string   `json:"vendorId" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	ServiceName      *string  `json:"serviceName" example:"원외탕전"`
	ContactName      string   `json:"contactName" binding:"required" example:"김한의"`
	ContactPhone     string   `json:"contactPhone" binding:"required" example:"010-1234-5678"`
	ContactEmail     *string  `json:"contactEmail" example:"doctor@clinic.kr"`
	PreferredChannel *string  `json:"preferredChannel" example:"phone"`
	PreferredTime    *string  `json:"preferredTime" example:"평일 오후"`
	Content          string   `json:"content" binding:"required" example:"원외탕전 견적 문의드립니다"`
	FileIDs          []string `json:"fileIds"`
}

// ChangeLeadStatusRequest is the JSON payload for a status transition.
type ChangeLeadStatusRequest struct {
	Status string `json:"status" binding:"required" example:"in_progress"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

// ListLeadsData wraps a page of leads and pagination information.
type ListLeadsData struct {
	Items      []view.LeadListItem `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and pageSize query params,
// returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ParsePage(c.Query("page")), utils.ParsePageSize(c.Query("pageSize"))
}

// newPagination derives the metadata block from page inputs and a total.
func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// leadItems maps lead rows to list views with their vendor summaries.
func leadItems(rows []domain.Lead) []view.LeadListItem {
	items := make([]view.LeadListItem, 0, len(rows))
	for i := range rows {
		items = append(items, view.NewLeadListItem(&rows[i], view.NewVendorSummary(&rows[i].Vendor)))
	}
	return items
}

//
// Handlers
//

// CreateLead godoc
// @ID          createLead
// @Summary     Create a lead
// @Description Creates an inquiry targeting a published vendor. Requires an approved doctor. Supports Idempotency-Key replay.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       Authorization    header  string  false "Bearer token"
// @Param       Idempotency-Key  header  string  false "Replay deduplication key"
// @Param       body             body    handlers.CreateLeadRequest  true  "Create lead payload"
//
// @Success     201  {object}  handlers.SuccessResponse{data=view.LeadListItem}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Approval required"
// @Failure     404  {object}  handlers.ErrorResponse  "Vendor not found"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /leads [post]
func (h *Handlers) CreateLead() gin.HandlerFunc {
	return h.withApprovedDoctor(func(c *gin.Context, actor *Actor) {
		var req CreateLeadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		in := services.CreateLeadInput{
			VendorID:         req.VendorID,
			ServiceName:      req.ServiceName,
			ContactName:      req.ContactName,
			ContactPhone:     req.ContactPhone,
			ContactEmail:     req.ContactEmail,
			PreferredChannel: req.PreferredChannel,
			PreferredTime:    req.PreferredTime,
			Content:          req.Content,
			FileIDs:          req.FileIDs,
		}
		if key, ok := middleware.GetIdempotencyKey(c); ok {
			in.IdempotencyKey = key
		}

		// A replay returns the originally created lead with the same status
		// code, so retried submissions are indistinguishable to the client.
		lead, _, err := h.leadSvc.Create(c.Request.Context(), actor.UserID, in)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		ok(c, http.StatusCreated, view.NewLeadListItem(lead, view.NewVendorSummary(&lead.Vendor)))
	})
}

// ListLeads godoc
// @ID          listLeads
// @Summary     List leads (paginated)
// @Description Returns a page of leads visible to the caller: doctors see their own, vendors their vendor's, admins all. Supports weak ETag via If-None-Match.
// @Tags        Leads
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       status         query   string  false "Filter by lead status"
// @Param       page           query   int     false "Page number"    minimum(1) default(1)
// @Param       pageSize       query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.ListLeadsData}
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads [get]
func (h *Handlers) ListLeads() gin.HandlerFunc {
	return h.withLeadScope(func(c *gin.Context, actor *Actor, scope repo.LeadScope) {
		ctx := c.Request.Context()
		page, pageSize := clampPagination(c)
		status := c.Query("status")

		// ETag pre-check (best effort).
		if count, maxTS, err := h.leadSvc.Stats(ctx, scope); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"leads:%s:%d:%d"`, actor.UserID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}

		rows, total, err := h.leadSvc.ListPage(ctx, scope, status, page, pageSize)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		ok(c, http.StatusOK, ListLeadsData{
			Items:      leadItems(rows),
			Pagination: newPagination(page, pageSize, total),
		})
	})
}

// GetLead godoc
// @ID          getLead
// @Summary     Get a lead
// @Description Returns one lead with its status history and attachments. Visibility follows the caller's scope.
// @Tags        Leads
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Lead ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.SuccessResponse{data=view.LeadDetail}
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id} [get]
func (h *Handlers) GetLead() gin.HandlerFunc {
	return h.withLeadScope(func(c *gin.Context, actor *Actor, scope repo.LeadScope) {
		leadID := c.Param("id")
		if _, err := uuid.Parse(leadID); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		detail, err := h.leadSvc.GetDetail(c.Request.Context(), scope, leadID)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		ok(c, http.StatusOK, view.NewLeadDetail(
			detail.Lead,
			view.NewVendorSummary(&detail.Lead.Vendor),
			detail.History,
			detail.Attachments,
		))
	})
}

// ChangeLeadStatus godoc
// @ID          changeLeadStatus
// @Summary     Change a lead's status
// @Description Applies a status transition. Doctors may only cancel their own leads; a transition to the current status is an accepted no-op.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Lead ID (UUID)" format(uuid)
// @Param       body           body    handlers.ChangeLeadStatusRequest true "Target status"
//
// @Success     200  {object} handlers.SuccessResponse{data=view.LeadListItem}
// @Failure     400  {object} handlers.ErrorResponse "Bad request, including a doctor asking for anything but canceled"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id}/status [patch]
func (h *Handlers) ChangeLeadStatus() gin.HandlerFunc {
	return h.withLeadScope(func(c *gin.Context, actor *Actor, scope repo.LeadScope) {
		leadID := c.Param("id")
		if _, err := uuid.Parse(leadID); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		var req ChangeLeadStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		lead, err := h.leadSvc.ChangeStatus(c.Request.Context(), actor.UserID, actor.Role(), scope, leadID, req.Status)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		ok(c, http.StatusOK, view.NewLeadListItem(lead, view.NewVendorSummary(&lead.Vendor)))
	})
}
