// Lead message-thread HTTP handlers.
//
// This file exposes REST endpoints for the per-lead message thread between
// the doctor and the vendor:
//   - GET  /api/leads/{id}/messages       (chronological page + unread count)
//   - POST /api/leads/{id}/messages       (append, participants only)
//   - POST /api/leads/{id}/messages/read  (mark counterparty messages read)
//
// Visibility follows the caller's lead scope: a thread is as visible as its
// lead. Admins may read any thread but never write into one.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medihub/go-medihub-backend/internal/repo"
	"github.com/medihub/go-medihub-backend/internal/view"
)

// SendLeadMessageRequest is the JSON payload for posting a thread message.
type SendLeadMessageRequest struct {
	Content string `json:"content" binding:"required" example:"견적서 전달드립니다"`
}

// MarkLeadMessagesReadRequest names the messages to stamp as read.
type MarkLeadMessagesReadRequest struct {
	MessageIDs []string `json:"messageIds" binding:"required"`
}

// ListLeadMessagesData wraps a page of thread messages, pagination metadata,
// and the caller's unread count.
type ListLeadMessagesData struct {
	Items       []view.LeadMessageItem `json:"items"`
	Pagination  Pagination             `json:"pagination"`
	UnreadCount int64                  `json:"unreadCount"`
}

// ListLeadMessages godoc
// @ID          listLeadMessages
// @Summary     List a lead's messages
// @Description Returns a chronological page of the lead's message thread plus the caller's unread count. Visibility follows the caller's lead scope.
// @Tags        Leads
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Lead ID (UUID)" format(uuid)
// @Param       page           query   int     false "Page number"    minimum(1) default(1)
// @Param       pageSize       query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.ListLeadMessagesData}
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id}/messages [get]
func (h *Handlers) ListLeadMessages() gin.HandlerFunc {
	return h.withLeadScope(func(c *gin.Context, actor *Actor, scope repo.LeadScope) {
		leadID := c.Param("id")
		if _, err := uuid.Parse(leadID); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}
		page, pageSize := clampPagination(c)

		pg, err := h.leadSvc.ListMessages(c.Request.Context(), scope, actor.UserID, leadID, page, pageSize)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		items := make([]view.LeadMessageItem, 0, len(pg.Items))
		for i := range pg.Items {
			items = append(items, view.NewLeadMessageItem(&pg.Items[i]))
		}
		ok(c, http.StatusOK, ListLeadMessagesData{
			Items:       items,
			Pagination:  newPagination(page, pageSize, pg.Total),
			UnreadCount: pg.Unread,
		})
	})
}

// SendLeadMessage godoc
// @ID          sendLeadMessage
// @Summary     Post a message into a lead's thread
// @Description Appends a message to the thread. Only the doctor and the vendor participate; admins may not write. Message sends are rate limited per minute.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Lead ID (UUID)" format(uuid)
// @Param       body           body    handlers.SendLeadMessageRequest true "Message content"
//
// @Success     201  {object} handlers.SuccessResponse{data=view.LeadMessageItem}
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Admins cannot write"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id}/messages [post]
func (h *Handlers) SendLeadMessage() gin.HandlerFunc {
	return h.withLeadScope(func(c *gin.Context, actor *Actor, scope repo.LeadScope) {
		leadID := c.Param("id")
		if _, err := uuid.Parse(leadID); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		var req SendLeadMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		msg, err := h.leadSvc.AddMessage(c.Request.Context(), actor.UserID, actor.Role(), scope, leadID, req.Content)
		if err != nil {
			mapServiceError(c, err)
			return
		}

		ok(c, http.StatusCreated, view.NewLeadMessageItem(msg))
	})
}

// MarkLeadMessagesRead godoc
// @ID          markLeadMessagesRead
// @Summary     Mark thread messages as read
// @Description Stamps read_at on the named messages. Only messages sent by the other party are affected.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Lead ID (UUID)" format(uuid)
// @Param       body           body    handlers.MarkLeadMessagesReadRequest true "Message ids"
//
// @Success     200  {object} handlers.SuccessResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id}/messages/read [post]
func (h *Handlers) MarkLeadMessagesRead() gin.HandlerFunc {
	return h.withLeadScope(func(c *gin.Context, actor *Actor, scope repo.LeadScope) {
		leadID := c.Param("id")
		if _, err := uuid.Parse(leadID); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		var req MarkLeadMessagesReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
			return
		}

		if err := h.leadSvc.MarkMessagesRead(c.Request.Context(), scope, actor.UserID, leadID, req.MessageIDs); err != nil {
			mapServiceError(c, err)
			return
		}
		ok(c, http.StatusOK, nil)
	})
}
