// Vendor HTTP handlers.
//
// This file exposes the public, unauthenticated marketplace catalog:
//   - GET /api/vendors       (published vendors, paginated, filterable)
//   - GET /api/vendors/{id}  (one published vendor)
//
// Pending and hidden vendors are invisible here; the owner user id is never
// exposed.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medihub/go-medihub-backend/internal/view"
)

// ListVendorsData wraps a page of vendors and pagination information.
type ListVendorsData struct {
	Items      []view.VendorListItem `json:"items"`
	Pagination Pagination            `json:"pagination"`
}

// ListVendors godoc
// @ID          listVendors
// @Summary     List published vendors (paginated)
// @Description Returns the public vendor catalog, newest first. Filter by exact category and name substring.
// @Tags        Vendors
// @Produce     json
//
// @Param       category  query  string  false "Exact category filter"  example(원외탕전)
// @Param       q         query  string  false "Name substring filter"
// @Param       page      query  int     false "Page number"    minimum(1) default(1)
// @Param       pageSize  query  int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.ListVendorsData}
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /vendors [get]
func (h *Handlers) ListVendors(c *gin.Context) {
	page, pageSize := clampPagination(c)

	rows, total, err := h.vendSvc.ListPage(c.Request.Context(), c.Query("category"), c.Query("q"), page, pageSize)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	items := make([]view.VendorListItem, 0, len(rows))
	for i := range rows {
		items = append(items, view.NewVendorListItem(&rows[i]))
	}
	ok(c, http.StatusOK, ListVendorsData{
		Items:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetVendor godoc
// @ID          getVendor
// @Summary     Get a published vendor
// @Description Returns one published vendor. Hidden and pending vendors respond 404 like absent ids.
// @Tags        Vendors
// @Produce     json
//
// @Param       id  path  string  true  "Vendor ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.SuccessResponse{data=view.VendorListItem}
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Vendor not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /vendors/{id} [get]
func (h *Handlers) GetVendor(c *gin.Context) {
	vendorID := c.Param("id")
	if _, err := uuid.Parse(vendorID); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)
		return
	}

	v, err := h.vendSvc.Get(c.Request.Context(), vendorID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, view.NewVendorListItem(v))
}
