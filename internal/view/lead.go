// Package view defines the API-facing view models and the row→view mapping
// functions. Persistence rows use snake_case columns; the public API exposes
// camelCase fields, so every query shape gets an explicit, exhaustive mapper
// here instead of ad-hoc casts at the call sites.
package view

import (
	"time"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// VendorSummary is the denormalized vendor slice attached to a lead for
// display: id and name only.
type VendorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LeadListItem is one row of the lead list response.
type LeadListItem struct {
	ID               string         `json:"id"`
	DoctorUserID     string         `json:"doctorUserId"`
	VendorID         string         `json:"vendorId"`
	ServiceName      *string        `json:"serviceName"`
	ContactName      string         `json:"contactName"`
	ContactPhone     string         `json:"contactPhone"`
	ContactEmail     *string        `json:"contactEmail"`
	PreferredChannel *string        `json:"preferredChannel"`
	PreferredTime    *string        `json:"preferredTime"`
	Content          string         `json:"content"`
	Status           string         `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	Vendor           *VendorSummary `json:"vendor"`
}

// LeadStatusHistoryItem is one immutable status-transition record.
// FromStatus is null on the creation row.
type LeadStatusHistoryItem struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"leadId"`
	FromStatus *string   `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ChangedBy  string    `json:"changedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LeadAttachmentItem references an externally managed file attached to a lead.
type LeadAttachmentItem struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"leadId"`
	FileID    string    `json:"fileId"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeadDetail is the full lead aggregate: the base lead, its vendor summary,
// the status history in creation order, and the attachments.
type LeadDetail struct {
	LeadListItem
	StatusHistory []LeadStatusHistoryItem `json:"statusHistory"`
	Attachments   []LeadAttachmentItem    `json:"attachments"`
}

// NewVendorSummary maps a vendor row to its lead-facing summary. A nil or
// zero-value vendor maps to nil (the join may legitimately come back empty).
func NewVendorSummary(v *domain.Vendor) *VendorSummary {
	if v == nil || v.ID == "" {
		return nil
	}
	return &VendorSummary{ID: v.ID, Name: v.Name}
}

// NewLeadListItem maps a lead row plus its (optional) vendor summary.
func NewLeadListItem(l *domain.Lead, vendor *VendorSummary) LeadListItem {
	return LeadListItem{
		ID:               l.ID,
		DoctorUserID:     l.DoctorUserID,
		VendorID:         l.VendorID,
		ServiceName:      l.ServiceName,
		ContactName:      l.ContactName,
		ContactPhone:     l.ContactPhone,
		ContactEmail:     l.ContactEmail,
		PreferredChannel: l.PreferredChannel,
		PreferredTime:    l.PreferredTime,
		Content:          l.Content,
		Status:           l.Status,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
		Vendor:           vendor,
	}
}

// NewLeadStatusHistoryItem maps one history row.
func NewLeadStatusHistoryItem(h *domain.LeadStatusHistory) LeadStatusHistoryItem {
	return LeadStatusHistoryItem{
		ID:         h.ID,
		LeadID:     h.LeadID,
		FromStatus: h.FromStatus,
		ToStatus:   h.ToStatus,
		ChangedBy:  h.ChangedBy,
		CreatedAt:  h.CreatedAt,
	}
}

// NewLeadAttachmentItem maps one attachment row.
func NewLeadAttachmentItem(a *domain.LeadAttachment) LeadAttachmentItem {
	return LeadAttachmentItem{
		ID:        a.ID,
		LeadID:    a.LeadID,
		FileID:    a.FileID,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
	}
}

// LeadMessageItem is one entry of a lead's message thread. ReadAt is null
// until the counterparty marks the message read.
type LeadMessageItem struct {
	ID           string     `json:"id"`
	LeadID       string     `json:"leadId"`
	SenderUserID string     `json:"senderUserId"`
	Content      string     `json:"content"`
	ReadAt       *time.Time `json:"readAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// NewLeadMessageItem maps one thread message row.
func NewLeadMessageItem(m *domain.LeadMessage) LeadMessageItem {
	return LeadMessageItem{
		ID:           m.ID,
		LeadID:       m.LeadID,
		SenderUserID: m.SenderUserID,
		Content:      m.Content,
		ReadAt:       m.ReadAt,
		CreatedAt:    m.CreatedAt,
	}
}

// NewLeadDetail assembles the aggregate view. History and attachments must
// already be in creation order; empty slices are materialized so the JSON
// renders [] rather than null.
func NewLeadDetail(l *domain.Lead, vendor *VendorSummary, history []domain.LeadStatusHistory, attachments []domain.LeadAttachment) *LeadDetail {
	hv := make([]LeadStatusHistoryItem, 0, len(history))
	for i := range history {
		hv = append(hv, NewLeadStatusHistoryItem(&history[i]))
	}
	av := make([]LeadAttachmentItem, 0, len(attachments))
	for i := range attachments {
		av = append(av, NewLeadAttachmentItem(&attachments[i]))
	}
	return &LeadDetail{
		LeadListItem:  NewLeadListItem(l, vendor),
		StatusHistory: hv,
		Attachments:   av,
	}
}
