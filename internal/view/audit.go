package view

import (
	"encoding/json"
	"time"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// AuditLogItem is one admin-facing audit trail entry. Metadata is decoded from
// its stored JSON form; rows with malformed metadata surface it as null rather
// than failing the listing.
type AuditLogItem struct {
	ID          string          `json:"id"`
	ActorUserID string          `json:"actorUserId"`
	Action      string          `json:"action"`
	TargetType  string          `json:"targetType"`
	TargetID    string          `json:"targetId"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewAuditLogItem maps an audit log row.
func NewAuditLogItem(a *domain.AuditLog) AuditLogItem {
	var meta json.RawMessage
	if a.Metadata != nil && json.Valid([]byte(*a.Metadata)) {
		meta = json.RawMessage(*a.Metadata)
	}
	return AuditLogItem{
		ID:          a.ID,
		ActorUserID: a.ActorUserID,
		Action:      a.Action,
		TargetType:  a.TargetType,
		TargetID:    a.TargetID,
		Metadata:    meta,
		CreatedAt:   a.CreatedAt,
	}
}
