package domain

import "time"

// IdempotencyKey deduplicates lead creation: a retried POST carrying the same
// Idempotency-Key for the same user replays the originally created lead
// instead of inserting a second one. Records expire after a configured TTL.
type IdempotencyKey struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;uniqueIndex:ux_idem_user_key,priority:1"`
	Key       string    `json:"key"        gorm:"type:varchar(200);not null;uniqueIndex:ux_idem_user_key,priority:2"`
	LeadID    string    `json:"lead_id"    gorm:"type:char(36);not null"`
	Status    int       `json:"status"     gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// TableName returns the database table name for IdempotencyKey.
func (IdempotencyKey) TableName() string { return "idempotency_keys" }
