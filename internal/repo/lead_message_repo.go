// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for lead message
// threads: inserts, chronological pages, unread counting, and read marking.
//
// Participation rules (who may see or write into a thread) live in the
// service layer; callers are expected to have resolved the lead through a
// LeadScope read first.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// CreateLeadMessage inserts one thread message. The id is a randomly generated
// UUID and CreatedAt is set to UTC.
func CreateLeadMessage(ctx context.Context, db *gorm.DB, m *domain.LeadMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(m).Error
}

// ListLeadMessagesPage returns a page of a lead's messages in creation order
// ascending, so clients render the thread top to bottom.
func ListLeadMessagesPage(ctx context.Context, db *gorm.DB, leadID string, offset, limit int) ([]domain.LeadMessage, error) {
	var out []domain.LeadMessage
	err := db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountLeadMessages returns the total number of messages in a lead's thread.
func CountLeadMessages(ctx context.Context, db *gorm.DB, leadID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.LeadMessage{}).
		Where("lead_id = ?", leadID).
		Count(&total).Error
	return total, err
}

// CountUnreadLeadMessages returns how many messages in the thread were sent by
// someone other than userID and not yet marked read.
func CountUnreadLeadMessages(ctx context.Context, db *gorm.DB, leadID, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.LeadMessage{}).
		Where("lead_id = ? AND sender_user_id <> ? AND read_at IS NULL", leadID, userID).
		Count(&total).Error
	return total, err
}

// MarkLeadMessagesRead stamps read_at on the given messages of a thread.
// Messages sent by readerID are skipped, as are already-read rows. An empty id
// list is a no-op.
func MarkLeadMessagesRead(ctx context.Context, db *gorm.DB, leadID, readerID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.LeadMessage{}).
		Where("lead_id = ? AND id IN ? AND sender_user_id <> ? AND read_at IS NULL", leadID, messageIDs, readerID).
		Update("read_at", time.Now().UTC()).Error
}
