// Package notify – dispatcher
//
// This file implements the Dispatcher, which sends a notification through the
// configured Mailer with bounded retries and records the final outcome as a
// NotificationDelivery row. Delivery is always best-effort from the caller's
// perspective: a notification that exhausts its retries is logged and
// recorded, never propagated as an error to the triggering operation.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
	"github.com/medihub/go-medihub-backend/internal/repo"
)

const (
	channelEmail     = "email"
	providerSMTP     = "smtp"
	bodyPreviewRunes = 120
)

// Dispatcher sends notifications and logs delivery outcomes.
type Dispatcher struct {
	DB         *gorm.DB
	Mailer     Mailer
	MaxRetries int
	BaseDelay  time.Duration
}

// NewDispatcher constructs a Dispatcher with the given retry policy.
func NewDispatcher(db *gorm.DB, mailer Mailer, maxRetries int, baseDelay time.Duration) *Dispatcher {
	return &Dispatcher{DB: db, Mailer: mailer, MaxRetries: maxRetries, BaseDelay: baseDelay}
}

// Send delivers msg to the user with retries and records the outcome. The
// returned result reports success and retries consumed; callers that treat
// delivery as fire-and-forget may ignore it.
func (d *Dispatcher) Send(ctx context.Context, userID, notifType string, msg Message) RetryResult[struct{}] {
	res := RetryWithBackoff(ctx, d.MaxRetries, d.BaseDelay, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.Mailer.Send(ctx, msg)
	})

	row := &domain.NotificationDelivery{
		UserID:      userID,
		Type:        notifType,
		Channel:     channelEmail,
		Provider:    providerSMTP,
		Recipient:   msg.To,
		Subject:     msg.Subject,
		BodyPreview: preview(msg.Body),
		RetryCount:  res.RetryCount,
	}
	now := time.Now().UTC()
	if res.Success {
		row.SentAt = &now
	} else {
		row.FailedAt = &now
		if res.Err != nil {
			errMsg := res.Err.Error()
			row.ErrorMessage = &errMsg
		}
		log.Warn().
			Err(res.Err).
			Str("user_id", userID).
			Str("type", notifType).
			Int("retry_count", res.RetryCount).
			Msg("notification delivery failed after retries")
	}

	if err := repo.CreateNotificationDelivery(ctx, d.DB, row); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("type", notifType).
			Msg("failed to record notification delivery")
	}
	return res
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= bodyPreviewRunes {
		return body
	}
	return string(r[:bodyPreviewRunes])
}
