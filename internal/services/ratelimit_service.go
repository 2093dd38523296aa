// Package services – RateLimitService
//
// This file implements the database-window rate limiter applied to
// abuse-prone actions. Unlike the edge token-bucket middleware, which guards
// the whole API against bursts, these limits are business rules: a doctor may
// open at most N inquiries per day and per week, may not re-contact the same
// vendor within a cooldown period, and message threads cap sends per minute.
//
// Daily and weekly windows are calendar-aligned in UTC: daily limits reset at
// midnight and weekly limits reset Monday 00:00; the per-minute message cap
// uses a rolling 60-second window. Counting is done by querying the
// rate_limit_events table, so limits survive restarts and remain correct
// across multiple instances sharing the database.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/repo"
)

// Rate-limited action names recorded on events.
const (
	ActionLeadCreate         = "lead_create"
	ActionLeadMessage        = "lead_message"
	ActionVerificationSubmit = "verification_submit"
)

// RateLimitPolicy caps one action. Zero fields disable the corresponding
// check. PerMinute uses a rolling 60-second window, unlike the calendar
// windows of PerDay/PerWeek.
type RateLimitPolicy struct {
	PerMinute      int
	PerDay         int
	PerWeek        int
	TargetCooldown time.Duration
}

// RateLimitService checks and records windowed limits.
type RateLimitService struct {
	DB *gorm.DB

	LeadCreate         RateLimitPolicy
	LeadMessage        RateLimitPolicy
	VerificationSubmit RateLimitPolicy

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewRateLimitService constructs the limiter with the given policies.
func NewRateLimitService(db *gorm.DB, leadCreate, leadMessage, verificationSubmit RateLimitPolicy) *RateLimitService {
	return &RateLimitService{
		DB:                 db,
		LeadCreate:         leadCreate,
		LeadMessage:        leadMessage,
		VerificationSubmit: verificationSubmit,
		Now:                time.Now,
	}
}

// CheckLeadCreate verifies the daily and weekly caps plus the same-vendor
// cooldown for userID. Returns a *RateLimitedError describing the first
// exhausted window, or nil when the action is allowed.
func (s *RateLimitService) CheckLeadCreate(ctx context.Context, userID, vendorID string) error {
	now := s.now()

	if err := s.checkWindow(ctx, userID, ActionLeadCreate, "daily", s.LeadCreate.PerDay, startOfDay(now), startOfDay(now).Add(24*time.Hour)); err != nil {
		return err
	}
	if err := s.checkWindow(ctx, userID, ActionLeadCreate, "weekly", s.LeadCreate.PerWeek, startOfWeek(now), startOfWeek(now).Add(7*24*time.Hour)); err != nil {
		return err
	}

	if s.LeadCreate.TargetCooldown > 0 && vendorID != "" {
		ev, err := repo.LatestRateLimitEvent(ctx, s.DB, userID, ActionLeadCreate, vendorID)
		if err != nil {
			return err
		}
		if ev != nil {
			resetAt := ev.CreatedAt.Add(s.LeadCreate.TargetCooldown)
			if now.Before(resetAt) {
				return &RateLimitedError{
					Scope:      "vendor_cooldown",
					Limit:      1,
					ResetAt:    resetAt,
					RetryAfter: ceilSeconds(resetAt.Sub(now)),
				}
			}
		}
	}
	return nil
}

// RecordLeadCreate counts one accepted lead creation against userID's
// windows, keyed to the targeted vendor for the cooldown check.
func (s *RateLimitService) RecordLeadCreate(ctx context.Context, userID, vendorID string) error {
	target := &vendorID
	if vendorID == "" {
		target = nil
	}
	return repo.RecordRateLimitEvent(ctx, s.DB, userID, ActionLeadCreate, target)
}

// CheckLeadMessage verifies the per-minute cap on messages userID sends into
// one lead thread. The window is a rolling 60 seconds, so the retry hint is a
// flat minute rather than a boundary countdown.
func (s *RateLimitService) CheckLeadMessage(ctx context.Context, userID, leadID string) error {
	if s.LeadMessage.PerMinute <= 0 {
		return nil
	}
	now := s.now()
	n, err := repo.CountRateLimitEventsByTarget(ctx, s.DB, userID, ActionLeadMessage, leadID, now.Add(-time.Minute))
	if err != nil {
		return err
	}
	if n >= int64(s.LeadMessage.PerMinute) {
		return &RateLimitedError{
			Scope:      "message_minute",
			Limit:      s.LeadMessage.PerMinute,
			ResetAt:    now.Add(time.Minute),
			RetryAfter: time.Minute,
		}
	}
	return nil
}

// RecordLeadMessage counts one accepted message against userID's per-minute
// window for the lead's thread.
func (s *RateLimitService) RecordLeadMessage(ctx context.Context, userID, leadID string) error {
	return repo.RecordRateLimitEvent(ctx, s.DB, userID, ActionLeadMessage, &leadID)
}

// CheckVerificationSubmit verifies the daily submission cap for userID.
func (s *RateLimitService) CheckVerificationSubmit(ctx context.Context, userID string) error {
	now := s.now()
	return s.checkWindow(ctx, userID, ActionVerificationSubmit, "daily", s.VerificationSubmit.PerDay, startOfDay(now), startOfDay(now).Add(24*time.Hour))
}

// RecordVerificationSubmit counts one accepted verification submission.
func (s *RateLimitService) RecordVerificationSubmit(ctx context.Context, userID string) error {
	return repo.RecordRateLimitEvent(ctx, s.DB, userID, ActionVerificationSubmit, nil)
}

func (s *RateLimitService) checkWindow(ctx context.Context, userID, action, scope string, limit int, since, resetAt time.Time) error {
	if limit <= 0 {
		return nil
	}
	n, err := repo.CountRateLimitEvents(ctx, s.DB, userID, action, since)
	if err != nil {
		return err
	}
	if n >= int64(limit) {
		return &RateLimitedError{
			Scope:      scope,
			Limit:      limit,
			ResetAt:    resetAt,
			RetryAfter: ceilSeconds(resetAt.Sub(s.now())),
		}
	}
	return nil
}

func (s *RateLimitService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns Monday 00:00 UTC of t's week.
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	return d.AddDate(0, 0, -(wd - 1))
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return secs * time.Second
}
