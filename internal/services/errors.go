// Package services defines the business logic for leads, vendors,
// verifications, audit, and rate limiting. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing envelopes or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"
)

// Lead-related errors.
var (
	// ErrLeadNotFound indicates that the requested lead does not exist or is
	// not visible to the current user. The two cases are indistinguishable.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidStatus is returned when a status-transition request names a
	// value outside the enumerated lead statuses.
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrDoctorCancelOnly is returned when a doctor attempts any transition
	// other than canceling their own lead.
	ErrDoctorCancelOnly = errors.New("doctors may only cancel their own inquiries")

	// ErrVendorNotFound indicates that the targeted vendor does not exist or
	// is not published.
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrEmptyContent is returned when a lead creation request has no inquiry
	// content after trimming.
	ErrEmptyContent = errors.New("inquiry content is empty")

	// ErrMissingContact is returned when a lead creation request lacks the
	// required contact name or phone.
	ErrMissingContact = errors.New("contact name and phone are required")

	// ErrAdminCannotMessage is returned when an admin attempts to write into a
	// lead's message thread. Admins may read every thread but only the doctor
	// and the vendor participate in it.
	ErrAdminCannotMessage = errors.New("admins cannot write lead messages")
)

// Profile and verification errors.
var (
	// ErrProfileNotFound indicates the authenticated user has no profile row.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrVerificationNotFound indicates the requested verification record does
	// not exist.
	ErrVerificationNotFound = errors.New("verification not found")

	// ErrVerificationDecided is returned when an admin attempts to decide a
	// verification that is no longer pending.
	ErrVerificationDecided = errors.New("verification already decided")

	// ErrVerificationApproved is returned when a user resubmits while an
	// approved record exists; approval is terminal on the submit path.
	ErrVerificationApproved = errors.New("verification already approved")

	// ErrMissingLicense is returned when a doctor verification submission has
	// no license number.
	ErrMissingLicense = errors.New("license number is required")
)

// ApprovalRequiredError is returned by guard checks when the caller's role
// matches but their verification gate is not passed. Status carries the
// current verification status, or nil when the user never submitted one.
type ApprovalRequiredError struct {
	Status *string
}

// Error implements the error interface.
func (e *ApprovalRequiredError) Error() string {
	if e.Status == nil {
		return "approval required: no verification submitted"
	}
	return fmt.Sprintf("approval required: verification status is %s", *e.Status)
}

// RateLimitedError is returned when a windowed limit or target cooldown is
// exhausted. ResetAt is when the limiting window rolls over; RetryAfter is the
// remaining wait rounded up to whole seconds.
type RateLimitedError struct {
	Scope      string
	Limit      int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited (%s): limit %d, retry after %s", e.Scope, e.Limit, e.RetryAfter)
}
