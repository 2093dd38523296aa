// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints.
// Every response, success or failure, is wrapped in an envelope carrying a
// four-digit code (see errors.go), which keeps the API predictable and
// machine-friendly.
//
// Conventions:
//   - `ok()` wraps payloads as {"code":"0000","data":...}.
//   - `fail()` / `failWith()` centralize error formatting; 5xx responses are
//     logged with request context for observability.
//   - `mapServiceError()` translates service-layer sentinel and typed errors
//     into the matching status/code pair so handlers stay thin.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{ "code": "4040", "message": "리소스를 찾을 수 없습니다" }
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "code": "0000", "data": { "id": "abc123" } }
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medihub/go-medihub-backend/internal/http/middleware"
	"github.com/medihub/go-medihub-backend/internal/services"
)

// SuccessResponse is the standard success envelope returned by all endpoints.
type SuccessResponse struct {
	// Code is always "0000" on success.
	Code string `json:"code" example:"0000"`
	// Data carries the endpoint payload; omitted for bodyless successes.
	Data any `json:"data,omitempty"`
	// Message optionally carries a user-facing notice.
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Code is a stable four-digit code (see errors.go constants).
	Code string `json:"code" example:"4040"`
	// Message is a human-readable description, safe to show to users.
	Message string `json:"message" example:"리소스를 찾을 수 없습니다"`
	// Details carries structured error context, e.g. {"status":"pending"}
	// on approval-gate failures.
	Details any `json:"details,omitempty"`
}

// ok writes a success envelope with the given HTTP status.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{Code: CodeSuccess, Data: data})
}

// fail aborts the request with an error envelope and logs server-side errors
// using the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, code, msg, nil)
}

// failWith is fail with a structured details payload.
func failWith(c *gin.Context, status int, code, msg string, details any) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: msg, Details: details})
}

// Fail is the exported variant of fail(). External packages (router setup)
// use it for NoRoute/NoMethod envelopes without depending on unexported
// helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// mapServiceError translates a service-layer error into the matching HTTP
// response. Unknown errors become 500/"5000" with the generic message; the
// raw error is logged, never echoed to the client.
func mapServiceError(c *gin.Context, err error) {
	var rle *services.RateLimitedError
	var are *services.ApprovalRequiredError

	switch {
	case errors.Is(err, services.ErrLeadNotFound),
		errors.Is(err, services.ErrVendorNotFound),
		errors.Is(err, services.ErrVerificationNotFound),
		errors.Is(err, services.ErrProfileNotFound):
		fail(c, http.StatusNotFound, CodeNotFound, MsgNotFound)

	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrMissingContact),
		errors.Is(err, services.ErrMissingLicense):
		fail(c, http.StatusBadRequest, CodeBadRequest, MsgBadRequest)

	case errors.Is(err, services.ErrDoctorCancelOnly):
		fail(c, http.StatusBadRequest, CodeBadRequest, MsgDoctorCancelOnly)

	case errors.Is(err, services.ErrAdminCannotMessage):
		fail(c, http.StatusForbidden, CodeForbidden, MsgAdminCannotMessage)

	case errors.Is(err, services.ErrVerificationDecided),
		errors.Is(err, services.ErrVerificationApproved):
		fail(c, http.StatusConflict, CodeConflict, MsgConflict)

	case errors.As(err, &rle):
		c.Header("Retry-After", strconv.Itoa(int(rle.RetryAfter/time.Second)))
		failWith(c, http.StatusTooManyRequests, CodeTooManyRequests, MsgTooManyRequests, gin.H{
			"scope":      rle.Scope,
			"limit":      rle.Limit,
			"resetAt":    rle.ResetAt.UTC().Format(time.RFC3339),
			"retryAfter": int(rle.RetryAfter / time.Second),
		})

	case errors.As(err, &are):
		failWith(c, http.StatusForbidden, CodeApprovalRequired, MsgApprovalRequired, gin.H{
			"status": are.Status,
		})

	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, CodeInternal, MsgInternal)
	}
}
