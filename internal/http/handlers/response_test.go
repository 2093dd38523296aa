package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medihub/go-medihub-backend/internal/services"
)

// mapError runs mapServiceError against a bare test context and returns the
// recorded response.
func mapError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	mapServiceError(c, err)
	return w
}

func TestMapServiceError_DoctorCancelOnlyIsBadRequest(t *testing.T) {
	w := mapError(t, services.ErrDoctorCancelOnly)
	env := wantError(t, w, http.StatusBadRequest, CodeBadRequest)
	if env.Message != MsgDoctorCancelOnly {
		t.Fatalf("message = %q; want %q", env.Message, MsgDoctorCancelOnly)
	}
}

func TestMapServiceError_AdminCannotMessageIsForbidden(t *testing.T) {
	w := mapError(t, services.ErrAdminCannotMessage)
	env := wantError(t, w, http.StatusForbidden, CodeForbidden)
	if env.Message != MsgAdminCannotMessage {
		t.Fatalf("message = %q; want %q", env.Message, MsgAdminCannotMessage)
	}
}

func TestMapServiceError_RateLimitedCarriesRetryDetails(t *testing.T) {
	resetAt := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	w := mapError(t, &services.RateLimitedError{
		Scope:      "daily",
		Limit:      10,
		ResetAt:    resetAt,
		RetryAfter: 90 * time.Second,
	})
	env := wantError(t, w, http.StatusTooManyRequests, CodeTooManyRequests)

	if got := w.Header().Get("Retry-After"); got != "90" {
		t.Fatalf("Retry-After = %q; want 90", got)
	}
	var details struct {
		Scope      string `json:"scope"`
		Limit      int    `json:"limit"`
		ResetAt    string `json:"resetAt"`
		RetryAfter int    `json:"retryAfter"`
	}
	if err := json.Unmarshal(env.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Scope != "daily" || details.Limit != 10 {
		t.Fatalf("details = %+v", details)
	}
	if details.ResetAt != resetAt.Format(time.RFC3339) {
		t.Fatalf("resetAt = %q; want %q", details.ResetAt, resetAt.Format(time.RFC3339))
	}
	if details.RetryAfter != 90 {
		t.Fatalf("retryAfter = %d; want 90", details.RetryAfter)
	}
}

func TestMapServiceError_UnknownIsInternal(t *testing.T) {
	w := mapError(t, errors.New("boom"))
	env := wantError(t, w, http.StatusInternalServerError, CodeInternal)
	if env.Message != MsgInternal {
		t.Fatalf("message = %q; want %q", env.Message, MsgInternal)
	}
}
