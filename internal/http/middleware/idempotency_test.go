package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemEngine(lookup IdempotencyLookup, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, m := range pre {
		r.Use(m)
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/leads", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"key": key, "replay": IsReplay(c), "bypass": IsRateBypass(c)})
	})
	return r
}

func postWithKey(r *gin.Engine, key string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/leads", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type idemResult struct {
	Key    string `json:"key"`
	Replay bool   `json:"replay"`
	Bypass bool   `json:"bypass"`
}

func TestIdempotency_AbsentHeaderIsNoOp(t *testing.T) {
	r := idemEngine(nil)
	w := postWithKey(r, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var res idemResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Key != "" || res.Replay || res.Bypass {
		t.Fatalf("unexpected state: %+v", res)
	}
}

func TestIdempotency_InvalidKeyRejected(t *testing.T) {
	r := idemEngine(nil)

	for _, key := range []string{"한글키", "has space", "bad;semicolon", strings.Repeat("a", 201)} {
		w := postWithKey(r, key, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status = %d; want 400", key, w.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["code"] != "4000" {
			t.Fatalf("key %q: code = %q; want 4000", key, body["code"])
		}
	}
}

func TestIdempotency_ValidKeyStashed(t *testing.T) {
	r := idemEngine(nil)
	w := postWithKey(r, "retry-abc_1.2:3~x", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var res idemResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Key != "retry-abc_1.2:3~x" {
		t.Fatalf("key = %q", res.Key)
	}
	if res.Replay || res.Bypass {
		t.Fatalf("no lookup configured, replay/bypass must be false: %+v", res)
	}
}

func TestIdempotency_LookupHitMarksReplayAndBypass(t *testing.T) {
	var seenUser, seenKey string
	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		seenUser, seenKey = userID, key
		return key == "known", nil
	}
	r := idemEngine(lookup, Authenticate(nil, true))

	w := postWithKey(r, "known", map[string]string{"X-User-ID": "doc1"})
	var res idemResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Replay || !res.Bypass {
		t.Fatalf("lookup hit must mark replay and bypass: %+v", res)
	}
	if seenUser != "doc1" || seenKey != "known" {
		t.Fatalf("lookup saw (%q, %q)", seenUser, seenKey)
	}

	w = postWithKey(r, "fresh", map[string]string{"X-User-ID": "doc1"})
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Replay || res.Bypass {
		t.Fatalf("miss must not mark replay: %+v", res)
	}
}

func TestIdempotency_LookupErrorDoesNotBlock(t *testing.T) {
	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		return false, context.DeadlineExceeded
	}
	r := idemEngine(lookup)
	w := postWithKey(r, "some-key", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup failures must not block processing: status = %d", w.Code)
	}
}
