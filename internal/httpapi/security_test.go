package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kedaipos/backend/internal/cache"
	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/obs"
	"kedaipos/backend/internal/service"
	"kedaipos/backend/internal/store/memory"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api, _ := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
}

func TestUnlockRateLimitReturns429(t *testing.T) {
	api, _ := newTestAPI(t)
	c := &testClient{t: t, handler: api.Handler()}
	body := domain.UnlockRequest{PIN: "0000", TerminalID: "till-1"}

	for i := 0; i < 9; i++ {
		res := c.do(http.MethodPost, "/api/v1/auth/unlock", body)

		if i < 8 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 8 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 9 expected 429, got %d", res.Code)
		}
	}
}

func TestUnlockRateLimitIsPerClient(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()
	payload := `{"pin":"0000","terminal_id":"till-1"}`

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/unlock", strings.NewReader(payload))
		req.RemoteAddr = remote
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res.Code
	}
	for i := 0; i < 8; i++ {
		send("10.0.0.1:4000")
	}
	require.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:4001"))
	assert.Equal(t, http.StatusUnauthorized, send("10.0.0.2:4000"))
}

func TestUnlockRateLimitIgnoresForwardedHeaders(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	limited := 0
	for i := 0; i < 12; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/unlock", strings.NewReader(`{"pin":"0000","terminal_id":"till-1"}`))
		req.RemoteAddr = "10.0.0.9:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 4, limited)
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api, _ := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"pin":"%s","terminal_id":"till-1"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/unlock", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", res.Code)
	}
}

func TestCSRFGuardOnMutatingRoutes(t *testing.T) {
	api, _ := newTestAPI(t)
	cashier := newClient(t, api, "1234", "till-1")

	cashier.csrf = ""
	if res := cashier.do(http.MethodPost, "/api/v1/cart/items", domain.CartAddRequest{ProductID: "prod-cola-05"}); res.Code != http.StatusForbidden {
		t.Fatalf("missing csrf: expected 403, got %d", res.Code)
	}
	cashier.csrf = "deadbeef"
	if res := cashier.do(http.MethodDelete, "/api/v1/cart", nil); res.Code != http.StatusForbidden {
		t.Fatalf("bad csrf on DELETE: expected 403, got %d", res.Code)
	}
	cashier.csrf = fetchCSRFToken(t, api)
	if res := cashier.do(http.MethodPost, "/api/v1/cart/items", domain.CartAddRequest{ProductID: "prod-cola-05"}); res.Code != http.StatusOK {
		t.Fatalf("valid csrf: expected 200, got %d", res.Code)
	}

	cashier.csrf = ""
	if res := cashier.do(http.MethodGet, "/api/v1/cart", nil); res.Code != http.StatusOK {
		t.Fatalf("GET should not need csrf, got %d", res.Code)
	}
}

func TestCSRFTokenAcceptsPreviousHourOnly(t *testing.T) {
	api, _ := newTestAPI(t)
	now := time.Now().UTC().Truncate(time.Hour).Unix()

	assert.True(t, api.validateCSRFToken(api.csrfTokenForHour(now)))
	assert.True(t, api.validateCSRFToken(api.csrfTokenForHour(now-3600)))
	assert.False(t, api.validateCSRFToken(api.csrfTokenForHour(now-7200)))
	assert.False(t, api.validateCSRFToken(""))
}

func TestServerErrorsHideDetails(t *testing.T) {
	api, _ := newTestAPI(t)
	res := httptest.NewRecorder()

	api.writeError(res, http.StatusServiceUnavailable, fmt.Errorf("dial tcp 10.0.0.5:5432: connection refused"))

	var payload map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, "service temporarily unavailable", payload["error"])
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := obs.NewHTTPMetrics("kedaipos", reg)
	svc := service.New(memory.NewSeeded(), cache.NewMemoryCartStore(), cache.NewLocalLocker(), service.Settings{}, zerolog.Nop(), obs.NewDomainMetrics("kedaipos", reg))
	api := New(svc, newTestAuth(t), Options{
		AllowedOrigin:  "*",
		Logger:         zerolog.Nop(),
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	handler := api.Handler()

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}

	count, err := testutil.GatherAndCount(reg, "kedaipos_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `kedaipos_http_requests_total{method="GET",route="/healthz",status="200"} 3`)
}

func TestParsePositiveLimitCaps(t *testing.T) {
	if got := parsePositiveLimit("9999", 50, 200); got != 200 {
		t.Fatalf("expected capped limit 200, got %d", got)
	}
	if got := parsePositiveLimit("", 50, 200); got != 50 {
		t.Fatalf("expected fallback limit 50, got %d", got)
	}
	if got := parsePositiveLimit("invalid", 50, 200); got != 50 {
		t.Fatalf("expected fallback on invalid input, got %d", got)
	}
}

func TestParseTimeParam(t *testing.T) {
	day, err := parseTimeParam("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), day)

	ts, err := parseTimeParam("2026-03-01T10:00:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, 3, ts.Hour())

	zero, err := parseTimeParam("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = parseTimeParam("yesterday")
	assert.Error(t, err)
}

// fetchCSRFToken calls the CSRF token endpoint and returns the token string.
func fetchCSRFToken(t *testing.T, api *API) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/csrf-token", nil)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("csrf-token endpoint returned status %d", res.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode csrf-token response failed: %v", err)
	}
	tok := payload["csrf_token"]
	if strings.TrimSpace(tok) == "" {
		t.Fatalf("expected non-empty csrf_token in response")
	}
	return tok
}
