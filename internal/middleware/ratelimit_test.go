package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/health-member-services/internal/config"
)

func testLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:               true,
		Capacity:              2,
		RefillTokens:          1,
		RefillInterval:        time.Hour,
		TTL:                   time.Hour,
		KeyStrategy:           "ip_route",
		Prefix:                "rl",
		AccountCapacity:       2,
		AccountRefillInterval: time.Hour,
	}
}

func login(e *echo.Echo, ip, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/login")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	for strategy, want := range map[string]string{
		"ip":       "rl:ip:10.0.0.7",
		"route":    "rl:route:POST /login",
		"ip_route": "rl:ip:10.0.0.7:route:POST /login",
		"":         "rl:ip:10.0.0.7:route:POST /login",
	} {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}

	ann := buildAccountKey(cfg, c, "ann")
	assert.True(t, strings.HasPrefix(ann, "rl:account:POST /login:"))
	assert.NotContains(t, ann, "ann")
	assert.Equal(t, ann, buildAccountKey(cfg, c, "ann"))
	assert.NotEqual(t, ann, buildAccountKey(cfg, c, "bob"))

	other := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), httptest.NewRecorder())
	other.SetPath("/login")
	assert.Equal(t, ann, buildAccountKey(cfg, other, "ann"), "account key ignores the client address")
}

func TestLimiterMiddleware(t *testing.T) {
	l := NewLimiter(testLimitConfig(), newTestRedis(t))
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, l.Middleware())

	assert.Equal(t, http.StatusOK, login(e, "10.0.0.1", "").Code)
	second := login(e, "10.0.0.1", "")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "2", second.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := login(e, "10.0.0.1", "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "Too Many Requests", blocked.Body.String())
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, login(e, "10.0.0.2", "").Code, "other clients keep their own bucket")
}

func TestLimiterPerAccount(t *testing.T) {
	cfg := testLimitConfig()
	cfg.Capacity = 100
	l := NewLimiter(cfg, newTestRedis(t))

	var seen []string
	e := echo.New()
	e.POST("/login", func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		require.NoError(t, err)
		seen = append(seen, string(b))
		return c.String(http.StatusOK, "ok")
	}, l.Middleware(), l.PerAccount("username"))

	annBody := `{"username":"ann","password":"guess"}`
	assert.Equal(t, http.StatusOK, login(e, "10.0.0.1", annBody).Code)
	assert.Equal(t, http.StatusOK, login(e, "10.0.0.2", annBody).Code)
	assert.Equal(t, http.StatusTooManyRequests, login(e, "10.0.0.3", annBody).Code, "guesses from new addresses share the account bucket")

	assert.Equal(t, http.StatusOK, login(e, "10.0.0.3", `{"username":"bob","password":"pw"}`).Code)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, login(e, "10.0.0.4", `{"username":{"$ne":""}}`).Code)
	}

	require.Len(t, seen, 6)
	assert.Equal(t, annBody, seen[0], "handler still sees the full body")
}

func TestLimiterDisabled(t *testing.T) {
	var nilLimiter *Limiter
	disabled := testLimitConfig()
	disabled.Enabled = false

	for _, l := range []*Limiter{nilLimiter, NewLimiter(disabled, newTestRedis(t)), NewLimiter(testLimitConfig(), nil)} {
		e := echo.New()
		e.POST("/login", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, l.Middleware(), l.PerAccount("username"))
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, login(e, "10.0.0.1", `{"username":"ann"}`).Code)
		}
	}
}
