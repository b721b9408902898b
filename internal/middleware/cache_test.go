package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/health-member-services/internal/config"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestResponseCache(t *testing.T) {
	rdb := newTestRedis(t)
	rc := NewResponseCache(testCacheConfig(), rdb)

	calls := 0
	e := echo.New()
	e.GET("/members", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, []string{"ann"})
	}, rc.Middleware())

	first := serve(e, http.MethodGet, "/members")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/members")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	require.NoError(t, rc.InvalidateRoute(context.Background(), "/members"))

	third := serve(e, http.MethodGet, "/members")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	rc := NewResponseCache(testCacheConfig(), newTestRedis(t))

	calls := 0
	e := echo.New()
	e.GET("/health", func(c echo.Context) error {
		calls++
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}, rc.Middleware())

	serve(e, http.MethodGet, "/health")
	rec := serve(e, http.MethodGet, "/health")

	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestInvalidateRouteKeepsOtherRoutes(t *testing.T) {
	rdb := newTestRedis(t)
	rc := NewResponseCache(testCacheConfig(), rdb)

	e := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, c.Path()) }
	e.GET("/members", ok, rc.Middleware())
	e.GET("/health", ok, rc.Middleware())
	serve(e, http.MethodGet, "/members")
	serve(e, http.MethodGet, "/health")

	require.NoError(t, rc.InvalidateRoute(context.Background(), "/members"))

	keys, err := rdb.Keys(context.Background(), "cache:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "cache:/health:"))
}

func TestResponseCacheDisabled(t *testing.T) {
	var nilCache *ResponseCache
	assert.NoError(t, nilCache.InvalidateRoute(context.Background(), "/members"))

	cfg := testCacheConfig()
	cfg.Enabled = false
	for _, rc := range []*ResponseCache{nilCache, NewResponseCache(cfg, newTestRedis(t)), NewResponseCache(testCacheConfig(), nil)} {
		e := echo.New()
		e.GET("/members", func(c echo.Context) error { return c.String(http.StatusOK, "x") }, rc.Middleware())
		rec := serve(e, http.MethodGet, "/members")
		assert.Empty(t, rec.Header().Get("X-Cache"))
		assert.NoError(t, rc.InvalidateRoute(context.Background(), "/members"))
	}
}

func TestCacheKeyFrom(t *testing.T) {
	e := echo.New()
	cfg := testCacheConfig()

	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/members")
		return cacheKeyFrom(cfg, c)
	}

	assert.True(t, strings.HasPrefix(key("/members"), "cache:/members:"))
	assert.Equal(t, key("/members?a=1"), key("/members?a=1"))
	assert.NotEqual(t, key("/members?a=1"), key("/members?a=2"))

	cfg.KeyStrategy = "route"
	assert.Equal(t, key("/members?a=1"), key("/members?a=2"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{echo.HeaderContentType: {echo.MIMEApplicationJSON}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[]`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, "[]", string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}
