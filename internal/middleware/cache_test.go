package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/godown-stock-ledger/internal/config"
)

func TestResponseCachePassThroughWhenDisabled(t *testing.T) {
	cfg := config.CacheConfig{Enabled: false}
	mw := ResponseCache(cfg, nil)

	e := echo.New()
	calls := 0
	h := mw(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/godowns", nil)
		rec := httptest.NewRecorder()
		if err := h(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("X-Cache") != "" {
			t.Error("disabled cache must not set X-Cache")
		}
	}
	if calls != 2 {
		t.Errorf("handler called %d times, want 2 (no caching)", calls)
	}
}

func TestResponseCachePassThroughWithNilClient(t *testing.T) {
	cfg := config.CacheConfig{
		Enabled: true,
		Methods: map[string]bool{"GET": true},
		TTL:     time.Minute,
		Prefix:  "cache",
	}
	mw := ResponseCache(cfg, nil)

	e := echo.New()
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "fresh")
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/brands", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Body.String() != "fresh" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "fresh")
	}
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	e := echo.New()
	mk := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/products/:type")
		return c
	}
	a := cacheKey("cache", mk("/v1/products/crackers?page=1"))
	b := cacheKey("cache", mk("/v1/products/crackers?page=2"))
	if a == b {
		t.Error("different queries produced the same cache key")
	}
	c1 := cacheKey("cache", mk("/v1/products/crackers?page=1"))
	if a != c1 {
		t.Error("identical requests produced different cache keys")
	}
}
