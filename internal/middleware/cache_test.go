package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/config"
)

func cacheTestConfig() config.CacheConfig {
	return config.CacheConfig{
		Prefix:       "cache",
		KeyStrategy:  "route_query",
		TenantScoped: true,
	}
}

func cacheContext(target, routePattern string, orgID any) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(routePattern)
	if orgID != nil {
		c.Set("org_id", orgID)
	}
	return c
}

func TestCacheKeySeparatesConcretePaths(t *testing.T) {
	cfg := cacheTestConfig()

	// Both requests match the same route pattern; the key must follow
	// the concrete path so each show gets its own episodes entry.
	a := cacheKeyFrom(cfg, cacheContext("/v1/shows/1/episodes", "/v1/shows/:id/episodes", "1"))
	b := cacheKeyFrom(cfg, cacheContext("/v1/shows/2/episodes", "/v1/shows/:id/episodes", "1"))
	assert.NotEqual(t, a, b)

	// Same show, same caller: the entry is reusable.
	again := cacheKeyFrom(cfg, cacheContext("/v1/shows/1/episodes", "/v1/shows/:id/episodes", "1"))
	assert.Equal(t, a, again)
}

func TestCacheKeySeparatesOrganizations(t *testing.T) {
	cfg := cacheTestConfig()

	// The show catalog is filtered by the caller's org; two orgs asking
	// for the same path must never share a cache entry.
	orgA := cacheKeyFrom(cfg, cacheContext("/v1/shows", "/v1/shows", "1"))
	orgB := cacheKeyFrom(cfg, cacheContext("/v1/shows", "/v1/shows", "2"))
	assert.NotEqual(t, orgA, orgB)

	// Numeric and string claim encodings of the same org agree.
	numeric := cacheKeyFrom(cfg, cacheContext("/v1/shows", "/v1/shows", float64(1)))
	assert.Equal(t, orgA, numeric)
}

func TestCacheKeyHonorsQuery(t *testing.T) {
	cfg := cacheTestConfig()

	plain := cacheKeyFrom(cfg, cacheContext("/v1/shows/1/episodes", "/v1/shows/:id/episodes", "1"))
	filtered := cacheKeyFrom(cfg, cacheContext("/v1/shows/1/episodes?from=2026-09-01", "/v1/shows/:id/episodes", "1"))
	assert.NotEqual(t, plain, filtered)
}

func TestTenantScopedCacheBypassesWithoutOrgClaim(t *testing.T) {
	cfg := cacheTestConfig()
	cfg.Enabled = true
	cfg.Methods = map[string]bool{"GET": true}

	// A nil redis client yields the pass-through middleware; what matters
	// here is that a tenant-scoped key never gets built without an org.
	mw := NewRedisCache(cfg, nil)
	called := false
	h := mw(func(c echo.Context) error { called = true; return nil })
	c := cacheContext("/v1/shows", "/v1/shows", nil)
	assert.NoError(t, h(c))
	assert.True(t, called)

	// Keys built with and without an org claim must differ even for the
	// same path, so a poisoned unscoped entry can never match.
	withOrg := cacheKeyFrom(cfg, cacheContext("/v1/shows", "/v1/shows", "1"))
	withoutOrg := cacheKeyFrom(cfg, cacheContext("/v1/shows", "/v1/shows", nil))
	assert.NotEqual(t, withOrg, withoutOrg)
}
