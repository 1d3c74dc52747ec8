package ember

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRouteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	content := `
routes:
  - pattern: /health
    methods: [GET, HEAD]
  - pattern: /widgets
    methods: [GET, OPTIONS]
    cors:
      allow_all_origins: true
      allowed_methods: [GET]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	man, err := LoadRouteManifest(path)
	require.NoError(t, err)
	require.Len(t, man.Routes, 2)

	assert.Equal(t, "/health", man.Routes[0].Pattern)
	assert.Equal(t, []string{"GET", "HEAD"}, man.Routes[0].Methods)
	assert.Nil(t, man.Routes[0].CORS)

	assert.Equal(t, "/widgets", man.Routes[1].Pattern)
	require.NotNil(t, man.Routes[1].CORS)
	assert.True(t, man.Routes[1].CORS.AllowAllOrigins)
	assert.Equal(t, []string{"GET"}, man.Routes[1].CORS.AllowedMethods)
}

func TestRouteManifestApplyRegistersRoutes(t *testing.T) {
	man := &RouteManifest{
		Routes: []RouteManifestEntry{
			{Pattern: "/a", Methods: []string{"GET"}},
			{
				Pattern: "/b",
				Methods: []string{"GET", "OPTIONS"},
				CORS:    &RouteManifestCORS{AllowAllOrigins: true},
			},
		},
	}

	router := NewRouter()
	handlers := map[string]Handler{
		"/a": func(req *Request, res *Response) {},
		"/b": func(req *Request, res *Response) {},
	}

	man.Apply(router, handlers)

	routes := router.Routes()
	assert.Len(t, routes, 3)

	match, err := router.Match("GET", "/b")
	require.NoError(t, err)
	assert.NotNil(t, match.CORS)
	assert.True(t, match.CORS.AllowAllOrigins)
}

func TestRouteManifestApplyPanicsOnMissingHandler(t *testing.T) {
	man := &RouteManifest{
		Routes: []RouteManifestEntry{{Pattern: "/missing", Methods: []string{"GET"}}},
	}

	assert.Panics(t, func() {
		man.Apply(NewRouter(), map[string]Handler{})
	})
}
