package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_PlaceholderWithoutStaticDir(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Allocation Engine API")
}

func TestRouter_ServesStaticDir(t *testing.T) {
	// GIVEN: A built dashboard directory
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dashboard</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('app')"), 0o644))

	env := newTestEnv(t)
	env.router = NewRouter(env.handler, RouterOptions{StaticDir: dir})

	// WHEN/THEN: Files are served as is
	rec := env.do(t, http.MethodGet, "/app.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log('app')", rec.Body.String())

	// WHEN/THEN: Unknown paths fall back to index.html
	rec = env.do(t, http.MethodGet, "/projects/Stand%20Together", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>dashboard</html>", rec.Body.String())

	// API routes are unaffected
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/years", nil).Code)
}
