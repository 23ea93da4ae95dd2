package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	h, ok := frontend(dir)
	require.True(t, ok)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.NoRoute(h)

	get := func(p string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		return rec
	}

	rec := get("/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = get("/classi/2A")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")

	rec = get("/api/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFrontend_MissingDir(t *testing.T) {
	_, ok := frontend(filepath.Join(t.TempDir(), "nope"))
	assert.False(t, ok)

	_, ok = frontend("")
	assert.False(t, ok)
}
