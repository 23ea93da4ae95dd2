package main

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/registro/backend/pkg/response"
)

// frontend serves the built single-page app from dir, falling back to
// index.html for client-side routes. It reports false when dir has no index.html.
func frontend(dir string) (gin.HandlerFunc, bool) {
	if dir == "" {
		return nil, false
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return nil, false
	}
	root := http.Dir(dir)
	files := http.FileServer(root)

	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, response.Body{Success: false, Error: "not found"})
			return
		}
		if f, err := root.Open(path.Clean(p)); err == nil {
			st, statErr := f.Stat()
			f.Close()
			if statErr == nil && !st.IsDir() {
				files.ServeHTTP(c.Writer, c.Request)
				return
			}
		}
		c.File(index)
	}, true
}
