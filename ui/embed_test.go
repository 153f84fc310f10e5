package ui

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistFS_HasIndex(t *testing.T) {
	data, err := fs.ReadFile(DistFS(), "index.html")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}

func TestHandler(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":    {Data: []byte("<!DOCTYPE html><html>app</html>")},
		"assets/app.js": {Data: []byte("console.log('hi')")},
	}
	h := Handler(fsys)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"root", "/", http.StatusOK, "app</html>"},
		{"asset", "/assets/app.js", http.StatusOK, "console.log"},
		{"client route falls back to index", "/clients/123", http.StatusOK, "app</html>"},
		{"missing asset", "/assets/missing.js", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.True(t, strings.Contains(rec.Body.String(), tt.wantBody), rec.Body.String())
			}
		})
	}
}
