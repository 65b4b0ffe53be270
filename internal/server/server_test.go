package server_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"templatecheck/internal/config"
	"templatecheck/internal/server"
	"templatecheck/internal/templates"
)

func newServer(t *testing.T, mutate func(*config.AppConfig)) *server.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")
	if mutate != nil {
		mutate(cfg)
	}
	srv, err := server.NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(t.Context()) })
	return srv
}

func get(t *testing.T, srv *server.Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServer_Routes(t *testing.T) {
	srv := newServer(t, nil)
	require.NotNil(t, srv.GetStore())

	w := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w = get(t, srv, "/api/templates")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "traxxia_simplified_template.xlsx")

	// collectors register on first use
	get(t, srv, "/api/status")
	w = get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "go_goroutines"))
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newServer(t, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/templates/validate", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_WithoutRecordsOrCache(t *testing.T) {
	srv := newServer(t, func(cfg *config.AppConfig) {
		cfg.Data.RecordUploads = false
		cfg.Templates.Cache = false
	})
	assert.Nil(t, srv.GetStore())

	w := get(t, srv, "/api/uploads")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":5003`)
}

func TestServer_BadRanking(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.RecordUploads = false
	cfg.Classifier.Ranking = "loudest"
	_, err := server.NewServer(cfg, nil)
	assert.Error(t, err)
}

func TestNewAssetSource(t *testing.T) {
	assert.IsType(t, templates.DirSource{}, server.NewAssetSource(config.TemplatesConfig{Dir: "/x", BaseURL: "http://y"}))
	assert.IsType(t, &templates.HTTPSource{}, server.NewAssetSource(config.TemplatesConfig{BaseURL: "http://y"}))
	assert.IsType(t, templates.EmbeddedSource{}, server.NewAssetSource(config.TemplatesConfig{}))
}
