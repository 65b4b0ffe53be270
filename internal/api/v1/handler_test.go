package v1_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "templatecheck/internal/api/v1"
	"templatecheck/internal/checker"
	"templatecheck/internal/classifier"
	"templatecheck/internal/parser"
	"templatecheck/internal/store"
	"templatecheck/internal/templates"
	"templatecheck/internal/testutil"
	"templatecheck/internal/validator"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	router  *gin.Engine
	handler *v1.Handler
	store   *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New(filepath.Join(t.TempDir(), "templatecheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	reg := templates.NewRegistry(templates.NewEmbeddedSource(), nil)
	cache := templates.NewCachedLoader(reg)
	chk := checker.New(classifier.New(), validator.New(cache, nil), checker.WithRecorder(s))

	h := v1.NewHandler(v1.Options{
		Checker:        chk,
		Registry:       reg,
		Cache:          cache,
		Store:          s,
		MaxUploadBytes: 1 << 20,
	})
	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	return &fixture{router: router, handler: h, store: s}
}

func (f *fixture) do(t *testing.T, req *http.Request) envelope {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func uploadRequest(t *testing.T, path, fileName, contentType string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func simplifiedCSV(t *testing.T) []byte {
	return testutil.BuildCSV(t,
		[]string{"Revenue", "Net Income", "Operating Expenses", "Gross Profit", "Revenue Trends"},
		[]string{"1000", "200", "500", "300", "up"},
	)
}

func TestListTemplates(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	require.Equal(t, v1.CodeOK, env.Code)

	var defs []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &defs))
	require.Len(t, defs, 3)
	assert.Equal(t, "simplified", defs[0].ID)
	assert.Equal(t, "Standard Template", defs[1].Name)
	assert.Equal(t, "/templates/traxxia_detailed_template.xlsx", defs[2].Path)
}

func TestDownloadTemplate(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/templates/standard/download", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, parser.MIMETypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "traxxia_standard_template.xlsx")

	env := f.do(t, httptest.NewRequest(http.MethodGet, "/api/templates/premium/download", nil))
	assert.Equal(t, v1.CodeNotFound, env.Code)
}

func TestDetectTemplate(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, uploadRequest(t, "/api/templates/detect", "Q1_standard.csv", "text/csv", simplifiedCSV(t), nil))
	require.Equal(t, v1.CodeOK, env.Code, env.Message)

	var got struct {
		Type       string  `json:"type"`
		Score      float64 `json:"score"`
		Confidence string  `json:"confidence"`
		Stage      string  `json:"stage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "standard", got.Type)
	assert.Equal(t, 1.0, got.Score)
	assert.Equal(t, "high", got.Confidence)
	assert.Equal(t, "filename", got.Stage)
}

func TestValidateUpload_RecordsUpload(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, uploadRequest(t, "/api/templates/validate", "my_report.csv", "text/csv", simplifiedCSV(t),
		map[string]string{"template": "simplified"}))
	require.Equal(t, v1.CodeOK, env.Code, env.Message)

	var got struct {
		UploadMode string `json:"uploadMode"`
		Summary    string `json:"summary"`
		Report     struct {
			IsValid bool     `json:"isValid"`
			Errors  []string `json:"errors"`
		} `json:"validationReport"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "template-specific", got.UploadMode)
	assert.True(t, got.Report.IsValid)
	assert.Empty(t, got.Report.Errors)
	assert.Equal(t, "File matches Simplified Template template perfectly", got.Summary)

	env = f.do(t, httptest.NewRequest(http.MethodGet, "/api/uploads?limit=5", nil))
	require.Equal(t, v1.CodeOK, env.Code)
	var records []struct {
		FileName     string `json:"filename"`
		TemplateType string `json:"template_type"`
		Confidence   string `json:"validation_confidence"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "my_report.csv", records[0].FileName)
	assert.Equal(t, "simplified", records[0].TemplateType)
	assert.Equal(t, "high", records[0].Confidence)
}

func TestValidateUpload_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
	}{
		{
			name:     "missing file",
			req:      uploadRequest(t, "/api/templates/validate", "", "", nil, nil),
			wantCode: v1.CodeMissingFile,
		},
		{
			name:     "unsupported type",
			req:      uploadRequest(t, "/api/templates/validate", "a.pdf", "application/pdf", []byte("%PDF"), nil),
			wantCode: v1.CodeUnsupportedType,
		},
		{
			name:     "corrupt workbook",
			req:      uploadRequest(t, "/api/templates/validate", "a.xlsx", parser.MIMETypeXLSX, []byte("garbage"), nil),
			wantCode: v1.CodeParseFailed,
		},
		{
			name: "unknown template",
			req: uploadRequest(t, "/api/templates/validate", "a.csv", "application/octet-stream", simplifiedCSV(t),
				map[string]string{"template": "premium"}),
			wantCode: v1.CodeNotFound,
		},
		{
			name:     "too large",
			req:      uploadRequest(t, "/api/templates/validate", "big.csv", "text/csv", bytes.Repeat([]byte("a,"), 1<<20), nil),
			wantCode: v1.CodeFileTooLarge,
		},
	}
	for _, tt := range tests {
		env := f.do(t, tt.req)
		assert.Equal(t, tt.wantCode, env.Code, "%s: %s", tt.name, env.Message)
	}
}

func TestReloadTemplates(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, httptest.NewRequest(http.MethodPost, "/api/templates/reload", nil))
	require.Equal(t, v1.CodeOK, env.Code, env.Message)

	var got struct {
		Templates int `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 3, got.Templates)

	env = f.do(t, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var status v1.StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 3, status.Templates)
	assert.Equal(t, 3, status.CachedTemplates)
	assert.True(t, status.CacheEnabled)
	assert.False(t, status.Reloading)
	assert.Equal(t, "first_match", status.Ranking)
	assert.NotNil(t, status.LastReloadAt)
}

func TestListUploads_BadLimit(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, httptest.NewRequest(http.MethodGet, "/api/uploads?limit=abc", nil))
	assert.Equal(t, v1.CodeBadRequest, env.Code)
}

func TestValidateUpload_XLSXReport(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, uploadRequest(t, "/api/templates/validate?format=xlsx", "my_report.csv", "text/csv",
		simplifiedCSV(t), map[string]string{"template": "simplified"}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, parser.MIMETypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "my_report_validation.xlsx")

	wb, err := parser.Parse(w.Body.Bytes(), "report.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary", "Sheets", "Issues"}, wb.SheetNames)
}

func TestValidateBatch_StreamsEvents(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("template", "simplified"))
	for _, name := range []string{"a.csv", "b.csv"} {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(simplifiedCSV(t))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/templates/validate/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var types []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		types = append(types, ev.Type)
	}
	require.NotEmpty(t, types)
	assert.Equal(t, "start", types[0])
	assert.Equal(t, "done", types[len(types)-1])
	assert.Len(t, types, 6)
}
