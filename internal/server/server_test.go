package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/datasweeper/internal/apierr"
	"github.com/wdm0006/datasweeper/internal/config"
	"github.com/wdm0006/datasweeper/internal/logging"
	"github.com/wdm0006/datasweeper/pkg/convert"
)

type part struct {
	name string
	data string
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	return New(cfg, logging.Discard(), "test")
}

// newUploadRequest builds a multipart request with the given files and form fields.
func newUploadRequest(t *testing.T, path string, files []part, fields map[string][]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		w, err := writer.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.data))
		require.NoError(t, err)
	}
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, writer.WriteField(k, v))
		}
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func problem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, apierr.ContentType, rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestConvertSingleCSVToExcel(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, newUploadRequest(t, "/api/v1/convert",
		[]part{{"data.csv", "a,b\n1,x\n,y\n1,x\n"}},
		map[string][]string{"dedupe": {"true"}, "fill": {"true"}, "to": {"Excel"}}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, convert.MIMEXLSX, rec.Header().Get("Content-Type"))
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "data.xlsx", params["filename"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	f, _, err := convert.DecodeBytes(rec.Body.Bytes(), ".xlsx")
	require.NoError(t, err)
	require.Equal(t, 2, f.Rows())
	assert.Equal(t, []any{int64(1), "y"}, f.Row(1))
}

func TestConvertTargetIgnoresCase(t *testing.T) {
	tests := []struct {
		to       string
		filename string
		mime     string
	}{
		{"Excel", "data.xlsx", convert.MIMEXLSX},
		{"CSV", "data.csv", convert.MIMECSV},
		{" Spreadsheet ", "data.xlsx", convert.MIMEXLSX},
		{"xlsx", "data.xlsx", convert.MIMEXLSX},
	}
	for _, tt := range tests {
		t.Run(tt.to, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := serve(s, newUploadRequest(t, "/api/v1/convert",
				[]part{{"data.csv", "a\n1\n"}}, map[string][]string{"to": {tt.to}}))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.mime, rec.Header().Get("Content-Type"))
			_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, tt.filename, params["filename"])
		})
	}
}

func TestConvertSelectColumns(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, newUploadRequest(t, "/api/v1/convert",
		[]part{{"data.csv", "a,b,c\n1,2,3\n"}},
		map[string][]string{"columns": {"c", "a"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "a,c\n1,3\n", rec.Body.String())
}

func TestConvertSingleFailures(t *testing.T) {
	tests := []struct {
		name   string
		file   part
		fields map[string][]string
		status int
		code   string
	}{
		{"unsupported", part{"data.txt", "a\n1\n"}, nil, http.StatusUnsupportedMediaType, "unsupported_format"},
		{"malformed", part{"data.xlsx", "garbage"}, nil, http.StatusUnprocessableEntity, "malformed_file"},
		{"unknown column", part{"data.csv", "a\n1\n"}, map[string][]string{"columns": {"zz"}}, http.StatusBadRequest, "unknown_column"},
		{"bad target", part{"data.csv", "a\n1\n"}, map[string][]string{"to": {"pdf"}}, http.StatusBadRequest, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := serve(s, newUploadRequest(t, "/api/v1/convert", []part{tt.file}, tt.fields))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, problem(t, rec)["error_code"])
		})
	}
}

func TestConvertBatchZip(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, newUploadRequest(t, "/api/v1/convert",
		[]part{
			{"data.csv", "a\n1\n"},
			{"data.txt", "a\n1\n"},
			{"other.csv", "b\n2\n"},
			{"data.csv", "c\n3\n"},
		},
		map[string][]string{"plan": {`{"other.csv":{"to":"xlsx"}}`}}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	batch := rec.Header().Get(BatchIDHeader)
	require.NotEmpty(t, batch)
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "sweeper-"+batch+".zip", params["filename"])

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		files[f.Name] = b
	}
	assert.Equal(t, "a\n1\n", string(files["data.csv"]))
	assert.Equal(t, "c\n3\n", string(files["data (1).csv"]))
	assert.Contains(t, files, "other.xlsx")

	var m manifest
	require.NoError(t, json.Unmarshal(files["manifest.json"], &m))
	assert.Equal(t, batch, m.BatchID)
	require.Len(t, m.Files, 4)
	assert.Equal(t, "unsupported_format", m.Files[1].Outcome)
	assert.Equal(t, "data (1).csv", m.Files[3].Output)
}

func TestConvertBatchAllFailed(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, newUploadRequest(t, "/api/v1/convert",
		[]part{{"a.txt", "x"}, {"b.pdf", "y"}}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := problem(t, rec)
	assert.Equal(t, "BATCH_FAILED", body["error_code"])
	assert.Len(t, body["details"], 2)
}

func TestPreviewContinuesPastFailures(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, newUploadRequest(t, "/api/v1/preview",
		[]part{
			{"data.csv", "n,v\na,1\nb,\nc,3\nd,4\ne,5\nf,6\n"},
			{"data.txt", "a\n1\n"},
		},
		map[string][]string{"fill": {"true"}, "chart": {"true"}, "head": {"2"}}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Files, 2)

	ok := resp.Files[0]
	assert.True(t, ok.OK)
	assert.Equal(t, 6, ok.InputRows)
	assert.Equal(t, []string{"impute_mean_numeric"}, ok.Steps)
	assert.Equal(t, "data.csv", ok.Output)
	require.NotNil(t, ok.Preview)
	assert.Len(t, ok.Preview.Head, 2)
	assert.Equal(t, []any{"b", 3.8}, ok.Preview.Head[1])
	require.NotNil(t, ok.Chart)
	assert.Equal(t, []string{"v"}, ok.Chart.Columns())

	bad := resp.Files[1]
	assert.False(t, bad.OK)
	require.NotNil(t, bad.Error)
	assert.Equal(t, "unsupported_format", bad.Error.Code)
	assert.Equal(t, "unsupported file type: .txt", bad.Error.Message)
}

func TestUploadValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, newUploadRequest(t, "/api/v1/preview", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_FILES", problem(t, rec)["error_code"])

	rec = serve(s, newUploadRequest(t, "/api/v1/preview", []part{{"a.csv", "a\n1\n"}}, map[string][]string{"head": {"500"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "head must be at most 100")

	rec = serve(s, newUploadRequest(t, "/api/v1/preview", []part{{"a.csv", "a\n1\n"}}, map[string][]string{"plan": {`{"a.csv":{"to":"pdf"}}`}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/preview", bytes.NewBufferString("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.MaxUploadBytes = 256 })
	big := bytes.Repeat([]byte("a,b\n"), 200)
	rec := serve(s, newUploadRequest(t, "/api/v1/convert", []part{{"big.csv", string(big)}}, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	})
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestStaticRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data Sweeper")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "test", health["version"])

	serve(s, newUploadRequest(t, "/api/v1/convert", []part{{"a.csv", "a\n1\n"}}, nil))
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `sweeper_files_processed_total{format="csv",outcome="ok"} 1`)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/errors/not-found", problem(t, rec)["type"])

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/convert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Security.AllowedOrigins = []string{"https://app.example"} })
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/convert", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(s, req)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
