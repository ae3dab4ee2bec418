package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/wdm0006/datasweeper/internal/apierr"
	"github.com/wdm0006/datasweeper/internal/logging"
	"github.com/wdm0006/datasweeper/pkg/chart"
	"github.com/wdm0006/datasweeper/pkg/convert"
	"github.com/wdm0006/datasweeper/pkg/profile"
)

// BatchIDHeader names the zip download of a multi-file conversion.
const BatchIDHeader = "X-Batch-ID"

type fileError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newFileError(err error) *fileError {
	if err == nil {
		return nil
	}
	return &fileError{Code: convert.Outcome(err), Message: err.Error()}
}

type previewFile struct {
	Name      string           `json:"name"`
	OK        bool             `json:"ok"`
	InputRows int              `json:"input_rows,omitempty"`
	Steps     []string         `json:"steps,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Output    string           `json:"output,omitempty"`
	Preview   *profile.Preview `json:"preview,omitempty"`
	Chart     *chart.BarChart  `json:"chart,omitempty"`
	Error     *fileError       `json:"error,omitempty"`
}

type previewResponse struct {
	RequestID string        `json:"request_id,omitempty"`
	Files     []previewFile `json:"files"`
}

// handlePreview answers 200 whenever the request itself is well formed; files
// that fail carry their error inline.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	up, err := s.parseUpload(w, r)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	results := s.proc.PreviewBatch(r.Context(), up.files, up.plans, up.def)
	resp := previewResponse{RequestID: logging.RequestID(r.Context()), Files: make([]previewFile, 0, len(results))}
	for _, res := range results {
		pf := previewFile{Name: res.Name, OK: res.Err == nil, Error: newFileError(res.Err)}
		if res.Err == nil {
			p := profile.Build(res.Frame, up.head)
			pf.InputRows = res.InputRows
			pf.Steps = res.Steps
			pf.Warnings = res.Warnings
			pf.Output = convert.OutputName(res.Name, res.Plan.Target)
			pf.Preview = &p
			pf.Chart = res.Chart
		}
		resp.Files = append(resp.Files, pf)
	}
	render.JSON(w, r, resp)
}

type manifestEntry struct {
	Name    string `json:"name"`
	Output  string `json:"output,omitempty"`
	Outcome string `json:"outcome"`
	Rows    int    `json:"rows,omitempty"`
	Error   string `json:"error,omitempty"`
}

type manifest struct {
	BatchID string          `json:"batch_id"`
	Files   []manifestEntry `json:"files"`
}

// handleConvert returns the converted file itself for a single upload and a
// zip of every successful conversion plus manifest.json otherwise.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	up, err := s.parseUpload(w, r)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	results := s.proc.ProcessBatch(r.Context(), up.files, up.plans, up.def)

	if len(results) == 1 {
		res := results[0]
		if res.Err != nil {
			s.errs.HandleError(w, r, res.Err)
			return
		}
		writeDownload(w, res.Download)
		return
	}

	m := manifest{BatchID: uuid.New().String()}
	failed := 0
	for _, res := range results {
		e := manifestEntry{Name: res.Name, Outcome: res.Outcome()}
		if res.Err != nil {
			failed++
			e.Error = res.Err.Error()
		} else {
			e.Output = res.Download.Filename
			e.Rows = res.Frame.Rows()
		}
		m.Files = append(m.Files, e)
	}
	if failed == len(results) {
		s.errs.HandleError(w, r, apierr.NewWithDetails(http.StatusUnprocessableEntity, "BATCH_FAILED",
			"None of the uploaded files could be converted", m.Files))
		return
	}

	archive, err := buildZip(results, &m)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	w.Header().Set(BatchIDHeader, m.BatchID)
	writeDownload(w, &convert.Download{
		Data:     archive,
		Filename: "sweeper-" + m.BatchID + ".zip",
		MIME:     "application/zip",
	})
}

func writeDownload(w http.ResponseWriter, d *convert.Download) {
	w.Header().Set("Content-Type", d.MIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

// buildZip stores each successful download under a unique name and records the
// final names in m, which is written last as manifest.json.
func buildZip(results []convert.Result, m *manifest) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := map[string]bool{"manifest.json": true}
	for i, res := range results {
		if res.Err != nil {
			continue
		}
		name := uniqueName(res.Download.Filename, used)
		m.Files[i].Output = name
		f, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(res.Download.Data); err != nil {
			return nil, err
		}
	}
	f, err := zw.Create("manifest.json")
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func uniqueName(name string, used map[string]bool) string {
	out := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; used[out]; i++ {
		out = fmt.Sprintf("%s (%d)%s", base, i, ext)
	}
	used[out] = true
	return out
}
