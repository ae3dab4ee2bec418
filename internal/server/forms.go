package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/wdm0006/datasweeper/internal/apierr"
	"github.com/wdm0006/datasweeper/pkg/convert"
)

// planForm is the non-file part of an upload.
type planForm struct {
	Dedupe  bool     `schema:"dedupe"`
	Fill    bool     `schema:"fill"`
	Columns []string `schema:"columns"`
	Chart   bool     `schema:"chart"`
	To      string   `schema:"to" validate:"omitempty,oneof=csv xlsx excel spreadsheet jsonl ndjson parquet"`
	Head    *int     `schema:"head" validate:"omitempty,min=0,max=100"`
	Plan    string   `schema:"plan" validate:"omitempty,json"`
}

type upload struct {
	files []convert.UploadedFile
	def   convert.Plan
	plans convert.Plans
	head  int
}

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("schema"), ",", 2)[0]
	})
	return v
}

// parseUpload reads the multipart body: the "files" parts and the plan fields.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	max := s.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, max)
	if err := r.ParseMultipartForm(max); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, err
		}
		return nil, apierr.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid multipart form", err.Error())
	}

	var form planForm
	if err := s.forms.Decode(&form, r.MultipartForm.Value); err != nil {
		return nil, apierr.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid form fields", err.Error())
	}
	form.To = strings.ToLower(strings.TrimSpace(form.To))
	if err := s.validate.Struct(form); err != nil {
		return nil, validationError(err)
	}

	up := &upload{head: s.cfg.Preview.HeadRows}
	if form.Head != nil {
		up.head = *form.Head
	}
	up.def = convert.Plan{
		RemoveDuplicates: form.Dedupe,
		FillMissing:      form.Fill,
		Columns:          nonEmpty(form.Columns),
		Chart:            form.Chart,
		Target:           convert.FormatCSV,
	}
	if form.To != "" {
		t, err := convert.ParseFormat(form.To)
		if err != nil {
			return nil, err
		}
		up.def.Target = t
	}
	if form.Plan != "" {
		if err := json.Unmarshal([]byte(form.Plan), &up.plans); err != nil {
			return nil, apierr.NewValidationErrors([]apierr.ValidationError{{Field: "plan", Message: err.Error()}})
		}
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, apierr.ErrNoFiles
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		up.files = append(up.files, convert.UploadedFile{Name: fh.Filename, Data: data})
	}
	return up, nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make([]apierr.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apierr.ValidationError{Field: fe.Field(), Message: formatValidationError(fe)})
	}
	return apierr.NewValidationErrors(out)
}

func formatValidationError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "json":
		return fmt.Sprintf("%s must be a JSON object", field)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
