package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	fiber "github.com/gofiber/fiber/v3"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/regression"
	"github.com/KaramelBytes/linefit/internal/report"
	"github.com/KaramelBytes/linefit/internal/service"
)

const sampleFileName = "sample_data.csv"

var (
	errMissingFile    = errors.New("no file uploaded")
	errUploadTooLarge = errors.New("uploaded file exceeds the size limit")
)

// pageData is shared by all HTML pages.
type pageData struct {
	L       report.Labels
	XColumn string
	YColumn string
	Message string

	A         *service.Analysis
	Chart     template.URL
	ChartName string
	Rows      []detailRow
	Hidden    int
}

type detailRow struct {
	X, Y, Predicted, Residual float64
}

// upload is a parsed multipart request.
type upload struct {
	locale report.Locale
	opt    dataset.Options
	name   string
	data   []byte
}

func (s *Server) handleIndex(c fiber.Ctx) error {
	l := report.LabelsFor(s.locale(c.Query("lang")))
	return s.render(c, fiber.StatusOK, "index.html", pageData{L: l, XColumn: s.opts.Dataset.XColumn, YColumn: s.opts.Dataset.YColumn})
}

func (s *Server) handleFitPage(c fiber.Ctx) error {
	up, a, err := s.fit(c)
	l := report.LabelsFor(up.locale)
	data := pageData{L: l, XColumn: up.opt.XColumn, YColumn: up.opt.YColumn}
	if err != nil {
		status, _ := classify(err)
		data.Message = err.Error()
		return s.render(c, status, "error.html", data)
	}

	cfg := s.opts.Report
	cfg.Locale = up.locale
	var png bytes.Buffer
	if err := report.RenderChart(&png, a, cfg); err != nil {
		s.log.Errorw("chart rendering failed", "id", a.ID, "error", err)
		data.Message = err.Error()
		return s.render(c, fiber.StatusInternalServerError, "error.html", data)
	}
	data.A = a
	data.Chart = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png.Bytes()))
	data.ChartName = report.ChartFileName
	n := min(a.Len(), s.opts.DetailRows)
	data.Rows = make([]detailRow, n)
	for i := range data.Rows {
		data.Rows[i] = detailRow{X: a.X[i], Y: a.Y[i], Predicted: a.Predictions[i], Residual: a.Residuals[i]}
	}
	data.Hidden = a.Len() - n
	return s.render(c, fiber.StatusOK, "result.html", data)
}

func (s *Server) handleFitAPI(c fiber.Ctx) error {
	_, a, err := s.fit(c)
	if err != nil {
		status, kind := classify(err)
		return c.Status(status).JSON(fiber.Map{"error": err.Error(), "kind": kind})
	}
	return c.JSON(fiber.Map{"analysis": a})
}

func (s *Server) handleChart(c fiber.Ctx) error {
	up, a, err := s.fit(c)
	if err != nil {
		status, kind := classify(err)
		return c.Status(status).JSON(fiber.Map{"error": err.Error(), "kind": kind})
	}
	cfg := s.opts.Report
	cfg.Locale = up.locale
	var png bytes.Buffer
	if err := report.RenderChart(&png, a, cfg); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	c.Attachment(report.ChartFileName)
	return c.Send(png.Bytes())
}

func (s *Server) handleSample(c fiber.Ctx) error {
	samples, err := dataset.Generate(dataset.DefaultGenerateOptions())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	// spreadsheet apps need the BOM to pick UTF-8
	buf.WriteString("\ufeff")
	if err := dataset.WriteCSV(&buf, samples); err != nil {
		return err
	}
	c.Attachment(sampleFileName)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// fit reads the upload, ingests it and runs the service. The returned upload
// is usable even when err is set.
func (s *Server) fit(c fiber.Ctx) (upload, *service.Analysis, error) {
	up, err := s.readUpload(c)
	if err != nil {
		s.countError(err)
		return up, nil, err
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.Upload(len(up.data))
	}
	ds, err := dataset.Load(up.name, up.data, up.opt)
	if err != nil {
		s.countError(err)
		return up, nil, err
	}
	a, err := s.svc.Analyze(c.Context(), ds)
	if err != nil {
		s.countError(err)
		return up, nil, err
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.Fitted(a.Len())
	}
	return up, a, nil
}

func (s *Server) readUpload(c fiber.Ctx) (upload, error) {
	up := upload{locale: s.locale(c.FormValue("locale")), opt: s.opts.Dataset}
	if v := strings.TrimSpace(c.FormValue("x_column")); v != "" {
		up.opt.XColumn = v
	}
	if v := strings.TrimSpace(c.FormValue("y_column")); v != "" {
		up.opt.YColumn = v
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return up, errMissingFile
	}
	if fh.Size > int64(s.opts.MaxUploadBytes) {
		return up, errUploadTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return up, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, int64(s.opts.MaxUploadBytes)+1))
	if err != nil {
		return up, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > s.opts.MaxUploadBytes {
		return up, errUploadTooLarge
	}
	up.name = fh.Filename
	up.data = data
	return up, nil
}

func (s *Server) locale(requested string) report.Locale {
	if strings.TrimSpace(requested) != "" {
		return report.ParseLocale(requested)
	}
	if s.opts.Report.Locale != "" {
		return s.opts.Report.Locale
	}
	return report.English
}

func (s *Server) countError(err error) {
	_, kind := classify(err)
	if s.opts.Metrics != nil {
		s.opts.Metrics.FitError(kind)
	}
	s.log.Infow("upload rejected", "kind", kind, "error", err)
}

func (s *Server) render(c fiber.Ctx, status int, name string, data pageData) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

// classify maps an error onto an HTTP status and a short machine-readable kind.
func classify(err error) (int, string) {
	var (
		schema *dataset.SchemaError
		inv    *regression.InvalidInputError
		deg    *regression.DegenerateInputError
	)
	switch {
	case errors.Is(err, errMissingFile):
		return fiber.StatusBadRequest, "missing_file"
	case errors.Is(err, errUploadTooLarge), errors.Is(err, dataset.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge, "too_large"
	case errors.As(err, &schema):
		return fiber.StatusUnprocessableEntity, "schema"
	case errors.Is(err, dataset.ErrNoData):
		return fiber.StatusUnprocessableEntity, "no_data"
	case errors.Is(err, dataset.ErrMalformed):
		return fiber.StatusUnprocessableEntity, "malformed"
	case errors.Is(err, dataset.ErrUnsupported):
		return fiber.StatusUnprocessableEntity, "unsupported"
	case errors.As(err, &deg):
		return fiber.StatusUnprocessableEntity, "degenerate"
	case errors.As(err, &inv):
		return fiber.StatusUnprocessableEntity, "invalid_input"
	default:
		return fiber.StatusInternalServerError, "internal"
	}
}
