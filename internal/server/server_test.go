package server

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	fiber "github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/metrics"
	"github.com/KaramelBytes/linefit/internal/report"
	"github.com/KaramelBytes/linefit/internal/service"
)

const exactCSV = "X,Y\n0,30\n50,130\n100,230\n"

func newTestServer(t *testing.T, mutate ...func(*Options)) *Server {
	t.Helper()
	opts := Options{
		Dataset: dataset.DefaultOptions(),
		Report:  report.Config{Locale: report.English, Width: 480, Height: 320},
		Metrics: metrics.New(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return New(service.New(), opts)
}

func uploadRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(t *testing.T, s *Server, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Simple Linear Regression Tool")
	assert.Contains(t, string(body), `name="file"`)

	resp, body = do(t, s, httptest.NewRequest(http.MethodGet, "/?lang=zh", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "单线性回归分析工具")

	resp, body = do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestFitAPI(t *testing.T) {
	s := newTestServer(t)
	resp, body := do(t, s, uploadRequest(t, "/api/fit", "data.csv", exactCSV, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	var out struct {
		Analysis service.Analysis `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	a := out.Analysis
	assert.NotEmpty(t, a.ID)
	assert.InDelta(t, 2.0, a.Slope, 1e-12)
	assert.InDelta(t, 30.0, a.Intercept, 1e-12)
	assert.InDelta(t, 1.0, a.RSquared, 1e-12)
	assert.Equal(t, "Y = 2.0000X + 30.0000", a.Equation)
	assert.Equal(t, []float64{0, 50, 100}, a.X)
	assert.Equal(t, "data.csv", a.Dataset.Name)
}

func TestFitAPICustomColumns(t *testing.T) {
	s := newTestServer(t)
	csv := "hours;score\n1;2,5\n2;4,5\n3;6,5\n"
	fields := map[string]string{"x_column": "hours", "y_column": "score"}
	resp, body := do(t, s, uploadRequest(t, "/api/fit", "study.csv", csv, fields))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"slope":2`)
}

func TestFitAPIErrors(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		content  string
		status   int
		kind     string
	}{
		{"missing file", "", "", fiber.StatusBadRequest, "missing_file"},
		{"missing column", "data.csv", "X,Z\n1,2\n", fiber.StatusUnprocessableEntity, "schema"},
		{"empty file", "data.csv", "", fiber.StatusUnprocessableEntity, "no_data"},
		{"header only", "data.csv", "X,Y\n", fiber.StatusUnprocessableEntity, "no_data"},
		{"constant x", "data.csv", "X,Y\n1,2\n1,3\n", fiber.StatusUnprocessableEntity, "degenerate"},
		{"no usable rows", "data.csv", "X,Y\n1,\n,2\n", fiber.StatusUnprocessableEntity, "invalid_input"},
		{"unsupported", "data.json", "{}", fiber.StatusUnprocessableEntity, "unsupported"},
	}
	s := newTestServer(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, s, uploadRequest(t, "/api/fit", tc.filename, tc.content, nil))
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			var out map[string]string
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tc.kind, out["kind"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.MaxUploadBytes = 16 })
	resp, body := do(t, s, uploadRequest(t, "/api/fit", "data.csv", exactCSV, nil))
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode, string(body))
}

func TestFitPage(t *testing.T) {
	s := newTestServer(t)
	resp, body := do(t, s, uploadRequest(t, "/fit", "data.csv", exactCSV+"7,\n", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := string(body)
	for _, want := range []string{
		"Data Preview",
		"Total rows: 4",
		"Skipped rows: 1",
		"2.0000",
		"30.0000",
		"Y = 2.0000X + 30.0000",
		"Excellent fit",
		`src="data:image/png;base64,`,
		`download="regression_result.png"`,
		"Residual std dev",
	} {
		assert.Contains(t, page, want)
	}
}

func TestFitPageLocalizedError(t *testing.T) {
	s := newTestServer(t)
	req := uploadRequest(t, "/fit", "data.csv", "A,B\n1,2\n", map[string]string{"locale": "zh"})
	resp, body := do(t, s, req)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "发生错误")
	assert.Contains(t, string(body), "missing required column(s)")
}

func TestChartDownload(t *testing.T) {
	s := newTestServer(t)
	resp, body := do(t, s, uploadRequest(t, "/chart.png", "data.csv", exactCSV, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "regression_result.png")
	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 480, img.Bounds().Dx())
}

func TestSampleDownload(t *testing.T) {
	s := newTestServer(t)
	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/sample.csv", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "sample_data.csv")

	ds, err := dataset.ReadCSV(bytes.NewReader(body), "sample_data.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, ds.Samples, 100)
	assert.Equal(t, "X", ds.Columns[0])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, uploadRequest(t, "/api/fit", "data.csv", "X,Y\n1,1\n1,2\n", nil))
	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := string(body)
	assert.Contains(t, out, `linefit_fit_errors_total{kind="degenerate"} 1`)
	assert.True(t, strings.Contains(out, "linefit_http_requests_total"), out)

	off := newTestServer(t, func(o *Options) { o.Metrics = nil })
	resp, _ = do(t, off, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.Addr = "127.0.0.1:0" })
	require.NoError(t, s.Start(context.Background()))
	addr := s.Address()
	require.NotEmpty(t, addr)

	var resp *http.Response
	var err error
	for range 50 {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

func TestClassify(t *testing.T) {
	status, kind := classify(io.ErrUnexpectedEOF)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal", kind)
}
