package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"DermaScan/internal/entity"
	"DermaScan/pkg/detector"
	"DermaScan/pkg/recommender"
	"DermaScan/pkg/storage"
	"DermaScan/pkg/utils"

	"github.com/sirupsen/logrus"
)

type stubDetector struct {
	boxes []entity.BoundingBox
}

func (s *stubDetector) Detect(_ context.Context, imagePath string) ([]entity.InferenceResult, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return nil, err
	}
	return []entity.InferenceResult{{Boxes: s.boxes}}, nil
}

func (s *stubDetector) Ready() error { return nil }
func (s *stubDetector) Name() string { return "stub" }
func (s *stubDetector) Close() error { return nil }

type stubRecommender struct {
	err    error
	block  bool
	closed bool
}

func (s *stubRecommender) Recommend(ctx context.Context, _ recommender.Request) (string, error) {
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	return "wash twice a day", nil
}

func (s *stubRecommender) Provider() string { return "stub" }

func (s *stubRecommender) Close() error {
	s.closed = true
	return nil
}

func newTestServer(t *testing.T, d detector.IDetector, r recommender.IRecommender) (*Server, string) {
	return newTestServerWithTimeout(t, d, r, 5*time.Second)
}

func newTestServerWithTimeout(t *testing.T, d detector.IDetector, r recommender.IRecommender, timeout time.Duration) (*Server, string) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := storage.New(dir, logger, utils.New(), nil)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	srv, err := NewServer(
		WithFiber(NewFiber(logger, 0)),
		WithLogger(logger),
		WithSettings(&Settings{RequestTimeout: timeout, FetchTimeout: time.Second}),
		WithUtils(),
		WithMiddleware(),
		WithDetector(d),
		WithRecommender(r),
		WithStorage(store),
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.RegisterHandler()
	return srv, dir
}

// widthDetector answers with the stored image width as the class, after a
// pause that lets a competing request try to overwrite the file.
type widthDetector struct {
	delay time.Duration
}

func (w *widthDetector) Detect(_ context.Context, imagePath string) ([]entity.InferenceResult, error) {
	time.Sleep(w.delay)

	f, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	return []entity.InferenceResult{{Boxes: []entity.BoundingBox{
		{X1: 0, Y1: 0, X2: 1, Y2: 1, Confidence: 0.9, Class: cfg.Width},
	}}}, nil
}

func (w *widthDetector) Ready() error { return nil }
func (w *widthDetector) Name() string { return "width" }
func (w *widthDetector) Close() error { return nil }

func pngUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	return pngUploadOfWidth(t, filename, 64)
}

func pngUploadOfWidth(t *testing.T, filename string, width int) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, 64))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestNewServerRequiresCollaborators(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	_, err := NewServer(WithFiber(NewFiber(logger, 0)), WithLogger(logger))
	if err == nil {
		t.Fatal("expected error without settings and detector")
	}
}

func TestRootGreeting(t *testing.T) {
	srv, _ := newTestServer(t, &stubDetector{}, &stubRecommender{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != "Hello, Bro!" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
}

func TestUploadEndToEnd(t *testing.T) {
	d := &stubDetector{boxes: []entity.BoundingBox{
		{X1: 10, Y1: 10, X2: 50, Y2: 50, Confidence: 0.92, Class: 5},
	}}
	srv, dir := newTestServer(t, d, &stubRecommender{})

	body, contentType := pngUpload(t, "../../selfie.png")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Origin", "http://example.com")

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 200 {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d body = %s", resp.StatusCode, raw)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS header")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	var out struct {
		Results           []entity.Detection `json:"results"`
		PredictedProblems []string           `json:"predicted_problems"`
		Recommendations   string             `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(out.Results) != 1 || out.Results[0].Problem != "blackhead" {
		t.Errorf("results = %+v", out.Results)
	}
	if len(out.PredictedProblems) != 1 || out.PredictedProblems[0] != "blackhead" {
		t.Errorf("predicted_problems = %v", out.PredictedProblems)
	}
	if out.Recommendations != "wash twice a day" {
		t.Errorf("recommendations = %q", out.Recommendations)
	}

	if _, err := os.Stat(filepath.Join(dir, "selfie.png")); err != nil {
		t.Errorf("upload not stored under its base name: %v", err)
	}
}

func TestUploadSlowRecommendationStillReturnsDetections(t *testing.T) {
	d := &stubDetector{boxes: []entity.BoundingBox{
		{X1: 10, Y1: 10, X2: 50, Y2: 50, Confidence: 0.92, Class: 5},
	}}
	srv, _ := newTestServerWithTimeout(t, d, &stubRecommender{block: true}, 100*time.Millisecond)

	body, contentType := pngUpload(t, "face.png")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := srv.App().Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 200 {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d body = %s", resp.StatusCode, raw)
	}

	var out struct {
		Results         []entity.Detection `json:"results"`
		Recommendations map[string]string  `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].Problem != "blackhead" {
		t.Errorf("results = %+v", out.Results)
	}
	if out.Recommendations["error"] == "" {
		t.Errorf("recommendations = %v", out.Recommendations)
	}
}

func TestConcurrentUploadsWithSameName(t *testing.T) {
	srv, _ := newTestServer(t, &widthDetector{delay: 100 * time.Millisecond}, &stubRecommender{})

	widths := []int{5, 18}
	bodies := make([]*bytes.Buffer, len(widths))
	types := make([]string, len(widths))
	for i, w := range widths {
		bodies[i], types[i] = pngUploadOfWidth(t, "face.png", w)
	}

	got := make([]int, len(widths))
	errs := make([]error, len(widths))

	var wg sync.WaitGroup
	for i := range widths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest("POST", "/upload", bodies[i])
			req.Header.Set("Content-Type", types[i])

			resp, err := srv.App().Test(req, 5000)
			if err != nil {
				errs[i] = err
				return
			}
			var out struct {
				Results []entity.Detection `json:"results"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				errs[i] = err
				return
			}
			if len(out.Results) != 1 {
				errs[i] = fmt.Errorf("status %d, %d results", resp.StatusCode, len(out.Results))
				return
			}
			got[i] = out.Results[0].Class
		}(i)
	}
	wg.Wait()

	for i, w := range widths {
		if errs[i] != nil {
			t.Fatalf("request %d: %v", i, errs[i])
		}
		if got[i] != w {
			t.Errorf("upload of width %d got class %d", w, got[i])
		}
	}
}

func TestUploadModelUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, detector.Unavailable("onnx", errors.New("no weights")), &stubRecommender{})

	body, contentType := pngUpload(t, "face.png")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	var out map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if out["code"] != "MODEL_UNAVAILABLE" {
		t.Errorf("code = %q", out["code"])
	}
}

func TestShutdownClosesRecommender(t *testing.T) {
	rec := &stubRecommender{}
	srv, _ := newTestServer(t, &stubDetector{}, rec)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// the app never listened, so only the release of collaborators matters here
	_ = srv.Shutdown(ctx)
	if !rec.closed {
		t.Error("recommender not closed on shutdown")
	}
}

func TestMetricsExposed(t *testing.T) {
	srv, _ := newTestServer(t, &stubDetector{}, &stubRecommender{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "go_goroutines") {
		t.Errorf("metrics output missing runtime collectors")
	}
}
