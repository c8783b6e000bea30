package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anime-shed/card-number-reader/internal/config"
	apperrors "github.com/anime-shed/card-number-reader/internal/errors"
	"github.com/anime-shed/card-number-reader/internal/repository"
	"github.com/anime-shed/card-number-reader/internal/service"
	"github.com/anime-shed/card-number-reader/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	resp *models.CardNumberResponse
	err  error

	gotOpts      service.ExtractOptions
	gotURL       string
	gotContainer string
	gotBlob      string
	gotBody      []byte
}

func (f *fakeService) ExtractFromImage(ctx context.Context, img image.Image, opts service.ExtractOptions) (*models.CardNumberResponse, error) {
	f.gotOpts = opts
	return f.resp, f.err
}

func (f *fakeService) ExtractFromReader(ctx context.Context, r io.Reader, opts service.ExtractOptions) (*models.CardNumberResponse, error) {
	f.gotOpts = opts
	f.gotBody, _ = io.ReadAll(r)
	return f.resp, f.err
}

func (f *fakeService) ExtractFromURL(ctx context.Context, imageURL string, opts service.ExtractOptions) (*models.CardNumberResponse, error) {
	f.gotOpts, f.gotURL = opts, imageURL
	return f.resp, f.err
}

func (f *fakeService) ExtractFromBlob(ctx context.Context, containerName, blobName string, opts service.ExtractOptions) (*models.CardNumberResponse, error) {
	f.gotOpts, f.gotContainer, f.gotBlob = opts, containerName, blobName
	return f.resp, f.err
}

func (f *fakeService) GetPrediction(ctx context.Context, id string) (*repository.PredictionRecord, error) {
	if id == "known" {
		return &repository.PredictionRecord{ID: id, Found: true, MaskedNumber: "4111********1111"}, nil
	}
	return nil, apperrors.NewNotFoundError("prediction "+id+" not found", repository.ErrPredictionNotFound)
}

type staticMetrics map[string]interface{}

func (m staticMetrics) GetMetrics() map[string]interface{} { return m }

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		AllowedOrigins:     []string{"http://localhost:3000"},
	}
}

func okResponse() *models.CardNumberResponse {
	return &models.CardNumberResponse{
		ID:         "pred-1",
		CardNumber: "4111111111111111",
		BBox:       [][2]float64{{0, 0}, {10, 0}, {10, 2}, {0, 2}},
		Confidence: 0.9,
		Method:     "direct",
	}
}

func newTestServer(svc *fakeService) http.Handler {
	return NewHandler(svc, staticMetrics{"found": int64(3)}, testConfig(), HealthInfo{OCREngine: "tesseract", OCRWorkers: 2})
}

func multipartBody(t *testing.T, field string, content []byte, expected string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := w.CreateFormFile(field, "card.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	if expected != "" {
		w.WriteField("expected_number", expected)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rr.Body.String())
	}
	return body
}

func TestPredictUpload(t *testing.T) {
	svc := &fakeService{resp: okResponse()}
	srv := newTestServer(svc)

	body, contentType := multipartBody(t, "file", []byte("png-bytes"), "4111 1111 1111 1111")
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var got models.CardNumberResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.CardNumber != "4111111111111111" || len(got.BBox) != 4 || got.Method != "direct" {
		t.Errorf("response = %+v", got)
	}
	if string(svc.gotBody) != "png-bytes" {
		t.Errorf("service got body %q", svc.gotBody)
	}
	if svc.gotOpts.ExpectedNumber != "4111 1111 1111 1111" || svc.gotOpts.SourceRef != "card.png" {
		t.Errorf("opts = %+v", svc.gotOpts)
	}
	if svc.gotOpts.RequestID != "abc-123" || rr.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("request id not propagated: opts=%q header=%q", svc.gotOpts.RequestID, rr.Header().Get("X-Request-ID"))
	}
}

func TestPredictUpload_MissingFile(t *testing.T) {
	srv := newTestServer(&fakeService{resp: okResponse()})

	body, contentType := multipartBody(t, "", nil, "4111111111111111")
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("a request id should be generated")
	}
}

func TestPredictUpload_NotFound(t *testing.T) {
	svc := &fakeService{err: apperrors.NewCardNotFoundError(service.MsgCardNotFound).WithDetails("no_valid_cluster")}
	srv := newTestServer(svc)

	body, contentType := multipartBody(t, "file", []byte("x"), "")
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	got := decodeError(t, rr)
	if got.Error != "card_not_found" || got.Message != service.MsgCardNotFound || got.Details != "no_valid_cluster" {
		t.Errorf("error body = %+v", got)
	}
}

func TestPredictURL(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{"Valid", `{"url":"https://example.com/card.jpg","expected_number":"4111111111111111"}`, nil, http.StatusOK},
		{"Missing url", `{}`, nil, http.StatusBadRequest},
		{"Not a url", `{"url":"card.jpg"}`, nil, http.StatusBadRequest},
		{"Malformed JSON", `{"url":`, nil, http.StatusBadRequest},
		{"Fetch failure", `{"url":"https://example.com/card.jpg"}`, apperrors.NewNetworkError("failed to fetch image", nil), http.StatusBadGateway},
		{"Timeout", `{"url":"https://example.com/card.jpg"}`, apperrors.NewTimeoutError("text recognition timed out", nil), http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{resp: okResponse(), err: tt.svcErr}
			srv := newTestServer(svc)

			req := httptest.NewRequest(http.MethodPost, "/predict/url", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus == http.StatusOK && svc.gotURL != "https://example.com/card.jpg" {
				t.Errorf("service got url %q", svc.gotURL)
			}
		})
	}
}

func TestPredictBlob(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		svcErr        error
		wantStatus    int
		wantContainer string
		wantBlob      string
	}{
		{"Names", `{"container":"cards","blob":"front.png"}`, nil, http.StatusOK, "cards", "front.png"},
		{"Blob URL", `{"url":"https://acct.blob.core.windows.net/cards/a/front.png"}`, nil, http.StatusOK, "cards", "a/front.png"},
		{"Bad blob URL", `{"url":"https://acct.blob.core.windows.net/cards"}`, nil, http.StatusBadRequest, "", ""},
		{"Storage disabled", `{"container":"cards","blob":"front.png"}`, apperrors.NewUnavailableError("blob storage is not configured", nil), http.StatusServiceUnavailable, "cards", "front.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{resp: okResponse(), err: tt.svcErr}
			srv := newTestServer(svc)

			req := httptest.NewRequest(http.MethodPost, "/predict/blob", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if svc.gotContainer != tt.wantContainer || svc.gotBlob != tt.wantBlob {
				t.Errorf("service got %q/%q, want %q/%q", svc.gotContainer, svc.gotBlob, tt.wantContainer, tt.wantBlob)
			}
		})
	}
}

func TestGetPrediction(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/predictions/known", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "4111********1111") {
		t.Errorf("body = %s", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "4111111111111111") {
		t.Error("prediction record leaked the full card number")
	}

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/predictions/unknown", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"healthy"`) {
		t.Errorf("GET / = %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health models.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "available" || health.OCREngine != "tesseract" || health.OCRWorkers != 2 {
		t.Errorf("health = %+v", health)
	}

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `"found":3`) {
		t.Errorf("metrics = %s", rr.Body.String())
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(&fakeService{})

	tests := []struct {
		name       string
		origin     string
		wantHeader string
	}{
		{"Allowed origin", "http://localhost:3000", "http://localhost:3000"},
		{"Foreign origin", "https://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, req)

			if rr.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want 204", rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

func TestRequestSizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBodySize = 64
	srv := NewHandler(&fakeService{resp: okResponse()}, nil, cfg, HealthInfo{})

	body, contentType := multipartBody(t, "file", bytes.Repeat([]byte("x"), 4096), "")
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
