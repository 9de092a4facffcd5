package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moodlens/moodlens/internal/database"
	"github.com/moodlens/moodlens/internal/emotion"
	"github.com/moodlens/moodlens/internal/recommend"
)

// jpegFrame is a minimal payload that sniffs as image/jpeg.
var jpegFrame = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x00}, 64)...)

func jpegDataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegFrame)
}

func testApp(t *testing.T) *App {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalog, err := recommend.LoadCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	return &App{
		Chain:         emotion.NewChain(nil, emotion.NewSimulator()),
		Aggregator:    recommend.NewAggregator(catalog, nil, nil, nil),
		DetectionRepo: database.NewDetectionRepository(db),
	}
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(testApp(t), t.TempDir(), "*"))
	t.Cleanup(srv.Close)
	return srv
}

func postDetect(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/detect", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDetectSimulatedFallback(t *testing.T) {
	srv := testServer(t)

	body, _ := json.Marshal(map[string]any{"image": jpegDataURL()})
	resp := postDetect(t, srv, string(body))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result emotion.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Source != emotion.SourceSimulated {
		t.Errorf("expected simulated provenance, got %s", result.Source)
	}
	if _, err := emotion.Parse(string(result.Emotion)); err != nil {
		t.Errorf("response carries unknown emotion %q", result.Emotion)
	}
}

func TestDetectRejectsBadInput(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty image", `{"image":""}`, http.StatusBadRequest},
		{"invalid json", `{{{`, http.StatusBadRequest},
		{"not base64", `{"image":"data:image/jpeg;base64,!!!"}`, http.StatusBadRequest},
		{"wrong media type", `{"image":"data:text/plain;base64,aGVsbG8gd29ybGQgaGVsbG8="}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postDetect(t, srv, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestDetectRequireRealWithoutProviders(t *testing.T) {
	srv := testServer(t)

	body, _ := json.Marshal(map[string]any{"image": jpegDataURL(), "require_real": true})
	resp := postDetect(t, srv, string(body))

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestDetectRejectsConcurrentTrigger(t *testing.T) {
	app := testApp(t)
	app.detecting.Store(true)

	body, _ := json.Marshal(map[string]any{"image": jpegDataURL()})
	req := httptest.NewRequest("POST", "/api/detect", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	app.DetectHandler(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while a detection is in flight, got %d", rec.Code)
	}
}

func TestDetectStoresHistory(t *testing.T) {
	app := testApp(t)
	srv := httptest.NewServer(NewRouter(app, t.TempDir(), "*"))
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{"image": jpegDataURL()})
	resp, err := http.Post(srv.URL+"/api/detect", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	stored, err := app.DetectionRepo.ListRecent(10)
	if err != nil {
		t.Fatalf("failed to list history: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected the detection to be recorded, got %d rows", len(stored))
	}
}

func TestRecommendHappyFallbacks(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/recommendations/happy")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var set recommend.Set
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(set.Movies) != 3 {
		t.Fatalf("expected 3 fallback movies, got %d", len(set.Movies))
	}
	if set.Movies[0].Title != "The Grand Budapest Hotel" {
		t.Errorf("unexpected first fallback movie: %s", set.Movies[0].Title)
	}
	if len(set.Songs) == 0 || set.Songs[0].Title != "Happy - Pharrell Williams" {
		t.Errorf("unexpected fallback songs: %+v", set.Songs)
	}
	if len(set.Books) == 0 || set.Books[0].Title != "The Seven Husbands of Evelyn Hugo" {
		t.Errorf("unexpected fallback books: %+v", set.Books)
	}
}

func TestRecommendUnknownEmotion(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/recommendations/ecstatic")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown emotion, got %d", resp.StatusCode)
	}
}

func TestTokenRefreshUnconfigured(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/api/token/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 without music credentials, got %d", resp.StatusCode)
	}
}

func TestHistoryEmpty(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/history")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var detections []database.Detection
	if err := json.NewDecoder(resp.Body).Decode(&detections); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(detections) != 0 {
		t.Errorf("expected empty history, got %d rows", len(detections))
	}
}

func TestPing(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
