package emotion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFacePlusPlusClassify(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		status      int
		wantEmotion Emotion
		wantNoFace  bool
		wantErr     bool
	}{
		{
			name: "happy face",
			response: `{"faces":[{"attributes":{"emotion":{
				"happiness":92.1,"sadness":1.2,"anger":0.8,"surprise":2.4,
				"neutral":2.5,"disgust":0.5,"fear":0.5}}}]}`,
			status:      http.StatusOK,
			wantEmotion: Happy,
		},
		{
			name: "sad face with percentage remap",
			response: `{"faces":[{"attributes":{"emotion":{
				"happiness":3.0,"sadness":78.0,"anger":5.0,"surprise":4.0,
				"neutral":8.0,"disgust":1.0,"fear":1.0}}}]}`,
			status:      http.StatusOK,
			wantEmotion: Sad,
		},
		{
			name:       "no face found",
			response:   `{"faces":[]}`,
			status:     http.StatusOK,
			wantNoFace: true,
		},
		{
			name:     "api error",
			response: `{"error_message":"AUTHENTICATION_ERROR"}`,
			status:   http.StatusUnauthorized,
			wantErr:  true,
		},
		{
			name:     "malformed payload",
			response: `{{{`,
			status:   http.StatusOK,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != "POST" {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if err := r.ParseForm(); err == nil {
					if r.PostForm.Get("api_key") != "key" {
						t.Errorf("missing api_key in form")
					}
					if r.PostForm.Get("image_base64") == "" {
						t.Errorf("missing image_base64 in form")
					}
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			client := NewFacePlusPlusClient("key", "secret")
			client.baseURL = srv.URL

			result, err := client.Classify(context.Background(), testFrame())

			if tt.wantNoFace {
				if !errors.Is(err, errNoFace) {
					t.Fatalf("expected no-face signal, got result=%v err=%v", result, err)
				}
				return
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Emotion != tt.wantEmotion {
				t.Errorf("expected %s, got %s", tt.wantEmotion, result.Emotion)
			}
			if result.Source != SourceFacePlusPlus {
				t.Errorf("expected facepp provenance, got %s", result.Source)
			}
			assertNormalized(t, result.Distribution)
		})
	}
}

func TestAzureFaceClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "azkey" {
			t.Errorf("missing subscription key header")
		}
		if r.Header.Get("Content-Type") != "application/octet-stream" {
			t.Errorf("expected octet-stream body, got %s", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`[{"faceAttributes":{"emotion":{
			"anger":0.01,"contempt":0.02,"disgust":0.01,"fear":0.01,
			"happiness":0.05,"neutral":0.15,"sadness":0.70,"surprise":0.05}}}]`))
	}))
	defer srv.Close()

	client := NewAzureFaceClient("azkey", srv.URL)

	result, err := client.Classify(context.Background(), testFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Emotion != Sad {
		t.Errorf("expected sad, got %s", result.Emotion)
	}
	// Contempt folds into disgust.
	if result.Distribution[Disgust] <= result.Distribution[Fear] {
		t.Error("expected contempt to be folded into disgust")
	}
	assertNormalized(t, result.Distribution)
}

func TestAzureFaceNoFace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewAzureFaceClient("azkey", srv.URL)

	if _, err := client.Classify(context.Background(), testFrame()); !errors.Is(err, errNoFace) {
		t.Fatalf("expected no-face signal, got %v", err)
	}
}

func TestGoogleVisionClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{"faceAnnotations":[{
			"joyLikelihood":"VERY_LIKELY","sorrowLikelihood":"VERY_UNLIKELY",
			"angerLikelihood":"UNLIKELY","surpriseLikelihood":"POSSIBLE",
			"detectionConfidence":0.97}]}]}`))
	}))
	defer srv.Close()

	client := NewGoogleVisionClient("gkey")
	client.baseURL = srv.URL

	result, err := client.Classify(context.Background(), testFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Emotion != Happy {
		t.Errorf("expected happy, got %s", result.Emotion)
	}
	if result.Source != SourceGoogleVision {
		t.Errorf("expected gvision provenance, got %s", result.Source)
	}
	assertNormalized(t, result.Distribution)
}

func TestGoogleVisionNoFace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{}]}`))
	}))
	defer srv.Close()

	client := NewGoogleVisionClient("gkey")
	client.baseURL = srv.URL

	if _, err := client.Classify(context.Background(), testFrame()); !errors.Is(err, errNoFace) {
		t.Fatalf("expected no-face signal, got %v", err)
	}
}

func TestProviderAvailability(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		want     bool
	}{
		{"facepp with creds", NewFacePlusPlusClient("key", "secret"), true},
		{"facepp without secret", NewFacePlusPlusClient("key", ""), false},
		{"facepp placeholder", NewFacePlusPlusClient("your-key-here", "secret"), false},
		{"azure without endpoint", NewAzureFaceClient("key", ""), false},
		{"gvision with key", NewGoogleVisionClient("key"), true},
		{"gvision empty", NewGoogleVisionClient(""), false},
		{"local empty url", NewLocalClassifierClient(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.provider.Available(); got != tt.want {
				t.Errorf("Available() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocalClassifierLivenessAndClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/classify":
			w.Write([]byte(`{"emotion":"surprised","confidence":0.87,"face_detected":true,
				"distribution":{"happy":0.05,"sad":0.02,"angry":0.01,"surprised":0.87,
				"neutral":0.03,"disgust":0.01,"fear":0.01}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewLocalClassifierClient(srv.URL)

	if !client.Available() {
		t.Fatal("expected liveness check to pass")
	}

	result, err := client.Classify(context.Background(), testFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Emotion != Surprised {
		t.Errorf("expected surprised, got %s", result.Emotion)
	}
	if result.Source != SourceLocal {
		t.Errorf("expected local provenance, got %s", result.Source)
	}
	if result.Confidence != 0.87 {
		t.Errorf("expected verbatim confidence 0.87, got %f", result.Confidence)
	}
	assertNormalized(t, result.Distribution)
}

func assertNormalized(t *testing.T, dist Distribution) {
	t.Helper()
	var sum float64
	for _, e := range All {
		sum += dist[e]
	}
	if sum < 1.0-1e-6 || sum > 1.0+1e-6 {
		t.Errorf("distribution sums to %f, want 1.0", sum)
	}
}
