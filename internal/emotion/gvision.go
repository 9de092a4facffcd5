package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moodlens/moodlens/internal/capture"
)

const googleVisionAPIURL = "https://vision.googleapis.com/v1/images:annotate"

// GoogleVisionClient is the last real provider in the chain. Google Vision
// only exposes coarse per-face likelihood buckets for four emotions, so its
// distributions are flatter than the other providers'.
type GoogleVisionClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGoogleVisionClient(apiKey string) *GoogleVisionClient {
	return &GoogleVisionClient{
		apiKey:  apiKey,
		baseURL: googleVisionAPIURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type gvisionRequest struct {
	Requests []gvisionAnnotateRequest `json:"requests"`
}

type gvisionAnnotateRequest struct {
	Image    gvisionImage     `json:"image"`
	Features []gvisionFeature `json:"features"`
}

type gvisionImage struct {
	Content string `json:"content"`
}

type gvisionFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type gvisionResponse struct {
	Responses []struct {
		FaceAnnotations []struct {
			JoyLikelihood       string  `json:"joyLikelihood"`
			SorrowLikelihood    string  `json:"sorrowLikelihood"`
			AngerLikelihood     string  `json:"angerLikelihood"`
			SurpriseLikelihood  string  `json:"surpriseLikelihood"`
			DetectionConfidence float64 `json:"detectionConfidence"`
		} `json:"faceAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// likelihoodScores converts Google's categorical likelihoods to weights.
var likelihoodScores = map[string]float64{
	"VERY_LIKELY":   0.90,
	"LIKELY":        0.70,
	"POSSIBLE":      0.45,
	"UNLIKELY":      0.15,
	"VERY_UNLIKELY": 0.03,
	"UNKNOWN":       0.03,
}

func (c *GoogleVisionClient) Name() string   { return "google-vision" }
func (c *GoogleVisionClient) Source() Source { return SourceGoogleVision }

func (c *GoogleVisionClient) Available() bool {
	return configured(c.apiKey)
}

func (c *GoogleVisionClient) Classify(ctx context.Context, frame *capture.Frame) (*Result, error) {
	reqBody := gvisionRequest{
		Requests: []gvisionAnnotateRequest{
			{
				Image:    gvisionImage{Content: frame.Base64()},
				Features: []gvisionFeature{{Type: "FACE_DETECTION", MaxResults: 5}},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var parsed gvisionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if parsed.Error != nil {
		return nil, fmt.Errorf("Google Vision API error: %s", parsed.Error.Message)
	}
	if len(parsed.Responses) == 0 {
		return nil, fmt.Errorf("empty Google Vision response")
	}
	if parsed.Responses[0].Error != nil {
		return nil, fmt.Errorf("Google Vision API error: %s", parsed.Responses[0].Error.Message)
	}

	faces := parsed.Responses[0].FaceAnnotations
	if len(faces) == 0 {
		return nil, errNoFace
	}

	face := faces[0]
	joy := likelihoodScores[face.JoyLikelihood]
	sorrow := likelihoodScores[face.SorrowLikelihood]
	anger := likelihoodScores[face.AngerLikelihood]
	surprise := likelihoodScores[face.SurpriseLikelihood]

	// Google does not report neutral/disgust/fear; give neutral the slack
	// when the four reported emotions are all weak, and keep the missing
	// labels at a floor so the distribution stays full.
	neutral := 1.0 - maxOf(joy, sorrow, anger, surprise)
	dist := Distribution{
		Happy:     joy,
		Sad:       sorrow,
		Angry:     anger,
		Surprised: surprise,
		Neutral:   neutral,
		Disgust:   0.02,
		Fear:      0.02,
	}

	return buildResult(dist, SourceGoogleVision), nil
}

func maxOf(values ...float64) float64 {
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}
