package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moodlens/moodlens/internal/capture"
)

const faceppDetectURL = "https://api-us.faceplusplus.com/facepp/v3/detect"

// FacePlusPlusClient is the primary cloud vision provider.
type FacePlusPlusClient struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

func NewFacePlusPlusClient(apiKey, apiSecret string) *FacePlusPlusClient {
	return &FacePlusPlusClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   faceppDetectURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type faceppResponse struct {
	Faces []struct {
		Attributes struct {
			Emotion map[string]float64 `json:"emotion"`
		} `json:"attributes"`
	} `json:"faces"`
	ErrorMessage string `json:"error_message"`
}

func (c *FacePlusPlusClient) Name() string   { return "faceplusplus" }
func (c *FacePlusPlusClient) Source() Source { return SourceFacePlusPlus }

func (c *FacePlusPlusClient) Available() bool {
	return configured(c.apiKey) && configured(c.apiSecret)
}

func (c *FacePlusPlusClient) Classify(ctx context.Context, frame *capture.Frame) (*Result, error) {
	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("api_secret", c.apiSecret)
	form.Set("image_base64", frame.Base64())
	form.Set("return_attributes", "emotion")

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var parsed faceppResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if parsed.ErrorMessage != "" {
		return nil, fmt.Errorf("Face++ API error: %s", parsed.ErrorMessage)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Face++ API returned status %d", resp.StatusCode)
	}

	if len(parsed.Faces) == 0 {
		return nil, errNoFace
	}

	// Face++ scores are percentages under its own taxonomy.
	raw := parsed.Faces[0].Attributes.Emotion
	dist := Distribution{
		Happy:     raw["happiness"] / 100,
		Sad:       raw["sadness"] / 100,
		Angry:     raw["anger"] / 100,
		Surprised: raw["surprise"] / 100,
		Neutral:   raw["neutral"] / 100,
		Disgust:   raw["disgust"] / 100,
		Fear:      raw["fear"] / 100,
	}

	return buildResult(dist, SourceFacePlusPlus), nil
}

// configured treats empty values and common placeholder strings as absent
// credentials, so a copied-over sample .env never produces auth errors.
func configured(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "your-key-here", "your-secret-here", "changeme", "xxx":
		return false
	}
	return true
}
