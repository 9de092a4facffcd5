package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moodlens/moodlens/internal/capture"
)

// AzureFaceClient is the second cloud vision provider in the chain.
type AzureFaceClient struct {
	key        string
	endpoint   string
	httpClient *http.Client
}

func NewAzureFaceClient(key, endpoint string) *AzureFaceClient {
	return &AzureFaceClient{
		key:      key,
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type azureFace struct {
	FaceAttributes struct {
		Emotion map[string]float64 `json:"emotion"`
	} `json:"faceAttributes"`
}

type azureError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *AzureFaceClient) Name() string   { return "azure-face" }
func (c *AzureFaceClient) Source() Source { return SourceAzure }

func (c *AzureFaceClient) Available() bool {
	return configured(c.key) && configured(c.endpoint)
}

func (c *AzureFaceClient) Classify(ctx context.Context, frame *capture.Frame) (*Result, error) {
	url := c.endpoint + "/face/v1.0/detect?returnFaceAttributes=emotion&detectionModel=detection_01"

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(frame.Data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr azureError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("Azure Face API error: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("Azure Face API returned status %d", resp.StatusCode)
	}

	var faces []azureFace
	if err := json.Unmarshal(body, &faces); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(faces) == 0 {
		return nil, errNoFace
	}

	raw := faces[0].FaceAttributes.Emotion
	dist := Distribution{
		Happy:     raw["happiness"],
		Sad:       raw["sadness"],
		Angry:     raw["anger"],
		Surprised: raw["surprise"],
		Neutral:   raw["neutral"],
		// Azure's taxonomy has no canonical home for contempt; fold it
		// into disgust, its nearest neighbor.
		Disgust: raw["disgust"] + raw["contempt"],
		Fear:    raw["fear"],
	}

	return buildResult(dist, SourceAzure), nil
}
