package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moodlens/moodlens/internal/capture"
)

// LocalClassifierClient delegates to a specialized classification service
// running nearby (typically a dedicated model server on the same host). It
// sits first in the chain: when it is up it is both the fastest and the
// most accurate option.
type LocalClassifierClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLocalClassifierClient(baseURL string) *LocalClassifierClient {
	return &LocalClassifierClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

type localClassifyRequest struct {
	Image string `json:"image"`
}

type localClassifyResponse struct {
	Emotion      string             `json:"emotion"`
	Confidence   float64            `json:"confidence"`
	Distribution map[string]float64 `json:"distribution"`
	FaceDetected bool               `json:"face_detected"`
	Error        string             `json:"error"`
}

func (c *LocalClassifierClient) Name() string   { return "local-classifier" }
func (c *LocalClassifierClient) Source() Source { return SourceLocal }

// Available probes the service's health endpoint. The probe shares the
// client's short timeout so an absent service costs at most 3 seconds once
// per detection.
func (c *LocalClassifierClient) Available() bool {
	if c.baseURL == "" {
		return false
	}

	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *LocalClassifierClient) Classify(ctx context.Context, frame *capture.Frame) (*Result, error) {
	jsonData, err := json.Marshal(localClassifyRequest{Image: frame.Base64()})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/classify", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var parsed localClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if parsed.Error != "" {
		return nil, fmt.Errorf("local classifier error: %s", parsed.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("local classifier returned status %d", resp.StatusCode)
	}

	if !parsed.FaceDetected {
		return nil, errNoFace
	}

	dominant, err := Parse(parsed.Emotion)
	if err != nil {
		return nil, fmt.Errorf("local classifier returned %w", err)
	}

	// The local service already speaks the canonical taxonomy; its answer
	// is passed through verbatim, re-tagged with our provenance.
	dist := Distribution{}
	for label, score := range parsed.Distribution {
		e, err := Parse(label)
		if err != nil {
			continue
		}
		dist[e] = score
	}
	dist.Normalize()

	return &Result{
		Emotion:      dominant,
		Confidence:   parsed.Confidence,
		Distribution: dist,
		FaceDetected: true,
		Source:       SourceLocal,
		DetectedAt:   time.Now(),
	}, nil
}
