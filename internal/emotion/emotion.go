package emotion

import (
	"fmt"
	"math"
	"time"
)

// Emotion is one of the seven canonical labels every provider result is
// mapped onto.
type Emotion string

const (
	Happy     Emotion = "happy"
	Sad       Emotion = "sad"
	Angry     Emotion = "angry"
	Surprised Emotion = "surprised"
	Neutral   Emotion = "neutral"
	Disgust   Emotion = "disgust"
	Fear      Emotion = "fear"
)

// All lists the canonical labels in a stable order.
var All = []Emotion{Happy, Sad, Angry, Surprised, Neutral, Disgust, Fear}

// Parse validates a raw label against the canonical set.
func Parse(s string) (Emotion, error) {
	for _, e := range All {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion label: %q", s)
}

// Source identifies which provider produced a Result.
type Source string

const (
	SourceLocal        Source = "local"
	SourceFacePlusPlus Source = "facepp"
	SourceAzure        Source = "azure"
	SourceGoogleVision Source = "gvision"
	SourceSimulated    Source = "simulated"
)

// Distribution maps every canonical label to a probability. A valid
// distribution sums to 1.
type Distribution map[Emotion]float64

// Normalize scales the distribution so it sums to 1. Missing labels are
// filled with zero so every result carries all seven entries.
func (d Distribution) Normalize() {
	var sum float64
	for _, e := range All {
		if d[e] < 0 {
			d[e] = 0
		}
		sum += d[e]
	}
	if sum == 0 {
		for _, e := range All {
			d[e] = 1.0 / float64(len(All))
		}
		return
	}
	for _, e := range All {
		d[e] = d[e] / sum
	}
}

// Dominant returns the label with the highest probability and its value.
func (d Distribution) Dominant() (Emotion, float64) {
	best := Neutral
	bestScore := math.Inf(-1)
	for _, e := range All {
		if d[e] > bestScore {
			best = e
			bestScore = d[e]
		}
	}
	return best, bestScore
}

// Result is a single classified frame. Immutable once built.
type Result struct {
	Emotion      Emotion      `json:"emotion"`
	Confidence   float64      `json:"confidence"`
	Distribution Distribution `json:"distribution"`
	FaceDetected bool         `json:"face_detected"`
	Source       Source       `json:"source"`
	DetectedAt   time.Time    `json:"detected_at"`
}

// noFaceDistribution is returned when a real provider answers but finds no
// face in the frame: neutral-dominant, deliberately low confidence.
func noFaceDistribution() Distribution {
	return Distribution{
		Happy:     0.10,
		Sad:       0.10,
		Angry:     0.08,
		Surprised: 0.08,
		Neutral:   0.48,
		Disgust:   0.08,
		Fear:      0.08,
	}
}

// NoFaceResult builds the valid-but-degraded result used when a provider
// reports an empty frame.
func NoFaceResult(source Source) *Result {
	dist := noFaceDistribution()
	return &Result{
		Emotion:      Neutral,
		Confidence:   dist[Neutral],
		Distribution: dist,
		FaceDetected: false,
		Source:       source,
		DetectedAt:   time.Now(),
	}
}

// buildResult normalizes raw per-label scores and derives the dominant label.
func buildResult(raw Distribution, source Source) *Result {
	raw.Normalize()
	dominant, score := raw.Dominant()
	return &Result{
		Emotion:      dominant,
		Confidence:   score,
		Distribution: raw,
		FaceDetected: true,
		Source:       source,
		DetectedAt:   time.Now(),
	}
}
