package emotion

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/moodlens/moodlens/internal/capture"
)

// Simulator fabricates a plausible emotion result when no real provider can
// answer. It performs no content analysis: the frame bytes only perturb the
// PRNG seed so repeated captures do not all look identical.
type Simulator struct {
	now func() time.Time
}

func NewSimulator() *Simulator {
	return &Simulator{now: time.Now}
}

// baseWeights is the resting bias of the simulator before time-of-day
// adjustments. Neutral and happy dominate, matching what real webcam
// traffic overwhelmingly contains.
var baseWeights = map[Emotion]float64{
	Happy:     0.26,
	Neutral:   0.30,
	Sad:       0.12,
	Surprised: 0.12,
	Angry:     0.08,
	Disgust:   0.05,
	Fear:      0.07,
}

func (s *Simulator) Classify(frame *capture.Frame) *Result {
	now := s.now()
	rng := rand.New(rand.NewSource(s.seed(frame, now)))

	weights := make(map[Emotion]float64, len(baseWeights))
	for e, w := range baseWeights {
		weights[e] = w
	}

	// Mornings and evenings skew calmer, midday skews brighter, late night
	// skews tired. Weekends get a happiness bump. These shifts only bias
	// the draw; any emotion stays possible at any hour.
	hour := now.Hour()
	switch {
	case hour < 6:
		weights[Sad] += 0.08
		weights[Neutral] += 0.05
	case hour < 12:
		weights[Neutral] += 0.06
	case hour < 18:
		weights[Happy] += 0.08
	default:
		weights[Happy] += 0.03
		weights[Sad] += 0.04
	}
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weights[Happy] += 0.06
	}

	dominant := weightedPick(rng, weights)

	// Build a full distribution around the chosen dominant: give it a
	// clearly-leading share, spread the rest with jitter, renormalize.
	dist := Distribution{}
	lead := 0.45 + rng.Float64()*0.25
	dist[dominant] = lead
	remaining := 1.0 - lead
	for _, e := range All {
		if e == dominant {
			continue
		}
		dist[e] = remaining * (weights[e] * (0.6 + rng.Float64()*0.8))
	}
	dist.Normalize()

	// Re-read the dominant share after normalization; confidence is drawn
	// from the simulator's plausible range rather than reported exactly.
	confidence := 0.62 + rng.Float64()*0.31
	if dist[dominant] > confidence {
		confidence = dist[dominant]
	}

	return &Result{
		Emotion:      dominant,
		Confidence:   confidence,
		Distribution: dist,
		FaceDetected: true,
		Source:       SourceSimulated,
		DetectedAt:   now,
	}
}

// seed mixes the clock with an FNV hash of the frame bytes. The image
// contributes entropy only; it is not analyzed.
func (s *Simulator) seed(frame *capture.Frame, now time.Time) int64 {
	h := fnv.New64a()
	if frame != nil {
		h.Write(frame.Data)
	}
	return now.UnixNano() ^ int64(h.Sum64())
}

func weightedPick(rng *rand.Rand, weights map[Emotion]float64) Emotion {
	var total float64
	for _, e := range All {
		total += weights[e]
	}

	target := rng.Float64() * total
	for _, e := range All {
		target -= weights[e]
		if target <= 0 {
			return e
		}
	}
	return Neutral
}
