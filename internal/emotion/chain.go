package emotion

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/moodlens/moodlens/internal/capture"
	"github.com/moodlens/moodlens/internal/observability"
)

// ErrNoRealProvider is returned when the caller demanded a non-simulated
// result but every configured provider failed or none was configured.
var ErrNoRealProvider = errors.New("no real emotion provider available")

// errNoFace is an internal signal from a provider that the call succeeded
// but the frame contained no face. The chain converts it into a valid
// neutral result instead of advancing.
var errNoFace = errors.New("no face found in frame")

// Provider classifies a single frame. Implementations wrap one external
// service each; Available reports whether credentials are configured so the
// chain can skip unconfigured providers without a network call.
type Provider interface {
	Name() string
	Source() Source
	Available() bool
	Classify(ctx context.Context, frame *capture.Frame) (*Result, error)
}

// Chain tries providers in strict priority order and short-circuits on the
// first answer. The simulator is not a Provider: it cannot fail and is only
// consulted when every real provider is exhausted and the caller allows it.
type Chain struct {
	providers []Provider
	simulator *Simulator
}

func NewChain(providers []Provider, simulator *Simulator) *Chain {
	return &Chain{providers: providers, simulator: simulator}
}

// Detect runs the fallback chain. Provider N+1 is never tried before
// provider N's outcome is known. Per-provider errors (timeouts, bad
// payloads, auth failures) are absorbed and logged; the only terminal error
// is ErrNoRealProvider under requireReal.
func (c *Chain) Detect(ctx context.Context, frame *capture.Frame, requireReal bool) (*Result, error) {
	for _, p := range c.providers {
		if !p.Available() {
			observability.ProviderAttempts.WithLabelValues(p.Name(), "unconfigured").Inc()
			continue
		}

		result, err := p.Classify(ctx, frame)
		if err == nil {
			log.Printf("[CHAIN] %s classified frame as %s (%.2f)", p.Name(), result.Emotion, result.Confidence)
			observability.ProviderAttempts.WithLabelValues(p.Name(), "ok").Inc()
			return result, nil
		}

		if errors.Is(err, errNoFace) {
			log.Printf("[CHAIN] %s found no face, returning neutral default", p.Name())
			observability.ProviderAttempts.WithLabelValues(p.Name(), "no_face").Inc()
			return NoFaceResult(p.Source()), nil
		}

		log.Printf("[CHAIN] %s unavailable: %v", p.Name(), err)
		observability.ProviderAttempts.WithLabelValues(p.Name(), "error").Inc()
	}

	if requireReal {
		return nil, ErrNoRealProvider
	}

	if c.simulator == nil {
		return nil, fmt.Errorf("%w: simulator disabled", ErrNoRealProvider)
	}

	log.Printf("[CHAIN] all real providers exhausted, simulating")
	observability.ProviderAttempts.WithLabelValues("simulator", "ok").Inc()
	return c.simulator.Classify(frame), nil
}

// Providers reports the names of the configured real providers, in chain
// order. Used by the diagnostics command.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}
