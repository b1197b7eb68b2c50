package proxy

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffPolicy computes the delay before a same-model retry: exponential
// growth with a jitter band, capped at Max.
type BackoffPolicy struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	Jitter  float64 // fraction of the delay, e.g. 0.1 for +-10%
}

func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Initial: 500 * time.Millisecond,
		Max:     15 * time.Second,
		Factor:  2.0,
		Jitter:  0.1,
	}
}

// Delay returns the backoff for the given retry attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := float64(p.Initial) * math.Pow(p.Factor, float64(attempt-1))
	if d > float64(p.Max) {
		d = float64(p.Max)
	}

	if p.Jitter > 0 {
		d += d * p.Jitter * (2*rand.Float64() - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
