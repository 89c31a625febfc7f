package jobs

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the retry delay for a failed job: exponential growth with
// multiplicative jitter so simultaneous failures do not retry in lockstep.
type Backoff struct {
	Base   time.Duration
	Factor float64
	Jitter float64 // fraction of the delay spread as ±Jitter/2

	// rand allows deterministic tests; nil uses the package source.
	rand *rand.Rand
}

// Delay returns base * factor^retries with jitter applied.
func (b Backoff) Delay(retries int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = 30 * time.Second
	}
	factor := b.Factor
	if factor <= 1 {
		factor = 2
	}

	delay := float64(base) * math.Pow(factor, float64(retries))
	if b.Jitter > 0 {
		delay *= 1 + b.Jitter*(b.float64()-0.5)
	}
	return time.Duration(delay)
}

// Raw returns the un-jittered delay, used when a strictly monotonic schedule
// is required.
func (b Backoff) Raw(retries int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = 30 * time.Second
	}
	factor := b.Factor
	if factor <= 1 {
		factor = 2
	}
	return time.Duration(float64(base) * math.Pow(factor, float64(retries)))
}

func (b Backoff) float64() float64 {
	if b.rand != nil {
		return b.rand.Float64()
	}
	return rand.Float64()
}
