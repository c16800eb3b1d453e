package channel

import (
	"math"
	"time"
)

const (
	DefaultMinDelay       = time.Second
	DefaultMaxDelay       = 10 * time.Second
	DefaultGrowthFactor   = 1.3
	DefaultConnectTimeout = 4 * time.Second
)

// Backoff computes min(Max, Min*Factor^attempt). Factor below 1 is treated as 1.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
}

func (b Backoff) Delay(attempt int) time.Duration {
	minDelay, maxDelay := b.Min, b.Max
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	factor := b.Factor
	if factor < 1 || math.IsNaN(factor) {
		factor = 1
	}
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(minDelay) * math.Pow(factor, float64(attempt))
	if math.IsInf(delay, 0) || delay >= float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(delay)
}
