package relay

import (
	"math/rand/v2"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

// backoff doubles the idle delay after each failed drain, up to maxBackoff,
// and snaps back to the poll interval after a success.
type backoff struct {
	base    time.Duration
	current time.Duration
}

func newBackoff(base time.Duration) *backoff {
	return &backoff{base: base, current: base}
}

func (b *backoff) reset() { b.current = b.base }

func (b *backoff) fail() time.Duration {
	b.current = min(b.current*2, maxBackoff)
	return b.current
}

// jitter spreads replicas that started together so they do not poll in step.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
