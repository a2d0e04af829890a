package protocol

import "time"

// backoff computes the exponential reconnect delay: base 100ms,
// multiplier 2, capped at 30s. attempt is 1-indexed (the delay before
// the first retry).
func backoff(attempt int) time.Duration {
	const (
		base     = 100 * time.Millisecond
		capDelay = 30 * time.Second
	)
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= capDelay {
			return capDelay
		}
	}
	return d
}
