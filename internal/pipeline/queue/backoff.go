package queue

import (
	"math/rand/v2"
	"time"
)

const maxBackoff = 2 * time.Minute

// backoffFor returns the wait before retry number attempt (1-based):
// exponential from base, capped, with up to 20% jitter so workers that
// failed together do not retry together.
func backoffFor(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	wait := base << (attempt - 1)
	if wait > maxBackoff || wait <= 0 {
		wait = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(wait)/5 + 1))
	return wait + jitter
}
