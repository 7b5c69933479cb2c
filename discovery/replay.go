package discovery

import (
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lancast/lancast/serialize/discover"
)

const nonceCacheSize = 4096

// Fresh reports whether a probe timestamp lies within the replay window
// around now. The boundary is inclusive on both sides, so a probe that
// is exactly window old (or window in the future) still passes.
func Fresh(timestamp uint64, now time.Time, window time.Duration) bool {
	if timestamp > math.MaxInt64 {
		return false
	}

	// compare in whole seconds; converting diff to a Duration would
	// overflow for far-off timestamps
	diff := now.Unix() - int64(timestamp)
	if diff < 0 {
		diff = -diff
	}
	return diff <= int64(window/time.Second)
}

// nonceCache remembers recently answered probes so that an exact replay
// inside the replay window can be refused. The wire protocol itself only
// bounds packet age and accepts such replays; this cache is an optional
// hardening on top of it and stays off unless the configuration enables
// it.
type nonceCache struct {
	window time.Duration
	seen   *lru.Cache[string, int64]
}

func newNonceCache(window time.Duration) *nonceCache {
	// lru.New only fails for a non-positive size
	seen, _ := lru.New[string, int64](nonceCacheSize)
	return &nonceCache{
		window: window,
		seen:   seen,
	}
}

// hit records the probe and reports whether the same deviceID/nonce pair
// was already answered within the window.
func (c *nonceCache) hit(p *discover.Probe, now time.Time) bool {
	key := fmt.Sprintf("%X-%08X", p.DeviceID, p.Nonce)

	if at, ok := c.seen.Get(key); ok {
		age := now.Unix() - at
		if age < 0 {
			age = -age
		}
		if age <= int64(c.window/time.Second) {
			return true
		}
	}

	c.seen.Add(key, now.Unix())
	return false
}
