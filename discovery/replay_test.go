package discovery

import (
	"math"
	"testing"
	"time"

	"github.com/lancast/lancast/params"
	"github.com/lancast/lancast/serialize/discover"
	"github.com/lancast/lancast/utils"
)

func TestFreshBoundaries(t *testing.T) {
	now := time.Unix(1700000000, 0)
	window := params.ReplayWindow

	cases := []struct {
		name   string
		offset int64 // timestamp relative to now, in seconds
		expect bool
	}{
		{"exact now", 0, true},
		{"well inside", -10, true},
		{"past boundary", -30, true},
		{"just past boundary", -31, false},
		{"future boundary", 30, true},
		{"just past future boundary", 31, false},
		{"ancient", -86400, false},
		{"far future", 86400, false},
		// offsets this large wrap around when converted to a
		// nanosecond Duration; keep the comparison in seconds
		{"wrapping future", 1 << 55, false},
		{"distant future", math.MaxInt64 - 1700000000, false},
	}

	for _, c := range cases {
		ts := uint64(now.Unix() + c.offset)
		if err := utils.TCheckBool(c.name, c.expect, Fresh(ts, now, window)); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFreshOverflow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	if Fresh(math.MaxUint64, now, params.ReplayWindow) {
		t.Fatalf("a timestamp beyond int64 range should never be fresh\n")
	}
}

func TestNonceCache(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cache := newNonceCache(params.ReplayWindow)

	probe := discover.NewProbe(testDeviceID, 0x01020304, uint64(now.Unix()))
	if cache.hit(probe, now) {
		t.Fatalf("first sighting should not be a hit\n")
	}
	if !cache.hit(probe, now.Add(time.Second)) {
		t.Fatalf("replay inside the window should be a hit\n")
	}

	other := discover.NewProbe(testDeviceID, 0x01020305, uint64(now.Unix()))
	if cache.hit(other, now) {
		t.Fatalf("a different nonce should not be a hit\n")
	}

	// after the window the entry no longer counts
	if cache.hit(probe, now.Add(params.ReplayWindow+2*time.Second)) {
		t.Fatalf("replay outside the window should not be a hit\n")
	}
}
