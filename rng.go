package main

import (
	"math/rand"
	"time"

	"github.com/dgryski/go-wyhash"
)

// nouns is a list of common nouns used to synthesize resource names and
// batch items.
var nouns = []string{
	"apple", "basket", "bridge", "camera", "candle", "carriage", "engine",
	"feather", "garden", "hammer", "island", "jewel", "kettle", "lantern",
	"library", "monkey", "needle", "orange", "parcel", "pencil", "picture",
	"pocket", "ribbon", "saddle", "shelter", "sponge", "stamp", "station",
	"thread", "ticket", "umbrella", "whistle", "window", "wagon",
}

type Rng struct {
	rng *rand.Rand
}

// NewRng returns a generator deterministically seeded from a string, so
// that two runs with the same seed issue the same request sequence.
func NewRng(s string) Rng {
	return Rng{rand.New(rand.NewSource(int64(wyhash.Hash([]byte(s), 2467825690))))}
}

func (r Rng) Intn(n int) int {
	return r.rng.Intn(n)
}

func (r Rng) Choice(a []string) string {
	return a[r.rng.Intn(len(a))]
}

func (r Rng) Float64() float64 {
	return r.rng.Float64()
}

// Duration returns a random duration in [min, max).
func (r Rng) Duration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.rng.Int63n(int64(max-min)))
}
