// Package random provides seed sources for the deterministic dice roller.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// SeedFunc returns the seed of the next roll.
type SeedFunc func() (int64, error)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Sequence returns a SeedFunc that yields seeds in order and then repeats
// the last one. It is meant for reproducible rolls in tests and replays.
func Sequence(seeds ...int64) SeedFunc {
	next := 0
	return func() (int64, error) {
		if len(seeds) == 0 {
			return 0, fmt.Errorf("seed sequence is empty")
		}
		seed := seeds[next]
		if next < len(seeds)-1 {
			next++
		}
		return seed, nil
	}
}
