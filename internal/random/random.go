// Package random provides the shuffle primitives used by quiz attempts:
// a plain Fisher–Yates shuffle for picking questions at attempt creation,
// and a seeded variant that reproduces the same permutation for a given
// string key so option order survives page reloads without being stored.
package random

import (
	"hash/fnv"
	"math/rand"
)

// Shuffle returns a new slice holding a uniform permutation of items,
// drawn from src. The input slice is not modified.
func Shuffle[T any](src *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// SeededShuffle returns a permutation of items fully determined by seedKey.
// The key is hashed with FNV-1a (32-bit) and the hash seeds a dedicated
// PRNG, so the result is stable across processes and restarts. Callers
// compose keys like "<attemptID>:<questionID>".
func SeededShuffle[T any](items []T, seedKey string) []T {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seedKey))
	src := rand.New(rand.NewSource(int64(h.Sum32())))
	return Shuffle(src, items)
}

// EnsureNotIdentity guards against the shuffle that happens to reproduce
// the input order: when shuffled equals original element-wise and has more
// than one element, it is rotated left by one position. The result is
// always a permutation of the same multiset.
func EnsureNotIdentity[T comparable](original, shuffled []T) []T {
	if len(original) != len(shuffled) || len(shuffled) < 2 {
		return shuffled
	}
	for i := range original {
		if original[i] != shuffled[i] {
			return shuffled
		}
	}
	rotated := make([]T, 0, len(shuffled))
	rotated = append(rotated, shuffled[1:]...)
	rotated = append(rotated, shuffled[0])
	return rotated
}
