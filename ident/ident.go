// Package ident mints the identity tokens decompose_list assigns to
// each element on insertion and preserves across updates and moves
// (spec §4.3.3). Tokens are stable for the lifetime of the element they
// name and never reused.
package ident

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

// ID is an opaque, comparable element identity. The zero value is never
// minted by New and is reserved for "no ID" in call sites that need it.
type ID uint64

// New mints a fresh ID from a random UUIDv4, folded down to 64 bits.
// Collision probability is the same order as a 64-bit random value,
// acceptable for in-process element identity within one graph's
// lifetime.
func New() ID {
	u := uuid.New()
	hi := binary.BigEndian.Uint64(u[:8])
	lo := binary.BigEndian.Uint64(u[8:])
	return ID(hi ^ lo)
}

// CollisionGuard is a weak cache over every ID a decomposed sequence has
// ever minted, used to flag the 64-bit fold's one real risk — two
// distinct elements landing on the same ID within one graph's lifetime.
// A Bloom filter never misses a true member, so Mark can only ever
// over-report collisions (never miss one): a true collision is
// always caught, at the cost of a vanishingly rare false alarm on a
// never-before-seen ID.
type CollisionGuard struct {
	seen *bloom.BloomFilter
}

// NewCollisionGuard sizes the filter for expectedIDs total insertions at
// the given false-positive rate.
func NewCollisionGuard(expectedIDs uint, falsePositiveRate float64) *CollisionGuard {
	return &CollisionGuard{seen: bloom.NewWithEstimates(expectedIDs, falsePositiveRate)}
}

// Mark records id as minted and reports whether it (or, with
// probability falsePositiveRate, a different id) was already present.
func (g *CollisionGuard) Mark(id ID) (likelyCollision bool) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	likelyCollision = g.seen.Test(buf[:])
	g.seen.Add(buf[:])
	return likelyCollision
}
