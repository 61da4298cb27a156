package models

import (
	"encoding/binary"

	"moviereview/app/pubkey"
)

var (
	MintSeed    = []byte("mint")
	CounterSeed = []byte("counter")
)

// ReviewSeeds address a review by (title, reviewer).
func ReviewSeeds(title string, reviewer pubkey.PublicKey) [][]byte {
	return [][]byte{[]byte(title), reviewer.Bytes()}
}

// CounterSeeds address the comment counter owned by a review.
func CounterSeeds(review pubkey.PublicKey) [][]byte {
	return [][]byte{CounterSeed, review.Bytes()}
}

// CommentSeeds address the comment created while the counter held value.
func CommentSeeds(review pubkey.PublicKey, value uint64) [][]byte {
	le := make([]byte, 8)
	binary.LittleEndian.PutUint64(le, value)
	return [][]byte{review.Bytes(), le}
}

// MintSeeds address the reward mint.
func MintSeeds() [][]byte {
	return [][]byte{MintSeed}
}

// WithBump appends the bump seed, producing signer seeds.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}
