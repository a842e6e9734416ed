// Package workhash computes and checks the Proof-of-Capacity work hash:
// a Blake2b digest over a block's timestamp, a scope hash drawn from a
// plot file, and the previous block hash, compared byte-wise against a
// target the way the teacher's consensus package compares a PoW hash
// against a compact-encoded target — except here the comparison is a
// plain little-endian byte scan rather than a big.Int Cmp, per the
// exact semantics of the proof-of-capacity scheme this hash belongs to.
package workhash

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// HashLoopCount and HashLength describe the layout of a plot file's
// scope region; ScopeCount is the number of 32-byte scope slots a
// previous-block hash can index into.
const (
	HashLoopCount = 8192
	HashLength    = 64
	ScopeCount    = HashLoopCount * HashLength / 32 // 16384
)

// GetScopeIndex derives the plot scope slot to read from a previous
// block hash: the hash's bytes, reversed into big-endian order and
// read as an unsigned integer, modulo ScopeCount.
func GetScopeIndex(previousHash [32]byte) uint32 {
	var reversed [32]byte
	for i, b := range previousHash {
		reversed[31-i] = b
	}

	// Reduce mod ScopeCount one byte at a time instead of materializing
	// a 256-bit integer; equivalent to treating `reversed` as a
	// big-endian number and taking it mod ScopeCount.
	var mod uint64
	for _, b := range reversed {
		mod = (mod<<8 | uint64(b)) % ScopeCount
	}
	return uint32(mod)
}

// GetWorkHash computes the Blake2b-512 digest of time || scopeHash ||
// previousHash (4 + 32 + 32 = 68 bytes, time little-endian). The
// caller is expected to use only the first 32 bytes as the work value;
// the remaining bytes are carried through because the upstream hash
// primitive (blake2b, unkeyed, default 64-byte output) produces them
// for free and some callers historically kept them for diagnostics.
func GetWorkHash(time uint32, scopeHash, previousHash [32]byte) [64]byte {
	var buf [68]byte
	binary.LittleEndian.PutUint32(buf[0:4], time)
	copy(buf[4:36], scopeHash[:])
	copy(buf[36:68], previousHash[:])
	return blake2b.Sum512(buf[:])
}

// WorkCheck reports whether work is strictly less than target, reading
// both as little-endian integers (i.e. comparing from the last byte
// down to the first). work and target must be the same length; a
// length mismatch is a caller bug and WorkCheck does not try to
// recover from it sensibly, it simply reports false once it runs out
// of bytes to compare.
func WorkCheck(work, target []byte) bool {
	n := len(work)
	if len(target) < n {
		n = len(target)
	}
	for i := n - 1; i >= 0; i-- {
		switch {
		case work[i] > target[i]:
			return false
		case work[i] < target[i]:
			return true
		}
	}
	return false
}
