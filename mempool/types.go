// Package mempool implements an ordered, dependency-aware pool of
// unconfirmed transactions. Entries are kept in a single priority-ordered
// slice: index 0 is the highest-priority entry eligible for the next
// block, subject to each entry's parents (Depends) appearing earlier.
package mempool

import "errors"

// Errors returned by Pool methods. Every anomaly here is a caller
// contract violation; the pool never recovers from one internally.
var (
	ErrHashExists   = errors.New("mempool: hash already inserted")
	ErrHashNotFound = errors.New("mempool: hash not found")
)

// Hash identifies an unconfirmed entry. It is treated as an opaque
// 256-bit value; the pool never interprets its bytes beyond equality
// and map-key use.
type Hash [32]byte

// Unconfirmed is one entry of the pool. Obj is an opaque, caller-owned
// handle to the full transaction — the pool never inspects it.
type Unconfirmed[T any] struct {
	Obj      T
	Hash     Hash
	Depends  map[Hash]struct{}
	Price    uint32
	Time     uint32
	Deadline uint32
	Size     uint32
}

// outranks reports whether e should sit ahead of other in the pool,
// absent any topological constraint: higher price wins, and on a price
// tie the earlier arrival (lower time) wins. Equal price and time never
// displaces an earlier-arrived peer.
func (e *Unconfirmed[T]) outranks(other *Unconfirmed[T]) bool {
	if e.Price != other.Price {
		return e.Price > other.Price
	}
	return e.Time < other.Time
}
