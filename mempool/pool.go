package mempool

import (
	"iter"

	"github.com/sirupsen/logrus"
)

// Pool holds unconfirmed entries in priority order. It is single-threaded
// and not re-entrant — every exported method mutates or scans the
// underlying slice directly, and callers are expected to serialize their
// own access. No operation here blocks on I/O.
//
// T is the caller's opaque transaction-handle type (see Unconfirmed.Obj);
// the pool never interprets it.
type Pool[T any] struct {
	entries []*Unconfirmed[T]

	// checkFrequency, when non-zero, is the probability (0..1) that
	// Check runs a full invariant sweep on each call. Mirrors the
	// sanity-check knob of traditional mempool implementations: cheap
	// to leave off in production, useful under test.
	checkFrequency float64
	log            *logrus.Logger
}

// New returns an empty pool. log may be nil, in which case invariant
// violations found by Check still panic but are not reported through a
// logger first.
func New[T any](log *logrus.Logger) *Pool[T] {
	return &Pool[T]{log: log}
}

// SetCheckFrequency configures how often Check performs a full invariant
// sweep; see Check.
func (p *Pool[T]) SetCheckFrequency(freq float64) {
	p.checkFrequency = freq
}

// Length returns the number of entries currently in the pool.
func (p *Pool[T]) Length() int {
	return len(p.entries)
}

// Exist reports whether hash is present.
func (p *Pool[T]) Exist(hash Hash) bool {
	return p.indexOf(hash) >= 0
}

// Position returns hash's index (0 = highest priority), or false if hash
// is absent.
func (p *Pool[T]) Position(hash Hash) (int, bool) {
	idx := p.indexOf(hash)
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// GetObj returns the handle stored under hash, or false if absent.
func (p *Pool[T]) GetObj(hash Hash) (T, bool) {
	idx := p.indexOf(hash)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return p.entries[idx].Obj, true
}

func (p *Pool[T]) indexOf(hash Hash) int {
	for i, e := range p.entries {
		if e.Hash == hash {
			return i
		}
	}
	return -1
}

// Push inserts a new entry, returning its settled index. It fails with
// ErrHashExists when hash is already present.
func (p *Pool[T]) Push(obj T, hash Hash, depends []Hash, price, time, deadline, size uint32) (int, error) {
	if p.Exist(hash) {
		return 0, ErrHashExists
	}

	dependSet := make(map[Hash]struct{}, len(depends))
	for _, h := range depends {
		dependSet[h] = struct{}{}
	}

	entry := &Unconfirmed[T]{
		Obj:      obj,
		Hash:     hash,
		Depends:  dependSet,
		Price:    price,
		Time:     time,
		Deadline: deadline,
		Size:     size,
	}
	return p.insert(entry), nil
}

// insert settles entry into the pool per the ordering algorithm of
// spec.md §4.1: parents strictly before, required dependents at or
// before, and otherwise the first position the entry's (price, time)
// outranks. If the pool's current layout can't satisfy both constraints
// at once (a "disturbed" insertion), the conflicting entries and their
// whole dependent closures are pulled out, the original entry is
// retried, and the pulled entries are re-pushed in the order they were
// removed.
func (p *Pool[T]) insert(entry *Unconfirmed[T]) int {
	dependIndex := -1 // highest index of a present parent
	for i, e := range p.entries {
		if _, ok := entry.Depends[e.Hash]; ok {
			dependIndex = i
		}
	}

	requiredIndex := -1 // lowest index of an entry that already depends on us
	for i, e := range p.entries {
		if _, ok := e.Depends[entry.Hash]; ok {
			requiredIndex = i
			break
		}
	}

	if dependIndex >= 0 && requiredIndex >= 0 && dependIndex >= requiredIndex {
		return p.disturbRepairInsert(entry, requiredIndex)
	}

	bestIndex := -1
	for i, e := range p.entries {
		if dependIndex >= 0 && i <= dependIndex {
			continue
		}
		if requiredIndex >= 0 && i > requiredIndex {
			continue
		}
		if entry.outranks(e) {
			bestIndex = i
			break
		}
	}
	if bestIndex < 0 && requiredIndex >= 0 {
		bestIndex = requiredIndex
	}
	if bestIndex < 0 {
		p.entries = append(p.entries, entry)
		return len(p.entries) - 1
	}

	p.entries = append(p.entries, nil)
	copy(p.entries[bestIndex+1:], p.entries[bestIndex:])
	p.entries[bestIndex] = entry
	return bestIndex
}

// disturbRepairInsert handles the case where the pool already contains
// entries that require the new hash at or after requiredIndex, while
// also sitting at or before some parent of the new entry — i.e. the new
// entry cannot be placed without violating one of the two constraints.
// It removes every entry (with its dependent closure) that directly
// requires the new hash, retries the insert, then re-pushes the removed
// entries in their original removal order.
func (p *Pool[T]) disturbRepairInsert(entry *Unconfirmed[T], requiredIndex int) int {
	var conflictHashes []Hash
	for i, e := range p.entries {
		if i < requiredIndex {
			continue
		}
		if _, ok := e.Depends[entry.Hash]; ok {
			conflictHashes = append(conflictHashes, e.Hash)
		}
	}

	var sideBuffer []*Unconfirmed[T]
	for _, h := range conflictHashes {
		if p.indexOf(h) < 0 {
			continue // already pulled as part of an earlier conflict's closure
		}
		p.removeClosureInto(h, &sideBuffer)
	}

	index := p.insert(entry)
	for _, e := range sideBuffer {
		p.insert(e)
	}
	return index
}

// removeClosureInto removes hash and, recursively, every entry that
// transitively depends on it, appending each removed entry (in removal
// order, root first) to buf. It is a no-op if hash is absent.
func (p *Pool[T]) removeClosureInto(hash Hash, buf *[]*Unconfirmed[T]) int {
	idx := p.indexOf(hash)
	if idx < 0 {
		return 0
	}
	entry := p.entries[idx]
	p.entries = append(p.entries[:idx], p.entries[idx+1:]...)
	*buf = append(*buf, entry)

	count := 1
	for {
		childHash, found := p.firstDependent(entry.Hash)
		if !found {
			break
		}
		count += p.removeClosureInto(childHash, buf)
	}
	return count
}

// firstDependent returns the hash of the first (pool-order) remaining
// entry whose Depends contains hash.
func (p *Pool[T]) firstDependent(hash Hash) (Hash, bool) {
	for _, e := range p.entries {
		if _, ok := e.Depends[hash]; ok {
			return e.Hash, true
		}
	}
	return Hash{}, false
}

// Remove deletes hash. Its dependent closure is pulled out alongside it
// so order can be repaired, but everything except hash itself is
// re-pushed — a child with other satisfied dependencies survives, just
// like any other push, with its topological and priority position
// re-derived from the (now smaller) pool.
func (p *Pool[T]) Remove(hash Hash) error {
	if !p.Exist(hash) {
		return ErrHashNotFound
	}
	var buf []*Unconfirmed[T]
	p.removeClosureInto(hash, &buf)
	for _, e := range buf[1:] {
		p.insert(e)
	}
	return nil
}

// RemoveMany removes a batch of hashes. Dependents of a removed entry
// that were not themselves named in the batch are re-pushed; dependents
// that were also named in the batch are dropped along with everything
// else. Missing hashes are ignored.
func (p *Pool[T]) RemoveMany(hashes []Hash) {
	inBatch := make(map[Hash]struct{}, len(hashes))
	for _, h := range hashes {
		inBatch[h] = struct{}{}
	}

	processed := make(map[Hash]struct{})
	var buf []*Unconfirmed[T]
	for _, h := range hashes {
		if _, done := processed[h]; done {
			continue
		}
		if p.indexOf(h) < 0 {
			continue
		}
		var sub []*Unconfirmed[T]
		p.removeClosureInto(h, &sub)
		for _, e := range sub {
			processed[e.Hash] = struct{}{}
		}
		buf = append(buf, sub...)
	}

	for _, e := range buf {
		if _, dropped := inBatch[e.Hash]; dropped {
			continue
		}
		p.insert(e)
	}
}

// RemoveWithDepends removes hash and its entire dependent closure
// permanently, returning the number of entries removed. It fails with
// ErrHashNotFound if hash is absent.
func (p *Pool[T]) RemoveWithDepends(hash Hash) (int, error) {
	if !p.Exist(hash) {
		return 0, ErrHashNotFound
	}
	var buf []*Unconfirmed[T]
	count := p.removeClosureInto(hash, &buf)
	return count, nil
}

// ListSizeLimit returns the prefix of entries, in pool order, whose
// cumulative Size stays strictly under maxsize. The limit is never
// reached exactly: the first entry that would bring the running total
// to or past maxsize, and everything after it, is excluded.
func (p *Pool[T]) ListSizeLimit(maxsize uint32) []T {
	var out []T
	var size uint32
	for _, e := range p.entries {
		size += e.Size
		if size >= maxsize {
			break
		}
		out = append(out, e.Obj)
	}
	return out
}

// ListAllHash returns every hash currently in the pool, in pool order.
func (p *Pool[T]) ListAllHash() []Hash {
	out := make([]Hash, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Hash
	}
	return out
}

// ListAllObj returns an iterator over every handle in the pool, in pool
// order (or reverse pool order when reversed is set).
func (p *Pool[T]) ListAllObj(reversed bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		if reversed {
			for i := len(p.entries) - 1; i >= 0; i-- {
				if !yield(p.entries[i].Obj) {
					return
				}
			}
			return
		}
		for _, e := range p.entries {
			if !yield(e.Obj) {
				return
			}
		}
	}
}

// ClearAll removes every entry.
func (p *Pool[T]) ClearAll() {
	p.entries = nil
}

// ClearByDeadline removes every entry with Deadline < now, along with
// each one's dependent closure, and returns every removed handle.
func (p *Pool[T]) ClearByDeadline(now uint32) []T {
	var removed []T
	for {
		idx := -1
		for i, e := range p.entries {
			if e.Deadline < now {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		var buf []*Unconfirmed[T]
		p.removeClosureInto(p.entries[idx].Hash, &buf)
		for _, e := range buf {
			removed = append(removed, e.Obj)
		}
	}
	return removed
}
