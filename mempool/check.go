package mempool

import (
	"fmt"
	"math/rand"
)

// Check runs a full invariant sweep with probability checkFrequency
// (set via SetCheckFrequency) and panics on the first violation found.
// It exists for the same reason traditional mempool implementations
// carry one: a bug here corrupts ordering, disturb-repair, or closure
// removal silently, and panicking loudly in a test or a debug build is
// far cheaper than chasing down why block assembly skipped something.
//
// With checkFrequency left at zero (the default), Check is a no-op.
func (p *Pool[T]) Check() {
	if p.checkFrequency <= 0 {
		return
	}
	if p.checkFrequency < 1 && rand.Float64() >= p.checkFrequency {
		return
	}

	seen := make(map[Hash]int, len(p.entries))
	for i, e := range p.entries {
		if _, dup := seen[e.Hash]; dup {
			p.fail("duplicate hash in pool: %x", e.Hash)
		}
		seen[e.Hash] = i
	}

	for i, e := range p.entries {
		for dep := range e.Depends {
			parentIdx, ok := seen[dep]
			if !ok {
				continue // parent not in pool: not this pool's concern
			}
			if parentIdx >= i {
				p.fail("entry %x at %d depends on %x at %d: parent does not precede child", e.Hash, i, dep, parentIdx)
			}
		}
	}

	for i := 1; i < len(p.entries); i++ {
		prev, cur := p.entries[i-1], p.entries[i]
		if _, parentOfCur := prev.Depends[cur.Hash]; parentOfCur {
			p.fail("entry %x at %d depends on entry %x immediately after it at %d", prev.Hash, i-1, cur.Hash, i)
		}
		if cur.outranks(prev) {
			if _, curIsParentOfPrev := cur.Depends[prev.Hash]; !curIsParentOfPrev {
				p.fail("priority inversion: %x at %d outranks %x at %d with no topological constraint", cur.Hash, i, prev.Hash, i-1)
			}
		}
	}
}

func (p *Pool[T]) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.log != nil {
		p.log.WithField("component", "mempool").Error(msg)
	}
	panic("mempool: invariant violation: " + msg)
}
