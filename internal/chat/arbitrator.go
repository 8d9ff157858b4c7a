package chat

import "sync/atomic"

// Arbitrator guarantees that when thread selections race, only the response
// for the most recently issued intent is ever committed. Each intent gets a
// ticket stamped with a monotonically increasing generation; a response may
// commit only while its ticket is still the newest. There is deliberately no
// queue: only the latest intent matters, and duplicate in-flight fetches for
// the same buyer are allowed (correctness of application order, not traffic
// minimization).
type Arbitrator struct {
	gen atomic.Uint64
}

// Ticket identifies one thread-fetch intent.
type Ticket struct {
	gen     uint64
	BuyerID string
}

// Begin stamps a new intent, making every earlier ticket stale.
func (a *Arbitrator) Begin(buyerID string) Ticket {
	return Ticket{gen: a.gen.Add(1), BuyerID: buyerID}
}

// Latest reports whether the ticket still represents the newest intent.
// Callers must hold the coordinator lock across Latest and the commit so the
// check-then-commit pair is atomic.
func (a *Arbitrator) Latest(t Ticket) bool {
	return t.gen == a.gen.Load()
}

// Invalidate makes every outstanding ticket stale without issuing a new
// intent. Used when the thread view closes or the session ends, so an
// in-flight response cannot resurrect a closed view.
func (a *Arbitrator) Invalidate() {
	a.gen.Add(1)
}
