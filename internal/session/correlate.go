package session

import (
	"context"
	"sync"
	"time"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/events"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

// slotName identifies one correlation point. Each operation category
// waits on its own slot so unrelated events never wake the wrong wait.
type slotName string

const (
	slotStatus              slotName = "status"
	slotLogin               slotName = "login"
	slotSessionStart        slotName = "session_start"
	slotPayment             slotName = "payment"
	slotRefund              slotName = "refund"
	slotPrint               slotName = "print"
	slotReconciliation      slotName = "reconciliation"
	slotReconciliationsList slotName = "reconciliations_list"
	slotTransactionQuery    slotName = "transaction_query"
)

// correlator matches issued commands to their confirming events. At
// most one wait is outstanding per slot; completing an unarmed slot is
// a silent no-op because the terminal also raises events nobody asked
// for.
type correlator struct {
	mu    sync.Mutex
	waits map[slotName]chan events.Event
}

func newCorrelator() *correlator {
	return &correlator{waits: make(map[slotName]chan events.Event)}
}

// arm opens the slot before the command is issued, so an event raised
// synchronously during the command call is never missed.
func (c *correlator) arm(s slotName) <-chan events.Event {
	ch := make(chan events.Event, 1)
	c.mu.Lock()
	c.waits[s] = ch
	c.mu.Unlock()
	return ch
}

// complete delivers the event to the armed wait, if any, and disarms
// the slot. The buffered channel keeps the callback thread from ever
// blocking here.
func (c *correlator) complete(s slotName, ev events.Event) {
	c.mu.Lock()
	ch, ok := c.waits[s]
	if ok {
		delete(c.waits, s)
	}
	c.mu.Unlock()
	if ok {
		ch <- ev
	}
}

func (c *correlator) disarm(s slotName) {
	c.mu.Lock()
	delete(c.waits, s)
	c.mu.Unlock()
}

// wait blocks until the slot completes, the timeout elapses, or the
// context is cancelled. The bounded wait is a deliberate deviation
// from the terminal host's indefinite-block contract: a silent device
// must not hang the orchestrator forever.
func (c *correlator) wait(ctx context.Context, s slotName, ch <-chan events.Event, timeout time.Duration) (events.Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-ch:
		return ev, nil
	case <-timer.C:
		c.disarm(s)
		return events.Event{}, faults.Timeout(string(s)+"_wait",
			"no confirming event on slot %s within %s", s, timeout)
	case <-ctx.Done():
		c.disarm(s)
		return events.Event{}, ctx.Err()
	}
}
