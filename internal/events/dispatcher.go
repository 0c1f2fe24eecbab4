package events

import (
	"sync"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/log"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/metrics"
)

// Handler receives normalized events. Handlers run synchronously on the
// callback thread and must hand long work off elsewhere.
type Handler func(Event)

// Subscription is the handle returned by Subscribe. Close removes the
// handler from its observer list; closing twice is a no-op.
type Subscription struct {
	once sync.Once
	d    *Dispatcher
	cat  Category
	id   uint64
}

// Close unregisters the handler.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.d.unsubscribe(s.cat, s.id)
	})
}

type entry struct {
	id uint64
	fn Handler
}

// Dispatcher routes normalized terminal events to per-category observer
// lists. Fan-out is synchronous and ordered by registration; the
// observer lists themselves may be mutated concurrently with dispatch.
type Dispatcher struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Category][]entry
	streams  map[Category][]*Stream
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Category][]entry),
		streams:  make(map[Category][]*Stream),
	}
}

// Subscribe registers a handler for the category. Handlers fire in
// registration order.
func (d *Dispatcher) Subscribe(cat Category, fn Handler) *Subscription {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.handlers[cat] = append(d.handlers[cat], entry{id: id, fn: fn})
	d.mu.Unlock()
	return &Subscription{d: d, cat: cat, id: id}
}

func (d *Dispatcher) unsubscribe(cat Category, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	lst := d.handlers[cat]
	out := lst[:0]
	for _, e := range lst {
		if e.id != id {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		delete(d.handlers, cat)
	} else {
		d.handlers[cat] = out
	}
}

// Dispatch normalizes one raw callback and invokes every observer of
// its category in order. Payment completion callbacks additionally
// notify refund observers: the terminal host reuses the payment
// completed callback to signal refund completion, and that ambiguity
// is preserved rather than guessed away.
func (d *Dispatcher) Dispatch(raw Raw) error {
	ev, err := Normalize(raw)
	if err != nil {
		metrics.IncUnknownEventType()
		metrics.IncEventDropped(string(raw.Category), "unknown_type")
		logger := log.WithComponent("events")
		logger.Warn().
			Str(log.FieldCategory, string(raw.Category)).
			Str(log.FieldStatus, raw.Status).
			Err(err).
			Msg("dropping unparseable terminal event")
		return err
	}

	d.deliver(ev)
	if ev.Category == CategoryPaymentCompleted {
		alias := ev
		alias.Category = CategoryRefundCompleted
		d.deliver(alias)
	}
	return nil
}

func (d *Dispatcher) deliver(ev Event) {
	d.mu.RLock()
	handlers := append([]entry(nil), d.handlers[ev.Category]...)
	streams := append([]*Stream(nil), d.streams[ev.Category]...)
	d.mu.RUnlock()

	for _, e := range handlers {
		e.fn(ev)
	}
	for _, s := range streams {
		s.offer(ev)
	}
	metrics.IncEventDispatched(string(ev.Category))
}
