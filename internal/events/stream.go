package events

import (
	"sync"
	"sync/atomic"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/log"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/metrics"
)

const streamBuffer = 64

const dropLogEvery = 100

var dropCount atomic.Uint64

// Stream is a buffered channel view of one event category, for
// consumers that must not run on the callback thread (journal writers,
// UI bridges). Delivery is best-effort: if the buffer is full the event
// is dropped and counted, never blocking dispatch.
type Stream struct {
	d   *Dispatcher
	cat Category

	// mu makes offer and Close mutually exclusive: a dispatch holding
	// a pre-close snapshot of the stream list must never send on the
	// closed channel.
	mu     sync.Mutex
	closed bool
	ch     chan Event
}

// StreamOf opens a buffered stream for the category.
func (d *Dispatcher) StreamOf(cat Category) *Stream {
	s := &Stream{d: d, cat: cat, ch: make(chan Event, streamBuffer)}
	d.mu.Lock()
	d.streams[cat] = append(d.streams[cat], s)
	d.mu.Unlock()
	return s
}

// C returns the receive side of the stream. The channel is closed by
// Close.
func (s *Stream) C() <-chan Event {
	return s.ch
}

// Close detaches the stream from the dispatcher and closes the channel.
// Safe to call more than once, and safe while dispatch is in flight.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	d := s.d
	d.mu.Lock()
	lst := d.streams[s.cat]
	out := lst[:0]
	for _, c := range lst {
		if c != s {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		delete(d.streams, s.cat)
	} else {
		d.streams[s.cat] = out
	}
	d.mu.Unlock()
}

func (s *Stream) offer(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		metrics.IncEventDropped(string(s.cat), "stream_full")
		count := dropCount.Add(1)
		if count%dropLogEvery == 0 {
			logger := log.WithComponent("events")
			logger.Warn().
				Str(log.FieldCategory, string(s.cat)).
				Uint64("dropped", count).
				Msg("event stream buffer full, dropping")
		}
	}
}
