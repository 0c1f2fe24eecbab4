package userinput

import (
	"context"
	"sync"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

// Response is the single typed value sent back for a Request.
type Response struct {
	Kind      Kind
	Text      string
	Numeric   int64 // minor currency units
	Selection int
	Confirmed bool
}

// Sender transmits a response to the terminal. Implemented by the
// terminal driver.
type Sender interface {
	SendInputResponse(ctx context.Context, req *Request, resp Response) error
}

// Slot is the single-use response channel paired with one Request.
// Exactly one Set call may precede Send; setting twice, sending twice,
// or sending without a value is a protocol violation.
type Slot struct {
	mu     sync.Mutex
	req    *Request
	sender Sender
	resp   Response
	set    bool
	sent   bool
}

// NewSlot pairs a fresh slot with the request.
func NewSlot(req *Request, sender Sender) *Slot {
	return &Slot{req: req, sender: sender}
}

func (s *Slot) setResponse(resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return faults.Protocol("response_already_set", "response slot already holds a %s value", s.resp.Kind)
	}
	s.resp = resp
	s.set = true
	return nil
}

// SetText stores a text response.
func (s *Slot) SetText(value string) error {
	return s.setResponse(Response{Kind: KindText, Text: value})
}

// SetNumeric stores a numeric response in minor currency units.
func (s *Slot) SetNumeric(value int64) error {
	return s.setResponse(Response{Kind: KindNumeric, Numeric: value})
}

// SetSelection stores the index of the chosen option.
func (s *Slot) SetSelection(index int) error {
	if index < 0 || (len(s.req.Options) > 0 && index >= len(s.req.Options)) {
		return faults.Validation("selection_out_of_range", "selection index %d out of range", index)
	}
	return s.setResponse(Response{Kind: KindSelection, Selection: index})
}

// SetConfirmation stores an OK/Cancel response.
func (s *Slot) SetConfirmation(confirmed bool) error {
	return s.setResponse(Response{Kind: KindConfirmation, Confirmed: confirmed})
}

// Send transmits the stored response exactly once.
func (s *Slot) Send(ctx context.Context) error {
	s.mu.Lock()
	if !s.set {
		s.mu.Unlock()
		return faults.Protocol("response_not_set", "no response value set before send")
	}
	if s.sent {
		s.mu.Unlock()
		return faults.Protocol("response_already_sent", "response already transmitted")
	}
	s.sent = true
	resp := s.resp
	req := s.req
	s.mu.Unlock()

	return s.sender.SendInputResponse(ctx, req, resp)
}

// Sent reports whether a response has been transmitted.
func (s *Slot) Sent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}
