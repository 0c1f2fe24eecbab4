package userinput

import (
	"context"
	"fmt"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/log"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/metrics"
)

func fmtPanic(r any) error {
	return fmt.Errorf("operator handler panicked: %v", r)
}

// Handler collects a response from the operator. It must set a value on
// the slot and call Send; if it fails to do either, the mediator sends
// a safe default on its behalf.
type Handler func(ctx context.Context, req *Request, slot *Slot) error

// Mediator routes terminal prompts to an operator handler and enforces
// the liveness guarantee: the terminal always gets a response, no
// matter what the operator side does.
type Mediator struct {
	sender  Sender
	handler Handler
}

// NewMediator wires the sender and the operator handler. A nil handler
// means every prompt that needs input gets the safe default.
func NewMediator(sender Sender, handler Handler) *Mediator {
	return &Mediator{sender: sender, handler: handler}
}

// HandlePrompt processes one interactive prompt end to end. Display
// only prompts are auto-acknowledged; unknown input kinds and operator
// failures fall back to an affirmative default response.
func (m *Mediator) HandlePrompt(ctx context.Context, inputType, prompt, message string, options []string) *Request {
	req := NewRequest(inputType, prompt, message, options)
	slot := NewSlot(req, m.sender)
	logger := log.WithComponent("userinput")

	metrics.IncInputRequest(string(req.Kind))

	if !req.RequiresInput {
		m.sendDefault(ctx, req, slot)
		return req
	}

	if req.Kind == KindUnknown || m.handler == nil {
		logger.Warn().
			Str("input_type", req.InputType).
			Msg("no operator path for prompt, sending default response")
		m.sendDefault(ctx, req, slot)
		return req
	}

	if err := m.invoke(ctx, req, slot); err != nil {
		logger.Error().
			Str("input_type", req.InputType).
			Err(err).
			Msg("operator handler failed")
	}
	if !slot.Sent() {
		m.sendDefault(ctx, req, slot)
	}
	return req
}

// invoke runs the operator handler, converting panics into errors so a
// broken handler cannot leave the terminal waiting.
func (m *Mediator) invoke(ctx context.Context, req *Request, slot *Slot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmtPanic(r)
		}
	}()
	return m.handler(ctx, req, slot)
}

// sendDefault transmits the affirmative fallback response. If the
// operator already set a value but never sent it, that value is used.
func (m *Mediator) sendDefault(ctx context.Context, req *Request, slot *Slot) {
	logger := log.WithComponent("userinput")

	slot.mu.Lock()
	needsValue := !slot.set
	slot.mu.Unlock()

	if needsValue {
		if err := slot.SetConfirmation(true); err != nil {
			logger.Error().Err(err).Msg("unable to stage default response")
			return
		}
	}
	if req.RequiresInput {
		metrics.IncInputDefaultResponse()
	}
	if err := slot.Send(ctx); err != nil {
		logger.Error().
			Str("input_type", req.InputType).
			Err(err).
			Msg("failed to send response to terminal")
	}
}
