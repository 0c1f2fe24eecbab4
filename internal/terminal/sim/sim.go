// Package sim is an in-process stand-in for a real payment terminal.
// It answers every command with the events a live device would raise,
// which makes the full session flow testable without hardware.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/basket"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/capability"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/events"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/log"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/receipt"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/terminal"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/userinput"
)

// PromptFunc receives simulated interactive prompts. Wired to the
// user-input mediator by the embedding application.
type PromptFunc func(ctx context.Context, inputType, prompt, message string, options []string)

// Terminal simulates the device. Events are raised synchronously on the
// calling goroutine, after the command is accepted, which mirrors the
// SDK contract that commands return before their confirming event.
type Terminal struct {
	mu           sync.Mutex
	dispatcher   *events.Dispatcher
	capabilities map[string]bool
	prompt       PromptFunc

	// DeclineNext makes the next login, session start or payment fail
	// with the distinguished "-20" status.
	declineNext bool
	// notifyViaMessage switches payment completion to the notification
	// path ("Transaction Completed" message) instead of the dedicated
	// payment completed type.
	notifyViaMessage bool

	initialized bool
	tornDown    bool

	sentResponses []userinput.Response
}

// New returns a simulator publishing into the dispatcher. A nil
// capability map enables every known capability.
func New(d *events.Dispatcher, capabilities map[string]bool) *Terminal {
	if capabilities == nil {
		capabilities = make(map[string]bool, len(capability.All()))
		for _, name := range capability.All() {
			capabilities[name] = true
		}
	}
	return &Terminal{dispatcher: d, capabilities: capabilities}
}

// SetPromptFunc registers the receiver for interactive prompts.
func (t *Terminal) SetPromptFunc(fn PromptFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prompt = fn
}

// DeclineNext makes the next operation fail with status "-20".
func (t *Terminal) DeclineNext() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.declineNext = true
}

// NotifyPaymentViaMessage switches payment completion signalling to the
// notification path.
func (t *Terminal) NotifyPaymentViaMessage(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifyViaMessage = v
}

// SentResponses returns every input response the simulator received.
func (t *Terminal) SentResponses() []userinput.Response {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]userinput.Response, len(t.sentResponses))
	copy(out, t.sentResponses)
	return out
}

func (t *Terminal) takeDecline() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.declineNext
	t.declineNext = false
	return d
}

func (t *Terminal) emit(cat events.Category, status string, typ events.EventType, message string) {
	tag := string(typ)
	raw := events.Raw{Category: cat, Status: status, Type: &tag, Message: &message}
	if err := t.dispatcher.Dispatch(raw); err != nil {
		logger := log.WithComponent("sim")
		logger.Error().Err(err).Msg("dispatch failed")
	}
}

func (t *Terminal) Initialize(_ context.Context, deviceAddr, connType string) error {
	if deviceAddr == "" {
		return fmt.Errorf("device address is empty")
	}
	if connType == "" {
		return fmt.Errorf("connection type is empty")
	}
	t.mu.Lock()
	t.initialized = true
	t.tornDown = false
	t.mu.Unlock()

	t.emit(events.CategoryStatus, "0", events.TypeStatusSuccess, "device connected")
	return nil
}

func (t *Terminal) Login(_ context.Context, username, _, _ string) error {
	if t.takeDecline() {
		t.emit(events.CategoryStatus, "-20", events.TypeLoginCompleted, "login declined")
		return nil
	}
	t.emit(events.CategoryStatus, "0", events.TypeLoginCompleted, "operator "+username+" logged in")
	return nil
}

func (t *Terminal) StartSession(_ context.Context, invoiceID string) error {
	if t.takeDecline() {
		t.emit(events.CategoryCommerce, "-20", events.TypeStatusError, "session rejected")
		return nil
	}
	t.emit(events.CategoryStatus, "0", events.TypeSessionStarted, "session started for "+invoiceID)
	return nil
}

func (t *Terminal) EndSession(_ context.Context) error {
	t.emit(events.CategoryStatus, "0", events.TypeSessionEnded, "session ended")
	return nil
}

func (t *Terminal) AddMerchandise(_ context.Context, item basket.Item, totals basket.Totals) error {
	t.emit(events.CategoryBasket, "0", events.TypeBasketEvent,
		fmt.Sprintf("added %s, subtotal %d", item.Name, totals.Subtotal))
	return nil
}

func (t *Terminal) RemoveMerchandise(_ context.Context, item basket.Item, totals basket.Totals) error {
	t.emit(events.CategoryBasket, "0", events.TypeBasketAdjusted,
		fmt.Sprintf("removed %s, subtotal %d", item.Name, totals.Subtotal))
	return nil
}

func (t *Terminal) StartPayment(_ context.Context, p terminal.Payment) error {
	if t.takeDecline() {
		t.emit(events.CategoryPaymentCompleted, "-20", events.TypeTransactionPaymentCompleted, "payment declined")
		return nil
	}
	t.mu.Lock()
	viaMessage := t.notifyViaMessage
	t.mu.Unlock()

	if viaMessage {
		t.emit(events.CategoryNotification, "0", events.TypeNotificationEvent, "Transaction Completed")
		return nil
	}
	t.emit(events.CategoryPaymentCompleted, "0", events.TypeTransactionPaymentCompleted, "payment "+p.Invoice+" completed")
	return nil
}

func (t *Terminal) ProcessRefund(_ context.Context, p terminal.Payment) error {
	// Real terminals reuse the payment completed callback for refunds;
	// the dispatcher aliases it to refund observers.
	t.emit(events.CategoryPaymentCompleted, "0", events.TypeTransactionPaymentCompleted, "refund "+p.Invoice+" completed")
	return nil
}

func (t *Terminal) ClosePeriod(_ context.Context) error {
	t.emit(events.CategoryReconciliation, "0", events.TypeReconciliationEvent, "period closed")
	return nil
}

func (t *Terminal) ClosePeriodAndReconcile(_ context.Context) error {
	t.emit(events.CategoryReconciliation, "0", events.TypeReconciliationEvent, "period closed and reconciled")
	return nil
}

func (t *Terminal) GetPreviousReconciliation(_ context.Context, reconciliationID string) error {
	t.emit(events.CategoryReconciliation, "0", events.TypeReconciliationEvent, "reconciliation "+reconciliationID)
	return nil
}

func (t *Terminal) QueryTransactions(_ context.Context, q terminal.TransactionQuery) error {
	t.emit(events.CategoryTransactionQuery, "0", events.TypeTransactionQueryEvent,
		fmt.Sprintf("query returned, offline=%v", q.Offline))
	return nil
}

func (t *Terminal) PrintReceipt(_ context.Context, r *receipt.Receipt, copies int) error {
	if t.takeDecline() {
		t.emit(events.CategoryPrint, "-20", events.TypePrintEvent, "printer unavailable")
		return nil
	}
	t.emit(events.CategoryPrint, "0", events.TypePrintEvent,
		fmt.Sprintf("printed %d copies of %s receipt", copies, r.Type))
	return nil
}

func (t *Terminal) SupportsCapability(_ context.Context, name string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.capabilities[name], nil
}

func (t *Terminal) SendInputResponse(_ context.Context, _ *userinput.Request, resp userinput.Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sentResponses = append(t.sentResponses, resp)
	return nil
}

func (t *Terminal) TearDown(_ context.Context) error {
	t.mu.Lock()
	already := t.tornDown
	t.tornDown = true
	t.initialized = false
	t.mu.Unlock()

	if !already {
		t.emit(events.CategoryStatus, "0", events.TypeStatusSuccess, "device released")
	}
	return nil
}

// RaisePrompt simulates the terminal asking for operator input.
func (t *Terminal) RaisePrompt(ctx context.Context, inputType, prompt, message string, options []string) {
	t.emit(events.CategoryUserInputRequest, "0", events.TypeUserInputEvent, message)

	t.mu.Lock()
	fn := t.prompt
	t.mu.Unlock()
	if fn != nil {
		fn(ctx, inputType, prompt, message, options)
	}
}

var _ terminal.Driver = (*Terminal)(nil)
