// Package session drives the terminal through the login, session,
// payment and refund workflow. Every operation issues one command and
// blocks until its correlated event arrives, then advances the state
// machine only on a confirmed success status.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/basket"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/capability"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/events"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/log"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/metrics"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/receipt"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/terminal"
)

// StatusSuccess is the status code the terminal reports on success.
const StatusSuccess = "0"

// StatusDeclined is the distinguished failure meaning declined or
// cancelled. It additionally unblocks a pending generic status wait so
// a failed login cannot hang a dependent flow.
const StatusDeclined = "-20"

const refundTimestampLayout = "20060102150405"

// Config carries the connection parameters and wait bounds.
type Config struct {
	DeviceAddress      string
	ConnectionType     string
	ConnectTimeout     time.Duration
	TransactionTimeout time.Duration
}

// PaymentRecord is one completed payment or refund.
type PaymentRecord struct {
	LocalID     string
	Invoice     string
	Currency    string
	Amount      int64 // minor units; 0 for a full linked refund
	Refund      bool
	CompletedAt time.Time
}

// Orchestrator sequences terminal operations. Public operations are
// serialised internally; event callbacks only touch the correlator.
type Orchestrator struct {
	cfg        Config
	driver     terminal.Driver
	dispatcher *events.Dispatcher
	caps       *capability.Registry
	correlate  *correlator
	machine    *machine
	logger     zerolog.Logger

	opMu     sync.Mutex
	basket   *basket.Basket
	payments []PaymentRecord

	subs     []*events.Subscription
	tearOnce sync.Once

	now func() time.Time
}

// New wires the orchestrator to the driver and subscribes its
// correlation handlers on the dispatcher.
func New(cfg Config, driver terminal.Driver, dispatcher *events.Dispatcher) *Orchestrator {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.TransactionTimeout <= 0 {
		cfg.TransactionTimeout = 60 * time.Second
	}
	o := &Orchestrator{
		cfg:        cfg,
		driver:     driver,
		dispatcher: dispatcher,
		caps:       capability.NewRegistry(driver),
		correlate:  newCorrelator(),
		machine:    newMachine(),
		logger:     log.WithComponent("session"),
		basket:     basket.New(),
		now:        time.Now,
	}

	o.subs = append(o.subs,
		dispatcher.Subscribe(events.CategoryStatus, o.onStatus),
		dispatcher.Subscribe(events.CategoryCommerce, o.onCommerce),
		dispatcher.Subscribe(events.CategoryNotification, o.onNotification),
		dispatcher.Subscribe(events.CategoryPaymentCompleted, o.onPaymentCompleted),
		dispatcher.Subscribe(events.CategoryRefundCompleted, o.onRefundCompleted),
		dispatcher.Subscribe(events.CategoryPrint, func(ev events.Event) {
			o.correlate.complete(slotPrint, ev)
		}),
		dispatcher.Subscribe(events.CategoryReconciliation, func(ev events.Event) {
			o.correlate.complete(slotReconciliation, ev)
		}),
		dispatcher.Subscribe(events.CategoryReconciliationsList, func(ev events.Event) {
			o.correlate.complete(slotReconciliationsList, ev)
		}),
		dispatcher.Subscribe(events.CategoryTransactionQuery, func(ev events.Event) {
			o.correlate.complete(slotTransactionQuery, ev)
		}),
	)

	metrics.SetSessionState(string(StateUninitialized), StateNames())
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.machine.current()
}

// Basket exposes the current line items.
func (o *Orchestrator) Basket() *basket.Basket {
	return o.basket
}

// Payments returns a copy of the completed payment and refund records.
func (o *Orchestrator) Payments() []PaymentRecord {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	out := make([]PaymentRecord, len(o.payments))
	copy(out, o.payments)
	return out
}

// Capabilities exposes the live capability registry.
func (o *Orchestrator) Capabilities() *capability.Registry {
	return o.caps
}

// --- event correlation -------------------------------------------------

func (o *Orchestrator) onStatus(ev events.Event) {
	switch ev.Type {
	case events.TypeLoginCompleted:
		// Always releases the login wait, whatever the status. A
		// declined login additionally releases the generic status wait.
		o.correlate.complete(slotLogin, ev)
		if ev.Status == StatusDeclined {
			o.correlate.complete(slotStatus, ev)
		}
	case events.TypeSessionStarted:
		if ev.Status == StatusSuccess {
			o.correlate.complete(slotSessionStart, ev)
		}
	case events.TypeSessionEnded:
		if ev.Status == StatusSuccess {
			o.correlate.complete(slotStatus, ev)
		}
	default:
		o.correlate.complete(slotStatus, ev)
	}
}

func (o *Orchestrator) onCommerce(ev events.Event) {
	// A commerce-level error with the declined status is how the host
	// reports a rejected session start.
	if ev.Type == events.TypeStatusError && ev.Status == StatusDeclined {
		o.correlate.complete(slotSessionStart, ev)
	}
}

func (o *Orchestrator) onNotification(ev events.Event) {
	if ev.Message == "Transaction Completed" {
		o.correlate.complete(slotPayment, ev)
	}
}

func (o *Orchestrator) onPaymentCompleted(ev events.Event) {
	if ev.Type == events.TypeTransactionPaymentCompleted {
		o.correlate.complete(slotPayment, ev)
	}
}

func (o *Orchestrator) onRefundCompleted(ev events.Event) {
	o.correlate.complete(slotRefund, ev)
}

// --- operation plumbing ------------------------------------------------

// operate arms the slot, issues the command, and waits for the
// confirming event within the timeout.
func (o *Orchestrator) operate(ctx context.Context, opName string, slot slotName, timeout time.Duration, issue func(context.Context) error) (events.Event, error) {
	ctx = log.WithCorrelationID(ctx, uuid.NewString())
	start := o.now()

	ch := o.correlate.arm(slot)
	if err := issue(ctx); err != nil {
		o.correlate.disarm(slot)
		o.finish(ctx, opName, start, err)
		return events.Event{}, fmt.Errorf("%s: %w", opName, err)
	}

	ev, err := o.correlate.wait(ctx, slot, ch, timeout)
	o.finish(ctx, opName, start, err)
	return ev, err
}

func (o *Orchestrator) finish(ctx context.Context, opName string, start time.Time, err error) {
	elapsed := o.now().Sub(start)
	metrics.IncOperation(opName, faults.Classify(err))
	metrics.ObserveOperationSeconds(opName, elapsed.Seconds())

	logger := log.FromContext(ctx)
	evt := logger.Info()
	if err != nil {
		evt = logger.Warn().Err(err)
	}
	evt.Str(log.FieldEvent, opName).
		Str(log.FieldState, string(o.machine.current())).
		Int64(log.FieldDuration, elapsed.Milliseconds()).
		Msg("operation finished")
}

func (o *Orchestrator) setState(s State) {
	metrics.SetSessionState(string(s), StateNames())
}

// --- lifecycle operations ----------------------------------------------

// Initialize connects to the device and waits for the generic status
// confirmation.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if o.cfg.DeviceAddress == "" {
		return faults.Validation("empty_device_address", "device address must not be empty")
	}
	if o.cfg.ConnectionType == "" {
		return faults.Validation("empty_connection_type", "connection type must not be empty")
	}
	if err := o.machine.require("Initialize", StateUninitialized); err != nil {
		return err
	}

	ev, err := o.operate(ctx, "initialize", slotStatus, o.cfg.ConnectTimeout, func(ctx context.Context) error {
		return o.driver.Initialize(ctx, o.cfg.DeviceAddress, o.cfg.ConnectionType)
	})
	if err != nil {
		return err
	}
	if ev.Status != StatusSuccess {
		return faults.TerminalFailure("initialize_failed", "device reported status %s: %s", ev.Status, ev.Message)
	}
	if err := o.machine.advance("Initialize", StateUninitialized, StateInitialized); err != nil {
		return err
	}
	o.setState(StateInitialized)
	return nil
}

// Login authenticates the operator and waits for LOGIN_COMPLETED.
func (o *Orchestrator) Login(ctx context.Context, username, password, shift string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if username == "" || password == "" || shift == "" {
		return faults.Validation("empty_credentials", "username, password and shift must not be empty")
	}
	if err := o.machine.require("Login", StateInitialized); err != nil {
		return err
	}

	ev, err := o.operate(ctx, "login", slotLogin, o.cfg.ConnectTimeout, func(ctx context.Context) error {
		return o.driver.Login(ctx, username, password, shift)
	})
	if err != nil {
		return err
	}
	switch ev.Status {
	case StatusSuccess:
	case StatusDeclined:
		return faults.TerminalFailure("login_declined", "login declined by terminal: %s", ev.Message)
	default:
		return faults.TerminalFailure("login_failed", "login failed with status %s: %s", ev.Status, ev.Message)
	}
	if err := o.machine.advance("Login", StateInitialized, StateLoggedIn); err != nil {
		return err
	}
	o.setState(StateLoggedIn)
	return nil
}

// StartSession opens a transaction session for the invoice.
func (o *Orchestrator) StartSession(ctx context.Context, invoiceID string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if invoiceID == "" {
		return faults.Validation("empty_invoice", "invoice id must not be empty")
	}
	if err := o.machine.require("StartSession", StateLoggedIn); err != nil {
		return err
	}

	ev, err := o.operate(ctx, "start_session", slotSessionStart, o.cfg.TransactionTimeout, func(ctx context.Context) error {
		return o.driver.StartSession(ctx, invoiceID)
	})
	if err != nil {
		return err
	}
	if ev.Status != StatusSuccess {
		return faults.TerminalFailure("session_rejected", "session start rejected with status %s: %s", ev.Status, ev.Message)
	}
	if err := o.machine.advance("StartSession", StateLoggedIn, StateSessionActive); err != nil {
		return err
	}
	o.setState(StateSessionActive)
	return nil
}

// EndSession closes the active session and clears the basket.
func (o *Orchestrator) EndSession(ctx context.Context) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if err := o.machine.require("EndSession", StateSessionActive); err != nil {
		return err
	}

	ev, err := o.operate(ctx, "end_session", slotStatus, o.cfg.TransactionTimeout, func(ctx context.Context) error {
		return o.driver.EndSession(ctx)
	})
	if err != nil {
		return err
	}
	if ev.Status != StatusSuccess {
		return faults.TerminalFailure("end_session_failed", "end session failed with status %s: %s", ev.Status, ev.Message)
	}
	if err := o.machine.advance("EndSession", StateSessionActive, StateLoggedIn); err != nil {
		return err
	}
	o.basket.Clear()
	metrics.SetBasketItems(0)
	o.setState(StateLoggedIn)
	return nil
}

// --- basket operations -------------------------------------------------

// AddItem appends merchandise to the basket and mirrors the new totals
// to the terminal. Basket events are informational; the call does not
// block on one.
func (o *Orchestrator) AddItem(ctx context.Context, item basket.Item) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if item.Price <= 0 {
		return faults.Validation("non_positive_price", "item price must be > 0, got %d", item.Price)
	}
	if item.Tax < 0 || item.Gratuity < 0 {
		return faults.Validation("negative_amount", "tax and gratuity must not be negative")
	}
	if err := o.machine.require("AddItem", StateSessionActive); err != nil {
		return err
	}

	o.basket.Add(item)
	totals, _ := o.basket.Totals()
	metrics.SetBasketItems(o.basket.Len())

	if err := o.driver.AddMerchandise(ctx, item, totals); err != nil {
		return fmt.Errorf("add merchandise: %w", err)
	}
	return nil
}

// RemoveItem removes the most recently added item. Removing from an
// empty basket is a no-op, not an error.
func (o *Orchestrator) RemoveItem(ctx context.Context) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if err := o.machine.require("RemoveItem", StateSessionActive); err != nil {
		return err
	}

	removed, ok := o.basket.RemoveLast()
	if !ok {
		return nil
	}
	totals, _ := o.basket.Totals()
	metrics.SetBasketItems(o.basket.Len())

	if err := o.driver.RemoveMerchandise(ctx, removed, totals); err != nil {
		return fmt.Errorf("remove merchandise: %w", err)
	}
	return nil
}

// --- payment and refunds -----------------------------------------------

// Pay charges the amount and waits for either completion signal: the
// dedicated payment completed event or a notification whose message is
// exactly "Transaction Completed".
func (o *Orchestrator) Pay(ctx context.Context, amount int64, invoiceID, currency string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if amount <= 0 {
		return faults.Validation("non_positive_amount", "payment amount must be > 0, got %d", amount)
	}
	if invoiceID == "" {
		return faults.Validation("empty_invoice", "invoice id must not be empty")
	}
	if currency == "" {
		return faults.Validation("empty_currency", "currency must not be empty")
	}
	if err := o.machine.require("Pay", StateSessionActive); err != nil {
		return err
	}
	if o.basket.Empty() {
		return faults.Precondition("empty_basket", "cannot pay with an empty basket")
	}

	p := terminal.Payment{
		LocalID:  invoiceID,
		Invoice:  invoiceID,
		Currency: currency,
		Amount:   &amount,
	}
	ev, err := o.operate(ctx, "pay", slotPayment, o.cfg.TransactionTimeout, func(ctx context.Context) error {
		return o.driver.StartPayment(ctx, p)
	})
	if err != nil {
		return err
	}
	if ev.Status != StatusSuccess {
		return faults.TerminalFailure("payment_failed", "payment failed with status %s: %s", ev.Status, ev.Message)
	}

	o.payments = append(o.payments, PaymentRecord{
		LocalID:     invoiceID,
		Invoice:     invoiceID,
		Currency:    currency,
		Amount:      amount,
		CompletedAt: o.now(),
	})
	return nil
}

// LinkedRefund refunds against a completed payment. A nil amount means
// the terminal refunds the full original amount itself; the
// orchestrator never computes it locally.
func (o *Orchestrator) LinkedRefund(ctx context.Context, originalPaymentID string, amount *int64, currency string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if originalPaymentID == "" {
		return faults.Validation("empty_original_payment", "original payment id must not be empty")
	}
	if amount != nil && *amount <= 0 {
		return faults.Validation("non_positive_amount", "refund amount must be > 0, got %d", *amount)
	}
	if currency == "" {
		return faults.Validation("empty_currency", "currency must not be empty")
	}
	if err := o.machine.require("LinkedRefund", StateSessionActive); err != nil {
		return err
	}
	if !o.hasCompletedPayment() {
		return faults.Precondition("no_completed_payment", "linked refund requires a completed payment")
	}

	invoice := fmt.Sprintf("REFUND-%s-%s", originalPaymentID, o.now().Format(refundTimestampLayout))
	p := terminal.Payment{
		LocalID:  originalPaymentID,
		Invoice:  invoice,
		Currency: currency,
		Amount:   amount,
	}
	ev, err := o.operate(ctx, "linked_refund", slotRefund, o.cfg.TransactionTimeout, func(ctx context.Context) error {
		return o.driver.ProcessRefund(ctx, p)
	})
	if err != nil {
		return err
	}
	if ev.Status != StatusSuccess {
		return faults.TerminalFailure("refund_failed", "refund failed with status %s: %s", ev.Status, ev.Message)
	}

	rec := PaymentRecord{
		LocalID:     originalPaymentID,
		Invoice:     invoice,
		Currency:    currency,
		Refund:      true,
		CompletedAt: o.now(),
	}
	if amount != nil {
		rec.Amount = *amount
	}
	o.payments = append(o.payments, rec)
	return nil
}

// UnlinkedRefund issues a standalone refund with a mandatory positive
// amount.
func (o *Orchestrator) UnlinkedRefund(ctx context.Context, amount int64, currency, invoiceID string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if amount <= 0 {
		return faults.Validation("non_positive_amount", "refund amount must be > 0, got %d", amount)
	}
	if currency == "" {
		return faults.Validation("empty_currency", "currency must not be empty")
	}
	if err := o.machine.require("UnlinkedRefund", StateSessionActive); err != nil {
		return err
	}

	localID := invoiceID
	if localID == "" {
		localID = fmt.Sprintf("UNLINKED-REFUND-%s", o.now().Format(refundTimestampLayout))
	}
	p := terminal.Payment{
		LocalID:  localID,
		Invoice:  localID,
		Currency: currency,
		Amount:   &amount,
	}
	ev, err := o.operate(ctx, "unlinked_refund", slotRefund, o.cfg.TransactionTimeout, func(ctx context.Context) error {
		return o.driver.ProcessRefund(ctx, p)
	})
	if err != nil {
		return err
	}
	if ev.Status != StatusSuccess {
		return faults.TerminalFailure("refund_failed", "refund failed with status %s: %s", ev.Status, ev.Message)
	}

	o.payments = append(o.payments, PaymentRecord{
		LocalID:     localID,
		Invoice:     localID,
		Currency:    currency,
		Amount:      amount,
		Refund:      true,
		CompletedAt: o.now(),
	})
	return nil
}

func (o *Orchestrator) hasCompletedPayment() bool {
	for _, p := range o.payments {
		if !p.Refund {
			return true
		}
	}
	return false
}

// --- reporting operations ----------------------------------------------

// ClosePeriod closes the current reporting period. Gated on the close
// period capability before any command is issued.
func (o *Orchestrator) ClosePeriod(ctx context.Context) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if err := o.caps.Require(ctx, capability.ClosePeriod); err != nil {
		return err
	}
	return o.reportingOp(ctx, "close_period", slotReconciliation, func(ctx context.Context) error {
		return o.driver.ClosePeriod(ctx)
	})
}

// ClosePeriodAndReconcile closes the period and runs reconciliation in
// one step.
func (o *Orchestrator) ClosePeriodAndReconcile(ctx context.Context) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if err := o.caps.Require(ctx, capability.ClosePeriodAndReconcile); err != nil {
		return err
	}
	return o.reportingOp(ctx, "close_period_and_reconcile", slotReconciliation, func(ctx context.Context) error {
		return o.driver.ClosePeriodAndReconcile(ctx)
	})
}

// GetPreviousReconciliation fetches a historical reconciliation report.
func (o *Orchestrator) GetPreviousReconciliation(ctx context.Context, reconciliationID string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if reconciliationID == "" {
		return faults.Validation("empty_reconciliation_id", "reconciliation id must not be empty")
	}
	if err := o.caps.Require(ctx, capability.GetPreviousReconciliation); err != nil {
		return err
	}
	return o.reportingOp(ctx, "get_previous_reconciliation", slotReconciliation, func(ctx context.Context) error {
		return o.driver.GetPreviousReconciliation(ctx, reconciliationID)
	})
}

// QueryTransactions runs a historical transaction query.
func (o *Orchestrator) QueryTransactions(ctx context.Context, q terminal.TransactionQuery) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if err := o.caps.Require(ctx, capability.TransactionQuery); err != nil {
		return err
	}
	return o.reportingOp(ctx, "query_transactions", slotTransactionQuery, func(ctx context.Context) error {
		return o.driver.QueryTransactions(ctx, q)
	})
}

// QuerySAFTransactions reports store-and-forward transactions captured
// while the terminal was offline. Convenience over QueryTransactions.
func (o *Orchestrator) QuerySAFTransactions(ctx context.Context, startTime time.Time, endTime *time.Time) error {
	return o.QueryTransactions(ctx, terminal.TransactionQuery{
		Offline:   true,
		StartTime: &startTime,
		EndTime:   endTime,
	})
}

// PrintingSupported reports whether the terminal host can print
// receipts under either printing capability name.
func (o *Orchestrator) PrintingSupported(ctx context.Context) bool {
	return o.caps.PrintingSupported(ctx)
}

// PrintReceipt sends the receipt to the device printer and waits for
// the confirming print event.
func (o *Orchestrator) PrintReceipt(ctx context.Context, r *receipt.Receipt, copies int) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if r == nil {
		return faults.Validation("nil_receipt", "receipt must not be nil")
	}
	if copies <= 0 {
		return faults.Validation("non_positive_copies", "copies must be > 0, got %d", copies)
	}
	if !o.caps.PrintingSupported(ctx) {
		return faults.CapabilityUnsupported(capability.Print)
	}

	ev, err := o.operate(ctx, "print_receipt", slotPrint, o.cfg.TransactionTimeout, func(ctx context.Context) error {
		return o.driver.PrintReceipt(ctx, r, copies)
	})
	if err != nil {
		return err
	}
	if ev.Status != StatusSuccess {
		return faults.TerminalFailure("print_failed", "print failed with status %s: %s", ev.Status, ev.Message)
	}
	return nil
}

func (o *Orchestrator) reportingOp(ctx context.Context, name string, slot slotName, issue func(context.Context) error) error {
	ev, err := o.operate(ctx, name, slot, o.cfg.TransactionTimeout, issue)
	if err != nil {
		return err
	}
	if ev.Status != StatusSuccess {
		return faults.TerminalFailure(name+"_failed", "%s failed with status %s: %s", name, ev.Status, ev.Message)
	}
	return nil
}

// --- teardown ----------------------------------------------------------

// TearDown releases the terminal resources. It is idempotent, callable
// from any state, and never returns an error; a failing driver is
// logged and swallowed.
func (o *Orchestrator) TearDown(ctx context.Context) {
	o.tearOnce.Do(func() {
		if err := o.driver.TearDown(ctx); err != nil {
			o.logger.Warn().Err(err).Msg("teardown reported an error")
		}
		for _, s := range o.subs {
			s.Close()
		}
		o.machine.force(StateTornDown)
		o.setState(StateTornDown)
		o.logger.Info().Msg("terminal resources released")
	})
}
