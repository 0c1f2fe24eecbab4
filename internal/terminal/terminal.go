// Package terminal defines the command port to the payment terminal.
// Implementations translate these calls into whatever binding the
// vendor SDK requires; confirmations arrive out-of-band as events.
package terminal

import (
	"context"
	"time"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/basket"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/receipt"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/userinput"
)

// Payment is a payment or refund command. Amount is in minor currency
// units; a nil Amount on a refund means the terminal refunds the full
// original amount itself.
type Payment struct {
	LocalID  string
	Invoice  string
	Currency string
	Amount   *int64
	SaleNote string
}

// TransactionQuery selects which historical transactions to report.
type TransactionQuery struct {
	AllPOS    bool
	Offline   bool
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// Driver issues commands to the terminal. Every method returns once the
// command is accepted by the transport; completion is signalled by a
// correlated event, never by the return value.
type Driver interface {
	Initialize(ctx context.Context, deviceAddr, connType string) error
	Login(ctx context.Context, username, password, shift string) error
	StartSession(ctx context.Context, invoiceID string) error
	EndSession(ctx context.Context) error

	AddMerchandise(ctx context.Context, item basket.Item, totals basket.Totals) error
	RemoveMerchandise(ctx context.Context, item basket.Item, totals basket.Totals) error

	StartPayment(ctx context.Context, p Payment) error
	ProcessRefund(ctx context.Context, p Payment) error

	ClosePeriod(ctx context.Context) error
	ClosePeriodAndReconcile(ctx context.Context) error
	GetPreviousReconciliation(ctx context.Context, reconciliationID string) error
	QueryTransactions(ctx context.Context, q TransactionQuery) error

	// PrintReceipt asks the device printer for the given number of
	// copies. Completion arrives as a print event.
	PrintReceipt(ctx context.Context, r *receipt.Receipt, copies int) error

	SupportsCapability(ctx context.Context, name string) (bool, error)
	SendInputResponse(ctx context.Context, req *userinput.Request, resp userinput.Response) error

	// TearDown releases the device connection and log handle. It must
	// tolerate being called in any state, including before Initialize.
	TearDown(ctx context.Context) error
}
