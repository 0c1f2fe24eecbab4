// Package capability exposes the named boolean feature flags of the
// terminal host. Queries always go to the host; results are never
// cached here because support can change when the terminal re-pairs
// with a different acquirer host.
package capability

import (
	"context"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

// Capability names consumed verbatim by the terminal host.
const (
	GetActiveTotals           = "GET_ACTIVE_TOTALS_CAPABILITY"
	GetGroupTotals            = "GET_GROUP_TOTALS_CAPABILITY"
	ClosePeriod               = "CLOSE_PERIOD_CAPABILITY"
	TerminalReconciliation    = "TERMINAL_RECONCILIATION_CAPABILITY"
	AcquirerReconciliation    = "ACQUIRER_RECONCILIATION_CAPABILITY"
	PreviousReconciliation    = "PREVIOUS_RECONCILIATION_CAPABILITY"
	TransactionQuery          = "TRANSACTION_QUERY_CAPABILITY"
	TotalsGroupID             = "TOTALS_GROUP_ID_CAPABILITY"
	ClosePeriodAndReconcile   = "CLOSE_PERIOD_AND_RECONCILE_CAPABILITY"
	GetPreviousReconciliation = "GET_PREVIOUS_RECONCILIATION_CAPABILITY"
	ReconciliationList        = "RECONCILIATION_LIST_CAPABILITY"
	ReconciliationReport      = "RECONCILIATION_REPORT_CAPABILITY"
)

// Printing capabilities. Hosts differ on which of the two names they
// expose, so printing support means either one answers true.
const (
	Print        = "PRINT_CAPABILITY"
	ReceiptPrint = "RECEIPT_PRINT_CAPABILITY"
)

// All lists every known capability name.
func All() []string {
	return []string{
		GetActiveTotals,
		GetGroupTotals,
		ClosePeriod,
		TerminalReconciliation,
		AcquirerReconciliation,
		PreviousReconciliation,
		TransactionQuery,
		TotalsGroupID,
		ClosePeriodAndReconcile,
		GetPreviousReconciliation,
		ReconciliationList,
		ReconciliationReport,
		Print,
		ReceiptPrint,
	}
}

// Prober answers live capability queries. Implemented by the terminal
// driver.
type Prober interface {
	SupportsCapability(ctx context.Context, name string) (bool, error)
}

// Registry validates capability queries and forwards them to the host.
type Registry struct {
	prober Prober
}

// NewRegistry wraps the given prober.
func NewRegistry(p Prober) *Registry {
	return &Registry{prober: p}
}

// Supported reports whether the host supports the named capability.
// The name must be non-empty; the answer is fetched fresh each call.
func (r *Registry) Supported(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, faults.Validation("empty_capability_name", "capability name must not be empty")
	}
	return r.prober.SupportsCapability(ctx, name)
}

// PrintingSupported reports whether the host can print receipts, under
// either printing capability name. A failing probe counts as
// unsupported rather than an error; printing is best-effort.
func (r *Registry) PrintingSupported(ctx context.Context) bool {
	if ok, err := r.prober.SupportsCapability(ctx, Print); err == nil && ok {
		return true
	}
	ok, err := r.prober.SupportsCapability(ctx, ReceiptPrint)
	return err == nil && ok
}

// Require returns a CapabilityUnsupportedError unless the host supports
// the named capability. Used to gate reporting operations before any
// terminal command is issued.
func (r *Registry) Require(ctx context.Context, name string) error {
	ok, err := r.Supported(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return faults.CapabilityUnsupported(name)
	}
	return nil
}
