package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

type fakeProber struct {
	supported map[string]bool
	queries   []string
}

func (f *fakeProber) SupportsCapability(_ context.Context, name string) (bool, error) {
	f.queries = append(f.queries, name)
	return f.supported[name], nil
}

func TestSupportedRejectsEmptyName(t *testing.T) {
	p := &fakeProber{}
	r := NewRegistry(p)

	_, err := r.Supported(context.Background(), "")
	require.ErrorIs(t, err, faults.ErrValidation)
	require.Empty(t, p.queries, "no host round trip on invalid input")
}

func TestSupportedQueriesLiveEachCall(t *testing.T) {
	p := &fakeProber{supported: map[string]bool{ClosePeriod: true}}
	r := NewRegistry(p)

	for i := 0; i < 3; i++ {
		ok, err := r.Supported(context.Background(), ClosePeriod)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Len(t, p.queries, 3, "answers must not be cached")
}

func TestRequireUnsupported(t *testing.T) {
	r := NewRegistry(&fakeProber{})

	err := r.Require(context.Background(), TransactionQuery)
	require.ErrorIs(t, err, faults.ErrCapabilityUnsupported)
	require.Contains(t, err.Error(), TransactionQuery)
}

func TestRequireSupported(t *testing.T) {
	r := NewRegistry(&fakeProber{supported: map[string]bool{ReconciliationList: true}})
	require.NoError(t, r.Require(context.Background(), ReconciliationList))
}

func TestAllNamesAreUnique(t *testing.T) {
	names := All()
	require.Len(t, names, 14)
	seen := map[string]bool{}
	for _, n := range names {
		require.NotEmpty(t, n)
		require.False(t, seen[n])
		seen[n] = true
	}
}

func TestPrintingSupportedEitherName(t *testing.T) {
	require.True(t, NewRegistry(&fakeProber{supported: map[string]bool{Print: true}}).
		PrintingSupported(context.Background()))
	require.True(t, NewRegistry(&fakeProber{supported: map[string]bool{ReceiptPrint: true}}).
		PrintingSupported(context.Background()))
	require.False(t, NewRegistry(&fakeProber{}).PrintingSupported(context.Background()))
}

type failingProber struct{}

func (failingProber) SupportsCapability(context.Context, string) (bool, error) {
	return false, errors.New("host unreachable")
}

func TestPrintingSupportedProbeFailureMeansUnsupported(t *testing.T) {
	require.False(t, NewRegistry(failingProber{}).PrintingSupported(context.Background()))
}
