package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/events"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, j.Close()) })
	return j
}

func TestTransactionRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	completed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	rec := session.PaymentRecord{
		LocalID:     "PAY-1",
		Invoice:     "INV-1",
		Currency:    "SEK",
		Amount:      2500,
		CompletedAt: completed,
	}
	require.NoError(t, j.RecordTransaction(ctx, rec))

	got, err := j.Transactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "PAY-1", got[0].LocalID)
	require.Equal(t, int64(2500), got[0].Amount)
	require.False(t, got[0].Refund)
	require.Equal(t, completed.UnixMilli(), got[0].CompletedAt.UnixMilli())
}

func TestTransactionUpsertKeepsOneRow(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	rec := session.PaymentRecord{LocalID: "PAY-1", Invoice: "INV-1", Currency: "SEK", Amount: 100, CompletedAt: time.Now()}
	require.NoError(t, j.RecordTransaction(ctx, rec))
	rec.Amount = 200
	require.NoError(t, j.RecordTransaction(ctx, rec))

	got, err := j.Transactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(200), got[0].Amount)
}

func TestTransactionsOrderAndLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		rec := session.PaymentRecord{
			LocalID:     "PAY-" + string(rune('A'+i)),
			Invoice:     "INV-" + string(rune('A'+i)),
			Currency:    "SEK",
			Amount:      int64(i),
			Refund:      i%2 == 1,
			CompletedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, j.RecordTransaction(ctx, rec))
	}

	got, err := j.Transactions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "PAY-E", got[0].LocalID)
	require.Equal(t, "PAY-D", got[1].LocalID)
	require.True(t, got[1].Refund)
}

func TestLinkedRefundKeepsOriginalPaymentRow(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	// A linked refund reuses the payment's local id but has its own
	// invoice; both rows must survive.
	payment := session.PaymentRecord{
		LocalID: "INV-1", Invoice: "INV-1", Currency: "SEK", Amount: 1000,
		CompletedAt: time.Now(),
	}
	refund := session.PaymentRecord{
		LocalID: "INV-1", Invoice: "REFUND-INV-1-20260314150926", Currency: "SEK",
		Refund: true, CompletedAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, j.RecordTransaction(ctx, payment))
	require.NoError(t, j.RecordTransaction(ctx, refund))

	got, err := j.Transactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Refund)
	require.False(t, got[1].Refund)
}

func TestFollowJournalsDispatchedEvents(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.sqlite")
	j, err := Open(dbPath)
	require.NoError(t, err)
	d := events.NewDispatcher()

	j.Follow(d, events.CategoryStatus, events.CategoryNotification)

	typ := string(events.TypeStatusSuccess)
	require.NoError(t, d.Dispatch(events.Raw{Category: events.CategoryStatus, Status: "0", Type: &typ}))
	msg := "Transaction Completed"
	require.NoError(t, d.Dispatch(events.Raw{Category: events.CategoryNotification, Status: "0", Message: &msg}))
	// Unfollowed category must not be journaled.
	require.NoError(t, d.Dispatch(events.Raw{Category: events.CategoryBasket, Status: "0"}))

	// Close detaches the streams and waits for the writers, so the
	// counts below are stable.
	require.NoError(t, j.Close())

	reopened, err := Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.EventCount(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = reopened.EventCount(context.Background(), events.CategoryStatus)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
