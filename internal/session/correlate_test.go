package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/events"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

func TestCorrelatorRoundTrip(t *testing.T) {
	c := newCorrelator()
	ch := c.arm(slotLogin)

	want := events.Event{Category: events.CategoryStatus, Status: "0", Type: events.TypeLoginCompleted}
	c.complete(slotLogin, want)

	got, err := c.wait(context.Background(), slotLogin, ch, time.Second)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestCorrelatorCompleteBeforeWait(t *testing.T) {
	// The confirming event may fire while the command call is still on
	// the stack; the armed buffered slot must hold it.
	c := newCorrelator()
	ch := c.arm(slotStatus)
	c.complete(slotStatus, events.Event{Status: "0"})

	got, err := c.wait(context.Background(), slotStatus, ch, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "0", got.Status)
}

func TestCorrelatorTimeout(t *testing.T) {
	c := newCorrelator()
	ch := c.arm(slotPayment)

	_, err := c.wait(context.Background(), slotPayment, ch, 5*time.Millisecond)
	require.ErrorIs(t, err, faults.ErrTimeout)

	// Slot is disarmed after the timeout; a late event is dropped.
	c.complete(slotPayment, events.Event{Status: "0"})
}

func TestCorrelatorUnrelatedSlotDoesNotWake(t *testing.T) {
	c := newCorrelator()
	ch := c.arm(slotPayment)
	c.complete(slotReconciliation, events.Event{Status: "0"})

	_, err := c.wait(context.Background(), slotPayment, ch, 5*time.Millisecond)
	require.ErrorIs(t, err, faults.ErrTimeout)
}

func TestCorrelatorContextCancel(t *testing.T) {
	c := newCorrelator()
	ch := c.arm(slotRefund)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.wait(ctx, slotRefund, ch, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCorrelatorCompleteUnarmedIsNoOp(t *testing.T) {
	c := newCorrelator()
	c.complete(slotStatus, events.Event{Status: "0"})
}
