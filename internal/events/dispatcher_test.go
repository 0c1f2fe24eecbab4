package events

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func strptr(s string) *string { return &s }

func TestNormalizeReplacesAbsentFields(t *testing.T) {
	ev, err := Normalize(Raw{Category: CategoryNotification, Status: "0"})
	require.NoError(t, err)
	require.Equal(t, TypeUnknown, ev.Type)
	require.Equal(t, Placeholder, ev.Message)
	require.Equal(t, "0", ev.Status)
}

func TestNormalizeKeepsPresentFields(t *testing.T) {
	ev, err := Normalize(Raw{
		Category: CategoryTransaction,
		Status:   "0",
		Type:     strptr("TRANSACTION_PAYMENT_COMPLETED"),
		Message:  strptr("Transaction Completed"),
	})
	require.NoError(t, err)
	require.Equal(t, TypeTransactionPaymentCompleted, ev.Type)
	require.Equal(t, "Transaction Completed", ev.Message)
}

func TestNormalizeRejectsUnknownTag(t *testing.T) {
	_, err := Normalize(Raw{Category: CategoryStatus, Status: "0", Type: strptr("TOTALLY_BOGUS")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "TOTALLY_BOGUS")
}

func TestDispatchOrderIsRegistrationOrder(t *testing.T) {
	d := NewDispatcher()
	var order []int
	for i := 0; i < 4; i++ {
		i := i
		d.Subscribe(CategoryStatus, func(Event) { order = append(order, i) })
	}

	err := d.Dispatch(Raw{Category: CategoryStatus, Status: "0", Type: strptr("STATUS_SUCCESS")})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestDispatchUnknownTypeReachesNoObserver(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.Subscribe(CategoryStatus, func(Event) { called = true })

	err := d.Dispatch(Raw{Category: CategoryStatus, Status: "0", Type: strptr("NOT_A_TYPE")})
	require.Error(t, err)
	require.False(t, called)
}

func TestPaymentCompletedAliasesToRefundObservers(t *testing.T) {
	d := NewDispatcher()
	var paid, refunded []Event
	d.Subscribe(CategoryPaymentCompleted, func(ev Event) { paid = append(paid, ev) })
	d.Subscribe(CategoryRefundCompleted, func(ev Event) { refunded = append(refunded, ev) })

	err := d.Dispatch(Raw{
		Category: CategoryPaymentCompleted,
		Status:   "0",
		Type:     strptr("TRANSACTION_PAYMENT_COMPLETED"),
	})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	require.Len(t, refunded, 1)
	require.Equal(t, CategoryRefundCompleted, refunded[0].Category)
	require.Equal(t, paid[0].Type, refunded[0].Type)
}

func TestRefundCompletedDoesNotAliasBack(t *testing.T) {
	d := NewDispatcher()
	var paid int
	d.Subscribe(CategoryPaymentCompleted, func(Event) { paid++ })

	err := d.Dispatch(Raw{Category: CategoryRefundCompleted, Status: "0"})
	require.NoError(t, err)
	require.Zero(t, paid)
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	d := NewDispatcher()
	var n int
	sub := d.Subscribe(CategoryBasket, func(Event) { n++ })

	require.NoError(t, d.Dispatch(Raw{Category: CategoryBasket, Status: "0"}))
	sub.Close()
	sub.Close() // idempotent
	require.NoError(t, d.Dispatch(Raw{Category: CategoryBasket, Status: "0"}))
	require.Equal(t, 1, n)
}

func TestStreamReceivesAndCloses(t *testing.T) {
	d := NewDispatcher()
	st := d.StreamOf(CategoryNotification)

	require.NoError(t, d.Dispatch(Raw{Category: CategoryNotification, Status: "0", Message: strptr("hello")}))

	ev := <-st.C()
	require.Equal(t, "hello", ev.Message)

	st.Close()
	st.Close()
	_, open := <-st.C()
	require.False(t, open)
}

func TestStreamFullDropsInsteadOfBlocking(t *testing.T) {
	d := NewDispatcher()
	st := d.StreamOf(CategoryPrint)
	defer st.Close()

	for i := 0; i < streamBuffer+10; i++ {
		require.NoError(t, d.Dispatch(Raw{Category: CategoryPrint, Status: "0"}))
	}
	require.Len(t, st.ch, streamBuffer)
}

func TestStreamCloseDuringDispatchDoesNotPanic(t *testing.T) {
	// A dispatch may hold a snapshot of the stream list taken before
	// Close ran; the send must never hit the closed channel.
	for i := 0; i < 2000; i++ {
		d := NewDispatcher()
		st := d.StreamOf(CategoryPrint)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 4; j++ {
				_ = d.Dispatch(Raw{Category: CategoryPrint, Status: "0"})
			}
		}()
		st.Close()
		<-done
	}
}
