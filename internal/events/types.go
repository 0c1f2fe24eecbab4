package events

import (
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

// EventType is the typed tag carried by a normalized terminal event.
// The set is open: new firmware revisions add tags, so absent tags map
// to TypeUnknown while unrecognised non-empty tags are a protocol
// violation and never silently downgraded.
type EventType string

const (
	TypeUnknown EventType = "Unknown"

	TypeLoginCompleted              EventType = "LOGIN_COMPLETED"
	TypeLogoutCompleted             EventType = "LOGOUT_COMPLETED"
	TypeSessionStarted              EventType = "SESSION_STARTED"
	TypeSessionEnded                EventType = "SESSION_ENDED"
	TypeStatusError                 EventType = "STATUS_ERROR"
	TypeStatusSuccess               EventType = "STATUS_SUCCESS"
	TypeNotificationEvent           EventType = "NOTIFICATION_EVENT"
	TypeTransactionPaymentCompleted EventType = "TRANSACTION_PAYMENT_COMPLETED"
	TypeTransactionRefundCompleted  EventType = "TRANSACTION_REFUND_COMPLETED"
	TypeTransactionStarted          EventType = "TRANSACTION_STARTED"
	TypeTransactionEnded            EventType = "TRANSACTION_ENDED"
	TypeAmountAdjusted              EventType = "AMOUNT_ADJUSTED"
	TypeBasketAdjusted              EventType = "BASKET_ADJUSTED"
	TypeBasketEvent                 EventType = "BASKET_EVENT"
	TypeCardInformationReceived     EventType = "CARD_INFORMATION_RECEIVED"
	TypeCommerceEvent               EventType = "COMMERCE_EVENT"
	TypeDeviceManagementEvent       EventType = "DEVICE_MANAGEMENT_EVENT"
	TypeDeviceVitalsInformation     EventType = "DEVICE_VITALS_INFORMATION"
	TypeHostAuthorizationEvent      EventType = "HOST_AUTHORIZATION_EVENT"
	TypeHostFinalizeTransaction     EventType = "HOST_FINALIZE_TRANSACTION"
	TypeLoyaltyReceived             EventType = "LOYALTY_RECEIVED"
	TypePinEvent                    EventType = "PIN_EVENT"
	TypePrintEvent                  EventType = "PRINT_EVENT"
	TypeReceiptDeliveryMethod       EventType = "RECEIPT_DELIVERY_METHOD"
	TypeReconciliationEvent         EventType = "RECONCILIATION_EVENT"
	TypeReconciliationsListEvent    EventType = "RECONCILIATIONS_LIST_EVENT"
	TypeStoredValueCardEvent        EventType = "STORED_VALUE_CARD_EVENT"
	TypeTransactionQueryEvent       EventType = "TRANSACTION_QUERY_EVENT"
	TypeUserInputEvent              EventType = "USER_INPUT_EVENT"
	TypeDisplayEvent                EventType = "DISPLAY_EVENT"
)

var knownTypes = func() map[string]EventType {
	list := []EventType{
		TypeLoginCompleted, TypeLogoutCompleted,
		TypeSessionStarted, TypeSessionEnded,
		TypeStatusError, TypeStatusSuccess,
		TypeNotificationEvent,
		TypeTransactionPaymentCompleted, TypeTransactionRefundCompleted,
		TypeTransactionStarted, TypeTransactionEnded,
		TypeAmountAdjusted, TypeBasketAdjusted, TypeBasketEvent,
		TypeCardInformationReceived, TypeCommerceEvent,
		TypeDeviceManagementEvent, TypeDeviceVitalsInformation,
		TypeHostAuthorizationEvent, TypeHostFinalizeTransaction,
		TypeLoyaltyReceived, TypePinEvent, TypePrintEvent,
		TypeReceiptDeliveryMethod,
		TypeReconciliationEvent, TypeReconciliationsListEvent,
		TypeStoredValueCardEvent, TypeTransactionQueryEvent,
		TypeUserInputEvent, TypeDisplayEvent,
	}
	m := make(map[string]EventType, len(list))
	for _, t := range list {
		m[string(t)] = t
	}
	return m
}()

// ParseEventType maps a raw type tag to its typed value. The "(null)"
// placeholder (an absent tag on the wire) maps to TypeUnknown; any
// other unrecognised tag is a protocol error.
func ParseEventType(tag string) (EventType, error) {
	if tag == Placeholder || tag == "" {
		return TypeUnknown, nil
	}
	if t, ok := knownTypes[tag]; ok {
		return t, nil
	}
	return TypeUnknown, faults.Protocol("unknown_event_type", "invalid event type: %s", tag)
}
