package events

// Category identifies which observer list a normalized event is fanned
// out to. The set mirrors the callback surface of the terminal SDK.
type Category string

const (
	CategoryStatus                  Category = "Status"
	CategoryTransaction             Category = "Transaction"
	CategoryDeviceVitalsInformation Category = "DeviceVitalsInformation"
	CategoryBasket                  Category = "Basket"
	CategoryNotification            Category = "Notification"
	CategoryPaymentCompleted        Category = "PaymentCompleted"
	CategoryCommerce                Category = "Commerce"
	CategoryRefundCompleted         Category = "RefundCompleted"
	CategoryReconciliation          Category = "Reconciliation"
	CategoryReconciliationsList     Category = "ReconciliationsList"
	CategoryTransactionQuery        Category = "TransactionQuery"
	CategoryPrint                   Category = "Print"
	CategoryReceiptDeliveryMethod   Category = "ReceiptDeliveryMethod"
	CategoryUserInputRequest        Category = "UserInputRequest"
)

// Categories lists every category in a stable order, for registration
// loops and metrics initialisation.
func Categories() []Category {
	return []Category{
		CategoryStatus,
		CategoryTransaction,
		CategoryDeviceVitalsInformation,
		CategoryBasket,
		CategoryNotification,
		CategoryPaymentCompleted,
		CategoryCommerce,
		CategoryRefundCompleted,
		CategoryReconciliation,
		CategoryReconciliationsList,
		CategoryTransactionQuery,
		CategoryPrint,
		CategoryReceiptDeliveryMethod,
		CategoryUserInputRequest,
	}
}
