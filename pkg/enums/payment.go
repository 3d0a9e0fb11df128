package enums

// PaymentMethod is how the customer intends to settle an order. No payment
// is captured; the value is recorded on the order as chosen at checkout.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
)

var paymentMethods = []PaymentMethod{PaymentMethodCard, PaymentMethodCashOnDelivery, PaymentMethodBankTransfer}

func (v PaymentMethod) String() string { return string(v) }
func (v PaymentMethod) IsValid() bool  { return isOneOf(v, paymentMethods) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parseOneOf("payment method", value, paymentMethods)
}

// PaymentStatus tracks whether an order has been paid.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var paymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded}

func (v PaymentStatus) String() string { return string(v) }
func (v PaymentStatus) IsValid() bool  { return isOneOf(v, paymentStatuses) }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parseOneOf("payment status", value, paymentStatuses)
}
