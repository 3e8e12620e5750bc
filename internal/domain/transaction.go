package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType values accepted by the STK push API.
const TransactionTypeCustomerPayBillOnline = "CustomerPayBillOnline"

// Transaction records an outbound payment initiation attempt together
// with the provider's synchronous acknowledgment. The callback receiver
// never writes here; rows come from the stkpush CLI (or any other
// caller of the initiation client that chooses to record its attempts)
// and exist so that later callbacks can be correlated by
// checkout_request_id.
type Transaction struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	TransactionType     string    `json:"transaction_type" db:"transaction_type"`
	Amount              float64   `json:"amount" db:"amount"`
	PhoneNumber         string    `json:"phone_number" db:"phone_number"`
	AccountReference    string    `json:"account_reference" db:"account_reference"`
	TransactionDesc     string    `json:"transaction_desc" db:"transaction_desc"`
	MerchantRequestID   string    `json:"merchant_request_id" db:"merchant_request_id"`
	CheckoutRequestID   string    `json:"checkout_request_id" db:"checkout_request_id"`
	ResponseCode        string    `json:"response_code" db:"response_code"`
	ResponseDescription string    `json:"response_description" db:"response_description"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
