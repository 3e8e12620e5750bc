package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StkCallback is a persisted payment-result notification, one row per
// accepted delivery. Rows are immutable after insert and never deleted.
type StkCallback struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	MerchantRequestID  string    `json:"merchant_request_id" db:"merchant_request_id"`
	CheckoutRequestID  string    `json:"checkout_request_id" db:"checkout_request_id"`
	ResultCode         string    `json:"result_code" db:"result_code"`
	ResultDesc         string    `json:"result_desc" db:"result_desc"`
	Amount             float64   `json:"amount" db:"amount"`
	MpesaReceiptNumber string    `json:"mpesa_receipt_number" db:"mpesa_receipt_number"`
	TransactionDate    string    `json:"transaction_date" db:"transaction_date"`
	PhoneNumber        string    `json:"phone_number" db:"phone_number"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// C2BCallback is a persisted deposit notification. Unlike StkCallback it
// has no prior outbound request to correlate with.
type C2BCallback struct {
	ID                uuid.UUID `json:"id" db:"id"`
	TransactionType   string    `json:"transaction_type" db:"transaction_type"`
	TransID           string    `json:"trans_id" db:"trans_id"`
	TransTime         string    `json:"trans_time" db:"trans_time"`
	TransAmount       float64   `json:"trans_amount" db:"trans_amount"`
	BusinessShortCode string    `json:"business_short_code" db:"business_short_code"`
	BillRefNumber     string    `json:"bill_ref_number" db:"bill_ref_number"`
	InvoiceNumber     string    `json:"invoice_number" db:"invoice_number"`
	OrgAccountBalance float64   `json:"org_account_balance" db:"org_account_balance"`
	ThirdPartyTransID string    `json:"third_party_trans_id" db:"third_party_trans_id"`
	MSISDN            string    `json:"msisdn" db:"msisdn"`
	FirstName         string    `json:"first_name" db:"first_name"`
	MiddleName        string    `json:"middle_name" db:"middle_name"`
	LastName          string    `json:"last_name" db:"last_name"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// StkCallbackEnvelope is the wire form of the payment-result webhook body.
// Every field is mandatory, so each is decoded through a pointer: a field
// absent from the payload stays nil and Validate rejects the delivery
// before anything touches storage.
type StkCallbackEnvelope struct {
	MerchantRequestID  *string  `json:"merchant_request_id"`
	CheckoutRequestID  *string  `json:"checkout_request_id"`
	ResultCode         *string  `json:"result_code"`
	ResultDesc         *string  `json:"result_desc"`
	Amount             *float64 `json:"amount"`
	MpesaReceiptNumber *string  `json:"mpesa_receipt_number"`
	TransactionDate    *string  `json:"transaction_date"`
	PhoneNumber        *string  `json:"phone_number"`
}

func (e *StkCallbackEnvelope) Validate() error {
	return firstMissing([]requiredField{
		{"merchant_request_id", e.MerchantRequestID == nil},
		{"checkout_request_id", e.CheckoutRequestID == nil},
		{"result_code", e.ResultCode == nil},
		{"result_desc", e.ResultDesc == nil},
		{"amount", e.Amount == nil},
		{"mpesa_receipt_number", e.MpesaReceiptNumber == nil},
		{"transaction_date", e.TransactionDate == nil},
		{"phone_number", e.PhoneNumber == nil},
	})
}

// ToRecord builds the persisted record, field for field, no transformation.
// ID and CreatedAt are left zero for the repository to assign.
func (e *StkCallbackEnvelope) ToRecord() *StkCallback {
	return &StkCallback{
		MerchantRequestID:  *e.MerchantRequestID,
		CheckoutRequestID:  *e.CheckoutRequestID,
		ResultCode:         *e.ResultCode,
		ResultDesc:         *e.ResultDesc,
		Amount:             *e.Amount,
		MpesaReceiptNumber: *e.MpesaReceiptNumber,
		TransactionDate:    *e.TransactionDate,
		PhoneNumber:        *e.PhoneNumber,
	}
}

// C2BCallbackEnvelope is the wire form of the deposit webhook body.
// All fourteen fields are mandatory.
type C2BCallbackEnvelope struct {
	TransactionType   *string  `json:"transaction_type"`
	TransID           *string  `json:"trans_id"`
	TransTime         *string  `json:"trans_time"`
	TransAmount       *float64 `json:"trans_amount"`
	BusinessShortCode *string  `json:"business_short_code"`
	BillRefNumber     *string  `json:"bill_ref_number"`
	InvoiceNumber     *string  `json:"invoice_number"`
	OrgAccountBalance *float64 `json:"org_account_balance"`
	ThirdPartyTransID *string  `json:"third_party_trans_id"`
	MSISDN            *string  `json:"msisdn"`
	FirstName         *string  `json:"first_name"`
	MiddleName        *string  `json:"middle_name"`
	LastName          *string  `json:"last_name"`
}

func (e *C2BCallbackEnvelope) Validate() error {
	return firstMissing([]requiredField{
		{"transaction_type", e.TransactionType == nil},
		{"trans_id", e.TransID == nil},
		{"trans_time", e.TransTime == nil},
		{"trans_amount", e.TransAmount == nil},
		{"business_short_code", e.BusinessShortCode == nil},
		{"bill_ref_number", e.BillRefNumber == nil},
		{"invoice_number", e.InvoiceNumber == nil},
		{"org_account_balance", e.OrgAccountBalance == nil},
		{"third_party_trans_id", e.ThirdPartyTransID == nil},
		{"msisdn", e.MSISDN == nil},
		{"first_name", e.FirstName == nil},
		{"middle_name", e.MiddleName == nil},
		{"last_name", e.LastName == nil},
	})
}

func (e *C2BCallbackEnvelope) ToRecord() *C2BCallback {
	return &C2BCallback{
		TransactionType:   *e.TransactionType,
		TransID:           *e.TransID,
		TransTime:         *e.TransTime,
		TransAmount:       *e.TransAmount,
		BusinessShortCode: *e.BusinessShortCode,
		BillRefNumber:     *e.BillRefNumber,
		InvoiceNumber:     *e.InvoiceNumber,
		OrgAccountBalance: *e.OrgAccountBalance,
		ThirdPartyTransID: *e.ThirdPartyTransID,
		MSISDN:            *e.MSISDN,
		FirstName:         *e.FirstName,
		MiddleName:        *e.MiddleName,
		LastName:          *e.LastName,
	}
}

// ValidationError reports the first mandatory field missing from a
// webhook payload.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

type requiredField struct {
	name    string
	missing bool
}

func firstMissing(fields []requiredField) error {
	for _, f := range fields {
		if f.missing {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}
