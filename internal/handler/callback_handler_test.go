package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mpesa-gateway/internal/domain"
	"mpesa-gateway/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStkRepo mimics the real repository: it assigns id and created_at
// on insert and appends a row per accepted call.
type fakeStkRepo struct {
	rows []domain.StkCallback
	err  error
}

func (f *fakeStkRepo) Insert(_ context.Context, cb *domain.StkCallback) error {
	if f.err != nil {
		return f.err
	}
	cb.ID = uuid.New()
	cb.CreatedAt = time.Now().UTC()
	f.rows = append(f.rows, *cb)
	return nil
}

type fakeC2BRepo struct {
	rows []domain.C2BCallback
	err  error
}

func (f *fakeC2BRepo) Insert(_ context.Context, cb *domain.C2BCallback) error {
	if f.err != nil {
		return f.err
	}
	cb.ID = uuid.New()
	cb.CreatedAt = time.Now().UTC()
	f.rows = append(f.rows, *cb)
	return nil
}

const stkBody = `{
	"merchant_request_id": "29115-34620561-1",
	"checkout_request_id": "ws_CO_1234",
	"result_code": "0",
	"result_desc": "The service request is processed successfully.",
	"amount": 100.0,
	"mpesa_receipt_number": "NLJ7RT61SV",
	"transaction_date": "20240315103000",
	"phone_number": "254712345678"
}`

const c2bBody = `{
	"transaction_type": "Pay Bill",
	"trans_id": "RKTQDM7W6S",
	"trans_time": "20240315104500",
	"trans_amount": 250.0,
	"business_short_code": "600638",
	"bill_ref_number": "A123",
	"invoice_number": "INV-42",
	"org_account_balance": 49197.0,
	"third_party_trans_id": "1234567890",
	"msisdn": "254708374149",
	"first_name": "John",
	"middle_name": "J",
	"last_name": "Doe"
}`

func postStk(h *CallbackHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/stk_callback", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleStkCallback(rec, req)
	return rec
}

func postC2B(h *CallbackHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/c2b_callback", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleC2BCallback(rec, req)
	return rec
}

func TestHandleStkCallbackPersistsVerbatim(t *testing.T) {
	stkRepo := &fakeStkRepo{}
	h := NewCallbackHandler(stkRepo, &fakeC2BRepo{}, zap.NewNop())
	start := time.Now().UTC()

	rec := postStk(h, stkBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ResultCode":"0","ResultDesc":"Success"}`, rec.Body.String())

	require.Len(t, stkRepo.rows, 1)
	row := stkRepo.rows[0]
	assert.Equal(t, "29115-34620561-1", row.MerchantRequestID)
	assert.Equal(t, "ws_CO_1234", row.CheckoutRequestID)
	assert.Equal(t, "0", row.ResultCode)
	assert.Equal(t, "The service request is processed successfully.", row.ResultDesc)
	assert.Equal(t, 100.0, row.Amount)
	assert.Equal(t, "NLJ7RT61SV", row.MpesaReceiptNumber)
	assert.Equal(t, "20240315103000", row.TransactionDate)
	assert.Equal(t, "254712345678", row.PhoneNumber)
	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.False(t, row.CreatedAt.Before(start))
}

func TestHandleStkCallbackMissingFieldRejected(t *testing.T) {
	fields := []string{
		"merchant_request_id", "checkout_request_id", "result_code", "result_desc",
		"amount", "mpesa_receipt_number", "transaction_date", "phone_number",
	}

	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			stkRepo := &fakeStkRepo{}
			h := NewCallbackHandler(stkRepo, &fakeC2BRepo{}, zap.NewNop())

			rec := postStk(h, dropField(t, stkBody, field))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, stkRepo.rows)
		})
	}
}

func TestHandleStkCallbackMalformedJSON(t *testing.T) {
	stkRepo := &fakeStkRepo{}
	h := NewCallbackHandler(stkRepo, &fakeC2BRepo{}, zap.NewNop())

	rec := postStk(h, "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stkRepo.rows)
}

func TestHandleStkCallbackRepeatedDeliveryBothStored(t *testing.T) {
	stkRepo := &fakeStkRepo{}
	h := NewCallbackHandler(stkRepo, &fakeC2BRepo{}, zap.NewNop())

	first := postStk(h, stkBody)
	second := postStk(h, stkBody)

	// the baseline store does not deduplicate: identical deliveries
	// each get their own row with a distinct id
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	require.Len(t, stkRepo.rows, 2)
	assert.Equal(t, stkRepo.rows[0].CheckoutRequestID, stkRepo.rows[1].CheckoutRequestID)
	assert.NotEqual(t, stkRepo.rows[0].ID, stkRepo.rows[1].ID)
}

func TestHandleStkCallbackStorageFailure(t *testing.T) {
	stkRepo := &fakeStkRepo{err: errors.New("connection lost")}
	h := NewCallbackHandler(stkRepo, &fakeC2BRepo{}, zap.NewNop())

	rec := postStk(h, stkBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleStkCallbackDuplicateConstraintAcked(t *testing.T) {
	stkRepo := &fakeStkRepo{err: repository.ErrDuplicateDelivery}
	h := NewCallbackHandler(stkRepo, &fakeC2BRepo{}, zap.NewNop())

	rec := postStk(h, stkBody)

	// a recognized duplicate delivery is acknowledged, not retried
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ResultCode":"0","ResultDesc":"Success"}`, rec.Body.String())
}

func TestHandleC2BCallbackPersistsVerbatim(t *testing.T) {
	c2bRepo := &fakeC2BRepo{}
	h := NewCallbackHandler(&fakeStkRepo{}, c2bRepo, zap.NewNop())
	start := time.Now().UTC()

	rec := postC2B(h, c2bBody)

	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, c2bRepo.rows, 1)
	row := c2bRepo.rows[0]
	assert.Equal(t, "Pay Bill", row.TransactionType)
	assert.Equal(t, "RKTQDM7W6S", row.TransID)
	assert.Equal(t, "20240315104500", row.TransTime)
	assert.Equal(t, 250.0, row.TransAmount)
	assert.Equal(t, "600638", row.BusinessShortCode)
	assert.Equal(t, "A123", row.BillRefNumber)
	assert.Equal(t, "INV-42", row.InvoiceNumber)
	assert.Equal(t, 49197.0, row.OrgAccountBalance)
	assert.Equal(t, "1234567890", row.ThirdPartyTransID)
	assert.Equal(t, "254708374149", row.MSISDN)
	assert.Equal(t, "John", row.FirstName)
	assert.Equal(t, "J", row.MiddleName)
	assert.Equal(t, "Doe", row.LastName)
	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.False(t, row.CreatedAt.Before(start))
}

func TestHandleC2BCallbackMissingFieldRejected(t *testing.T) {
	fields := []string{
		"transaction_type", "trans_id", "trans_time", "trans_amount",
		"business_short_code", "bill_ref_number", "invoice_number",
		"org_account_balance", "third_party_trans_id", "msisdn",
		"first_name", "middle_name", "last_name",
	}

	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			c2bRepo := &fakeC2BRepo{}
			h := NewCallbackHandler(&fakeStkRepo{}, c2bRepo, zap.NewNop())

			rec := postC2B(h, dropField(t, c2bBody, field))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, c2bRepo.rows)
		})
	}
}

func TestHandleC2BCallbackStorageFailure(t *testing.T) {
	c2bRepo := &fakeC2BRepo{err: errors.New("connection lost")}
	h := NewCallbackHandler(&fakeStkRepo{}, c2bRepo, zap.NewNop())

	rec := postC2B(h, c2bBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// dropField removes one key from a JSON object body.
func dropField(t *testing.T, body, field string) string {
	t.Helper()
	lines := strings.Split(body, "\n")
	var kept []string
	for _, line := range lines {
		if strings.Contains(line, `"`+field+`"`) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	// repair a trailing comma left before the closing brace
	out = strings.ReplaceAll(out, ",\n}", "\n}")
	require.NotEqual(t, body, out, "field %s not found in body", field)
	return out
}
