// internal/repository/callback_repo.go
package repository

import (
	"context"
	"errors"
	"time"

	"mpesa-gateway/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateDelivery is returned when an insert hits a uniqueness
// constraint on the notification's business key. The baseline schema
// carries no such constraint — every accepted delivery gets a row — but
// deployments that add one get a recognizable outcome instead of a
// generic storage error, and the handler acknowledges it as success.
var ErrDuplicateDelivery = errors.New("notification already recorded")

type StkCallbackRepository interface {
	Insert(ctx context.Context, cb *domain.StkCallback) error
}

type C2BCallbackRepository interface {
	Insert(ctx context.Context, cb *domain.C2BCallback) error
}

type stkCallbackRepo struct {
	db *pgxpool.Pool
}

func NewStkCallbackRepository(db *pgxpool.Pool) StkCallbackRepository {
	return &stkCallbackRepo{db: db}
}

// Insert writes one payment-result notification. ID and CreatedAt are
// assigned here, never by the caller; the write is a single atomic
// INSERT and the row is immutable afterwards.
func (r *stkCallbackRepo) Insert(ctx context.Context, cb *domain.StkCallback) error {
	cb.ID = uuid.New()
	cb.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO mpesa_callbacks (
			id, merchant_request_id, checkout_request_id, result_code, result_desc,
			amount, mpesa_receipt_number, transaction_date, phone_number, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		cb.ID,
		cb.MerchantRequestID,
		cb.CheckoutRequestID,
		cb.ResultCode,
		cb.ResultDesc,
		cb.Amount,
		cb.MpesaReceiptNumber,
		cb.TransactionDate,
		cb.PhoneNumber,
		cb.CreatedAt,
	)
	return mapInsertError(err)
}

type c2bCallbackRepo struct {
	db *pgxpool.Pool
}

func NewC2BCallbackRepository(db *pgxpool.Pool) C2BCallbackRepository {
	return &c2bCallbackRepo{db: db}
}

func (r *c2bCallbackRepo) Insert(ctx context.Context, cb *domain.C2BCallback) error {
	cb.ID = uuid.New()
	cb.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO c2b_callbacks (
			id, transaction_type, trans_id, trans_time, trans_amount,
			business_short_code, bill_ref_number, invoice_number,
			org_account_balance, third_party_trans_id, msisdn,
			first_name, middle_name, last_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		cb.ID,
		cb.TransactionType,
		cb.TransID,
		cb.TransTime,
		cb.TransAmount,
		cb.BusinessShortCode,
		cb.BillRefNumber,
		cb.InvoiceNumber,
		cb.OrgAccountBalance,
		cb.ThirdPartyTransID,
		cb.MSISDN,
		cb.FirstName,
		cb.MiddleName,
		cb.LastName,
		cb.CreatedAt,
	)
	return mapInsertError(err)
}

// SQLSTATE 23505: unique_violation
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateDelivery
	}
	return err
}
