// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"time"

	"mpesa-gateway/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository interface {
	Insert(ctx context.Context, tx *domain.Transaction) error
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Transaction, error)
}

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Insert(ctx context.Context, tx *domain.Transaction) error {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO mpesa_transactions (
			id, transaction_type, amount, phone_number, account_reference,
			transaction_desc, merchant_request_id, checkout_request_id,
			response_code, response_description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.TransactionType,
		tx.Amount,
		tx.PhoneNumber,
		tx.AccountReference,
		tx.TransactionDesc,
		tx.MerchantRequestID,
		tx.CheckoutRequestID,
		tx.ResponseCode,
		tx.ResponseDescription,
		tx.CreatedAt,
	)
	return mapInsertError(err)
}

func (r *transactionRepo) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Transaction, error) {
	query := `
		SELECT
			id, transaction_type, amount, phone_number, account_reference,
			transaction_desc, merchant_request_id, checkout_request_id,
			response_code, response_description, created_at
		FROM mpesa_transactions
		WHERE checkout_request_id = $1
	`

	var tx domain.Transaction
	err := r.db.QueryRow(ctx, query, checkoutRequestID).Scan(
		&tx.ID,
		&tx.TransactionType,
		&tx.Amount,
		&tx.PhoneNumber,
		&tx.AccountReference,
		&tx.TransactionDesc,
		&tx.MerchantRequestID,
		&tx.CheckoutRequestID,
		&tx.ResponseCode,
		&tx.ResponseDescription,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &tx, nil
}
