// cmd/stkpush/main.go
//
// Operator CLI: initiates one STK push and records the attempt in
// mpesa_transactions so the later stk_callback can be correlated by
// checkout_request_id.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"mpesa-gateway/config"
	"mpesa-gateway/internal/domain"
	"mpesa-gateway/internal/provider/mpesa"
	"mpesa-gateway/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	phone := flag.String("phone", "", "payer phone number, e.g. 254712345678")
	amount := flag.Float64("amount", 0, "amount to charge")
	ref := flag.String("ref", "", "account reference, e.g. invoice number")
	desc := flag.String("desc", "Payment", "transaction description")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	if *phone == "" || *amount <= 0 || *ref == "" {
		logger.Fatal("usage: stkpush -phone 2547XXXXXXXX -amount 100 -ref INV001 [-desc ...]")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	client, err := mpesa.New(cfg.Mpesa, logger)
	if err != nil {
		logger.Fatal("failed to initialize mpesa client", zap.Error(err))
	}

	dbPool, err := pgxpool.New(context.Background(), cfg.Database.ConnString())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	txRepo := repository.NewTransactionRepository(dbPool)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mpesa.HTTPTimeout+10*time.Second)
	defer cancel()

	ack, err := client.STKPush(ctx, *phone, *amount, *ref, *desc)
	if err != nil {
		logger.Fatal("STK push failed", zap.Error(err))
	}

	tx := &domain.Transaction{
		TransactionType:     domain.TransactionTypeCustomerPayBillOnline,
		Amount:              *amount,
		PhoneNumber:         *phone,
		AccountReference:    *ref,
		TransactionDesc:     *desc,
		MerchantRequestID:   ack.MerchantRequestID,
		CheckoutRequestID:   ack.CheckoutRequestID,
		ResponseCode:        ack.ResponseCode,
		ResponseDescription: ack.ResponseDescription,
	}
	if err := txRepo.Insert(ctx, tx); err != nil {
		logger.Error("STK push acknowledged but recording the attempt failed",
			zap.String("checkout_request_id", ack.CheckoutRequestID),
			zap.Error(err))
	}

	fmt.Printf("MerchantRequestID:   %s\n", ack.MerchantRequestID)
	fmt.Printf("CheckoutRequestID:   %s\n", ack.CheckoutRequestID)
	fmt.Printf("ResponseCode:        %s\n", ack.ResponseCode)
	fmt.Printf("ResponseDescription: %s\n", ack.ResponseDescription)
}
