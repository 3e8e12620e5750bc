// internal/handler/callback_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"mpesa-gateway/internal/domain"
	"mpesa-gateway/internal/repository"

	"go.uber.org/zap"
)

// CallbackHandler receives asynchronous notifications from the payment
// network. Handlers are stateless: decode, validate shape, insert, ack.
// A malformed body is rejected before storage is touched; a storage
// failure after a valid decode is surfaced as a 500 so the provider
// retries the delivery.
type CallbackHandler struct {
	stkRepo repository.StkCallbackRepository
	c2bRepo repository.C2BCallbackRepository
	logger  *zap.Logger
}

func NewCallbackHandler(
	stkRepo repository.StkCallbackRepository,
	c2bRepo repository.C2BCallbackRepository,
	logger *zap.Logger,
) *CallbackHandler {
	return &CallbackHandler{
		stkRepo: stkRepo,
		c2bRepo: c2bRepo,
		logger:  logger,
	}
}

// HandleStkCallback handles the payment-result notification for a prior
// STK push, correlated by checkout_request_id.
func (h *CallbackHandler) HandleStkCallback(w http.ResponseWriter, r *http.Request) {
	var envelope domain.StkCallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.logger.Warn("malformed STK callback payload",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		h.sendError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := envelope.Validate(); err != nil {
		h.logger.Warn("invalid STK callback payload",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := envelope.ToRecord()

	if err := h.stkRepo.Insert(r.Context(), record); err != nil {
		if errors.Is(err, repository.ErrDuplicateDelivery) {
			h.logger.Info("duplicate STK callback delivery acknowledged",
				zap.String("checkout_request_id", record.CheckoutRequestID))
			h.sendAck(w)
			return
		}
		h.logger.Error("failed to save STK callback",
			zap.String("checkout_request_id", record.CheckoutRequestID),
			zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, "failed to save callback")
		return
	}

	h.logger.Info("STK callback saved",
		zap.String("id", record.ID.String()),
		zap.String("merchant_request_id", record.MerchantRequestID),
		zap.String("checkout_request_id", record.CheckoutRequestID),
		zap.String("result_code", record.ResultCode))

	h.sendAck(w)
}

// HandleC2BCallback handles a direct-deposit notification. There is no
// outbound request to correlate with; the row stands alone.
func (h *CallbackHandler) HandleC2BCallback(w http.ResponseWriter, r *http.Request) {
	var envelope domain.C2BCallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.logger.Warn("malformed C2B callback payload",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		h.sendError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := envelope.Validate(); err != nil {
		h.logger.Warn("invalid C2B callback payload",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := envelope.ToRecord()

	if err := h.c2bRepo.Insert(r.Context(), record); err != nil {
		if errors.Is(err, repository.ErrDuplicateDelivery) {
			h.logger.Info("duplicate C2B callback delivery acknowledged",
				zap.String("trans_id", record.TransID))
			h.sendAck(w)
			return
		}
		h.logger.Error("failed to save C2B callback",
			zap.String("trans_id", record.TransID),
			zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, "failed to save callback")
		return
	}

	h.logger.Info("C2B callback saved",
		zap.String("id", record.ID.String()),
		zap.String("trans_id", record.TransID),
		zap.String("bill_ref_number", record.BillRefNumber))

	h.sendAck(w)
}

// sendAck returns the acknowledgment format the provider expects.
func (h *CallbackHandler) sendAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{
		"ResultCode": "0",
		"ResultDesc": "Success",
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode callback response", zap.Error(err))
	}
}

func (h *CallbackHandler) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]string{
		"ResultCode": "1",
		"ResultDesc": message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode callback response", zap.Error(err))
	}
}
