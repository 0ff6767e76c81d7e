package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"payapi/internal/keylock"
	"payapi/internal/mw"
	"payapi/internal/service"
)

type createOrderRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type orderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func CreateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := mw.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Currency == "" {
			req.Currency = "INR"
		}
		if key := r.Header.Get("Idempotency-Key"); key != "" && req.IdempotencyKey == "" {
			req.IdempotencyKey = key
		}

		order, err := orderSvc.Create(r.Context(), customerID, req.Amount, req.Currency, req.IdempotencyKey)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidCurrency):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, keylock.ErrLockTimeout):
				http.Error(w, "order processing busy, retry later", http.StatusServiceUnavailable)
			default:
				http.Error(w, "order processing failed", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, orderResponse{OrderID: order.ID, Status: order.Status})
	}
}

func ListOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := mw.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := orderSvc.ListByCustomer(r.Context(), customerID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if len(orders) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}
