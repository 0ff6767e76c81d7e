package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"payapi/internal/keylock"
	"payapi/internal/model"
	"payapi/internal/service"
)

type walletOperationRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type walletResponse struct {
	CustomerID string          `json:"customer_id"`
	Balance    decimal.Decimal `json:"balance"`
}

func GetWalletHandler(walletSvc *service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerID")

		wallet, err := walletSvc.Get(r.Context(), customerID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toWalletResponse(wallet))
	}
}

func CreditWalletHandler(walletSvc *service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerID")

		var req walletOperationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		wallet, err := walletSvc.Credit(r.Context(), customerID, req.Amount)
		if err != nil {
			writeWalletError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWalletResponse(wallet))
	}
}

func DebitWalletHandler(walletSvc *service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerID")

		var req walletOperationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		wallet, err := walletSvc.Debit(r.Context(), customerID, req.Amount)
		if err != nil {
			writeWalletError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWalletResponse(wallet))
	}
}

func writeWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		http.Error(w, "invalid amount", http.StatusBadRequest)
	case errors.Is(err, service.ErrInsufficientBalance):
		http.Error(w, "insufficient balance", http.StatusPaymentRequired)
	case errors.Is(err, keylock.ErrLockTimeout):
		http.Error(w, "wallet busy, retry later", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toWalletResponse(wallet *model.Wallet) walletResponse {
	return walletResponse{CustomerID: wallet.CustomerID, Balance: wallet.Balance}
}
