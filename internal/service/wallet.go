package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payapi/internal/keylock"
	"payapi/internal/model"
	"payapi/internal/storage"
)

// maxWalletOperation caps a single credit or debit.
var maxWalletOperation = decimal.NewFromInt(100_000)

// WalletService owns balance mutation. Every credit and debit runs its
// read-modify-write as one critical section keyed by customer id, so two
// writers on the same wallet can never base their update on the same stale
// balance. With locking disabled (zero lock timeout) the sections run
// unguarded and correctness falls back to the store's isolation level.
type WalletService struct {
	store storage.WalletStore
	locks *keylock.Locker
	log   *zap.Logger
}

func NewWalletService(store storage.WalletStore, locks *keylock.Locker, log *zap.Logger) *WalletService {
	return &WalletService{store: store, locks: locks, log: log}
}

// Get returns the customer's wallet, creating it with a zero balance on
// first access.
func (s *WalletService) Get(ctx context.Context, customerID string) (*model.Wallet, error) {
	return s.store.GetOrCreate(ctx, customerID)
}

func (s *WalletService) Credit(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Wallet, error) {
	if err := validateOperationAmount(amount); err != nil {
		return nil, err
	}

	var updated *model.Wallet
	err := s.locks.Do(ctx, customerID, func() error {
		w, err := s.store.GetOrCreate(ctx, customerID)
		if err != nil {
			return err
		}
		updated, err = s.store.SetBalance(ctx, customerID, w.Balance.Add(amount))
		if err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("wallet credited",
		zap.String("customer_id", customerID),
		zap.String("amount", amount.String()),
		zap.String("balance", updated.Balance.String()))
	return updated, nil
}

func (s *WalletService) Debit(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Wallet, error) {
	if err := validateOperationAmount(amount); err != nil {
		return nil, err
	}

	var updated *model.Wallet
	err := s.locks.Do(ctx, customerID, func() error {
		w, err := s.store.GetOrCreate(ctx, customerID)
		if err != nil {
			return err
		}
		// The balance check and the write stay inside one section; a check
		// against a stale balance would let concurrent debits overdraw.
		if w.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}
		updated, err = s.store.SetBalance(ctx, customerID, w.Balance.Sub(amount))
		if err != nil {
			return fmt.Errorf("debit wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("wallet debited",
		zap.String("customer_id", customerID),
		zap.String("amount", amount.String()),
		zap.String("balance", updated.Balance.String()))
	return updated, nil
}

func validateOperationAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(maxWalletOperation) {
		return ErrInvalidAmount
	}
	return nil
}
