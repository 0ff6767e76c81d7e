package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"payapi/internal/model"
	"payapi/internal/storage"
)

// WalletStore keeps wallets in a mutex-guarded map. It mirrors the isolation
// of the postgres adapter: each call is atomic, but nothing serializes a
// read followed by a write.
type WalletStore struct {
	mu      sync.RWMutex
	wallets map[string]model.Wallet
}

func NewWalletStore() *WalletStore {
	return &WalletStore{wallets: make(map[string]model.Wallet)}
}

func (s *WalletStore) GetOrCreate(ctx context.Context, customerID string) (*model.Wallet, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[customerID]
	if !ok {
		w = model.Wallet{
			CustomerID: customerID,
			Balance:    decimal.Zero,
			UpdatedAt:  time.Now(),
		}
		s.wallets[customerID] = w
	}
	return &w, nil
}

func (s *WalletStore) SetBalance(ctx context.Context, customerID string, balance decimal.Decimal) (*model.Wallet, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[customerID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	w.Balance = balance
	w.UpdatedAt = time.Now()
	s.wallets[customerID] = w
	return &w, nil
}
