package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"payapi/internal/model"
	"payapi/internal/storage"
)

type WalletStore struct {
	db *sql.DB
}

func NewWalletStore(db *sql.DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) GetOrCreate(ctx context.Context, customerID string) (*model.Wallet, error) {
	// The no-op upsert makes first access and subsequent reads a single
	// atomic statement.
	var w model.Wallet
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO wallets (customer_id)
		VALUES ($1)
		ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING customer_id, balance, updated_at
	`, customerID).Scan(&w.CustomerID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create wallet: %w", err)
	}
	return &w, nil
}

func (s *WalletStore) SetBalance(ctx context.Context, customerID string, balance decimal.Decimal) (*model.Wallet, error) {
	var w model.Wallet
	err := s.db.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = $2, updated_at = NOW()
		WHERE customer_id = $1
		RETURNING customer_id, balance, updated_at
	`, customerID, balance).Scan(&w.CustomerID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update balance: %w", err)
	}
	return &w, nil
}
