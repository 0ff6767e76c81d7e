// Package storage defines the store ports the services operate against.
// The postgres adapter is the production backend; the memory adapter backs
// tests and local runs.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"payapi/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// WalletStore persists per-customer balances. Each call is individually
// atomic; read-modify-write sequences across calls are NOT, and must be
// serialized by the caller.
type WalletStore interface {
	// GetOrCreate returns the wallet for customerID, creating it with a
	// zero balance on first access.
	GetOrCreate(ctx context.Context, customerID string) (*model.Wallet, error)

	// SetBalance overwrites the committed balance and returns the updated
	// wallet. Fails with ErrNotFound if no wallet exists.
	SetBalance(ctx context.Context, customerID string, balance decimal.Decimal) (*model.Wallet, error)
}

type OrderStore interface {
	Insert(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// FindByIdempotencyKey returns the earliest order created with key, or
	// ErrNotFound. Multiple matches are possible when strict idempotency is
	// disabled; the earliest one is the canonical result.
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error)

	ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error)
}

type UserStore interface {
	// Insert fails with ErrDuplicate when the id or email is taken.
	Insert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]model.User, error)
}
