package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the committed balance for one customer. Balance is never
// negative in any committed state.
type Wallet struct {
	CustomerID string          `json:"customer_id"`
	Balance    decimal.Decimal `json:"balance"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
