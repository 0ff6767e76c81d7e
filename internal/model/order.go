package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusCreated = "created"
	OrderStatusPending = "pending"
	OrderStatusFailed  = "failed"
)

type Order struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Status         string          `json:"status"` // created, pending, failed
	CreatedAt      time.Time       `json:"created_at"`
}
