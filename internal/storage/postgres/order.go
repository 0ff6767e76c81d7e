package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"payapi/internal/model"
	"payapi/internal/storage"
)

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Insert(ctx context.Context, order *model.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, amount, currency, idempotency_key, status, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`, order.ID, order.CustomerID, order.Amount, order.Currency, order.IdempotencyKey, order.Status, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, amount, currency, idempotency_key, status, created_at
		FROM orders
		WHERE id = $1
	`, id)
	return scanOrder(row)
}

func (s *OrderStore) FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, amount, currency, idempotency_key, status, created_at
		FROM orders
		WHERE idempotency_key = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, key)
	return scanOrder(row)
}

func (s *OrderStore) ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, amount, currency, idempotency_key, status, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var key sql.NullString
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Amount, &o.Currency, &key, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.IdempotencyKey = key.String
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

func scanOrder(row *sql.Row) (*model.Order, error) {
	var o model.Order
	var key sql.NullString
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Amount, &o.Currency, &key, &o.Status, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.IdempotencyKey = key.String
	return &o, nil
}
