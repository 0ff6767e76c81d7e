package memory

import (
	"context"
	"sort"
	"sync"

	"payapi/internal/model"
	"payapi/internal/storage"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]model.Order
	seq    []string // insertion order, for earliest-by-key lookups
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]model.Order)}
}

func (s *OrderStore) Insert(ctx context.Context, order *model.Order) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return storage.ErrDuplicate
	}
	s.orders[order.ID] = *order
	s.seq = append(s.seq, order.ID)
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*model.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &o, nil
}

func (s *OrderStore) FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.seq {
		if o := s.orders[id]; o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *OrderStore) ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []model.Order
	for _, id := range s.seq {
		if o := s.orders[id]; o.CustomerID == customerID {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Count reports the number of stored orders. Used by tests.
func (s *OrderStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
