package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payapi/internal/keylock"
	"payapi/internal/model"
	"payapi/internal/storage"
)

var (
	maxOrderAmount = decimal.NewFromInt(1_000_000)
	currencyRe     = regexp.MustCompile(`^[A-Z]{3}$`)
)

// PendingOrderID marks the degraded-path placeholder. It corresponds to no
// persisted record and is never reconciled; callers that see it got a
// best-effort "accepted, maybe" answer, nothing more.
var PendingOrderID = uuid.Nil.String()

// settlementPollInterval is the increment of the settlement wait loop. Small
// enough that cancellation is picked up promptly.
const settlementPollInterval = 500 * time.Millisecond

// OrderConfig is fixed at construction; the service reads no global state.
type OrderConfig struct {
	// StrictIdempotency dedups creation by idempotency key. When false the
	// key is stored but duplicate orders with the same key may exist.
	StrictIdempotency bool

	// SettlementWindow suspends a successful creation before returning,
	// simulating external confirmation latency. Never held under a lock.
	SettlementWindow time.Duration

	// GracefulDegradation turns transient lock/store failures into a
	// non-durable pending placeholder instead of an error.
	GracefulDegradation bool
}

type OrderService struct {
	store storage.OrderStore
	locks *keylock.Locker
	cfg   OrderConfig
	log   *zap.Logger
}

func NewOrderService(store storage.OrderStore, locks *keylock.Locker, cfg OrderConfig, log *zap.Logger) *OrderService {
	return &OrderService{store: store, locks: locks, cfg: cfg, log: log}
}

// Create validates and persists an order. Under strict idempotency a
// non-empty key makes creation at-most-once: the lookup and the insert share
// one critical section on the key, and repeat calls return the original
// order unchanged.
//
// Validation failures always surface directly. Transient failures surface
// too, unless graceful degradation is on, in which case the caller gets the
// pending placeholder (see PendingOrderID) and nothing is persisted.
func (s *OrderService) Create(ctx context.Context, customerID string, amount decimal.Decimal, currency, idempotencyKey string) (*model.Order, error) {
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(maxOrderAmount) {
		return nil, ErrInvalidAmount
	}
	if !currencyRe.MatchString(currency) {
		return nil, ErrInvalidCurrency
	}

	order, created, err := s.createOnce(ctx, customerID, amount, currency, idempotencyKey)
	if err != nil {
		if s.cfg.GracefulDegradation {
			s.log.Warn("order creation degraded to pending placeholder",
				zap.String("customer_id", customerID),
				zap.Error(err))
			return &model.Order{
				ID:         PendingOrderID,
				CustomerID: customerID,
				Amount:     amount,
				Currency:   currency,
				Status:     model.OrderStatusPending,
			}, nil
		}
		return nil, err
	}

	if created {
		s.awaitSettlement(ctx, order.ID)
	}
	return order, nil
}

// createOnce reports whether it inserted a fresh record; a strict-mode dedup
// hit returns the original with created=false and skips the settlement wait.
func (s *OrderService) createOnce(ctx context.Context, customerID string, amount decimal.Decimal, currency, idempotencyKey string) (*model.Order, bool, error) {
	if !s.cfg.StrictIdempotency || idempotencyKey == "" {
		order, err := s.insert(ctx, customerID, amount, currency, idempotencyKey)
		return order, err == nil, err
	}

	var result *model.Order
	created := false
	err := s.locks.Do(ctx, "order:"+idempotencyKey, func() error {
		existing, err := s.store.FindByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			s.log.Info("duplicate order request resolved to existing order",
				zap.String("order_id", existing.ID),
				zap.String("idempotency_key", idempotencyKey))
			result = existing
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		result, err = s.insert(ctx, customerID, amount, currency, idempotencyKey)
		created = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (s *OrderService) insert(ctx context.Context, customerID string, amount decimal.Decimal, currency, idempotencyKey string) (*model.Order, error) {
	order := &model.Order{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: idempotencyKey,
		Status:         model.OrderStatusCreated,
		CreatedAt:      time.Now(),
	}
	if err := s.store.Insert(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("customer_id", customerID),
		zap.String("amount", amount.String()),
		zap.String("currency", currency))
	return order, nil
}

// awaitSettlement suspends the call for the configured window in small
// increments. The order is already committed when this runs: cancellation
// only cuts the wait short, it never rolls anything back. No lock is held
// here; a multi-second wait under a per-key lock would serialize unrelated
// requests.
func (s *OrderService) awaitSettlement(ctx context.Context, orderID string) {
	if s.cfg.SettlementWindow <= 0 {
		return
	}

	deadline := time.Now().Add(s.cfg.SettlementWindow)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		step := settlementPollInterval
		if remaining < step {
			step = remaining
		}

		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("settlement wait cancelled by caller, order remains committed",
				zap.String("order_id", orderID))
			return
		case <-timer.C:
		}
	}
}

func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	return s.store.GetByID(ctx, id)
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}
