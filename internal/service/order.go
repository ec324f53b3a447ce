package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/govalues/decimal"
	"github.com/shopengine/order-service/internal/entities"
	"github.com/shopengine/order-service/pkg/trm"
	"golang.org/x/sync/errgroup"
)

type OrderRepo interface {
	StatusRepo

	// CreateOrder must be called inside a transaction scope; the
	// service wraps it with the tx manager so header and lines are
	// either all persisted or none.
	CreateOrder(ctx context.Context, ownerID string, lines []entities.OrderLine, total decimal.Decimal, status entities.Status) (string, error)

	ListAll(ctx context.Context) ([]entities.OrderSummary, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entities.OrderSummary, error)
	LatestOrders(ctx context.Context, count int) ([]entities.OrderSummary, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type Publisher interface {
	Publish(ctx context.Context, event entities.OrderEvent) error
}

type orderService struct {
	logger        *slog.Logger
	txManager     trm.Manager
	repo          OrderRepo
	cache         Cache
	publisher     Publisher
	statuses      *StatusMachine
	defaultStatus entities.Status
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	repo OrderRepo,
	cache Cache,
	publisher Publisher,
	defaultStatus entities.Status,
) *orderService {
	return &orderService{
		logger:        logger.With(slog.String("service", "order")),
		txManager:     txManager,
		repo:          repo,
		cache:         cache,
		publisher:     publisher,
		statuses:      NewStatusMachine(repo),
		defaultStatus: defaultStatus,
	}
}

// CreateOrder validates the submitted order, persists the header and
// all lines atomically and returns the generated order id. Persistence
// failures are not retried; the caller gets the failure and no rows
// remain visible.
func (s *orderService) CreateOrder(ctx context.Context, requester entities.Requester, items []NewOrderItem, total decimal.Decimal) (string, error) {
	validated, err := ValidateOrder(requester.ID, items, total)
	if err != nil {
		return "", err
	}

	var orderID string
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		orderID, err = s.repo.CreateOrder(ctx, requester.ID, validated.Lines, total, s.defaultStatus)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug("order created", slog.String("order_id", orderID), slog.String("owner_id", requester.ID))
	s.publish(ctx, entities.OrderEvent{
		Type:       entities.OrderEventCreated,
		OrderID:    orderID,
		OwnerID:    requester.ID,
		Status:     s.defaultStatus,
		Total:      total,
		OccurredAt: time.Now().UTC(),
	})

	return orderID, nil
}

// ListOrders returns the orders visible to the requester: everything
// (with owner names) for admins, only the requester's own otherwise.
func (s *orderService) ListOrders(ctx context.Context, requester entities.Requester) ([]entities.OrderSummary, error) {
	if requester.ID == "" {
		return nil, entities.ErrMissingRequester
	}
	if requester.IsAdmin {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByOwner(ctx, requester.ID)
}

// GetOrderByID returns one order with its lines. Non-admin requesters
// can only see their own orders; anything else resolves as not found so
// foreign order ids are not probeable.
func (s *orderService) GetOrderByID(ctx context.Context, requester entities.Requester, orderID string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err == nil {
			return s.scoped(requester, order)
		}
		s.cache.Delete(orderID)
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	s.cacheOrder(order)
	return s.scoped(requester, order)
}

// ChangeStatus applies an admin-initiated status transition and returns
// the updated order.
func (s *orderService) ChangeStatus(ctx context.Context, requester entities.Requester, orderID string, rawStatus string) (entities.Order, error) {
	order, err := s.statuses.Transition(ctx, requester, orderID, rawStatus)
	if err != nil {
		return entities.Order{}, err
	}

	s.cacheOrder(order)
	s.publish(ctx, entities.OrderEvent{
		Type:       entities.OrderEventStatusChanged,
		OrderID:    order.OrderID,
		OwnerID:    order.OwnerID,
		Status:     order.Status,
		Total:      order.Total,
		OccurredAt: time.Now().UTC(),
	})

	return order, nil
}

// WarmUpCache loads the latest count orders into the cache.
func (s *orderService) WarmUpCache(ctx context.Context, count int) error {
	summaries, err := s.repo.LatestOrders(ctx, count)
	if err != nil {
		return fmt.Errorf("failed to list latest orders: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, summary := range summaries {
		g.Go(func() error {
			order, err := s.repo.GetOrderByID(ctx, summary.OrderID)
			if err != nil {
				return err
			}
			s.cacheOrder(order)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to warm up cache: %w", err)
	}
	s.logger.Info("cache warmed up", slog.Int("orders", len(summaries)))
	return nil
}

func (s *orderService) scoped(requester entities.Requester, order entities.Order) (entities.Order, error) {
	if !requester.IsAdmin && order.OwnerID != requester.ID {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) cacheOrder(order entities.Order) {
	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order", slog.String("order_id", order.OrderID), slog.Any("error", err))
		return
	}
	s.cache.Set(order.OrderID, data)
}

// publish is fire-and-forget: the order is already durable, so a broker
// failure must not fail the request.
func (s *orderService) publish(ctx context.Context, event entities.OrderEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish order event",
			slog.String("type", string(event.Type)),
			slog.String("order_id", event.OrderID),
			slog.Any("error", err),
		)
	}
}
