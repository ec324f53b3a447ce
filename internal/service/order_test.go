package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/shopengine/order-service/internal/entities"
	"github.com/shopengine/order-service/internal/service"
	"github.com/shopengine/order-service/pkg/trm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, ownerID string, lines []entities.OrderLine, total decimal.Decimal, status entities.Status) (string, error) {
	args := m.Called(ctx, ownerID, lines, total, status)
	return args.String(0), args.Error(1)
}

func (m *mockOrderRepo) ListAll(ctx context.Context) ([]entities.OrderSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.OrderSummary), args.Error(1)
}

func (m *mockOrderRepo) ListByOwner(ctx context.Context, ownerID string) ([]entities.OrderSummary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]entities.OrderSummary), args.Error(1)
}

func (m *mockOrderRepo) LatestOrders(ctx context.Context, count int) ([]entities.OrderSummary, error) {
	args := m.Called(ctx, count)
	return args.Get(0).([]entities.OrderSummary), args.Error(1)
}

func (m *mockOrderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orderID string, status entities.Status) (entities.Order, error) {
	args := m.Called(ctx, orderID, status)
	return args.Get(0).(entities.Order), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(key string) ([]byte, bool) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Bool(1)
}

func (m *mockCache) Set(key string, value []byte) {
	m.Called(key, value)
}

func (m *mockCache) Delete(key string) {
	m.Called(key)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event entities.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// passthroughTxManager runs callbacks directly; the repo mocks decide
// whether the "transaction" fails.
type passthroughTxManager struct{}

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

func (passthroughTxManager) BeginTx(ctx context.Context, _ *sql.TxOptions) (context.Context, trm.Transaction, error) {
	return ctx, noopTx{}, nil
}

func (passthroughTxManager) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	return callback(ctx)
}

type orderServiceAPI interface {
	CreateOrder(ctx context.Context, requester entities.Requester, items []service.NewOrderItem, total decimal.Decimal) (string, error)
	ListOrders(ctx context.Context, requester entities.Requester) ([]entities.OrderSummary, error)
	GetOrderByID(ctx context.Context, requester entities.Requester, orderID string) (entities.Order, error)
	ChangeStatus(ctx context.Context, requester entities.Requester, orderID string, status string) (entities.Order, error)
	WarmUpCache(ctx context.Context, count int) error
}

func newTestService(t *testing.T) (*mockOrderRepo, *mockCache, *mockPublisher, orderServiceAPI) {
	t.Helper()
	repo := new(mockOrderRepo)
	cache := new(mockCache)
	publisher := new(mockPublisher)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewOrderService(logger, passthroughTxManager{}, repo, cache, publisher, entities.StatusDelivered)
	return repo, cache, publisher, svc
}

func TestOrderService_CreateOrder(t *testing.T) {
	user := entities.Requester{ID: "u1"}
	dbError := errors.New("db error")

	t.Run("success", func(t *testing.T) {
		repo, _, publisher, svc := newTestService(t)

		repo.On("CreateOrder", mock.Anything, "u1", mock.Anything, mock.Anything, entities.StatusDelivered).
			Return("order-1", nil).Once()
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e entities.OrderEvent) bool {
			return e.Type == entities.OrderEventCreated && e.OrderID == "order-1" && e.OwnerID == "u1"
		})).Return(nil).Once()

		items := []service.NewOrderItem{item("5", 2, "1000")}
		orderID, err := svc.CreateOrder(context.Background(), user, items, decimal.MustParse("2000"))

		require.NoError(t, err)
		assert.Equal(t, "order-1", orderID)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("total mismatch never reaches the store", func(t *testing.T) {
		repo, _, publisher, svc := newTestService(t)

		items := []service.NewOrderItem{item("5", 2, "1000")}
		_, err := svc.CreateOrder(context.Background(), user, items, decimal.MustParse("1999"))

		var mismatch *entities.TotalMismatchError
		require.ErrorAs(t, err, &mismatch)
		repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("empty items never reach the store", func(t *testing.T) {
		repo, _, _, svc := newTestService(t)

		_, err := svc.CreateOrder(context.Background(), user, nil, decimal.MustParse("10"))

		assert.ErrorIs(t, err, entities.ErrEmptyItems)
		repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("persistence failure propagates, no event", func(t *testing.T) {
		repo, _, publisher, svc := newTestService(t)

		repo.On("CreateOrder", mock.Anything, "u1", mock.Anything, mock.Anything, entities.StatusDelivered).
			Return("", dbError).Once()

		items := []service.NewOrderItem{item("5", 2, "1000")}
		_, err := svc.CreateOrder(context.Background(), user, items, decimal.MustParse("2000"))

		assert.ErrorIs(t, err, dbError)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure does not fail the order", func(t *testing.T) {
		repo, _, publisher, svc := newTestService(t)

		repo.On("CreateOrder", mock.Anything, "u1", mock.Anything, mock.Anything, entities.StatusDelivered).
			Return("order-1", nil).Once()
		publisher.On("Publish", mock.Anything, mock.Anything).
			Return(errors.New("broker down")).Once()

		items := []service.NewOrderItem{item("5", 2, "1000")}
		orderID, err := svc.CreateOrder(context.Background(), user, items, decimal.MustParse("2000"))

		require.NoError(t, err)
		assert.Equal(t, "order-1", orderID)
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	ownOrders := []entities.OrderSummary{
		{OrderID: "o1", OwnerID: "u1"},
		{OrderID: "o2", OwnerID: "u1"},
	}
	allOrders := []entities.OrderSummary{
		{OrderID: "o1", OwnerID: "u1", OwnerName: "Alice"},
		{OrderID: "o2", OwnerID: "u1", OwnerName: "Alice"},
		{OrderID: "o3", OwnerID: "u2", OwnerName: "Bob"},
	}

	t.Run("non-admin sees only own orders", func(t *testing.T) {
		repo, _, _, svc := newTestService(t)
		repo.On("ListByOwner", mock.Anything, "u1").Return(ownOrders, nil).Once()

		got, err := svc.ListOrders(context.Background(), entities.Requester{ID: "u1"})

		require.NoError(t, err)
		assert.Equal(t, ownOrders, got)
		repo.AssertNotCalled(t, "ListAll", mock.Anything)
	})

	t.Run("admin sees everything with owner names", func(t *testing.T) {
		repo, _, _, svc := newTestService(t)
		repo.On("ListAll", mock.Anything).Return(allOrders, nil).Once()

		got, err := svc.ListOrders(context.Background(), entities.Requester{ID: "admin", IsAdmin: true})

		require.NoError(t, err)
		assert.Equal(t, allOrders, got)
		repo.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything)
	})

	t.Run("missing requester", func(t *testing.T) {
		_, _, _, svc := newTestService(t)

		_, err := svc.ListOrders(context.Background(), entities.Requester{})

		assert.ErrorIs(t, err, entities.ErrMissingRequester)
	})

	t.Run("repeated reads return identical results", func(t *testing.T) {
		repo, _, _, svc := newTestService(t)
		repo.On("ListByOwner", mock.Anything, "u1").Return(ownOrders, nil).Twice()

		first, err := svc.ListOrders(context.Background(), entities.Requester{ID: "u1"})
		require.NoError(t, err)
		second, err := svc.ListOrders(context.Background(), entities.Requester{ID: "u1"})
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestOrderService_GetOrderByID(t *testing.T) {
	order := entities.Order{
		OrderID:   "o1",
		OwnerID:   "u1",
		Total:     decimal.MustParse("2000"),
		Status:    entities.StatusDelivered,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Lines: []entities.OrderLine{
			{LineID: "l1", ProductID: "5", Quantity: 2, UnitPrice: decimal.MustParse("1000")},
		},
	}
	data, err := order.Marshal()
	require.NoError(t, err)

	t.Run("cache hit", func(t *testing.T) {
		repo, cache, _, svc := newTestService(t)
		cache.On("Get", "o1").Return(data, true).Once()

		got, err := svc.GetOrderByID(context.Background(), entities.Requester{ID: "u1"}, "o1")

		require.NoError(t, err)
		assert.Equal(t, order.OrderID, got.OrderID)
		assert.Zero(t, got.Total.Cmp(order.Total))
		repo.AssertNotCalled(t, "GetOrderByID", mock.Anything, mock.Anything)
	})

	t.Run("cache miss falls back to repo and caches", func(t *testing.T) {
		repo, cache, _, svc := newTestService(t)
		cache.On("Get", "o1").Return(nil, false).Once()
		repo.On("GetOrderByID", mock.Anything, "o1").Return(order, nil).Once()
		cache.On("Set", "o1", mock.Anything).Once()

		got, err := svc.GetOrderByID(context.Background(), entities.Requester{ID: "u1"}, "o1")

		require.NoError(t, err)
		assert.Equal(t, "o1", got.OrderID)
		cache.AssertExpectations(t)
	})

	t.Run("foreign order resolves as not found for non-admin", func(t *testing.T) {
		_, cache, _, svc := newTestService(t)
		cache.On("Get", "o1").Return(data, true).Once()

		_, err := svc.GetOrderByID(context.Background(), entities.Requester{ID: "u2"}, "o1")

		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})

	t.Run("admin sees any order", func(t *testing.T) {
		_, cache, _, svc := newTestService(t)
		cache.On("Get", "o1").Return(data, true).Once()

		got, err := svc.GetOrderByID(context.Background(), entities.Requester{ID: "admin", IsAdmin: true}, "o1")

		require.NoError(t, err)
		assert.Equal(t, "o1", got.OrderID)
	})

	t.Run("not found", func(t *testing.T) {
		repo, cache, _, svc := newTestService(t)
		cache.On("Get", "missing").Return(nil, false).Once()
		repo.On("GetOrderByID", mock.Anything, "missing").
			Return(entities.Order{}, entities.ErrOrderNotFound).Once()

		_, err := svc.GetOrderByID(context.Background(), entities.Requester{ID: "u1"}, "missing")

		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})
}

func TestOrderService_ChangeStatus(t *testing.T) {
	admin := entities.Requester{ID: "admin", IsAdmin: true}
	updated := entities.Order{OrderID: "o1", OwnerID: "u1", Status: entities.StatusShipped}

	t.Run("non-admin is forbidden before any lookup", func(t *testing.T) {
		repo, _, publisher, svc := newTestService(t)

		_, err := svc.ChangeStatus(context.Background(), entities.Requester{ID: "u1"}, "o1", "delivered")

		assert.ErrorIs(t, err, entities.ErrForbidden)
		repo.AssertNotCalled(t, "GetOrderByID", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("invalid status", func(t *testing.T) {
		repo, _, _, svc := newTestService(t)

		_, err := svc.ChangeStatus(context.Background(), admin, "o1", "completed")

		assert.ErrorIs(t, err, entities.ErrInvalidStatus)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown order", func(t *testing.T) {
		repo, _, _, svc := newTestService(t)
		repo.On("GetOrderByID", mock.Anything, "missing").
			Return(entities.Order{}, entities.ErrOrderNotFound).Once()

		_, err := svc.ChangeStatus(context.Background(), admin, "missing", "shipped")

		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})

	t.Run("success refreshes cache and publishes", func(t *testing.T) {
		repo, cache, publisher, svc := newTestService(t)
		repo.On("GetOrderByID", mock.Anything, "o1").
			Return(entities.Order{OrderID: "o1", OwnerID: "u1", Status: entities.StatusPending}, nil).Once()
		repo.On("UpdateStatus", mock.Anything, "o1", entities.StatusShipped).
			Return(updated, nil).Once()
		cache.On("Set", "o1", mock.Anything).Once()
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e entities.OrderEvent) bool {
			return e.Type == entities.OrderEventStatusChanged && e.Status == entities.StatusShipped
		})).Return(nil).Once()

		got, err := svc.ChangeStatus(context.Background(), admin, "o1", "shipped")

		require.NoError(t, err)
		assert.Equal(t, entities.StatusShipped, got.Status)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})
}

func TestOrderService_WarmUpCache(t *testing.T) {
	repo, cache, _, svc := newTestService(t)

	summaries := []entities.OrderSummary{{OrderID: "o1"}, {OrderID: "o2"}}
	repo.On("LatestOrders", mock.Anything, 2).Return(summaries, nil).Once()
	repo.On("GetOrderByID", mock.Anything, "o1").Return(entities.Order{OrderID: "o1"}, nil).Once()
	repo.On("GetOrderByID", mock.Anything, "o2").Return(entities.Order{OrderID: "o2"}, nil).Once()
	cache.On("Set", "o1", mock.Anything).Once()
	cache.On("Set", "o2", mock.Anything).Once()

	err := svc.WarmUpCache(context.Background(), 2)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
