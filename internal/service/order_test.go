package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

type orderFixture struct {
	orders     service.OrderService
	carts      service.CartService
	users      *mockUserRepository
	repo       *mockOrderRepository
	tx         *mockTransactor
	dispatcher *mockEventDispatcher
}

func setupOrders(t *testing.T, policy service.TotalPolicy) orderFixture {
	t.Helper()
	f := orderFixture{
		users:      newMockUserRepository(),
		repo:       newMockOrderRepository(),
		tx:         &mockTransactor{},
		dispatcher: &mockEventDispatcher{},
	}
	f.users.seed("uid-1", "one@example.com",
		model.CartLine{ProductID: "p1", Name: "Ring", Price: 19.99, Quantity: 3},
		model.CartLine{ProductID: "p2", Name: "Chain", Price: 5, Quantity: 1},
	)
	f.carts = service.NewCartService(f.users, 3)
	f.orders = service.NewOrderService(f.repo, f.users, f.carts, f.tx, f.dispatcher, policy)
	return f
}

func checkoutInput() service.CreateOrderInput {
	return service.CreateOrderInput{
		Items: []service.OrderItemInput{
			{ProductID: "p1", Name: "Ring", Price: 19.99, Quantity: 3, Image: "ring.jpg"},
			{ProductID: "p2", Name: "Chain", Price: 5, Quantity: 1},
		},
		TotalPrice: floatPtr(64.97),
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)

		order, err := f.orders.Create(ctx, "uid-1", checkoutInput())
		require.NoError(t, err)
		assert.False(t, order.ID.IsZero())
		assert.Equal(t, model.StatusPlaced, order.Status)
		assert.Equal(t, "uid-1", order.FirebaseUID)
		assert.Equal(t, "one@example.com", order.Email)
		assert.Equal(t, 64.97, order.TotalAmount)
		require.Len(t, order.Products, 2)
		assert.Equal(t, 3, order.Products[0].Quantity)

		user := f.users.stored("uid-1")
		assert.Empty(t, user.Cart)
		assert.Zero(t, user.CartCount)

		stored, err := f.repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.Products, stored.Products)
		assert.Equal(t, 1, f.tx.calls)

		require.Len(t, f.dispatcher.events, 1)
		placed, ok := f.dispatcher.events[0].(model.OrderPlaced)
		require.True(t, ok)
		assert.Equal(t, order.ID.Hex(), placed.OrderID)
	})

	t.Run("Lines are snapshots", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)
		in := checkoutInput()

		order, err := f.orders.Create(ctx, "uid-1", in)
		require.NoError(t, err)

		in.Items[0].Price = 1
		in.Items[0].Name = "Changed"
		_, err = f.carts.AddLine(ctx, "uid-1", service.AddLineInput{ProductID: "p1", Name: "Ring", Price: floatPtr(25)})
		require.NoError(t, err)

		stored, err := f.repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ring", stored.Products[0].Name)
		assert.Equal(t, 19.99, stored.Products[0].Price)
	})

	t.Run("Explicit email and identifier fallbacks", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)
		in := service.CreateOrderInput{
			Items: []service.OrderItemInput{
				{MongoID: "mongo-id", Name: "A", Price: 2, Quantity: 1},
				{ID: "plain-id", Name: "B", Price: 3, Quantity: 2},
			},
			TotalPrice: floatPtr(8),
			Email:      "ship@example.com",
		}

		order, err := f.orders.Create(ctx, "uid-1", in)
		require.NoError(t, err)
		assert.Equal(t, "ship@example.com", order.Email)
		assert.Equal(t, "mongo-id", order.Products[0].ProductID)
		assert.Equal(t, 1, order.Products[0].Quantity)
		assert.Equal(t, "plain-id", order.Products[1].ProductID)
	})

	t.Run("Fail on non-positive item quantity", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)
		for _, quantity := range []int{0, -2} {
			in := checkoutInput()
			in.Items[1].Quantity = quantity
			_, err := f.orders.Create(ctx, "uid-1", in)
			assert.ErrorIs(t, err, model.ErrInvalidInput, quantity)
		}
		assert.Empty(t, f.repo.store)
		assert.Equal(t, 4, f.users.stored("uid-1").CartCount)
	})

	t.Run("Fail on empty items or missing total", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)

		_, err := f.orders.Create(ctx, "uid-1", service.CreateOrderInput{TotalPrice: floatPtr(1)})
		assert.ErrorIs(t, err, model.ErrInvalidInput)

		in := checkoutInput()
		in.TotalPrice = nil
		_, err = f.orders.Create(ctx, "uid-1", in)
		assert.ErrorIs(t, err, model.ErrInvalidInput)

		assert.Empty(t, f.repo.store)
		assert.Equal(t, 4, f.users.stored("uid-1").CartCount)
		assert.Empty(t, f.dispatcher.events)
	})

	t.Run("Fail on unknown user", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)
		_, err := f.orders.Create(ctx, "ghost", checkoutInput())
		assert.ErrorIs(t, err, model.ErrUserNotFound)
		assert.Empty(t, f.repo.store)
	})
}

func TestCreateOrderTotalPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Trust keeps a mismatching total", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)
		in := checkoutInput()
		in.TotalPrice = floatPtr(10)

		order, err := f.orders.Create(ctx, "uid-1", in)
		require.NoError(t, err)
		assert.Equal(t, 10.0, order.TotalAmount)
	})

	t.Run("Verify rejects a mismatching total", func(t *testing.T) {
		f := setupOrders(t, service.VerifyTotal)
		in := checkoutInput()
		in.TotalPrice = floatPtr(10)

		_, err := f.orders.Create(ctx, "uid-1", in)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
		assert.Empty(t, f.repo.store)
		assert.Equal(t, 4, f.users.stored("uid-1").CartCount)
	})

	t.Run("Verify tolerates a cent", func(t *testing.T) {
		f := setupOrders(t, service.VerifyTotal)
		in := checkoutInput()
		in.TotalPrice = floatPtr(64.98)

		_, err := f.orders.Create(ctx, "uid-1", in)
		assert.NoError(t, err)
	})
}

func TestCreateOrderIdempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("Replay returns the first order", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)
		in := checkoutInput()
		in.IdempotencyKey = "key-1"

		first, err := f.orders.Create(ctx, "uid-1", in)
		require.NoError(t, err)

		_, err = f.carts.AddLine(ctx, "uid-1", service.AddLineInput{ProductID: "p9", Name: "Late", Price: floatPtr(1)})
		require.NoError(t, err)

		second, err := f.orders.Create(ctx, "uid-1", in)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, f.repo.store, 1)
		assert.Zero(t, f.users.stored("uid-1").CartCount)
		assert.Len(t, f.dispatcher.events, 1)
	})

	t.Run("Keys are scoped to the identity", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)
		f.users.seed("uid-2", "two@example.com")
		in := checkoutInput()
		in.IdempotencyKey = "shared"

		a, err := f.orders.Create(ctx, "uid-1", in)
		require.NoError(t, err)
		b, err := f.orders.Create(ctx, "uid-2", in)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("Concurrent insert is replayed", func(t *testing.T) {
		f := setupOrders(t, service.TrustTotal)
		in := checkoutInput()
		in.IdempotencyKey = "race"

		winner, err := f.orders.Create(ctx, "uid-1", in)
		require.NoError(t, err)
		f.dispatcher.Reset()
		f.repo.hideKeyOnce = true

		loser, err := f.orders.Create(ctx, "uid-1", in)
		require.NoError(t, err)
		assert.Equal(t, winner.ID, loser.ID)
		assert.Len(t, f.repo.store, 1)
		assert.Empty(t, f.dispatcher.events)
	})
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	f := setupOrders(t, service.TrustTotal)

	orders, err := f.orders.List(ctx, "uid-1")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	_, err = f.orders.Create(ctx, "uid-1", checkoutInput())
	require.NoError(t, err)
	orders, err = f.orders.List(ctx, "uid-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestLinesTotal(t *testing.T) {
	total := service.LinesTotal([]model.OrderLine{
		{Price: 19.99, Quantity: 3},
		{Price: 0.01, Quantity: 1},
	})
	assert.True(t, total.Equal(decimal.RequireFromString("59.98")), total.String())
	assert.True(t, service.LinesTotal(nil).IsZero())
}
