package model_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/model"
)

func cartTotal(u *model.User) int {
	total := 0
	for _, line := range u.Cart {
		total += line.Quantity
	}
	return total
}

func TestAddLine(t *testing.T) {
	t.Run("Merges lines of the same product", func(t *testing.T) {
		u := &model.User{}
		require.NoError(t, u.AddLine(model.CartLine{ProductID: "p1", Name: "Ring", Price: 10, Quantity: 2}))
		require.NoError(t, u.AddLine(model.CartLine{ProductID: "p1", Name: "Renamed", Price: 99, Quantity: 3}))

		require.Len(t, u.Cart, 1)
		assert.Equal(t, 5, u.Cart[0].Quantity)
		assert.Equal(t, "Ring", u.Cart[0].Name)
		assert.Equal(t, 10.0, u.Cart[0].Price)
		assert.Equal(t, 5, u.CartCount)
	})

	t.Run("Appends new products in order", func(t *testing.T) {
		u := &model.User{}
		require.NoError(t, u.AddLine(model.CartLine{ProductID: "a", Quantity: 1}))
		require.NoError(t, u.AddLine(model.CartLine{ProductID: "b", Quantity: 4}))

		require.Len(t, u.Cart, 2)
		assert.Equal(t, "a", u.Cart[0].ProductID)
		assert.Equal(t, "b", u.Cart[1].ProductID)
		assert.Equal(t, cartTotal(u), u.CartCount)
	})

	t.Run("Fail on non positive quantity", func(t *testing.T) {
		u := &model.User{}
		assert.ErrorIs(t, u.AddLine(model.CartLine{ProductID: "a", Quantity: 0}), model.ErrInvalidInput)
		assert.ErrorIs(t, u.AddLine(model.CartLine{ProductID: "a", Quantity: -2}), model.ErrInvalidInput)
		assert.Empty(t, u.Cart)
		assert.Zero(t, u.CartCount)
	})
}

func TestSetLineQuantity(t *testing.T) {
	t.Run("Update then remove with zero", func(t *testing.T) {
		u := &model.User{}
		require.NoError(t, u.AddLine(model.CartLine{ProductID: "p1", Quantity: 2}))
		require.NoError(t, u.AddLine(model.CartLine{ProductID: "p2", Quantity: 1}))

		require.NoError(t, u.SetLineQuantity("p1", 5))
		assert.Equal(t, 5, u.Cart[0].Quantity)
		assert.Equal(t, 6, u.CartCount)

		require.NoError(t, u.SetLineQuantity("p1", 0))
		require.Len(t, u.Cart, 1)
		assert.Equal(t, "p2", u.Cart[0].ProductID)
		assert.Equal(t, 1, u.CartCount)
	})

	t.Run("Fail on missing line", func(t *testing.T) {
		u := &model.User{}
		assert.ErrorIs(t, u.SetLineQuantity("ghost", 3), model.ErrCartLineNotFound)
	})

	t.Run("Fail on negative quantity", func(t *testing.T) {
		u := &model.User{}
		require.NoError(t, u.AddLine(model.CartLine{ProductID: "p1", Quantity: 2}))
		assert.ErrorIs(t, u.SetLineQuantity("p1", -1), model.ErrInvalidInput)
		assert.Equal(t, 2, u.CartCount)
	})
}

func TestRemoveAndClear(t *testing.T) {
	u := &model.User{}
	require.NoError(t, u.AddLine(model.CartLine{ProductID: "a", Quantity: 2}))
	require.NoError(t, u.AddLine(model.CartLine{ProductID: "b", Quantity: 3}))

	require.NoError(t, u.RemoveLine("a"))
	assert.Equal(t, 3, u.CartCount)
	assert.ErrorIs(t, u.RemoveLine("a"), model.ErrCartLineNotFound)

	u.ClearCart()
	assert.NotNil(t, u.Cart)
	assert.Empty(t, u.Cart)
	assert.Zero(t, u.CartCount)
}

func TestCartInvariantsOverRandomSequences(t *testing.T) {
	products := []string{"p1", "p2", "p3", "p4"}
	for seed := uint64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, seed*31))
			u := &model.User{Cart: []model.CartLine{}}
			for step := 0; step < 200; step++ {
				id := products[rng.IntN(len(products))]
				switch rng.IntN(4) {
				case 0, 1:
					_ = u.AddLine(model.CartLine{ProductID: id, Name: id, Price: 1, Quantity: rng.IntN(4) - 1})
				case 2:
					_ = u.SetLineQuantity(id, rng.IntN(5)-1)
				case 3:
					_ = u.RemoveLine(id)
				}

				require.Equal(t, cartTotal(u), u.CartCount, "step %d", step)
				seen := make(map[string]bool, len(u.Cart))
				for _, line := range u.Cart {
					require.False(t, seen[line.ProductID], "step %d: duplicate %s", step, line.ProductID)
					require.Positive(t, line.Quantity, "step %d", step)
					seen[line.ProductID] = true
				}
			}
		})
	}
}
