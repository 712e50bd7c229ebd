package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

func newProduct(sub string, stock int) model.Product {
	return model.Product{
		Name:        "Item " + sub,
		Description: "desc",
		Price:       100,
		Image:       "https://img/" + sub + ".jpg",
		Category:    "accessories",
		Subcategory: sub,
		Stock:       stock,
	}
}

func TestCatalogList(t *testing.T) {
	ctx := context.Background()
	repo := newMockProductRepository()
	catalog := service.NewCatalogService(repo)

	t.Run("Browsable applies filters", func(t *testing.T) {
		result, err := catalog.List(ctx, model.Footwear, service.ListParams{Subcategory: "Sneakes", Search: " boot ", Limit: 5})
		require.NoError(t, err)
		assert.NotNil(t, result.Products)
		assert.Equal(t, "sneakers", repo.lastQuery.Subcategory)
		assert.Equal(t, model.MatchExact, repo.lastQuery.SubcategoryMatch)
		assert.Equal(t, "boot", repo.lastQuery.Search)
		assert.EqualValues(t, 5, repo.lastQuery.Limit)
	})

	t.Run("Others is limited to the Other category", func(t *testing.T) {
		_, err := catalog.List(ctx, model.Others, service.ListParams{Subcategory: "tote bag"})
		require.NoError(t, err)
		assert.Equal(t, "Other", repo.lastQuery.Category)
		assert.Equal(t, model.MatchLoose, repo.lastQuery.SubcategoryMatch)
		assert.EqualValues(t, service.DefaultListLimit, repo.lastQuery.Limit)
	})

	t.Run("Curated ignores filters", func(t *testing.T) {
		repo.store[model.Trending] = []model.Product{newProduct("rings", 1), newProduct("watches", 2)}
		result, err := catalog.List(ctx, model.Trending, service.ListParams{Subcategory: "rings", Search: "x", Limit: 100})
		require.NoError(t, err)
		assert.Empty(t, repo.lastQuery.Subcategory)
		assert.Empty(t, repo.lastQuery.Search)
		assert.EqualValues(t, 20, repo.lastQuery.Limit)
		assert.Len(t, result.Products, 2)
		assert.EqualValues(t, 2, result.TotalInCollection)
	})
}

func TestCatalogCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newMockProductRepository()
	catalog := service.NewCatalogService(repo)

	p := newProduct("Anklets", 0)
	p.Category = ""
	created, err := catalog.Create(ctx, model.Accessories, p)
	require.NoError(t, err)
	assert.Equal(t, "accessories", created.Category)
	assert.Equal(t, "anklets", created.Subcategory)
	assert.Equal(t, model.DefaultStock, created.Stock)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := catalog.Get(ctx, model.Accessories, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	other := newProduct("glasses", 1)
	other.Category = ""
	created, err = catalog.Create(ctx, model.Others, other)
	require.NoError(t, err)
	assert.Equal(t, "Other", created.Category)

	_, err = catalog.Create(ctx, model.Discount, newProduct("x", 1))
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	bad := newProduct("x", 1)
	bad.Name = ""
	_, err = catalog.Create(ctx, model.Fashion, bad)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = catalog.Get(ctx, model.Accessories, "not-an-id")
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	_, err = catalog.Get(ctx, model.Accessories, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestCatalogSeed(t *testing.T) {
	ctx := context.Background()
	repo := newMockProductRepository()
	catalog := service.NewCatalogService(repo)
	repo.store[model.Others] = []model.Product{newProduct("old", 1)}

	for _, category := range []model.Category{model.Accessories, model.Footwear, model.Fashion, model.Others} {
		n, err := catalog.Seed(ctx, category)
		require.NoError(t, err)
		assert.Equal(t, 50, n)
		require.Len(t, repo.store[category], 50)
		for _, p := range repo.store[category] {
			require.NoError(t, p.Validate())
			assert.True(t, strings.HasPrefix(p.Image, "https://"))
		}
	}
	for _, p := range repo.store[model.Others] {
		assert.Equal(t, "Other", p.Category)
		assert.NotNil(t, p.DiscountedPrice)
	}

	_, err := catalog.Seed(ctx, model.NewArrival)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
