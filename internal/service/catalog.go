package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/model"
)

const (
	DefaultListLimit   = 50
	curatedListLimit   = 20
	seedProductCount   = 50
	seedImageURLPrefix = "https://res.cloudinary.com/storefront/image/upload/seed/"
)

type ListParams struct {
	Subcategory string
	Search      string
	Limit       int64
}

type ListResult struct {
	Products          []model.Product
	TotalInCollection int64
}

type CatalogService interface {
	List(ctx context.Context, category model.Category, params ListParams) (ListResult, error)
	Get(ctx context.Context, category model.Category, id string) (*model.Product, error)
	Create(ctx context.Context, category model.Category, product model.Product) (*model.Product, error)
	// Seed replaces the contents of a browsable category with generated products.
	Seed(ctx context.Context, category model.Category) (int, error)
}

func NewCatalogService(products model.ProductRepository) CatalogService {
	return &catalogService{products: products}
}

type catalogService struct {
	products model.ProductRepository
}

func (s *catalogService) List(ctx context.Context, category model.Category, params ListParams) (ListResult, error) {
	total, err := s.products.Count(ctx, category)
	if err != nil {
		return ListResult{}, err
	}

	query := model.ProductQuery{Limit: curatedListLimit}
	if category.Browsable() {
		query.Limit = params.Limit
		if query.Limit <= 0 {
			query.Limit = DefaultListLimit
		}
		query.Category = category.FixedCategoryField()
		query.Search = strings.TrimSpace(params.Search)
		if sub := strings.TrimSpace(params.Subcategory); sub != "" {
			query.Subcategory, query.SubcategoryMatch = category.SubcategoryFilter(sub)
		}
	}

	products, err := s.products.Find(ctx, category, query)
	if err != nil {
		return ListResult{}, errors.WithMessagef(err, "list %s", category)
	}
	if products == nil {
		products = []model.Product{}
	}
	log.WithFields(log.Fields{
		"category":    category,
		"subcategory": query.Subcategory,
		"search":      query.Search,
		"found":       len(products),
	}).Debug("catalog listed")
	return ListResult{Products: products, TotalInCollection: total}, nil
}

func (s *catalogService) Get(ctx context.Context, category model.Category, id string) (*model.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, category, oid)
}

func (s *catalogService) Create(ctx context.Context, category model.Category, product model.Product) (*model.Product, error) {
	if !category.Browsable() {
		return nil, errors.Wrapf(model.ErrInvalidInput, "category %s does not accept new products", category)
	}
	return insertProduct(ctx, s.products, category, product)
}

func (s *catalogService) Seed(ctx context.Context, category model.Category) (int, error) {
	plan, ok := seedPlans[category]
	if !ok {
		return 0, errors.Wrapf(model.ErrInvalidInput, "category %s cannot be seeded", category)
	}
	products := plan.generate(time.Now().UTC())
	n, err := s.products.ReplaceAll(ctx, category, products)
	if err != nil {
		return 0, errors.WithMessagef(err, "seed %s", category)
	}
	log.WithFields(log.Fields{"category": category, "count": n}).Info("catalog seeded")
	return n, nil
}

func insertProduct(ctx context.Context, products model.ProductRepository, category model.Category, product model.Product) (*model.Product, error) {
	if product.Category == "" {
		product.Category = string(category)
		if fixed := category.FixedCategoryField(); fixed != "" {
			product.Category = fixed
		}
	}
	product.Subcategory = strings.ToLower(product.Subcategory)
	if product.Stock == 0 {
		product.Stock = model.DefaultStock
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	product.ID = primitive.NilObjectID
	product.CreatedAt = now
	product.UpdatedAt = now
	if err := products.Insert(ctx, category, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

type seedPlan struct {
	categoryField string
	subcategories []string
	adjective     string
	discounted    bool
}

var seedPlans = map[model.Category]seedPlan{
	model.Accessories: {
		categoryField: "accessories",
		subcategories: []string{"anklets", "bracelets", "necklaces", "watches"},
		adjective:     "Beautiful",
	},
	model.Footwear: {
		categoryField: "footwear",
		subcategories: []string{"sandals", "boots", "flats", "sneakers"},
		adjective:     "Stylish and comfortable",
		discounted:    true,
	},
	model.Fashion: {
		categoryField: "fashion",
		subcategories: []string{"comfy", "kurta", "belts", "scarf"},
		adjective:     "Stylish and elegant",
		discounted:    true,
	},
	model.Others: {
		categoryField: "Other",
		subcategories: []string{"cleanser", "moisturizer", "sunscreen", "clutch", "tote_bag", "perfumes", "glasses"},
		adjective:     "High quality",
		discounted:    true,
	},
}

func (p seedPlan) generate(now time.Time) []model.Product {
	products := make([]model.Product, 0, seedProductCount)
	for i := 1; i <= seedProductCount; i++ {
		sub := p.subcategories[rand.IntN(len(p.subcategories))]
		price := float64(rand.IntN(5000) + 500)
		product := model.Product{
			Name:        fmt.Sprintf("%s Product %d", titleCase(strings.ReplaceAll(sub, "_", " ")), i),
			Description: fmt.Sprintf("%s %s with premium materials and craftsmanship.", p.adjective, strings.ReplaceAll(sub, "_", " ")),
			Price:       price,
			Image:       seedImageURLPrefix + sub + ".jpg",
			Category:    p.categoryField,
			Subcategory: sub,
			Stock:       rand.IntN(100) + 10,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if p.discounted {
			discounted := price - float64(rand.IntN(200))
			product.DiscountedPrice = &discounted
		}
		products = append(products, product)
	}
	return products
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
