package model

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the closed set of catalog collections. Every value is bound to a
// collection handle when the store is opened.
type Category string

const (
	Accessories Category = "accessories"
	Footwear    Category = "footwear"
	Fashion     Category = "fashion"
	Others      Category = "others"
	NewArrival  Category = "newarrival"
	Trending    Category = "trending"
	Discount    Category = "discount"
)

// Categories lists every category in dashboard order.
var Categories = []Category{NewArrival, Trending, Discount, Fashion, Footwear, Others, Accessories}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidInput, "invalid category %q", s)
}

// Collection is the name of the backing collection.
func (c Category) Collection() string {
	return string(c)
}

// Browsable categories support filtering, search, creation and seeding.
// The rest are curated lists that only expose their newest entries.
func (c Category) Browsable() bool {
	switch c {
	case Accessories, Footwear, Fashion, Others:
		return true
	}
	return false
}

// SubcategoryMatch describes how a subcategory filter is matched against stored values.
type SubcategoryMatch int

const (
	MatchExact SubcategoryMatch = iota
	// MatchContains is a case-insensitive substring match.
	MatchContains
	// MatchLoose is a case-insensitive whole-value match that ignores spaces and underscores.
	MatchLoose
)

var subcategoryAliases = map[Category]map[string]string{
	Accessories: {
		"anklet":   "anklets",
		"bracelet": "bracelets",
		"necklace": "necklaces",
		"watch":    "watches",
	},
	Footwear: {
		"sandal":  "sandals",
		"boot":    "boots",
		"flat":    "flats",
		"sneaker": "sneakers",
		"sneakes": "sneakers",
	},
	Fashion: {
		"belt": "belts",
	},
}

// SubcategoryFilter normalizes a user supplied subcategory for this category.
func (c Category) SubcategoryFilter(raw string) (string, SubcategoryMatch) {
	if c == Others {
		return raw, MatchLoose
	}
	value := strings.ToLower(raw)
	if alias, ok := subcategoryAliases[c][value]; ok {
		value = alias
	}
	if c == Fashion {
		return value, MatchContains
	}
	return value, MatchExact
}

// FixedCategoryField is the stored "category" value every listing of this collection is limited to.
func (c Category) FixedCategoryField() string {
	if c == Others {
		return "Other"
	}
	return ""
}

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description" json:"description"`
	Price           float64            `bson:"price" json:"price"`
	DiscountedPrice *float64           `bson:"discounted_price,omitempty" json:"discounted_price,omitempty"`
	Image           string             `bson:"image" json:"image"`
	Category        string             `bson:"category" json:"category"`
	Subcategory     string             `bson:"subcategory" json:"subcategory"`
	Stock           int                `bson:"stock" json:"stock"`
	Stars           float64            `bson:"stars,omitempty" json:"stars,omitempty"`
	BrandName       string             `bson:"brand_name,omitempty" json:"brand_name,omitempty"`
	Material        string             `bson:"material,omitempty" json:"material,omitempty"`
	Color           string             `bson:"color,omitempty" json:"color,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const DefaultStock = 50

func (p *Product) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if p.Description == "" {
		missing = append(missing, "description")
	}
	if p.Image == "" {
		missing = append(missing, "image")
	}
	if p.Category == "" {
		missing = append(missing, "category")
	}
	if p.Subcategory == "" {
		missing = append(missing, "subcategory")
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrInvalidInput, "missing %s", strings.Join(missing, ", "))
	}
	if p.Price < 0 || p.Stock < 0 || (p.DiscountedPrice != nil && *p.DiscountedPrice < 0) {
		return errors.Wrap(ErrInvalidInput, "price and stock must not be negative")
	}
	if p.Stars < 0 || p.Stars > 5 {
		return errors.Wrap(ErrInvalidInput, "stars must be between 0 and 5")
	}
	return nil
}

// ProductPatch holds the fields an admin update may change. Nil fields are left untouched.
type ProductPatch struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price"`
	DiscountedPrice *float64 `json:"discounted_price"`
	Image           *string  `json:"image"`
	Subcategory     *string  `json:"subcategory"`
	Stock           *int     `json:"stock"`
	Stars           *float64 `json:"stars"`
	BrandName       *string  `json:"brand_name"`
	Material        *string  `json:"material"`
	Color           *string  `json:"color"`
}

func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.DiscountedPrice != nil {
		v := *p.DiscountedPrice
		product.DiscountedPrice = &v
	}
	if p.Image != nil {
		product.Image = *p.Image
	}
	if p.Subcategory != nil {
		product.Subcategory = *p.Subcategory
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Stars != nil {
		product.Stars = *p.Stars
	}
	if p.BrandName != nil {
		product.BrandName = *p.BrandName
	}
	if p.Material != nil {
		product.Material = *p.Material
	}
	if p.Color != nil {
		product.Color = *p.Color
	}
}

type ProductQuery struct {
	Subcategory      string
	SubcategoryMatch SubcategoryMatch
	// Category restricts the stored "category" field when non-empty.
	Category string
	// Search is matched case-insensitively against name and description.
	Search string
	Limit  int64
}

type ProductRepository interface {
	Find(ctx context.Context, category Category, query ProductQuery) ([]Product, error)
	FindByID(ctx context.Context, category Category, id primitive.ObjectID) (*Product, error)
	Count(ctx context.Context, category Category) (int64, error)
	TotalStock(ctx context.Context, category Category) (int64, error)
	Insert(ctx context.Context, category Category, product *Product) error
	ReplaceAll(ctx context.Context, category Category, products []Product) (int, error)
	Update(ctx context.Context, category Category, product *Product) error
	Delete(ctx context.Context, category Category, id primitive.ObjectID) error
}

// DeletedProduct is the archived copy of a product removed by an admin.
type DeletedProduct struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OriginalID         string             `bson:"originalId" json:"originalId"`
	Product            Product            `bson:"product" json:"product"`
	OriginalCollection Category           `bson:"originalCollection" json:"originalCollection"`
	DeletedBy          string             `bson:"deletedBy" json:"deletedBy"`
	DeletedAt          time.Time          `bson:"deletedAt" json:"deletedAt"`
}

type DeletedProductRepository interface {
	Create(ctx context.Context, deleted *DeletedProduct) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*DeletedProduct, error)
	// List returns archived products most recently deleted first.
	List(ctx context.Context) ([]DeletedProduct, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
