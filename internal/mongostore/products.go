package mongostore

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/internal/model"
)

// ProductRepository binds every catalog category to its collection once, at construction.
type ProductRepository struct {
	colls map[model.Category]*mongo.Collection
}

var _ model.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(db *mongo.Database) *ProductRepository {
	colls := make(map[model.Category]*mongo.Collection, len(model.Categories))
	for _, category := range model.Categories {
		colls[category] = db.Collection(category.Collection())
	}
	return &ProductRepository{colls: colls}
}

func (r *ProductRepository) coll(category model.Category) (*mongo.Collection, error) {
	c, ok := r.colls[category]
	if !ok {
		return nil, errors.Wrapf(model.ErrInvalidInput, "invalid category %q", category)
	}
	return c, nil
}

func (r *ProductRepository) Find(ctx context.Context, category model.Category, query model.ProductQuery) ([]model.Product, error) {
	coll, err := r.coll(category)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(newestFirst)
	if query.Limit > 0 {
		opts.SetLimit(query.Limit)
	}
	cur, err := coll.Find(ctx, productFilter(query), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", category)
	}
	var products []model.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, errors.Wrapf(err, "decode %s", category)
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, category model.Category, id primitive.ObjectID) (*model.Product, error) {
	coll, err := r.coll(category)
	if err != nil {
		return nil, err
	}
	var product model.Product
	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", category)
	}
	return &product, nil
}

func (r *ProductRepository) Count(ctx context.Context, category model.Category) (int64, error) {
	coll, err := r.coll(category)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.M{})
	return n, errors.Wrapf(err, "count %s", category)
}

func (r *ProductRepository) TotalStock(ctx context.Context, category model.Category) (int64, error) {
	coll, err := r.coll(category)
	if err != nil {
		return 0, err
	}
	cur, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "stock", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$stock", 0}}}}}},
		}}},
	})
	if err != nil {
		return 0, errors.Wrapf(err, "aggregate stock of %s", category)
	}
	var rows []struct {
		Stock int64 `bson:"stock"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, errors.Wrapf(err, "decode stock of %s", category)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Stock, nil
}

func (r *ProductRepository) Insert(ctx context.Context, category model.Category, product *model.Product) error {
	coll, err := r.coll(category)
	if err != nil {
		return err
	}
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	_, err = coll.InsertOne(ctx, product)
	return errors.Wrapf(err, "insert into %s", category)
}

func (r *ProductRepository) ReplaceAll(ctx context.Context, category model.Category, products []model.Product) (int, error) {
	coll, err := r.coll(category)
	if err != nil {
		return 0, err
	}
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return 0, errors.Wrapf(err, "clear %s", category)
	}
	if len(products) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, len(products))
	for i := range products {
		if products[i].ID.IsZero() {
			products[i].ID = primitive.NewObjectID()
		}
		docs[i] = products[i]
	}
	res, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, errors.Wrapf(err, "insert into %s", category)
	}
	return len(res.InsertedIDs), nil
}

func (r *ProductRepository) Update(ctx context.Context, category model.Category, product *model.Product) error {
	coll, err := r.coll(category)
	if err != nil {
		return err
	}
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return errors.Wrapf(err, "replace in %s", category)
	}
	if res.MatchedCount == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, category model.Category, id primitive.ObjectID) error {
	coll, err := r.coll(category)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete from %s", category)
	}
	if res.DeletedCount == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// productFilter translates a catalog query into a find filter. User input is always
// matched literally, never interpreted as a pattern.
func productFilter(q model.ProductQuery) bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Subcategory != "" {
		switch q.SubcategoryMatch {
		case model.MatchContains:
			filter["subcategory"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Subcategory), Options: "i"}
		case model.MatchLoose:
			filter["subcategory"] = primitive.Regex{Pattern: loosePattern(q.Subcategory), Options: "i"}
		default:
			filter["subcategory"] = q.Subcategory
		}
	}
	if q.Search != "" {
		search := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": search},
			bson.M{"description": search},
		}
	}
	return filter
}

// loosePattern builds an anchored pattern where every run of spaces or underscores in s
// matches any run (including none) of spaces or underscores, so "tote bag" matches
// "tote_bag", "tote bag" and "totebag".
func loosePattern(s string) string {
	var b strings.Builder
	b.WriteString("^")
	gap := false
	for _, r := range s {
		if r == ' ' || r == '_' || r == '\t' {
			gap = true
			continue
		}
		if gap {
			b.WriteString(`[\s_]*`)
			gap = false
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	if gap {
		b.WriteString(`[\s_]*`)
	}
	b.WriteString("$")
	return b.String()
}
