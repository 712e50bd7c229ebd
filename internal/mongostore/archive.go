package mongostore

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/internal/model"
)

type DeletedProductRepository struct {
	coll *mongo.Collection
}

var _ model.DeletedProductRepository = (*DeletedProductRepository)(nil)

func NewDeletedProductRepository(db *mongo.Database) *DeletedProductRepository {
	return &DeletedProductRepository{coll: db.Collection(deletedProductsCollection)}
}

func (r *DeletedProductRepository) Create(ctx context.Context, deleted *model.DeletedProduct) error {
	if deleted.ID.IsZero() {
		deleted.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, deleted)
	return errors.Wrap(err, "archive product")
}

func (r *DeletedProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.DeletedProduct, error) {
	var deleted model.DeletedProduct
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(model.ErrProductNotFound, "deleted product not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find deleted product")
	}
	return &deleted, nil
}

func (r *DeletedProductRepository) List(ctx context.Context) ([]model.DeletedProduct, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "deletedAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find deleted products")
	}
	var deleted []model.DeletedProduct
	if err := cur.All(ctx, &deleted); err != nil {
		return nil, errors.Wrap(err, "decode deleted products")
	}
	return deleted, nil
}

func (r *DeletedProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete archived product")
	}
	if res.DeletedCount == 0 {
		return errors.Wrap(model.ErrProductNotFound, "deleted product not found")
	}
	return nil
}
