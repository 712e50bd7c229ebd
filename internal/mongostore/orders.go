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

type OrderRepository struct {
	coll *mongo.Collection
}

var _ model.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(ordersCollection)}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		if isDuplicateKey(err) {
			return errors.Wrapf(model.ErrConflict, "order with idempotency key %q exists", order.IdempotencyKey)
		}
		return errors.Wrap(err, "insert order")
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, identity, key string) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"firebaseUID": identity, "idempotencyKey": key})
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*model.Order, error) {
	var order model.Order
	err := r.coll.FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find order")
	}
	return &order, nil
}

func (r *OrderRepository) ListByIdentity(ctx context.Context, identity string) ([]model.Order, error) {
	return r.find(ctx, bson.M{"firebaseUID": identity})
}

func (r *OrderRepository) List(ctx context.Context) ([]model.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M) ([]model.Order, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	var orders []model.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error) {
	var order model.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	return &order, nil
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "count orders")
}

func (r *OrderRepository) CountByIdentity(ctx context.Context, identity string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"firebaseUID": identity})
	return n, errors.Wrap(err, "count orders")
}

func (r *OrderRepository) CountByStatus(ctx context.Context, statuses ...model.OrderStatus) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"status": bson.M{"$in": statuses}})
	return n, errors.Wrap(err, "count orders")
}

func (r *OrderRepository) DeleteByIdentity(ctx context.Context, identity string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"firebaseUID": identity})
	return errors.Wrap(err, "delete orders")
}
