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

type AddressRepository struct {
	coll *mongo.Collection
}

var _ model.AddressRepository = (*AddressRepository)(nil)

func NewAddressRepository(db *mongo.Database) *AddressRepository {
	return &AddressRepository{coll: db.Collection(addressesCollection)}
}

func (r *AddressRepository) Create(ctx context.Context, address *model.Address) error {
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, address)
	return errors.Wrap(err, "insert address")
}

func (r *AddressRepository) UnsetDefault(ctx context.Context, userEmail string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"userEmail": userEmail},
		bson.M{"$set": bson.M{"isDefault": false}},
	)
	return errors.Wrap(err, "unset default addresses")
}

func (r *AddressRepository) ListByEmail(ctx context.Context, userEmail string) ([]model.Address, error) {
	sort := bson.D{{Key: "isDefault", Value: -1}, {Key: "createdAt", Value: -1}}
	cur, err := r.coll.Find(ctx, bson.M{"userEmail": userEmail}, options.Find().SetSort(sort))
	if err != nil {
		return nil, errors.Wrap(err, "find addresses")
	}
	var addresses []model.Address
	if err := cur.All(ctx, &addresses); err != nil {
		return nil, errors.Wrap(err, "decode addresses")
	}
	return addresses, nil
}
