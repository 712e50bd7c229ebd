package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront-backend/internal/model"
)

const (
	usersCollection           = "users"
	ordersCollection          = "orders"
	addressesCollection       = "addresses"
	deletedProductsCollection = "deleted_products"
)

// Connect dials the deployment and pings the primary within timeout.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb")
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on for uniqueness and ordering.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "firebaseUID", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "firebaseUID", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{
				Keys: bson.D{{Key: "firebaseUID", Value: 1}, {Key: "idempotencyKey", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}}),
			},
		},
		addressesCollection: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}}},
			{Keys: bson.D{{Key: "firebaseUID", Value: 1}}},
		},
		deletedProductsCollection: {
			{Keys: bson.D{{Key: "deletedAt", Value: -1}}},
		},
	}
	for _, category := range model.Categories {
		specs[category.Collection()] = []mongo.IndexModel{
			{Keys: bson.D{{Key: "subcategory", Value: 1}, {Key: "createdAt", Value: -1}}},
		}
	}

	for collection, models := range specs {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return errors.Wrapf(err, "create indexes on %s", collection)
		}
		log.WithFields(log.Fields{"collection": collection, "indexes": names}).Debug("indexes ensured")
	}
	return nil
}

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
