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

type UserRepository struct {
	coll *mongo.Collection
}

var _ model.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Cart == nil {
		user.Cart = []model.CartLine{}
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return errors.Wrap(model.ErrConflict, "user already exists")
		}
		return errors.Wrap(err, "insert user")
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	next := *user
	next.Version = user.Version + 1
	if next.Cart == nil {
		next.Cart = []model.CartLine{}
	}

	res, err := r.coll.ReplaceOne(ctx, versionFilter(user.ID, user.Version), &next)
	if err != nil {
		if isDuplicateKey(err) {
			return errors.Wrap(model.ErrConflict, "identity or email already in use")
		}
		return errors.Wrap(err, "replace user")
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": user.ID})
		if err != nil {
			return errors.Wrap(err, "count user")
		}
		if n == 0 {
			return model.ErrUserNotFound
		}
		return model.ErrVersionConflict
	}
	user.Version = next.Version
	user.Cart = next.Cart
	return nil
}

// versionFilter matches the document at the given version. Documents written before
// versioning was introduced have no version field and count as version 0.
func versionFilter(id primitive.ObjectID, version int64) bson.M {
	if version == 0 {
		return bson.M{
			"_id": id,
			"$or": bson.A{
				bson.M{"version": 0},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}
	}
	return bson.M{"_id": id, "version": version}
}

func (r *UserRepository) FindByIdentity(ctx context.Context, identity string) (*model.User, error) {
	if identity == "" {
		return nil, model.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"firebaseUID": identity})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "count users")
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	if res.DeletedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
