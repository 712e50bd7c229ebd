package model

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User owns the embedded cart. Version guards every conditional write of the document.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirebaseUID string             `bson:"firebaseUID,omitempty" json:"firebaseUID,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password,omitempty" json:"-"`
	IsAdmin     bool               `bson:"isAdmin" json:"isAdmin"`
	Cart        []CartLine         `bson:"cart" json:"cart"`
	CartCount   int                `bson:"cartCount" json:"cartCount"`
	Version     int64              `bson:"version" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	// Update writes the whole document if its stored version still equals user.Version,
	// then bumps user.Version. A stale version yields ErrVersionConflict.
	Update(ctx context.Context, user *User) error
	FindByIdentity(ctx context.Context, identity string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
