package model

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
)

// PendingStatuses are the statuses of orders that have not reached the customer yet.
var PendingStatuses = []OrderStatus{StatusPlaced, StatusConfirmed, StatusShipped}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPlaced, StatusConfirmed, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// OrderLine is a by-value snapshot of a cart line at order time.
type OrderLine struct {
	ProductID string  `bson:"productId,omitempty" json:"productId,omitempty"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Image     string  `bson:"image" json:"image"`
}

type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FirebaseUID    string             `bson:"firebaseUID" json:"firebaseUID"`
	Products       []OrderLine        `bson:"products" json:"products"`
	TotalAmount    float64            `bson:"totalAmount" json:"totalAmount"`
	Email          string             `bson:"email" json:"email"`
	Status         OrderStatus        `bson:"status" json:"status"`
	IdempotencyKey string             `bson:"idempotencyKey,omitempty" json:"-"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

type OrderRepository interface {
	// Create fails with ErrConflict when the identity already has an order with the same idempotency key.
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, identity, key string) (*Order, error)
	// ListByIdentity and List return orders newest first.
	ListByIdentity(ctx context.Context, identity string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status OrderStatus) (*Order, error)
	Count(ctx context.Context) (int64, error)
	CountByIdentity(ctx context.Context, identity string) (int64, error)
	CountByStatus(ctx context.Context, statuses ...OrderStatus) (int64, error)
	DeleteByIdentity(ctx context.Context, identity string) error
}

// Transactor runs fn so that the writes it performs commit or fail together
// where the underlying store supports it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
