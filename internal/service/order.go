package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/model"
)

type TotalPolicy string

const (
	// TrustTotal stores the caller supplied total and only logs a mismatch.
	TrustTotal TotalPolicy = "trust"
	// VerifyTotal rejects a total that differs from the sum of the lines.
	VerifyTotal TotalPolicy = "verify"
)

var totalTolerance = decimal.New(1, -2)

type EventDispatcher interface {
	Dispatch(ctx context.Context, event model.Event) error
}

type OrderItemInput struct {
	ProductID string  `json:"productId"`
	MongoID   string  `json:"_id"`
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

type CreateOrderInput struct {
	Items          []OrderItemInput
	TotalPrice     *float64
	Email          string
	IdempotencyKey string
}

type OrderService interface {
	Create(ctx context.Context, identity string, in CreateOrderInput) (*model.Order, error)
	List(ctx context.Context, identity string) ([]model.Order, error)
}

func NewOrderService(
	orders model.OrderRepository,
	users model.UserRepository,
	carts CartService,
	tx model.Transactor,
	dispatcher EventDispatcher,
	policy TotalPolicy,
) OrderService {
	if policy == "" {
		policy = TrustTotal
	}
	return &orderService{
		orders:     orders,
		users:      users,
		carts:      carts,
		tx:         tx,
		dispatcher: dispatcher,
		policy:     policy,
	}
}

type orderService struct {
	orders     model.OrderRepository
	users      model.UserRepository
	carts      CartService
	tx         model.Transactor
	dispatcher EventDispatcher
	policy     TotalPolicy
}

func (s *orderService) Create(ctx context.Context, identity string, in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, errors.Wrap(model.ErrInvalidInput, "please provide order items")
	}
	if in.TotalPrice == nil {
		return nil, errors.Wrap(model.ErrInvalidInput, "please provide total price")
	}

	lines, err := snapshotLines(in.Items)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		existing, err := s.replay(ctx, identity, key)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	user, err := s.users.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	if err := s.checkTotal(identity, lines, *in.TotalPrice); err != nil {
		return nil, err
	}

	email := in.Email
	if email == "" {
		email = user.Email
	}
	order := &model.Order{
		ID:             primitive.NewObjectID(),
		FirebaseUID:    identity,
		Products:       lines,
		TotalAmount:    *in.TotalPrice,
		Email:          email,
		Status:         model.StatusPlaced,
		IdempotencyKey: key,
		CreatedAt:      time.Now().UTC(),
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		_, err := s.carts.Clear(ctx, identity)
		return err
	})
	if err != nil {
		if key != "" && errors.Is(err, model.ErrConflict) {
			// a concurrent request with the same key won the insert
			if existing, replayErr := s.replay(ctx, identity, key); replayErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, errors.WithMessage(err, "create order")
	}

	log.WithFields(log.Fields{
		"orderId":     order.ID.Hex(),
		"identity":    identity,
		"totalAmount": order.TotalAmount,
		"lines":       len(order.Products),
	}).Info("order placed")

	s.dispatch(ctx, model.OrderPlaced{
		OrderID:     order.ID.Hex(),
		FirebaseUID: identity,
		Email:       order.Email,
		TotalAmount: order.TotalAmount,
		Products:    order.Products,
	})

	return order, nil
}

// replay returns the order previously created with key, clearing the cart again in case
// the earlier attempt stopped between the two writes. It returns nil when no such order exists.
func (s *orderService) replay(ctx context.Context, identity, key string) (*model.Order, error) {
	existing, err := s.orders.FindByIdempotencyKey(ctx, identity, key)
	if errors.Is(err, model.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.carts.Clear(ctx, identity); err != nil {
		return nil, errors.WithMessage(err, "clear cart for replayed order")
	}
	log.WithFields(log.Fields{
		"orderId":  existing.ID.Hex(),
		"identity": identity,
	}).Info("order replayed for idempotency key")
	return existing, nil
}

func (s *orderService) List(ctx context.Context, identity string) ([]model.Order, error) {
	orders, err := s.orders.ListByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (s *orderService) checkTotal(identity string, lines []model.OrderLine, total float64) error {
	computed := LinesTotal(lines)
	given := decimal.NewFromFloat(total)
	if computed.Sub(given).Abs().LessThanOrEqual(totalTolerance) {
		return nil
	}
	if s.policy == VerifyTotal {
		return errors.Wrapf(model.ErrInvalidInput, "total price %s does not match items total %s", given, computed)
	}
	log.WithFields(log.Fields{
		"identity": identity,
		"given":    given.String(),
		"computed": computed.String(),
	}).Warn("order total differs from items total")
	return nil
}

func (s *orderService) dispatch(ctx context.Context, event model.Event) {
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		log.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
	}
}

// LinesTotal sums price × quantity over lines.
func LinesTotal(lines []model.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func snapshotLines(items []OrderItemInput) ([]model.OrderLine, error) {
	lines := make([]model.OrderLine, 0, len(items))
	for i, item := range items {
		productID := item.ProductID
		if productID == "" {
			productID = item.MongoID
		}
		if productID == "" {
			productID = item.ID
		}
		if item.Quantity < 1 {
			return nil, errors.Wrapf(model.ErrInvalidInput, "item %d quantity must be positive, got %d", i, item.Quantity)
		}
		lines = append(lines, model.OrderLine{
			ProductID: productID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	return lines, nil
}
