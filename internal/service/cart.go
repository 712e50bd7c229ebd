package service

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"storefront-backend/internal/model"
)

const DefaultCartMaxRetries = 5

type CartView struct {
	Cart      []model.CartLine `json:"cart"`
	CartCount int              `json:"cartCount"`
}

type AddLineInput struct {
	ProductID string
	Name      string
	Price     *float64
	Quantity  *int
	Image     string
}

type CartService interface {
	Get(ctx context.Context, identity string) (CartView, error)
	AddLine(ctx context.Context, identity string, in AddLineInput) (CartView, error)
	UpdateQuantity(ctx context.Context, identity, productID string, quantity *int) (CartView, error)
	RemoveLine(ctx context.Context, identity, productID string) (CartView, error)
	Clear(ctx context.Context, identity string) (CartView, error)
}

func NewCartService(users model.UserRepository, maxRetries int) CartService {
	if maxRetries < 1 {
		maxRetries = DefaultCartMaxRetries
	}
	return &cartService{users: users, maxRetries: maxRetries}
}

type cartService struct {
	users      model.UserRepository
	maxRetries int
}

func (s *cartService) Get(ctx context.Context, identity string) (CartView, error) {
	user, err := s.users.FindByIdentity(ctx, identity)
	if err != nil {
		return CartView{}, err
	}
	return viewOf(user), nil
}

func (s *cartService) AddLine(ctx context.Context, identity string, in AddLineInput) (CartView, error) {
	if in.ProductID == "" || in.Name == "" || in.Price == nil {
		return CartView{}, errors.Wrap(model.ErrInvalidInput, "please provide productId, name, and price")
	}
	quantity := 1
	if in.Quantity != nil && *in.Quantity != 0 {
		quantity = *in.Quantity
	}
	line := model.CartLine{
		ProductID: in.ProductID,
		Name:      in.Name,
		Price:     *in.Price,
		Quantity:  quantity,
		Image:     in.Image,
	}
	return s.mutate(ctx, identity, func(u *model.User) error {
		return u.AddLine(line)
	})
}

func (s *cartService) UpdateQuantity(ctx context.Context, identity, productID string, quantity *int) (CartView, error) {
	if quantity == nil || *quantity < 0 {
		return CartView{}, errors.Wrap(model.ErrInvalidInput, "please provide a valid quantity")
	}
	return s.mutate(ctx, identity, func(u *model.User) error {
		return u.SetLineQuantity(productID, *quantity)
	})
}

func (s *cartService) RemoveLine(ctx context.Context, identity, productID string) (CartView, error) {
	return s.mutate(ctx, identity, func(u *model.User) error {
		return u.RemoveLine(productID)
	})
}

func (s *cartService) Clear(ctx context.Context, identity string) (CartView, error) {
	return s.mutate(ctx, identity, func(u *model.User) error {
		u.ClearCart()
		return nil
	})
}

// mutate applies change to a fresh copy of the user and writes it back conditionally on the
// version that was read. A concurrent writer forces a re-read and a second application of change.
func (s *cartService) mutate(ctx context.Context, identity string, change func(u *model.User) error) (CartView, error) {
	for attempt := 1; ; attempt++ {
		user, err := s.users.FindByIdentity(ctx, identity)
		if err != nil {
			return CartView{}, err
		}
		if err := change(user); err != nil {
			return CartView{}, err
		}

		err = s.users.Update(ctx, user)
		if err == nil {
			return viewOf(user), nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return CartView{}, errors.WithMessage(err, "save cart")
		}
		if attempt >= s.maxRetries {
			return CartView{}, errors.Wrapf(model.ErrConflict, "cart of %s changed concurrently %d times", identity, attempt)
		}
		log.WithFields(log.Fields{
			"identity": identity,
			"attempt":  attempt,
		}).Debug("cart version conflict, retrying")
	}
}

func viewOf(user *model.User) CartView {
	cart := user.Cart
	if cart == nil {
		cart = []model.CartLine{}
	}
	return CartView{Cart: cart, CartCount: user.CartCount}
}
