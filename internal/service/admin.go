package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/model"
)

type CategoryStock struct {
	Category model.Category `json:"category"`
	Stock    int64          `json:"stock"`
}

type Dashboard struct {
	TotalStock     int64           `json:"totalStock"`
	TotalCustomers int64           `json:"totalCustomers"`
	PendingOrders  int64           `json:"pendingOrders"`
	TotalOrders    int64           `json:"totalOrders"`
	CategoryStock  []CategoryStock `json:"categoryStock"`
}

type CategorizedProduct struct {
	model.Product
	Collection model.Category `json:"collection"`
}

type AdminOrder struct {
	model.Order
	UserEmail string `json:"userEmail"`
}

type AdminUser struct {
	*model.User
	OrderCount int64 `json:"orderCount"`
}

type AdminService interface {
	Dashboard(ctx context.Context) (Dashboard, error)

	ListProducts(ctx context.Context) ([]CategorizedProduct, error)
	AddProduct(ctx context.Context, category model.Category, product model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, category model.Category, id string, patch model.ProductPatch) (*model.Product, error)
	// DeleteProduct archives the product before removing it from its collection.
	DeleteProduct(ctx context.Context, category model.Category, id, deletedBy string) error
	ListDeletedProducts(ctx context.Context) ([]model.DeletedProduct, error)
	RestoreProduct(ctx context.Context, id string) (*model.Product, error)

	ListOrders(ctx context.Context) ([]AdminOrder, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)

	ListUsers(ctx context.Context) ([]AdminUser, error)
	// DeleteUser removes the user together with every order placed under its identity.
	DeleteUser(ctx context.Context, id string) error
}

func NewAdminService(
	products model.ProductRepository,
	deleted model.DeletedProductRepository,
	orders model.OrderRepository,
	users model.UserRepository,
	tx model.Transactor,
	dispatcher EventDispatcher,
) AdminService {
	return &adminService{
		products:   products,
		deleted:    deleted,
		orders:     orders,
		users:      users,
		tx:         tx,
		dispatcher: dispatcher,
	}
}

type adminService struct {
	products   model.ProductRepository
	deleted    model.DeletedProductRepository
	orders     model.OrderRepository
	users      model.UserRepository
	tx         model.Transactor
	dispatcher EventDispatcher
}

func (s *adminService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	for _, category := range model.Categories {
		stock, err := s.products.TotalStock(ctx, category)
		if err != nil {
			return Dashboard{}, errors.WithMessagef(err, "stock of %s", category)
		}
		d.TotalStock += stock
		d.CategoryStock = append(d.CategoryStock, CategoryStock{Category: category, Stock: stock})
	}

	var err error
	if d.TotalCustomers, err = s.users.Count(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.PendingOrders, err = s.orders.CountByStatus(ctx, model.PendingStatuses...); err != nil {
		return Dashboard{}, err
	}
	if d.TotalOrders, err = s.orders.Count(ctx); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

func (s *adminService) ListProducts(ctx context.Context) ([]CategorizedProduct, error) {
	all := []CategorizedProduct{}
	for _, category := range model.Categories {
		products, err := s.products.Find(ctx, category, model.ProductQuery{})
		if err != nil {
			return nil, errors.WithMessagef(err, "list %s", category)
		}
		for _, p := range products {
			all = append(all, CategorizedProduct{Product: p, Collection: category})
		}
	}
	return all, nil
}

func (s *adminService) AddProduct(ctx context.Context, category model.Category, product model.Product) (*model.Product, error) {
	return insertProduct(ctx, s.products, category, product)
}

func (s *adminService) UpdateProduct(ctx context.Context, category model.Category, id string, patch model.ProductPatch) (*model.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, category, oid)
	if err != nil {
		return nil, err
	}
	patch.Apply(product)
	if err := product.Validate(); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now().UTC()
	if err := s.products.Update(ctx, category, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *adminService) DeleteProduct(ctx context.Context, category model.Category, id, deletedBy string) error {
	oid, err := productID(id)
	if err != nil {
		return err
	}
	product, err := s.products.FindByID(ctx, category, oid)
	if err != nil {
		return err
	}
	if deletedBy == "" {
		deletedBy = "admin"
	}

	archived := &model.DeletedProduct{
		OriginalID:         product.ID.Hex(),
		Product:            *product,
		OriginalCollection: category,
		DeletedBy:          deletedBy,
		DeletedAt:          time.Now().UTC(),
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.deleted.Create(ctx, archived); err != nil {
			return err
		}
		return s.products.Delete(ctx, category, oid)
	})
	if err != nil {
		return errors.WithMessage(err, "delete product")
	}
	log.WithFields(log.Fields{
		"productId": id,
		"category":  category,
		"deletedBy": deletedBy,
	}).Info("product archived")
	return nil
}

func (s *adminService) ListDeletedProducts(ctx context.Context) ([]model.DeletedProduct, error) {
	deleted, err := s.deleted.List(ctx)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		deleted = []model.DeletedProduct{}
	}
	return deleted, nil
}

func (s *adminService) RestoreProduct(ctx context.Context, id string) (*model.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}
	archived, err := s.deleted.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	category, err := model.ParseCategory(string(archived.OriginalCollection))
	if err != nil {
		return nil, errors.Wrap(model.ErrInvalidInput, "invalid original collection")
	}

	product := archived.Product
	product.ID = primitive.NilObjectID
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.products.Insert(ctx, category, &product); err != nil {
			return err
		}
		return s.deleted.Delete(ctx, oid)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "restore product")
	}
	log.WithFields(log.Fields{"archivedId": id, "category": category}).Info("product restored")
	return &product, nil
}

func (s *adminService) ListOrders(ctx context.Context) ([]AdminOrder, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}

	emails := map[string]string{}
	result := make([]AdminOrder, 0, len(orders))
	for _, order := range orders {
		email, seen := emails[order.FirebaseUID]
		if !seen {
			email = "N/A"
			user, err := s.users.FindByIdentity(ctx, order.FirebaseUID)
			switch {
			case err == nil:
				email = user.Email
			case !errors.Is(err, model.ErrUserNotFound):
				return nil, err
			}
			emails[order.FirebaseUID] = email
		}
		result = append(result, AdminOrder{Order: order, UserEmail: email})
	}
	return result, nil
}

func (s *adminService) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, errors.Wrap(model.ErrInvalidInput, `invalid status. Must be "placed", "confirmed", "shipped", or "delivered"`)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.Wrapf(model.ErrOrderNotFound, "malformed id %q", id)
	}
	previous, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.UpdateStatus(ctx, oid, status)
	if err != nil {
		return nil, err
	}
	if previous.Status != status {
		event := model.OrderStatusChanged{OrderID: id, OldStatus: previous.Status, NewStatus: status}
		if err := s.dispatcher.Dispatch(ctx, event); err != nil {
			log.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
		}
	}
	return order, nil
}

func (s *adminService) ListUsers(ctx context.Context) ([]AdminUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]AdminUser, 0, len(users))
	for i := range users {
		var count int64
		if users[i].FirebaseUID != "" {
			if count, err = s.orders.CountByIdentity(ctx, users[i].FirebaseUID); err != nil {
				return nil, err
			}
		}
		result = append(result, AdminUser{User: &users[i], OrderCount: count})
	}
	return result, nil
}

func (s *adminService) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrapf(model.ErrUserNotFound, "malformed id %q", id)
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if user.FirebaseUID != "" {
			if err := s.orders.DeleteByIdentity(ctx, user.FirebaseUID); err != nil {
				return err
			}
		}
		return s.users.Delete(ctx, oid)
	})
	if err != nil {
		return errors.WithMessage(err, "delete user")
	}
	log.WithField("userId", id).Info("user deleted")
	return nil
}

func productID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(model.ErrProductNotFound, "malformed id %q", id)
	}
	return oid, nil
}
