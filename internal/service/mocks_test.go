package service_test

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/model"
)

type mockUserRepository struct {
	mu    sync.Mutex
	store map[primitive.ObjectID]*model.User

	// beforeUpdate runs once against the stored document ahead of the next version check.
	beforeUpdate func(stored *model.User)
	conflicts    int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{store: make(map[primitive.ObjectID]*model.User)}
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Cart = append([]model.CartLine(nil), u.Cart...)
	return &c
}

func (m *mockUserRepository) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Email == user.Email || (user.FirebaseUID != "" && existing.FirebaseUID == user.FirebaseUID) {
			return model.ErrConflict
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.store[user.ID] = copyUser(user)
	return nil
}

func (m *mockUserRepository) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.store[user.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	if hook := m.beforeUpdate; hook != nil {
		m.beforeUpdate = nil
		hook(stored)
	}
	if m.conflicts > 0 {
		m.conflicts--
		return model.ErrVersionConflict
	}
	if stored.Version != user.Version {
		return model.ErrVersionConflict
	}
	user.Version++
	m.store[user.ID] = copyUser(user)
	return nil
}

func (m *mockUserRepository) FindByIdentity(_ context.Context, identity string) (*model.User, error) {
	return m.findOne(func(u *model.User) bool { return u.FirebaseUID == identity })
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return m.findOne(func(u *model.User) bool { return u.Email == email })
}

func (m *mockUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	return m.findOne(func(u *model.User) bool { return u.ID == id })
}

func (m *mockUserRepository) findOne(match func(u *model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) List(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]model.User, 0, len(m.store))
	for _, u := range m.store {
		users = append(users, *copyUser(u))
	}
	return users, nil
}

func (m *mockUserRepository) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.store)), nil
}

func (m *mockUserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockUserRepository) seed(identity, email string, lines ...model.CartLine) *model.User {
	u := &model.User{FirebaseUID: identity, Name: identity, Email: email, Cart: []model.CartLine{}}
	for _, line := range lines {
		_ = u.AddLine(line)
	}
	_ = m.Create(context.Background(), u)
	return u
}

func (m *mockUserRepository) stored(identity string) *model.User {
	u, _ := m.FindByIdentity(context.Background(), identity)
	return u
}

type mockOrderRepository struct {
	mu    sync.Mutex
	store map[primitive.ObjectID]*model.Order

	// hideKeyOnce makes the next idempotency lookup miss, as if a concurrent insert had not landed yet.
	hideKeyOnce bool
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{store: make(map[primitive.ObjectID]*model.Order)}
}

func (m *mockOrderRepository) Create(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.IdempotencyKey != "" {
		for _, o := range m.store {
			if o.FirebaseUID == order.FirebaseUID && o.IdempotencyKey == order.IdempotencyKey {
				return model.ErrConflict
			}
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	c := *order
	m.store[order.ID] = &c
	return nil
}

func (m *mockOrderRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.store[id]; ok {
		c := *o
		return &c, nil
	}
	return nil, model.ErrOrderNotFound
}

func (m *mockOrderRepository) FindByIdempotencyKey(_ context.Context, identity, key string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideKeyOnce {
		m.hideKeyOnce = false
		return nil, model.ErrOrderNotFound
	}
	for _, o := range m.store {
		if o.FirebaseUID == identity && o.IdempotencyKey == key {
			c := *o
			return &c, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByIdentity(_ context.Context, identity string) ([]model.Order, error) {
	return m.filter(func(o *model.Order) bool { return o.FirebaseUID == identity }), nil
}

func (m *mockOrderRepository) List(context.Context) ([]model.Order, error) {
	return m.filter(func(*model.Order) bool { return true }), nil
}

func (m *mockOrderRepository) filter(match func(o *model.Order) bool) []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []model.Order
	for _, o := range m.store {
		if match(o) {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	o.Status = status
	c := *o
	return &c, nil
}

func (m *mockOrderRepository) Count(context.Context) (int64, error) {
	return int64(len(m.filter(func(*model.Order) bool { return true }))), nil
}

func (m *mockOrderRepository) CountByIdentity(_ context.Context, identity string) (int64, error) {
	return int64(len(m.filter(func(o *model.Order) bool { return o.FirebaseUID == identity }))), nil
}

func (m *mockOrderRepository) CountByStatus(_ context.Context, statuses ...model.OrderStatus) (int64, error) {
	return int64(len(m.filter(func(o *model.Order) bool {
		for _, s := range statuses {
			if o.Status == s {
				return true
			}
		}
		return false
	}))), nil
}

func (m *mockOrderRepository) DeleteByIdentity(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.store {
		if o.FirebaseUID == identity {
			delete(m.store, id)
		}
	}
	return nil
}

type mockProductRepository struct {
	store     map[model.Category][]model.Product
	lastQuery model.ProductQuery
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{store: make(map[model.Category][]model.Product)}
}

func (m *mockProductRepository) Find(_ context.Context, category model.Category, query model.ProductQuery) ([]model.Product, error) {
	m.lastQuery = query
	return append([]model.Product(nil), m.store[category]...), nil
}

func (m *mockProductRepository) FindByID(_ context.Context, category model.Category, id primitive.ObjectID) (*model.Product, error) {
	for _, p := range m.store[category] {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, model.ErrProductNotFound
}

func (m *mockProductRepository) Count(_ context.Context, category model.Category) (int64, error) {
	return int64(len(m.store[category])), nil
}

func (m *mockProductRepository) TotalStock(_ context.Context, category model.Category) (int64, error) {
	var total int64
	for _, p := range m.store[category] {
		total += int64(p.Stock)
	}
	return total, nil
}

func (m *mockProductRepository) Insert(_ context.Context, category model.Category, product *model.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	m.store[category] = append(m.store[category], *product)
	return nil
}

func (m *mockProductRepository) ReplaceAll(_ context.Context, category model.Category, products []model.Product) (int, error) {
	m.store[category] = nil
	for i := range products {
		_ = m.Insert(context.Background(), category, &products[i])
	}
	return len(products), nil
}

func (m *mockProductRepository) Update(_ context.Context, category model.Category, product *model.Product) error {
	for i, p := range m.store[category] {
		if p.ID == product.ID {
			m.store[category][i] = *product
			return nil
		}
	}
	return model.ErrProductNotFound
}

func (m *mockProductRepository) Delete(_ context.Context, category model.Category, id primitive.ObjectID) error {
	products := m.store[category]
	for i, p := range products {
		if p.ID == id {
			m.store[category] = append(products[:i], products[i+1:]...)
			return nil
		}
	}
	return model.ErrProductNotFound
}

type mockDeletedProductRepository struct {
	store map[primitive.ObjectID]*model.DeletedProduct
}

func newMockDeletedProductRepository() *mockDeletedProductRepository {
	return &mockDeletedProductRepository{store: make(map[primitive.ObjectID]*model.DeletedProduct)}
}

func (m *mockDeletedProductRepository) Create(_ context.Context, deleted *model.DeletedProduct) error {
	if deleted.ID.IsZero() {
		deleted.ID = primitive.NewObjectID()
	}
	c := *deleted
	m.store[deleted.ID] = &c
	return nil
}

func (m *mockDeletedProductRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.DeletedProduct, error) {
	if d, ok := m.store[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, model.ErrProductNotFound
}

func (m *mockDeletedProductRepository) List(context.Context) ([]model.DeletedProduct, error) {
	var deleted []model.DeletedProduct
	for _, d := range m.store {
		deleted = append(deleted, *d)
	}
	return deleted, nil
}

func (m *mockDeletedProductRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.store[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(m.store, id)
	return nil
}

type mockAddressRepository struct {
	addresses []model.Address
}

func (m *mockAddressRepository) Create(_ context.Context, address *model.Address) error {
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	m.addresses = append(m.addresses, *address)
	return nil
}

func (m *mockAddressRepository) UnsetDefault(_ context.Context, userEmail string) error {
	for i := range m.addresses {
		if m.addresses[i].UserEmail == userEmail {
			m.addresses[i].IsDefault = false
		}
	}
	return nil
}

func (m *mockAddressRepository) ListByEmail(_ context.Context, userEmail string) ([]model.Address, error) {
	var result []model.Address
	for _, a := range m.addresses {
		if a.UserEmail == userEmail {
			result = append(result, a)
		}
	}
	return result, nil
}

type mockTransactor struct {
	calls int
}

func (m *mockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockEventDispatcher struct {
	mu     sync.Mutex
	events []model.Event
}

func (m *mockEventDispatcher) Dispatch(_ context.Context, event model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

type mockTokenIssuer struct{}

func (mockTokenIssuer) Issue(user *model.User) (string, error) {
	return "token-" + user.Email, nil
}
