package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// MemoryStore keeps every collection in process memory. Transactions are
// serialized with each other; each one journals the prior value of every key
// it writes and puts back only those keys when it fails.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data memoryData
}

type memoryData struct {
	users    map[primitive.ObjectID]models.User
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.Cart // keyed by user id
	orders   map[primitive.ObjectID]models.Order
	payments map[primitive.ObjectID]models.Payment
	sessions map[string]models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: memoryData{
		users:    make(map[primitive.ObjectID]models.User),
		products: make(map[primitive.ObjectID]models.Product),
		carts:    make(map[primitive.ObjectID]models.Cart),
		orders:   make(map[primitive.ObjectID]models.Order),
		payments: make(map[primitive.ObjectID]models.Payment),
		sessions: make(map[string]models.Session),
	}}
}

func (s *MemoryStore) Users() Users       { return memoryUsers{s} }
func (s *MemoryStore) Products() Products { return memoryProducts{s} }
func (s *MemoryStore) Carts() Carts       { return memoryCarts{s} }
func (s *MemoryStore) Orders() Orders     { return memoryOrders{s} }
func (s *MemoryStore) Payments() Payments { return memoryPayments{s} }
func (s *MemoryStore) Sessions() Sessions { return memorySessions{s} }

type memoryTxKey struct{}

// memoryTx is the undo journal of one transaction.
type memoryTx struct {
	undo []func(d *memoryData)
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memoryTx{}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, tx)); err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i](&s.data)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// remember journals the current value of key before a write inside a
// transaction. Callers hold s.mu. Outside a transaction it does nothing.
func remember[K comparable, V any](ctx context.Context, d *memoryData, pick func(*memoryData) map[K]V, key K, clone func(V) V) {
	tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx)
	if !ok {
		return
	}
	prev, existed := pick(d)[key]
	if existed {
		prev = clone(prev)
	}
	tx.undo = append(tx.undo, func(d *memoryData) {
		if existed {
			pick(d)[key] = prev
			return
		}
		delete(pick(d), key)
	})
}

func usersOf(d *memoryData) map[primitive.ObjectID]models.User       { return d.users }
func productsOf(d *memoryData) map[primitive.ObjectID]models.Product { return d.products }
func cartsOf(d *memoryData) map[primitive.ObjectID]models.Cart       { return d.carts }
func ordersOf(d *memoryData) map[primitive.ObjectID]models.Order     { return d.orders }
func paymentsOf(d *memoryData) map[primitive.ObjectID]models.Payment { return d.payments }
func sessionsOf(d *memoryData) map[string]models.Session             { return d.sessions }

func same[V any](v V) V { return v }

func copyUser(u models.User) models.User {
	u.Addresses = append([]models.Address{}, u.Addresses...)
	return u
}

func copyCart(c models.Cart) models.Cart {
	items := make([]models.CartItem, len(c.Items))
	for i, item := range c.Items {
		item.Product = nil
		items[i] = item
	}
	c.Items = items
	return c
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	o.Customer = nil
	return o
}

func copyPayment(p models.Payment) models.Payment {
	if p.PaymentDate != nil {
		date := *p.PaymentDate
		p.PaymentDate = &date
	}
	meta := bson.M{}
	for k, v := range p.Metadata {
		meta[k] = v
	}
	p.Metadata = meta
	return p
}

/* =========================
   USERS
========================= */

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	remember(ctx, &r.s.data, usersOf, user.ID, copyUser)
	r.s.data.users[user.ID] = copyUser(*user)
	return nil
}

func (r memoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.data.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return copyUser(user), nil
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.data.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r memoryUsers) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if user, ok := r.s.data.users[id]; ok {
			out[id] = copyUser(user)
		}
	}
	return out, nil
}

func (r memoryUsers) UpdateAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.Address) error {
	return r.update(ctx, id, func(u *models.User) {
		u.Addresses = append([]models.Address{}, addresses...)
	})
}

func (r memoryUsers) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	return r.update(ctx, id, func(u *models.User) { u.Role = role })
}

func (r memoryUsers) update(ctx context.Context, id primitive.ObjectID, mutate func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.data.users[id]
	if !ok {
		return ErrNotFound
	}
	remember(ctx, &r.s.data, usersOf, id, copyUser)
	mutate(&user)
	user.UpdatedAt = time.Now()
	r.s.data.users[id] = user
	return nil
}

/* =========================
   PRODUCTS
========================= */

type memoryProducts struct{ s *MemoryStore }

func (r memoryProducts) Create(ctx context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.Normalize()
	remember(ctx, &r.s.data, productsOf, product.ID, same[models.Product])
	r.s.data.products[product.ID] = *product
	return nil
}

func (r memoryProducts) FindByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	product, ok := r.s.data.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	product.Normalize()
	return product, nil
}

func (r memoryProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if product, ok := r.s.data.products[id]; ok {
			product.Normalize()
			out[id] = product
		}
	}
	return out, nil
}

func (r memoryProducts) List(_ context.Context, filter ProductFilter) ([]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	products := make([]models.Product, 0, len(r.s.data.products))
	for _, product := range r.s.data.products {
		if filter.Category != "" && string(product.Category) != filter.Category {
			continue
		}
		if search != "" && !matchesSearch(product, search) {
			continue
		}
		product.Normalize()
		products = append(products, product)
	}

	sort.Slice(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID.Hex() > products[j].ID.Hex()
	})

	if filter.Limit > 0 {
		start := int(filter.Skip)
		if start > len(products) {
			start = len(products)
		}
		end := start + int(filter.Limit)
		if end > len(products) {
			end = len(products)
		}
		products = products[start:end]
	}
	return products, nil
}

func matchesSearch(product models.Product, search string) bool {
	for _, field := range []string{product.Name, product.Company, string(product.Category)} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (r memoryProducts) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.data.products)), nil
}

func (r memoryProducts) Update(ctx context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.data.products[product.ID]
	if !ok {
		return ErrNotFound
	}
	product.UserID = existing.UserID
	product.CreatedAt = existing.CreatedAt
	product.Normalize()
	remember(ctx, &r.s.data, productsOf, product.ID, same[models.Product])
	r.s.data.products[product.ID] = *product
	return nil
}

func (r memoryProducts) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.products[id]; !ok {
		return ErrNotFound
	}
	remember(ctx, &r.s.data, productsOf, id, same[models.Product])
	delete(r.s.data.products, id)
	return nil
}

func (r memoryProducts) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product, ok := r.s.data.products[id]
	if !ok {
		return ErrNotFound
	}
	if delta < 0 && product.Stock < -delta {
		return ErrInsufficientStock
	}
	remember(ctx, &r.s.data, productsOf, id, same[models.Product])
	product.Stock += delta
	product.UpdatedAt = time.Now()
	r.s.data.products[id] = product
	return nil
}

/* =========================
   CARTS
========================= */

type memoryCarts struct{ s *MemoryStore }

func (r memoryCarts) FindByUser(_ context.Context, userID primitive.ObjectID) (models.Cart, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cart, ok := r.s.data.carts[userID]
	if !ok {
		return models.Cart{}, ErrNotFound
	}
	return copyCart(cart), nil
}

func (r memoryCarts) Save(ctx context.Context, cart *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	cart.Recalculate()
	if existing, ok := r.s.data.carts[cart.UserID]; ok {
		cart.ID = existing.ID
		cart.CreatedAt = existing.CreatedAt
	}
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	cart.UpdatedAt = now
	remember(ctx, &r.s.data, cartsOf, cart.UserID, copyCart)
	r.s.data.carts[cart.UserID] = copyCart(*cart)
	return nil
}

func (r memoryCarts) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	remember(ctx, &r.s.data, cartsOf, userID, copyCart)
	delete(r.s.data.carts, userID)
	return nil
}

/* =========================
   ORDERS
========================= */

type memoryOrders struct{ s *MemoryStore }

func (r memoryOrders) Create(ctx context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order.EnsureOrderID(time.Now())
	for _, existing := range r.s.data.orders {
		if existing.OrderID == order.OrderID {
			return ErrDuplicate
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	remember(ctx, &r.s.data, ordersOf, order.ID, copyOrder)
	r.s.data.orders[order.ID] = copyOrder(*order)
	return nil
}

func (r memoryOrders) FindByRef(_ context.Context, ref string) (models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, order := range r.s.data.orders {
		if order.OrderID == ref {
			return copyOrder(order), nil
		}
	}
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		if order, ok := r.s.data.orders[id]; ok {
			return copyOrder(order), nil
		}
	}
	return models.Order{}, ErrNotFound
}

func (r memoryOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r memoryOrders) ListAll(_ context.Context) ([]models.Order, error) {
	return r.list(func(models.Order) bool { return true }), nil
}

func (r memoryOrders) list(keep func(models.Order) bool) []models.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, order := range r.s.data.orders {
		if keep(order) {
			orders = append(orders, copyOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID.Hex() > orders[j].ID.Hex()
	})
	return orders
}

func (r memoryOrders) Update(ctx context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.data.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	remember(ctx, &r.s.data, ordersOf, order.ID, copyOrder)
	order.UpdatedAt = time.Now()
	existing.PaymentStatus = order.PaymentStatus
	existing.OrderStatus = order.OrderStatus
	existing.UpdatedAt = order.UpdatedAt
	r.s.data.orders[order.ID] = existing
	return nil
}

func (r memoryOrders) Count(_ context.Context, status models.OrderStatus) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, order := range r.s.data.orders {
		if status == "" || order.OrderStatus == status {
			count++
		}
	}
	return count, nil
}

/* =========================
   PAYMENTS
========================= */

type memoryPayments struct{ s *MemoryStore }

func (r memoryPayments) Create(ctx context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	payment.EnsureTransactionID(time.Now())
	if payment.Metadata == nil {
		payment.Metadata = bson.M{}
	}
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	remember(ctx, &r.s.data, paymentsOf, payment.ID, copyPayment)
	r.s.data.payments[payment.ID] = copyPayment(*payment)
	return nil
}

func (r memoryPayments) FindByOrder(_ context.Context, orderID primitive.ObjectID) (models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, payment := range r.s.data.payments {
		if payment.OrderID == orderID {
			return copyPayment(payment), nil
		}
	}
	return models.Payment{}, ErrNotFound
}

func (r memoryPayments) Update(ctx context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.payments[payment.ID]; !ok {
		return ErrNotFound
	}
	remember(ctx, &r.s.data, paymentsOf, payment.ID, copyPayment)
	payment.UpdatedAt = time.Now()
	r.s.data.payments[payment.ID] = copyPayment(*payment)
	return nil
}

func (r memoryPayments) RevenueByMethod(_ context.Context) (map[string]models.RevenueBucket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]models.RevenueBucket)
	for _, payment := range r.s.data.payments {
		if payment.Status != models.PaymentRecordCompleted {
			continue
		}
		method := string(payment.PaymentMethod)
		bucket := out[method]
		bucket.Amount = models.SumAmounts(bucket.Amount, payment.Amount)
		bucket.Count++
		out[method] = bucket
	}
	return out, nil
}

/* =========================
   SESSIONS
========================= */

type memorySessions struct{ s *MemoryStore }

func (r memorySessions) Create(ctx context.Context, session *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.sessions[session.SessionID]; ok {
		return ErrDuplicate
	}
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	remember(ctx, &r.s.data, sessionsOf, session.SessionID, same[models.Session])
	r.s.data.sessions[session.SessionID] = *session
	return nil
}

func (r memorySessions) Delete(ctx context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	remember(ctx, &r.s.data, sessionsOf, sessionID, same[models.Session])
	delete(r.s.data.sessions, sessionID)
	return nil
}

// SessionCount reports how many sessions are stored.
func (s *MemoryStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.sessions)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*Mongo)(nil)
)
