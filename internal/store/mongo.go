package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

const (
	UsersCollection    = "users"
	ProductsCollection = "products"
	CartsCollection    = "carts"
	OrdersCollection   = "orders"
	PaymentsCollection = "payments"
	SessionsCollection = "sessions"
)

// Mongo implements Store on top of a MongoDB database.
type Mongo struct {
	db     *mongo.Database
	atomic bool
}

// NewMongo returns a store that wraps WithTransaction in a session
// transaction when transactional is true. Pass false only for a standalone
// server, which rejects transactions; writes inside fn are then not atomic.
func NewMongo(db *mongo.Database, transactional bool) *Mongo {
	return &Mongo{db: db, atomic: transactional}
}

func (m *Mongo) Users() Users       { return mongoUsers{coll: m.db.Collection(UsersCollection)} }
func (m *Mongo) Products() Products { return mongoProducts{coll: m.db.Collection(ProductsCollection)} }
func (m *Mongo) Carts() Carts       { return mongoCarts{coll: m.db.Collection(CartsCollection)} }
func (m *Mongo) Orders() Orders     { return mongoOrders{coll: m.db.Collection(OrdersCollection)} }
func (m *Mongo) Payments() Payments { return mongoPayments{coll: m.db.Collection(PaymentsCollection)} }
func (m *Mongo) Sessions() Sessions { return mongoSessions{coll: m.db.Collection(SessionsCollection)} }

// WithTransaction runs fn inside a MongoDB session transaction. Transactions
// need a replica set or sharded cluster.
func (m *Mongo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.atomic {
		return fn(ctx)
	}
	session, err := m.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

/* =========================
   USERS
========================= */

type mongoUsers struct {
	coll *mongo.Collection
}

func (r mongoUsers) Create(ctx context.Context, user *models.User) error {
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		return translate(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	return user, translate(err)
}

func (r mongoUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	return user, translate(err)
}

func (r mongoUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, user := range users {
		out[user.ID] = user
	}
	return out, nil
}

func (r mongoUsers) UpdateAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.Address) error {
	return r.set(ctx, id, bson.M{"addresses": addresses})
}

func (r mongoUsers) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	return r.set(ctx, id, bson.M{"role": role})
}

func (r mongoUsers) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now()
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

/* =========================
   PRODUCTS
========================= */

type mongoProducts struct {
	coll *mongo.Collection
}

func (r mongoProducts) Create(ctx context.Context, product *models.Product) error {
	res, err := r.coll.InsertOne(ctx, product)
	if err != nil {
		return translate(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	product.Normalize()
	return nil
}

func (r mongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return models.Product{}, translate(err)
	}
	product.Normalize()
	return product, nil
}

func (r mongoProducts) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	products, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		out[product.ID] = product
	}
	return out, nil
}

func (r mongoProducts) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = []bson.M{
			{"name": pattern},
			{"company": pattern},
			{"category": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetSkip(filter.Skip).SetLimit(filter.Limit)
	}
	return r.find(ctx, query, opts)
}

func (r mongoProducts) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		product.Normalize()
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r mongoProducts) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r mongoProducts) Update(ctx context.Context, product *models.Product) error {
	res, err := r.coll.UpdateByID(ctx, product.ID, bson.M{"$set": bson.M{
		"name":        product.Name,
		"price":       product.Price,
		"category":    product.Category,
		"company":     product.Company,
		"description": product.Description,
		"image":       product.Image,
		"stock":       product.Stock,
		"isActive":    product.IsActive,
		"updatedAt":   product.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	product.Normalize()
	return nil
}

func (r mongoProducts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoProducts) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrInsufficientStock
}

/* =========================
   CARTS
========================= */

type mongoCarts struct {
	coll *mongo.Collection
}

func (r mongoCarts) FindByUser(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	var cart models.Cart
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	return cart, translate(err)
}

func (r mongoCarts) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	cart.Recalculate()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"userId": cart.UserID}, cart, options.Replace().SetUpsert(true))
	if err != nil {
		return translate(err)
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		cart.ID = id
	}
	return nil
}

func (r mongoCarts) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID})
	return translate(err)
}

/* =========================
   ORDERS
========================= */

type mongoOrders struct {
	coll *mongo.Collection
}

func (r mongoOrders) Create(ctx context.Context, order *models.Order) error {
	order.EnsureOrderID(time.Now())
	res, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		return translate(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (r mongoOrders) FindByRef(ctx context.Context, ref string) (models.Order, error) {
	var order models.Order
	err := r.coll.FindOne(ctx, bson.M{"orderId": ref}).Decode(&order)
	if err == nil || !errors.Is(err, mongo.ErrNoDocuments) {
		return order, translate(err)
	}

	id, hexErr := primitive.ObjectIDFromHex(ref)
	if hexErr != nil {
		return models.Order{}, ErrNotFound
	}
	err = r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	return order, translate(err)
}

func (r mongoOrders) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r mongoOrders) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, bson.M{})
}

func (r mongoOrders) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r mongoOrders) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	res, err := r.coll.UpdateByID(ctx, order.ID, bson.M{"$set": bson.M{
		"paymentStatus": order.PaymentStatus,
		"orderStatus":   order.OrderStatus,
		"updatedAt":     order.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoOrders) Count(ctx context.Context, status models.OrderStatus) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["orderStatus"] = status
	}
	return r.coll.CountDocuments(ctx, filter)
}

/* =========================
   PAYMENTS
========================= */

type mongoPayments struct {
	coll *mongo.Collection
}

func (r mongoPayments) Create(ctx context.Context, payment *models.Payment) error {
	payment.EnsureTransactionID(time.Now())
	if payment.Metadata == nil {
		payment.Metadata = bson.M{}
	}
	res, err := r.coll.InsertOne(ctx, payment)
	if err != nil {
		return translate(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		payment.ID = id
	}
	return nil
}

func (r mongoPayments) FindByOrder(ctx context.Context, orderID primitive.ObjectID) (models.Payment, error) {
	var payment models.Payment
	err := r.coll.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&payment)
	return payment, translate(err)
}

func (r mongoPayments) Update(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now()
	res, err := r.coll.UpdateByID(ctx, payment.ID, bson.M{"$set": bson.M{
		"status":         payment.Status,
		"transactionId":  payment.TransactionID,
		"paymentGateway": payment.PaymentGateway,
		"paymentDate":    payment.PaymentDate,
		"metadata":       payment.Metadata,
		"updatedAt":      payment.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoPayments) RevenueByMethod(ctx context.Context) (map[string]models.RevenueBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.PaymentRecordCompleted}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$paymentMethod"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Method string  `bson:"_id"`
		Total  float64 `bson:"total"`
		Count  int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make(map[string]models.RevenueBucket, len(rows))
	for _, row := range rows {
		out[row.Method] = models.RevenueBucket{Amount: row.Total, Count: row.Count}
	}
	return out, nil
}

/* =========================
   SESSIONS
========================= */

type mongoSessions struct {
	coll *mongo.Collection
}

func (r mongoSessions) Create(ctx context.Context, session *models.Session) error {
	res, err := r.coll.InsertOne(ctx, session)
	if err != nil {
		return translate(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = id
	}
	return nil
}

func (r mongoSessions) Delete(ctx context.Context, sessionID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"sessionId": sessionID})
	return translate(err)
}
