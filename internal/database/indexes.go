package database

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/store"
)

// EnsureIndexes creates every index the storefront relies on. Failures are
// collected so one bad collection does not hide the others.
func EnsureIndexes(db *mongo.Database) error {
	return errors.Join(
		EnsureUserIndexes(db),
		EnsureProductIndexes(db),
		EnsureCartIndexes(db),
		EnsureOrderIndexes(db),
		EnsurePaymentIndexes(db),
		EnsureSessionIndexes(db),
	)
}

func createIndexes(db *mongo.Database, collection string, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Printf("[DB] [INFO] creating %d index(es) on %s", len(models), collection)
	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		log.Printf("[DB] [ERROR] %s index error: %v", collection, err)
		return err
	}
	log.Printf("[DB] [INFO] %s indexes ready: %v", collection, names)
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	return createIndexes(db, store.UsersCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	})
}

func EnsureProductIndexes(db *mongo.Database) error {
	return createIndexes(db, store.ProductsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_index"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("category_createdAt"),
		},
	})
}

func EnsureCartIndexes(db *mongo.Database) error {
	return createIndexes(db, store.CartsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("userId_unique").SetUnique(true),
		},
	})
}

func EnsureOrderIndexes(db *mongo.Database) error {
	return createIndexes(db, store.OrdersCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetName("orderId_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "orderDate", Value: -1}},
			Options: options.Index().SetName("userId_orderDate"),
		},
		{
			Keys:    bson.D{{Key: "orderStatus", Value: 1}},
			Options: options.Index().SetName("orderStatus_index"),
		},
	})
}

func EnsurePaymentIndexes(db *mongo.Database) error {
	return createIndexes(db, store.PaymentsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetName("orderId_index"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "paymentDate", Value: -1}},
			Options: options.Index().SetName("userId_paymentDate"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
	})
}

func EnsureSessionIndexes(db *mongo.Database) error {
	return createIndexes(db, store.SessionsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetName("sessionId_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0),
		},
	})
}
