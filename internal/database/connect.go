package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func Connect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// Replica set members report a set name and mongos routers answer
// "isdbgrid". Anything else is a standalone server.
func (r helloReply) supportsTransactions() bool {
	return r.SetName != "" || r.Msg == "isdbgrid"
}

// SupportsTransactions asks the server whether it can run multi-document
// transactions.
func SupportsTransactions(ctx context.Context, client *mongo.Client) (bool, error) {
	var reply helloReply
	cmd := bson.D{{Key: "hello", Value: 1}}
	if err := client.Database("admin").RunCommand(ctx, cmd).Decode(&reply); err != nil {
		return false, err
	}
	return reply.supportsTransactions(), nil
}
