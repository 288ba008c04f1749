package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	if _, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex); err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}

	tokenIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "tokenHash", Value: 1}},
		Options: options.Index().
			SetName("session_token_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating session_token_unique index")
	if _, err := db.Collection("user_sessions").Indexes().CreateOne(ctx, tokenIndex); err != nil {
		log.Println("EnsureUserIndexes: session token index error:", err)
		return err
	}
	return nil
}

func EnsureCartIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetName("cart_user_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"userId": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().
				SetName("cart_session_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"sessionId": bson.M{"$exists": true}}),
		},
	}

	log.Println("EnsureCartIndexes: creating cart owner indexes")
	if _, err := db.Collection("carts").Indexes().CreateMany(ctx, indexes); err != nil {
		log.Println("EnsureCartIndexes: cart index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("order_user_created"),
		},
		{
			Keys: bson.D{{Key: "trackingNumber", Value: 1}},
			Options: options.Index().
				SetName("order_tracking").
				SetPartialFilterExpression(bson.M{"trackingNumber": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
			Options: options.Index().
				SetName("order_idempotency_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}}),
		},
	}

	log.Println("EnsureOrderIndexes: creating order indexes")
	if _, err := db.Collection("orders").Indexes().CreateMany(ctx, indexes); err != nil {
		log.Println("EnsureOrderIndexes: order index error:", err)
		return err
	}
	return nil
}

func EnsurePaymentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "correlationId", Value: 1}},
			Options: options.Index().
				SetName("payment_correlation_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}, {Key: "initiatedAt", Value: -1}},
			Options: options.Index().SetName("payment_order_initiated"),
		},
	}

	log.Println("EnsurePaymentIndexes: creating payment indexes")
	if _, err := db.Collection("payment_transactions").Indexes().CreateMany(ctx, indexes); err != nil {
		log.Println("EnsurePaymentIndexes: payment index error:", err)
		return err
	}
	return nil
}
