package payments

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

// Store is the persistence surface the reconciler needs. Every mutation is a
// compare-and-set: it reports whether this call performed the transition, so
// duplicate notifications converge without double side effects.
type Store interface {
	FindAttempt(ctx context.Context, correlationID string) (*models.PaymentTransaction, error)
	RecordAttempt(ctx context.Context, txn models.PaymentTransaction) error
	ConfirmAttempt(ctx context.Context, correlationID, providerRef string) (bool, error)
	FailAttempt(ctx context.Context, correlationID string) (bool, error)
	ExpireAttempt(ctx context.Context, correlationID string) (bool, error)
	MarkOrderPaid(ctx context.Context, orderID primitive.ObjectID) (bool, error)
	MarkOrderFailed(ctx context.Context, orderID primitive.ObjectID, correlationID string) (bool, error)
	ClearUserCart(ctx context.Context, userID primitive.ObjectID) error
}

// MongoStore implements Store on the shared database handle.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) FindAttempt(ctx context.Context, correlationID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := s.db.Collection("payment_transactions").
		FindOne(ctx, bson.M{"correlationId": correlationID}).Decode(&txn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUnknownCorrelation
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *MongoStore) RecordAttempt(ctx context.Context, txn models.PaymentTransaction) error {
	_, err := s.db.Collection("payment_transactions").InsertOne(ctx, txn)
	return err
}

func (s *MongoStore) casAttempt(ctx context.Context, correlationID, toStatus string, extra bson.M) (bool, error) {
	set := bson.M{"status": toStatus, "updatedAt": time.Now()}
	for k, v := range extra {
		set[k] = v
	}
	res, err := s.db.Collection("payment_transactions").UpdateOne(ctx,
		bson.M{"correlationId": correlationID, "status": models.AttemptPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) ConfirmAttempt(ctx context.Context, correlationID, providerRef string) (bool, error) {
	extra := bson.M{}
	if providerRef != "" {
		extra["providerRef"] = providerRef
	}
	return s.casAttempt(ctx, correlationID, models.AttemptConfirmed, extra)
}

func (s *MongoStore) FailAttempt(ctx context.Context, correlationID string) (bool, error) {
	return s.casAttempt(ctx, correlationID, models.AttemptFailed, nil)
}

func (s *MongoStore) ExpireAttempt(ctx context.Context, correlationID string) (bool, error) {
	return s.casAttempt(ctx, correlationID, models.AttemptExpired, nil)
}

// MarkOrderPaid transitions the order unpaid→paid and pending→processing in
// one conditional update. A second confirmation finds no matching document.
func (s *MongoStore) MarkOrderPaid(ctx context.Context, orderID primitive.ObjectID) (bool, error) {
	res, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": orderID, "paymentStatus": models.PaymentStatusUnpaid},
		bson.M{"$set": bson.M{
			"paymentStatus": models.PaymentStatusPaid,
			"status":        models.OrderStatusProcessing,
			"updatedAt":     time.Now(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// MarkOrderFailed records an explicit provider rejection. The paymentRef
// filter keeps a late failure from a superseded attempt from clobbering a
// newer one.
func (s *MongoStore) MarkOrderFailed(ctx context.Context, orderID primitive.ObjectID, correlationID string) (bool, error) {
	res, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{
			"_id":           orderID,
			"paymentStatus": models.PaymentStatusUnpaid,
			"paymentRef":    correlationID,
		},
		bson.M{"$set": bson.M{
			"paymentStatus": models.PaymentStatusFailed,
			"updatedAt":     time.Now(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) ClearUserCart(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.db.Collection("carts").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()}},
	)
	return err
}
