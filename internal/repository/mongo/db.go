package mongo

import (
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI
// and verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second) // Shorter timeout for ping
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection and stops at the
// first failure. Uniqueness rules (weekday and sortOrder per parent, one
// active plan per client and type) are enforced by these indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ensure := []struct {
		collection string
		fn         func(context.Context, *mongo.Collection) error
	}{
		{userCollectionName, EnsureUserIndexes},
		{exerciseCollectionName, EnsureExerciseIndexes},
		{foodCollectionName, EnsureFoodIndexes},
		{planCollectionName, EnsurePlanIndexes},
		{dayCollectionName, EnsureDayIndexes},
		{itemCollectionName, EnsureItemIndexes},
		{templateCollectionName, EnsureTemplateIndexes},
		{jobCollectionName, EnsureJobIndexes},
	}
	for _, e := range ensure {
		if err := e.fn(ctx, db.Collection(e.collection)); err != nil {
			return fmt.Errorf("create indexes for collection %s: %w", e.collection, err)
		}
		log.Printf("INFO: Indexes ensured for collection %s", e.collection)
	}
	return nil
}

// mapWriteError converts driver duplicate-key errors into repository.ErrConflict.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrConflict
	}
	return err
}
