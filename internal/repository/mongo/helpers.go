package mongo

import (
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// findAll decodes every document matching filter into out (a pointer to a slice).
func findAll(ctx context.Context, collection *mongo.Collection, filter bson.M, opts *options.FindOptions, out interface{}) error {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := collection.Find(ctx, filter, findOpts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, out); err != nil {
		return err
	}
	return cursor.Err()
}

// updateOne applies update to the document with the given id.
func updateOne(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, update bson.M) error {
	result, err := collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	// ModifiedCount may be 0 when the values were already equal; not an error.
	return nil
}

// deleteOne removes the document with the given id.
func deleteOne(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID) error {
	result, err := collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// allocateCounter atomically increments field on the document and returns the new value.
func allocateCounter(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, field string) (int, error) {
	var doc bson.M
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{field: 1})
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: 1}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}
	// The server stores $inc results as int32 or int64 depending on magnitude.
	n, err := cast.ToIntE(doc[field])
	if err != nil {
		return 0, fmt.Errorf("counter field %s: %w", field, err)
	}
	return n, nil
}
