package mongo

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise into the catalog.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Slug == "" || !exercise.Name.Published() {
		return primitive.NilObjectID, errors.New("exercise slug and default-locale name are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, exercise); err != nil {
		return primitive.NilObjectID, mapWriteError(err) // Slug is unique
	}
	return exercise.ID, nil
}

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetByIDs retrieves the exercises among ids that exist. Missing ids are skipped.
func (r *mongoExerciseRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	exercises := []domain.Exercise{}
	if len(ids) == 0 {
		return exercises, nil
	}
	err := findAll(ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}}, nil, &exercises)
	return exercises, err
}

// List retrieves catalog exercises, optionally by category, ordered by slug.
func (r *mongoExerciseRepository) List(ctx context.Context, category string) ([]domain.Exercise, error) {
	exercises := []domain.Exercise{}
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	err := findAll(ctx, r.collection, filter, options.Find().SetSort(bson.D{{Key: "slug", Value: 1}}), &exercises)
	return exercises, err
}

// Update replaces the editable catalog fields. Image key and creator are left untouched.
func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	update := bson.M{
		"$set": bson.M{
			"slug":        exercise.Slug,
			"name":        exercise.Name,
			"description": exercise.Description,
			"category":    exercise.Category,
			"muscleGroup": exercise.MuscleGroup,
			"difficulty":  exercise.Difficulty,
			"updatedAt":   time.Now().UTC(),
		},
	}
	return updateOne(ctx, r.collection, exercise.ID, update)
}

// SetImageKey records the object storage key of the exercise image.
func (r *mongoExerciseRepository) SetImageKey(ctx context.Context, id primitive.ObjectID, key string) error {
	return updateOne(ctx, r.collection, id, bson.M{"$set": bson.M{"imageKey": key, "updatedAt": time.Now().UTC()}})
}

// Delete removes an exercise from the catalog.
func (r *mongoExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
