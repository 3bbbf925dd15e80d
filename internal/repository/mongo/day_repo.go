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

const dayCollectionName = "plan_days"

// mongoDayRepository implements repository.DayRepository
type mongoDayRepository struct {
	collection *mongo.Collection
}

// NewMongoDayRepository creates a new Day repository.
func NewMongoDayRepository(db *mongo.Database) repository.DayRepository {
	return &mongoDayRepository{
		collection: db.Collection(dayCollectionName),
	}
}

// Create inserts a new day. Duplicate weekday or sortOrder within the plan yields ErrConflict.
func (r *mongoDayRepository) Create(ctx context.Context, day *domain.Day) (primitive.ObjectID, error) {
	if day.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("day requires planId")
	}
	day.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	day.CreatedAt = now
	day.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, day); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return day.ID, nil
}

func (r *mongoDayRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Day, error) {
	var day domain.Day
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &day, nil
}

// ListByPlan retrieves all days of a plan ordered by sortOrder.
func (r *mongoDayRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Day, error) {
	days := []domain.Day{}
	findOptions := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}})
	err := findAll(ctx, r.collection, bson.M{"planId": planID}, findOptions, &days)
	return days, err
}

// Update applies a label and/or weekday change.
func (r *mongoDayRepository) Update(ctx context.Context, id primitive.ObjectID, patch domain.DayPatch) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	update := bson.M{"$set": set}
	if patch.Label != nil {
		set["label"] = *patch.Label
	}
	if patch.ClearWeekday {
		update["$unset"] = bson.M{"weekday": ""}
	} else if patch.Weekday != nil {
		set["weekday"] = *patch.Weekday
	}
	return updateOne(ctx, r.collection, id, update)
}

func (r *mongoDayRepository) AllocateItemSort(ctx context.Context, id primitive.ObjectID) (int, error) {
	return allocateCounter(ctx, r.collection, id, "nextItemSort")
}

func (r *mongoDayRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

func (r *mongoDayRepository) DeleteByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureDayIndexes creates the ordering and weekday uniqueness indexes.
func EnsureDayIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "sortOrder", Value: 1}},
			Options: options.Index().SetName("day_sort_per_plan").SetUnique(true),
		},
		{
			// Only days that carry a weekday take part in the uniqueness check.
			Keys: bson.D{{Key: "planId", Value: 1}, {Key: "weekday", Value: 1}},
			Options: options.Index().
				SetName("day_weekday_per_plan").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"weekday": bson.M{"$exists": true}}),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
