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

const itemCollectionName = "plan_items"

// mongoItemRepository implements repository.ItemRepository
type mongoItemRepository struct {
	collection *mongo.Collection
}

// NewMongoItemRepository creates a new Item repository.
func NewMongoItemRepository(db *mongo.Database) repository.ItemRepository {
	return &mongoItemRepository{
		collection: db.Collection(itemCollectionName),
	}
}

func (r *mongoItemRepository) Create(ctx context.Context, item *domain.Item) (primitive.ObjectID, error) {
	if item.DayID == primitive.NilObjectID || item.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("item requires dayId and planId")
	}
	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return item.ID, nil
}

func (r *mongoItemRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Item, error) {
	var item domain.Item
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *mongoItemRepository) ListByDay(ctx context.Context, dayID primitive.ObjectID) ([]domain.Item, error) {
	items := []domain.Item{}
	findOptions := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}})
	err := findAll(ctx, r.collection, bson.M{"dayId": dayID}, findOptions, &items)
	return items, err
}

func (r *mongoItemRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Item, error) {
	items := []domain.Item{}
	findOptions := options.Find().SetSort(bson.D{{Key: "dayId", Value: 1}, {Key: "sortOrder", Value: 1}})
	err := findAll(ctx, r.collection, bson.M{"planId": planID}, findOptions, &items)
	return items, err
}

// Update sets only the patched fields, so two editors changing different
// fields of the same item do not overwrite each other.
func (r *mongoItemRepository) Update(ctx context.Context, id primitive.ObjectID, patch domain.ItemPatch) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	update := bson.M{"$set": set}
	if patch.ExerciseID != nil {
		if patch.ExerciseID.Value == nil {
			update["$unset"] = bson.M{"exerciseId": ""}
		} else {
			set["exerciseId"] = *patch.ExerciseID.Value
		}
	}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Sets != nil {
		set["sets"] = *patch.Sets
	}
	if patch.Reps != nil {
		set["reps"] = *patch.Reps
	}
	if patch.RestSeconds != nil {
		set["restSeconds"] = *patch.RestSeconds
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	if patch.MealTime != nil {
		set["mealTime"] = *patch.MealTime
	}
	if patch.Macros != nil {
		set["macros"] = *patch.Macros
	}
	if patch.Foods != nil {
		set["foods"] = *patch.Foods
	}
	return updateOne(ctx, r.collection, id, update)
}

func (r *mongoItemRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

func (r *mongoItemRepository) DeleteByDay(ctx context.Context, dayID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"dayId": dayID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoItemRepository) DeleteByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureItemIndexes creates the ordering uniqueness index and the cascade lookup index.
func EnsureItemIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "dayId", Value: 1}, {Key: "sortOrder", Value: 1}},
			Options: options.Index().SetName("item_sort_per_day").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
