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

const foodCollectionName = "food_items"

// mongoFoodRepository implements repository.FoodRepository
type mongoFoodRepository struct {
	collection *mongo.Collection
}

// NewMongoFoodRepository creates a new FoodItem repository backed by MongoDB.
func NewMongoFoodRepository(db *mongo.Database) repository.FoodRepository {
	return &mongoFoodRepository{
		collection: db.Collection(foodCollectionName),
	}
}

func (r *mongoFoodRepository) Create(ctx context.Context, food *domain.FoodItem) (primitive.ObjectID, error) {
	if food.Slug == "" || !food.Name.Published() {
		return primitive.NilObjectID, errors.New("food slug and default-locale name are required")
	}

	food.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	food.CreatedAt = now
	food.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, food); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return food.ID, nil
}

func (r *mongoFoodRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FoodItem, error) {
	var food domain.FoodItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&food)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &food, nil
}

func (r *mongoFoodRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.FoodItem, error) {
	foods := []domain.FoodItem{}
	if len(ids) == 0 {
		return foods, nil
	}
	err := findAll(ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}}, nil, &foods)
	return foods, err
}

func (r *mongoFoodRepository) List(ctx context.Context, category string) ([]domain.FoodItem, error) {
	foods := []domain.FoodItem{}
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	err := findAll(ctx, r.collection, filter, options.Find().SetSort(bson.D{{Key: "slug", Value: 1}}), &foods)
	return foods, err
}

func (r *mongoFoodRepository) Update(ctx context.Context, food *domain.FoodItem) error {
	if food.ID == primitive.NilObjectID {
		return errors.New("food ID is required for update")
	}
	update := bson.M{
		"$set": bson.M{
			"slug":      food.Slug,
			"name":      food.Name,
			"category":  food.Category,
			"per100g":   food.Per100g,
			"updatedAt": time.Now().UTC(),
		},
	}
	return updateOne(ctx, r.collection, food.ID, update)
}

func (r *mongoFoodRepository) SetImageKey(ctx context.Context, id primitive.ObjectID, key string) error {
	return updateOne(ctx, r.collection, id, bson.M{"$set": bson.M{"imageKey": key, "updatedAt": time.Now().UTC()}})
}

func (r *mongoFoodRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

// EnsureFoodIndexes creates necessary indexes for the food_items collection.
func EnsureFoodIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
