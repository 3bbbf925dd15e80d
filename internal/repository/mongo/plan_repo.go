// internal/repository/mongo/plan_repo.go
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

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new Plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.ClientID == primitive.NilObjectID || plan.CreatedBy == primitive.NilObjectID || !plan.Type.Valid() {
		return primitive.NilObjectID, errors.New("plan requires clientId, createdBy, and a valid type")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return plan.ID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListByClient retrieves a client's plans, newest first.
func (r *mongoPlanRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID, f repository.PlanFilter) ([]domain.Plan, error) {
	plans := []domain.Plan{}
	filter := bson.M{"clientId": clientID}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := findAll(ctx, r.collection, filter, findOptions, &plans)
	return plans, err
}

func (r *mongoPlanRepository) UpdateName(ctx context.Context, id primitive.ObjectID, name domain.LocalizedText) error {
	return updateOne(ctx, r.collection, id, bson.M{"$set": bson.M{"name": name, "updatedAt": time.Now().UTC()}})
}

// SetStatus changes the lifecycle status. The partial unique index on
// (clientId, type) for active plans turns a second activation into ErrConflict.
func (r *mongoPlanRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error {
	return updateOne(ctx, r.collection, id, bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}})
}

func (r *mongoPlanRepository) AllocateDaySort(ctx context.Context, id primitive.ObjectID) (int, error) {
	return allocateCounter(ctx, r.collection, id, "nextDaySort")
}

func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// At most one active plan per (client, type).
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().
				SetName("one_active_plan_per_client_type").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.PlanActive}),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
