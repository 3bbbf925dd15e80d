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

const jobCollectionName = "materialization_jobs"

// mongoJobRepository implements repository.MaterializationJobRepository
type mongoJobRepository struct {
	collection *mongo.Collection
}

// NewMongoJobRepository creates a new materialization job repository.
func NewMongoJobRepository(db *mongo.Database) repository.MaterializationJobRepository {
	return &mongoJobRepository{
		collection: db.Collection(jobCollectionName),
	}
}

func (r *mongoJobRepository) Create(ctx context.Context, job *domain.MaterializationJob) (primitive.ObjectID, error) {
	job.ID = primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond) // Stored precision, so Claim can match on it
	job.CreatedAt = now
	job.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, job); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return job.ID, nil
}

func (r *mongoJobRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MaterializationJob, error) {
	var job domain.MaterializationJob
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Update writes the job's progress and status. The blueprint snapshot is immutable.
func (r *mongoJobRepository) Update(ctx context.Context, job *domain.MaterializationJob) error {
	job.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"planId":       job.PlanID,
			"status":       job.Status,
			"daysWritten":  job.DaysWritten,
			"itemsWritten": job.ItemsWritten,
			"attempts":     job.Attempts,
			"lastError":    job.LastError,
			"updatedAt":    job.UpdatedAt,
		},
	}
	filter := bson.M{"_id": job.ID, "status": bson.M{"$ne": domain.JobDiscarded}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, job.ID)
	}
	return nil
}

// Claim is a compare-and-set on status and updatedAt.
func (r *mongoJobRepository) Claim(ctx context.Context, job *domain.MaterializationJob, status domain.JobStatus) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"_id": job.ID, "status": job.Status, "updatedAt": job.UpdatedAt}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": now}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, job.ID)
	}
	job.Status = status
	job.UpdatedAt = now
	return nil
}

// missOrConflict tells a missing job from one whose guard did not match.
func (r *mongoJobRepository) missOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *mongoJobRepository) ListByStatus(ctx context.Context, status domain.JobStatus) ([]domain.MaterializationJob, error) {
	jobs := []domain.MaterializationJob{}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"blueprint": 0})
	err := findAll(ctx, r.collection, bson.M{"status": status}, findOptions, &jobs)
	return jobs, err
}

// EnsureJobIndexes supports the failed-job listing.
func EnsureJobIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}},
		Options: options.Index(),
	}
	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
