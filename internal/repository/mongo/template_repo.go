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

const templateCollectionName = "templates"

// mongoTemplateRepository implements repository.TemplateRepository
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new Template repository.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

// Create inserts a new template. The whole blueprint lives in one document.
func (r *mongoTemplateRepository) Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.CreatedBy == primitive.NilObjectID || !template.Type.Valid() {
		return primitive.NilObjectID, errors.New("template requires createdBy and a valid type")
	}
	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	if template.Days == nil {
		template.Days = []domain.DayBlueprint{}
	}

	if _, err := r.collection.InsertOne(ctx, template); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return template.ID, nil
}

func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	var template domain.Template
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// List retrieves templates, optionally of one type, newest first.
func (r *mongoTemplateRepository) List(ctx context.Context, planType domain.PlanType) ([]domain.Template, error) {
	templates := []domain.Template{}
	filter := bson.M{}
	if planType != "" {
		filter["type"] = planType
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := findAll(ctx, r.collection, filter, findOptions, &templates)
	return templates, err
}

// Update replaces the editable fields of a template.
func (r *mongoTemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	template.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":          template.Name,
			"description":   template.Description,
			"type":          template.Type,
			"durationWeeks": template.DurationWeeks,
			"difficulty":    template.Difficulty,
			"goal":          template.Goal,
			"days":          template.Days,
			"updatedAt":     template.UpdatedAt,
		},
	}
	return updateOne(ctx, r.collection, template.ID, update)
}

func (r *mongoTemplateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "type", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index(),
	}
	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
