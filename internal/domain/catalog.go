package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogKind distinguishes the two shared catalogs.
type CatalogKind string

const (
	CatalogExercise CatalogKind = "exercise"
	CatalogFood     CatalogKind = "food"
)

// Exercise is a shared, admin-curated catalog entry. Plans reference it by ID only.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug" json:"slug"` // Unique, URL-safe
	Name        LocalizedText      `bson:"name" json:"name"`
	Description LocalizedText      `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`       // e.g., "strength", "mobility"
	MuscleGroup string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g., "Chest", "Legs", "Back"
	Difficulty  string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"`   // e.g., "Novice", "Medium", "Advanced"
	ImageKey    string             `bson:"imageKey,omitempty" json:"-"`                        // Object storage key, internal use
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FoodItem is a shared nutrition catalog entry with macros per 100 g.
type FoodItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug      string             `bson:"slug" json:"slug"`
	Name      LocalizedText      `bson:"name" json:"name"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"` // e.g., "protein", "grain"
	Per100g   Macros             `bson:"per100g" json:"per100g"`
	ImageKey  string             `bson:"imageKey,omitempty" json:"-"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CatalogEntry is the display-time view of either catalog kind.
type CatalogEntry struct {
	ID       primitive.ObjectID
	Kind     CatalogKind
	Slug     string
	Name     LocalizedText
	Category string
	ImageKey string
}

func (e *Exercise) Entry() CatalogEntry {
	return CatalogEntry{ID: e.ID, Kind: CatalogExercise, Slug: e.Slug, Name: e.Name, Category: e.Category, ImageKey: e.ImageKey}
}

func (f *FoodItem) Entry() CatalogEntry {
	return CatalogEntry{ID: f.ID, Kind: CatalogFood, Slug: f.Slug, Name: f.Name, Category: f.Category, ImageKey: f.ImageKey}
}
