package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Template is a client-independent blueprint that can be materialized into a Plan.
// Nothing below the Template itself carries a persisted identifier.
type Template struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy     primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Name          LocalizedText      `bson:"name" json:"name"`
	Description   LocalizedText      `bson:"description,omitempty" json:"description,omitempty"`
	Type          PlanType           `bson:"type" json:"type"`
	DurationWeeks int                `bson:"durationWeeks" json:"durationWeeks"`
	Difficulty    string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Goal          string             `bson:"goal,omitempty" json:"goal,omitempty"` // e.g., "hypertrophy", "fat loss"
	Days          []DayBlueprint     `bson:"days" json:"days"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DayBlueprint mirrors Day without identifiers.
type DayBlueprint struct {
	Weekday *Weekday        `bson:"weekday,omitempty" json:"weekday,omitempty"`
	Label   LocalizedText   `bson:"label,omitempty" json:"label,omitempty"`
	Items   []ItemBlueprint `bson:"items" json:"items"`
}

// ItemBlueprint mirrors Item without identifiers, except the optional catalog reference.
type ItemBlueprint struct {
	ExerciseID  *primitive.ObjectID `bson:"exerciseId,omitempty" json:"exerciseId,omitempty"`
	Name        string              `bson:"name,omitempty" json:"name,omitempty"`
	Sets        int                 `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps        string              `bson:"reps,omitempty" json:"reps,omitempty"`
	RestSeconds int                 `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	MealTime    string              `bson:"mealTime,omitempty" json:"mealTime,omitempty"`
	Macros      Macros              `bson:"macros,omitempty" json:"macros,omitempty"`
	Foods       []FoodPortion       `bson:"foods,omitempty" json:"foods,omitempty"`
}

// ItemCount returns the total number of item-blueprints across all days.
func (t *Template) ItemCount() int {
	n := 0
	for _, d := range t.Days {
		n += len(d.Items)
	}
	return n
}
