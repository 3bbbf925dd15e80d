// internal/domain/plan.go
package domain

import (
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanType selects what kind of Items a Plan's Days hold.
type PlanType string

const (
	PlanTraining  PlanType = "training"
	PlanNutrition PlanType = "nutrition"
)

func (t PlanType) Valid() bool {
	return t == PlanTraining || t == PlanNutrition
}

// PlanStatus type for plan lifecycle
type PlanStatus string

const (
	PlanDraft    PlanStatus = "draft"
	PlanActive   PlanStatus = "active"
	PlanArchived PlanStatus = "archived"
)

// Plan is one client's concrete weekly program. It owns its Days; Days own their Items.
type Plan struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID  `bson:"clientId" json:"clientId"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"` // Admin who built or materialized it
	Type        PlanType            `bson:"type" json:"type"`
	Status      PlanStatus          `bson:"status" json:"status"`
	Name        LocalizedText       `bson:"name,omitempty" json:"name,omitempty"`
	TemplateID  *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"` // Source template, informational only
	NextDaySort int                 `bson:"nextDaySort" json:"-"`                             // Monotonic Day sortOrder allocator
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Day is one weekday's (or ordinal slot's) worth of Items within a Plan.
type Day struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID       primitive.ObjectID `bson:"planId" json:"planId"`
	Weekday      *Weekday           `bson:"weekday,omitempty" json:"weekday,omitempty"` // Optional: 1 (Mon) - 7 (Sun)
	SortOrder    int                `bson:"sortOrder" json:"sortOrder"`                 // Unique within the plan
	Label        LocalizedText      `bson:"label,omitempty" json:"label,omitempty"`     // Display override
	NextItemSort int                `bson:"nextItemSort" json:"-"`                      // Monotonic Item sortOrder allocator
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Macros are nutrition totals. Calories in kcal, the rest in grams.
type Macros struct {
	Calories float64 `bson:"calories" json:"calories"`
	Protein  float64 `bson:"protein" json:"protein"`
	Carbs    float64 `bson:"carbs" json:"carbs"`
	Fat      float64 `bson:"fat" json:"fat"`
}

func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Scale multiplies every macro by f, rounded to one decimal.
func (m Macros) Scale(f float64) Macros {
	r := func(v float64) float64 { return math.Round(v*f*10) / 10 }
	return Macros{Calories: r(m.Calories), Protein: r(m.Protein), Carbs: r(m.Carbs), Fat: r(m.Fat)}
}

// FoodPortion is one ingredient of a meal.
type FoodPortion struct {
	FoodItemID *primitive.ObjectID `bson:"foodItemId,omitempty" json:"foodItemId,omitempty"`
	Name       string              `bson:"name,omitempty" json:"name,omitempty"` // Free text when not from the catalog
	Grams      float64             `bson:"grams,omitempty" json:"grams,omitempty"`
	Macros     Macros              `bson:"macros" json:"macros"`
}

// Item is one exercise (training) or meal (nutrition) within a Day.
// When ExerciseID is set, the catalog name wins over Name for display.
type Item struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"` // Denormalized for cascade deletes
	DayID     primitive.ObjectID `bson:"dayId" json:"dayId"`
	SortOrder int                `bson:"sortOrder" json:"sortOrder"` // Unique within the day, gaps allowed

	// Training
	ExerciseID  *primitive.ObjectID `bson:"exerciseId,omitempty" json:"exerciseId,omitempty"`
	Name        string              `bson:"name,omitempty" json:"name,omitempty"`
	Sets        int                 `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps        string              `bson:"reps,omitempty" json:"reps,omitempty"` // e.g., "8-12", "45s"
	RestSeconds int                 `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`

	// Nutrition
	MealTime string        `bson:"mealTime,omitempty" json:"mealTime,omitempty"` // e.g., "08:30"
	Macros   Macros        `bson:"macros,omitempty" json:"macros,omitempty"`
	Foods    []FoodPortion `bson:"foods,omitempty" json:"foods,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TotalMacros derives the meal totals from its food list when it has one,
// otherwise returns the directly entered values.
func (it *Item) TotalMacros() Macros {
	if len(it.Foods) == 0 {
		return it.Macros
	}
	var total Macros
	for _, f := range it.Foods {
		total = total.Add(f.Macros)
	}
	return total
}

// DayWithItems is a Day together with its Items ordered by SortOrder.
type DayWithItems struct {
	Day
	Items []Item `json:"items"`
}

// IsRestDay reports whether the day has no Items.
func (d *DayWithItems) IsRestDay() bool {
	return len(d.Items) == 0
}

// PlanGraph is a fully loaded Plan.
type PlanGraph struct {
	Plan Plan           `json:"plan"`
	Days []DayWithItems `json:"days"`
}

// HasWeekdays reports whether any day is pinned to a weekday. Without one the
// days repeat as a sequence in sortOrder.
func (g *PlanGraph) HasWeekdays() bool {
	for i := range g.Days {
		if g.Days[i].Weekday != nil {
			return true
		}
	}
	return false
}

// AssembleGraph groups items under their days and orders both by SortOrder.
// Items whose day is not in days are dropped.
func AssembleGraph(plan Plan, days []Day, items []Item) PlanGraph {
	byDay := make(map[primitive.ObjectID][]Item, len(days))
	for _, it := range items {
		byDay[it.DayID] = append(byDay[it.DayID], it)
	}
	g := PlanGraph{Plan: plan, Days: make([]DayWithItems, 0, len(days))}
	for _, d := range days {
		its := byDay[d.ID]
		sort.SliceStable(its, func(i, j int) bool { return its[i].SortOrder < its[j].SortOrder })
		if its == nil {
			its = []Item{}
		}
		g.Days = append(g.Days, DayWithItems{Day: d, Items: its})
	}
	sort.SliceStable(g.Days, func(i, j int) bool { return g.Days[i].SortOrder < g.Days[j].SortOrder })
	return g
}
