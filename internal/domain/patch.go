package domain

// ItemPatch carries only the fields an editor changed. Nil means "leave as is".
// Concurrent patches to the same Item are applied last-write-wins per field.
type ItemPatch struct {
	ExerciseID  *OptionalID    `json:"exerciseId,omitempty"`
	Name        *string        `json:"name,omitempty"`
	Sets        *int           `json:"sets,omitempty"`
	Reps        *string        `json:"reps,omitempty"`
	RestSeconds *int           `json:"restSeconds,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	MealTime    *string        `json:"mealTime,omitempty"`
	Macros      *Macros        `json:"macros,omitempty"`
	Foods       *[]FoodPortion `json:"foods,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.ExerciseID == nil && p.Name == nil && p.Sets == nil && p.Reps == nil &&
		p.RestSeconds == nil && p.Notes == nil && p.MealTime == nil && p.Macros == nil && p.Foods == nil
}

// DayPatch changes a Day's label and/or weekday.
type DayPatch struct {
	Label        *LocalizedText `json:"label,omitempty"`
	Weekday      *Weekday       `json:"weekday,omitempty"`
	ClearWeekday bool           `json:"clearWeekday,omitempty"`
}

func (p DayPatch) Empty() bool {
	return p.Label == nil && p.Weekday == nil && !p.ClearWeekday
}
