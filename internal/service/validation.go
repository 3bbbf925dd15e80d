package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validateWeekday(w *domain.Weekday) error {
	if w != nil && !w.Valid() {
		return invalid("weekday", "must be between 1 (Monday) and 7 (Sunday)")
	}
	return nil
}

func validateSortOrder(n int) error {
	if n < 1 {
		return invalid("sortOrder", "must be positive")
	}
	return nil
}

func validateMacros(field string, m domain.Macros) error {
	if m.Calories < 0 || m.Protein < 0 || m.Carbs < 0 || m.Fat < 0 {
		return invalid(field, "macros cannot be negative")
	}
	return nil
}

func validateMealTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return invalid("mealTime", "must be HH:MM")
	}
	return nil
}

// validateItem checks the shape of an item (or item blueprint) for a plan type.
// Catalog references are checked separately by catalogRefs.
func validateItem(planType domain.PlanType, it domain.ItemBlueprint) error {
	if it.Sets < 0 {
		return invalid("sets", "cannot be negative")
	}
	if it.RestSeconds < 0 {
		return invalid("restSeconds", "cannot be negative")
	}
	if err := validateMacros("macros", it.Macros); err != nil {
		return err
	}
	if err := validateMealTime(it.MealTime); err != nil {
		return err
	}
	switch planType {
	case domain.PlanTraining:
		if len(it.Foods) > 0 || it.MealTime != "" {
			return invalid("item", "training items cannot carry meal fields")
		}
		if it.ExerciseID == nil && strings.TrimSpace(it.Name) == "" {
			return invalid("name", "an exercise reference or a name is required")
		}
	case domain.PlanNutrition:
		if it.ExerciseID != nil {
			return invalid("exerciseId", "nutrition items cannot reference exercises")
		}
		if strings.TrimSpace(it.Name) == "" && len(it.Foods) == 0 {
			return invalid("name", "a meal name or at least one food is required")
		}
		for i, f := range it.Foods {
			if f.FoodItemID == nil && strings.TrimSpace(f.Name) == "" {
				return invalid(fmt.Sprintf("foods[%d]", i), "a food reference or a name is required")
			}
			if f.Grams < 0 {
				return invalid(fmt.Sprintf("foods[%d].grams", i), "cannot be negative")
			}
			if err := validateMacros(fmt.Sprintf("foods[%d].macros", i), f.Macros); err != nil {
				return err
			}
		}
	default:
		return invalid("type", "unknown plan type")
	}
	return nil
}

// catalogRefs verifies catalog references and derives portion macros
// from the food catalog when a portion has grams but no macros.
type catalogRefs struct {
	exerciseRepo repository.ExerciseRepository
	foodRepo     repository.FoodRepository
}

func (c catalogRefs) checkExercise(ctx context.Context, id *primitive.ObjectID) error {
	if id == nil {
		return nil
	}
	if _, err := c.exerciseRepo.GetByID(ctx, *id); err != nil {
		return storeError("load exercise", err, invalid("exerciseId", "unknown exercise "+id.Hex()))
	}
	return nil
}

func (c catalogRefs) resolveFoods(ctx context.Context, foods []domain.FoodPortion) error {
	for i := range foods {
		f := &foods[i]
		if f.FoodItemID == nil {
			continue
		}
		food, err := c.foodRepo.GetByID(ctx, *f.FoodItemID)
		if err != nil {
			return storeError("load food", err, invalid(fmt.Sprintf("foods[%d].foodItemId", i), "unknown food "+f.FoodItemID.Hex()))
		}
		if f.Macros == (domain.Macros{}) && f.Grams > 0 {
			f.Macros = food.Per100g.Scale(f.Grams / 100)
		}
	}
	return nil
}

// checkItem validates an item blueprint and resolves its catalog references in place.
func (c catalogRefs) checkItem(ctx context.Context, planType domain.PlanType, it *domain.ItemBlueprint) error {
	if err := validateItem(planType, *it); err != nil {
		return err
	}
	if err := c.checkExercise(ctx, it.ExerciseID); err != nil {
		return err
	}
	return c.resolveFoods(ctx, it.Foods)
}
