package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"alcyxob/coaching-plans/internal/repository/memory"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTrainingPlan(t *testing.T, env *testEnv) *domain.Plan {
	t.Helper()
	plan, err := env.plans.CreatePlan(context.Background(), env.admin, env.client.UserID, domain.PlanTraining, sr("Snaga"))
	require.NoError(t, err)
	return plan
}

func itemSortOrders(t *testing.T, env *testEnv, dayID primitive.ObjectID) []int {
	t.Helper()
	items, err := env.store.ItemRepository().ListByDay(context.Background(), dayID)
	require.NoError(t, err)
	out := []int{}
	for _, it := range items {
		out = append(out, it.SortOrder)
	}
	return out
}

func TestCreatePlanStartsAsDraft(t *testing.T) {
	env := newTestEnv(t)
	plan := newTrainingPlan(t, env)
	assert.Equal(t, domain.PlanDraft, plan.Status)
	assert.Equal(t, env.client.UserID, plan.ClientID)
	assert.Equal(t, env.admin.UserID, plan.CreatedBy)

	_, err := env.plans.CreatePlan(context.Background(), env.admin, env.client.UserID, "cardio", sr("x"))
	assert.Equal(t, OutcomeInvariant, Classify(err))
}

func TestAddDayAllocatesIncreasingSortOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)

	mon, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), sr("Noge"))
	require.NoError(t, err)
	wed, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Wednesday), sr("Leđa"))
	require.NoError(t, err)
	free, err := env.plans.AddDay(ctx, env.admin, plan.ID, nil, domain.LocalizedText{})
	require.NoError(t, err)

	assert.Equal(t, 1, mon.SortOrder)
	assert.Equal(t, 2, wed.SortOrder)
	assert.Equal(t, 3, free.SortOrder)
	assert.Nil(t, free.Weekday)
}

func TestAddDayRejectsInvalidWeekdays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)

	_, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Weekday(8)), sr("x"))
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "weekday", invErr.Field)

	_, err = env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Weekday(0)), sr("x"))
	assert.Equal(t, OutcomeInvariant, Classify(err))

	_, err = env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Friday), sr("x"))
	require.NoError(t, err)
	_, err = env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Friday), sr("y"))
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Reason, "already used")
}

func TestAddItemNeverReusesDeletedPosition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), sr("Noge"))
	require.NoError(t, err)

	var ids []primitive.ObjectID
	for _, name := range []string{"Squat", "Lunge", "Calf raise"} {
		it, err := env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{Name: name, Sets: 3, Reps: "10"})
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}
	require.Equal(t, []int{1, 2, 3}, itemSortOrders(t, env, day.ID))

	require.NoError(t, env.plans.DeleteItem(ctx, env.admin, ids[1]))
	assert.Equal(t, []int{1, 3}, itemSortOrders(t, env, day.ID), "siblings keep their positions")

	added, err := env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{Name: "Hip thrust", Sets: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, added.SortOrder)
	assert.Equal(t, []int{1, 3, 4}, itemSortOrders(t, env, day.ID))
}

func TestAddItemValidatesPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), sr("Noge"))
	require.NoError(t, err)

	cases := map[string]domain.ItemBlueprint{
		"no name or exercise": {Sets: 3},
		"negative sets":       {Name: "Squat", Sets: -1},
		"negative rest":       {Name: "Squat", RestSeconds: -30},
		"meal on training":    {Name: "Squat", MealTime: "08:00"},
		"unknown exercise":    {ExerciseID: func() *primitive.ObjectID { id := primitive.NewObjectID(); return &id }()},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.plans.AddItem(ctx, env.admin, day.ID, payload)
			assert.Equal(t, OutcomeInvariant, Classify(err), "got %v", err)
		})
	}
	assert.Empty(t, itemSortOrders(t, env, day.ID))
}

func TestNutritionItemDerivesPortionMacros(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	oats, err := env.catalog.CreateFood(ctx, env.admin, FoodInput{
		Slug: "oats", Name: sr("Ovas"), Per100g: domain.Macros{Calories: 389, Protein: 16.9, Carbs: 66.3, Fat: 6.9},
	})
	require.NoError(t, err)

	plan, err := env.plans.CreatePlan(ctx, env.admin, env.client.UserID, domain.PlanNutrition, sr("Ishrana"))
	require.NoError(t, err)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), domain.LocalizedText{})
	require.NoError(t, err)

	item, err := env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{
		Name:     "Doručak",
		MealTime: "08:00",
		Foods:    []domain.FoodPortion{{FoodItemID: &oats.ID, Grams: 200}},
	})
	require.NoError(t, err)
	require.Len(t, item.Foods, 1)
	assert.Equal(t, domain.Macros{Calories: 778, Protein: 33.8, Carbs: 132.6, Fat: 13.8}, item.Foods[0].Macros)
	assert.Equal(t, item.Foods[0].Macros, item.TotalMacros())

	_, err = env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{Name: "Ručak", MealTime: "25:00"})
	assert.Equal(t, OutcomeInvariant, Classify(err))
}

func TestUpdateItemWritesOnlyPatchedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), sr("Noge"))
	require.NoError(t, err)
	item, err := env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{Name: "Squat", Sets: 4, Reps: "8-10", Notes: "slow"})
	require.NoError(t, err)

	// Two editors touch different fields; both changes survive.
	sets := 5
	_, err = env.plans.UpdateItem(ctx, env.admin, item.ID, domain.ItemPatch{Sets: &sets})
	require.NoError(t, err)
	reps := "6"
	updated, err := env.plans.UpdateItem(ctx, env.admin, item.ID, domain.ItemPatch{Reps: &reps})
	require.NoError(t, err)

	assert.Equal(t, 5, updated.Sets)
	assert.Equal(t, "6", updated.Reps)
	assert.Equal(t, "Squat", updated.Name)
	assert.Equal(t, "slow", updated.Notes)
	assert.Equal(t, item.SortOrder, updated.SortOrder)

	negative := -2
	_, err = env.plans.UpdateItem(ctx, env.admin, item.ID, domain.ItemPatch{Sets: &negative})
	assert.Equal(t, OutcomeInvariant, Classify(err))

	unchanged, err := env.plans.UpdateItem(ctx, env.admin, item.ID, domain.ItemPatch{})
	require.NoError(t, err)
	assert.Equal(t, 5, unchanged.Sets)
}

func TestUpdateItemClearsExerciseReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ex, err := env.catalog.CreateExercise(ctx, env.admin, ExerciseInput{Slug: "squat", Name: sr("Čučanj")})
	require.NoError(t, err)
	plan := newTrainingPlan(t, env)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), sr("Noge"))
	require.NoError(t, err)
	item, err := env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{ExerciseID: &ex.ID, Sets: 3})
	require.NoError(t, err)

	// Clearing the reference leaves an item with neither name nor exercise.
	_, err = env.plans.UpdateItem(ctx, env.admin, item.ID, domain.ItemPatch{ExerciseID: &domain.OptionalID{}})
	assert.Equal(t, OutcomeInvariant, Classify(err))

	name := "Goblet squat"
	updated, err := env.plans.UpdateItem(ctx, env.admin, item.ID, domain.ItemPatch{ExerciseID: &domain.OptionalID{}, Name: &name})
	require.NoError(t, err)
	assert.Nil(t, updated.ExerciseID)
	assert.Equal(t, "Goblet squat", updated.Name)
}

func TestUpdateDayWeekdayRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)
	mon, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), sr("A"))
	require.NoError(t, err)
	_, err = env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Tuesday), sr("B"))
	require.NoError(t, err)

	_, err = env.plans.UpdateDay(ctx, env.admin, mon.ID, domain.DayPatch{Weekday: wd(domain.Tuesday)})
	assert.Equal(t, OutcomeInvariant, Classify(err))

	// Re-setting its own weekday is not a conflict.
	same, err := env.plans.UpdateDay(ctx, env.admin, mon.ID, domain.DayPatch{Weekday: wd(domain.Monday)})
	require.NoError(t, err)
	assert.Equal(t, domain.Monday, *same.Weekday)

	label := domain.LocalizedText{SR: "Noge", EN: "Legs"}
	moved, err := env.plans.UpdateDay(ctx, env.admin, mon.ID, domain.DayPatch{Weekday: wd(domain.Sunday), Label: &label})
	require.NoError(t, err)
	assert.Equal(t, domain.Sunday, *moved.Weekday)
	assert.Equal(t, "Legs", moved.Label.EN)
	assert.Equal(t, 1, moved.SortOrder)

	cleared, err := env.plans.UpdateDay(ctx, env.admin, mon.ID, domain.DayPatch{ClearWeekday: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Weekday)
}

func TestDeleteDayCascadesAndKeepsSiblingOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)
	var days []*domain.Day
	for _, w := range []domain.Weekday{domain.Monday, domain.Wednesday, domain.Friday} {
		d, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(w), domain.LocalizedText{})
		require.NoError(t, err)
		_, err = env.plans.AddItem(ctx, env.admin, d.ID, domain.ItemBlueprint{Name: "Plank"})
		require.NoError(t, err)
		days = append(days, d)
	}

	require.NoError(t, env.plans.DeleteDay(ctx, env.admin, days[1].ID))

	graph, err := env.plans.GetPlanGraph(ctx, env.admin, plan.ID)
	require.NoError(t, err)
	require.Len(t, graph.Days, 2)
	assert.Equal(t, 1, graph.Days[0].SortOrder)
	assert.Equal(t, 3, graph.Days[1].SortOrder)
	assert.Empty(t, itemSortOrders(t, env, days[1].ID))

	next, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Wednesday), domain.LocalizedText{})
	require.NoError(t, err)
	assert.Equal(t, 4, next.SortOrder)
}

func TestDeletePlanCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), domain.LocalizedText{})
	require.NoError(t, err)
	_, err = env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{Name: "Squat"})
	require.NoError(t, err)

	require.NoError(t, env.plans.DeletePlan(ctx, env.admin, plan.ID))

	_, err = env.plans.GetPlanGraph(ctx, env.admin, plan.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	items, err := env.store.ItemRepository().ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	days, err := env.store.DayRepository().ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestActivatePlanArchivesPreviousActivePlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := newTrainingPlan(t, env)
	second := newTrainingPlan(t, env)
	nutrition, err := env.plans.CreatePlan(ctx, env.admin, env.client.UserID, domain.PlanNutrition, sr("Ishrana"))
	require.NoError(t, err)

	_, err = env.plans.ActivatePlan(ctx, env.admin, first.ID)
	require.NoError(t, err)
	_, err = env.plans.ActivatePlan(ctx, env.admin, nutrition.ID)
	require.NoError(t, err)
	activated, err := env.plans.ActivatePlan(ctx, env.admin, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanActive, activated.Status)

	active, err := env.plans.ListPlans(ctx, env.admin, env.client.UserID, repository.PlanFilter{Status: domain.PlanActive})
	require.NoError(t, err)
	require.Len(t, active, 2, "one active plan per type")
	got := map[domain.PlanType]primitive.ObjectID{}
	for _, p := range active {
		got[p.Type] = p.ID
	}
	assert.Equal(t, second.ID, got[domain.PlanTraining])
	assert.Equal(t, nutrition.ID, got[domain.PlanNutrition])

	reloaded, err := env.store.PlanRepository().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanArchived, reloaded.Status)
}

func TestFailedActivationKeepsPreviousActivePlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := newTrainingPlan(t, env)
	second := newTrainingPlan(t, env)
	_, err := env.plans.ActivatePlan(ctx, env.admin, first.ID)
	require.NoError(t, err)

	// Archiving first succeeds; activating second fails once.
	env.store.FailWrite(memory.Plans, 1, errStoreDown)
	_, err = env.plans.ActivatePlan(ctx, env.admin, second.ID)
	assert.Equal(t, OutcomeRetryable, Classify(err))
	assert.ErrorIs(t, err, errStoreDown)

	plans := env.store.PlanRepository()
	reloaded, err := plans.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanActive, reloaded.Status)
	reloaded, err = plans.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanDraft, reloaded.Status)
}

func TestActivePlanUniquenessIsEnforcedByTheStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := newTrainingPlan(t, env)
	second := newTrainingPlan(t, env)
	plans := env.store.PlanRepository()

	require.NoError(t, plans.SetStatus(ctx, first.ID, domain.PlanActive))
	err := plans.SetStatus(ctx, second.ID, domain.PlanActive)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestPlanMutationAccessControl(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)
	stranger := env.otherAdmin(t)

	_, err := env.plans.AddDay(ctx, env.client, plan.ID, wd(domain.Monday), sr("x"))
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.plans.AddDay(ctx, stranger, plan.ID, wd(domain.Monday), sr("x"))
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.plans.CreatePlan(ctx, stranger, env.client.UserID, domain.PlanTraining, sr("x"))
	assert.Equal(t, OutcomeForbidden, Classify(err))

	// Clients can read their own plans but nobody else's.
	_, err = env.plans.GetPlanGraph(ctx, env.client, plan.ID)
	require.NoError(t, err)
	otherClient := domain.Actor{UserID: primitive.NewObjectID(), Role: domain.RoleClient}
	_, err = env.plans.GetPlanGraph(ctx, otherClient, plan.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = env.plans.AddDay(ctx, env.admin, primitive.NewObjectID(), nil, sr("x"))
	assert.Equal(t, OutcomeNotFound, Classify(err))
}

func TestStoreFailureIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := newTrainingPlan(t, env)

	env.store.FailWrites(memory.Days, 0, errStoreDown)
	_, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), sr("x"))
	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.Equal(t, OutcomeRetryable, Classify(err))

	env.store.ClearFailures()
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), sr("x"))
	require.NoError(t, err)
	assert.Equal(t, 2, day.SortOrder, "the position reserved by the failed call is skipped")
}
