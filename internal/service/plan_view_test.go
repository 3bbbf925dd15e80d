package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/schedule"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// activeScenarioPlan materializes Monday (Squat) + Tuesday (rest) and activates it.
func activeScenarioPlan(t *testing.T, env *testEnv) *domain.PlanGraph {
	t.Helper()
	ctx := context.Background()
	tmpl := createTemplate(t, env,
		domain.DayBlueprint{Weekday: wd(domain.Monday), Items: []domain.ItemBlueprint{{Name: "Squat", Sets: 4, Reps: "8-10"}}},
		domain.DayBlueprint{Weekday: wd(domain.Tuesday)},
	)
	res, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	require.NoError(t, err)
	_, err = env.plans.ActivatePlan(ctx, env.admin, res.Plan.Plan.ID)
	require.NoError(t, err)
	return res.Plan
}

func TestDashboardOnRestDayPointsToNextWorkout(t *testing.T) {
	env := newTestEnv(t)
	graph := activeScenarioPlan(t, env)

	dash, err := env.views.GetDashboard(context.Background(), env.client, env.client.UserID, domain.LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, domain.Tuesday, dash.Today)
	assert.Equal(t, "Tuesday", dash.TodayName)
	require.Len(t, dash.Plans, 1)

	sum := dash.Plans[0]
	assert.Equal(t, graph.Plan.ID, sum.PlanID)
	assert.Equal(t, "Početni program", sum.Name, "missing en name falls back to sr")
	require.NotNil(t, sum.DayID)
	assert.Equal(t, graph.Days[1].ID, *sum.DayID)
	assert.True(t, sum.IsRestDay)
	assert.Equal(t, 0, sum.ItemCount)
	assert.Equal(t, "Tuesday", sum.FocusLabel)
	assert.Nil(t, sum.Macros)

	require.NotNil(t, sum.NextWorkout)
	assert.Equal(t, graph.Days[0].ID, sum.NextWorkout.DayID)
	assert.Equal(t, domain.Monday, sum.NextWorkout.Weekday)
	assert.Equal(t, "Monday", sum.NextWorkout.WeekdayName)
	assert.Equal(t, 1, sum.NextWorkout.ItemCount)
}

func TestDashboardIgnoresInactivePlans(t *testing.T) {
	env := newTestEnv(t)
	newTrainingPlan(t, env)

	dash, err := env.views.GetDashboard(context.Background(), env.admin, env.client.UserID, domain.LocaleSR)
	require.NoError(t, err)
	assert.Equal(t, "Utorak", dash.TodayName)
	assert.Empty(t, dash.Plans)
}

func TestDashboardAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	activeScenarioPlan(t, env)

	_, err := env.views.GetDashboard(ctx, env.otherAdmin(t), env.client.UserID, domain.LocaleSR)
	assert.ErrorIs(t, err, ErrAccessDenied)
	other := domain.Actor{UserID: primitive.NewObjectID(), Role: domain.RoleClient}
	_, err = env.views.GetDashboard(ctx, other, env.client.UserID, domain.LocaleSR)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestNutritionDashboardTotalsMacros(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan, err := env.plans.CreatePlan(ctx, env.admin, env.client.UserID, domain.PlanNutrition, sr("Ishrana"))
	require.NoError(t, err)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Tuesday), domain.LocalizedText{})
	require.NoError(t, err)
	_, err = env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{
		Name: "Doručak", MealTime: "08:00", Macros: domain.Macros{Calories: 400, Protein: 30, Carbs: 40, Fat: 10},
	})
	require.NoError(t, err)
	_, err = env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{
		Name: "Ručak", MealTime: "13:00",
		Foods: []domain.FoodPortion{
			{Name: "Piletina", Grams: 150, Macros: domain.Macros{Calories: 250, Protein: 45}},
			{Name: "Pirinač", Grams: 100, Macros: domain.Macros{Calories: 130, Carbs: 28}},
		},
	})
	require.NoError(t, err)
	_, err = env.plans.ActivatePlan(ctx, env.admin, plan.ID)
	require.NoError(t, err)

	dash, err := env.views.GetDashboard(ctx, env.client, env.client.UserID, domain.LocaleSR)
	require.NoError(t, err)
	require.Len(t, dash.Plans, 1)
	sum := dash.Plans[0]
	assert.False(t, sum.IsRestDay)
	assert.Equal(t, 2, sum.ItemCount)
	require.NotNil(t, sum.Macros)
	assert.Equal(t, domain.Macros{Calories: 780, Protein: 75, Carbs: 68, Fat: 10}, *sum.Macros)
}

func TestPlanDetailResolvesCatalogNamesByLocale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	squat, err := env.catalog.CreateExercise(ctx, env.admin, ExerciseInput{
		Slug: "back-squat", Name: domain.LocalizedText{SR: "Čučanj", RU: "Приседания"},
	})
	require.NoError(t, err)
	key := imagePrefix(domain.CatalogExercise, squat.ID) + "a.png"
	env.files.put(key, "image/png")
	require.NoError(t, env.catalog.ConfirmImage(ctx, env.admin, domain.CatalogExercise, squat.ID, key))

	plan := newTrainingPlan(t, env)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Tuesday), domain.LocalizedText{})
	require.NoError(t, err)
	_, err = env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{ExerciseID: &squat.ID, Name: "stored", Sets: 3})
	require.NoError(t, err)
	_, err = env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{Name: "Plank"})
	require.NoError(t, err)

	cases := map[domain.Locale]string{
		domain.LocaleSR: "Čučanj",
		domain.LocaleRU: "Приседания",
		domain.LocaleEN: "Čučanj",
	}
	for locale, want := range cases {
		detail, err := env.views.GetPlanDetail(ctx, env.client, plan.ID, locale)
		require.NoError(t, err)
		require.Len(t, detail.Days, 1)
		dv := detail.Days[0]
		assert.True(t, dv.IsToday)
		assert.Equal(t, schedule.WeekdayName(domain.Tuesday, locale), dv.Label)
		require.Len(t, dv.Items, 2)
		assert.Equal(t, want, dv.Items[0].Name, "locale %s", locale)
		assert.Equal(t, "https://storage.test/get/"+key, dv.Items[0].ImageURL)
		assert.Equal(t, "Plank", dv.Items[1].Name)
	}
}

func TestPlanDetailFallsBackToStoredNameWhenExerciseIsGone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ex, err := env.catalog.CreateExercise(ctx, env.admin, ExerciseInput{Slug: "deadlift", Name: sr("Mrtvo dizanje")})
	require.NoError(t, err)
	plan := newTrainingPlan(t, env)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, nil, sr("A"))
	require.NoError(t, err)
	_, err = env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{ExerciseID: &ex.ID, Name: "Deadlift"})
	require.NoError(t, err)
	require.NoError(t, env.catalog.DeleteExercise(ctx, env.admin, ex.ID))

	detail, err := env.views.GetPlanDetail(ctx, env.admin, plan.ID, domain.LocaleSR)
	require.NoError(t, err)
	require.Len(t, detail.Days[0].Items, 1)
	assert.Equal(t, "Deadlift", detail.Days[0].Items[0].Name)
	assert.Equal(t, "A", detail.Days[0].Label)
	assert.True(t, detail.Days[0].IsToday, "the only undated day covers every weekday")
}

type failingLookup struct{}

func (failingLookup) LookupNames(ctx context.Context, exerciseIDs, foodIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.CatalogEntry, error) {
	return nil, errors.New("catalog unavailable")
}

func (failingLookup) ImageURL(ctx context.Context, key string) string { return "" }

func TestPlanDetailSurvivesCatalogOutage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ex, err := env.catalog.CreateExercise(ctx, env.admin, ExerciseInput{Slug: "row", Name: sr("Veslanje")})
	require.NoError(t, err)
	plan := newTrainingPlan(t, env)
	day, err := env.plans.AddDay(ctx, env.admin, plan.ID, wd(domain.Monday), domain.LocalizedText{})
	require.NoError(t, err)
	_, err = env.plans.AddItem(ctx, env.admin, day.ID, domain.ItemBlueprint{ExerciseID: &ex.ID, Name: "Row"})
	require.NoError(t, err)

	views := NewPlanViewService(env.store.UserRepository(), env.store.PlanRepository(), env.store.DayRepository(),
		env.store.ItemRepository(), env.store.TemplateRepository(), failingLookup{},
		schedule.NewWeekdayResolver(schedule.FixedClock(tuesdayNoon)))
	detail, err := views.GetPlanDetail(ctx, env.admin, plan.ID, domain.LocaleSR)
	require.NoError(t, err)
	assert.Equal(t, "Row", detail.Days[0].Items[0].Name)
	assert.False(t, detail.Days[0].IsToday)
}

func TestPlanDetailReadFailureIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.views.GetPlanDetail(context.Background(), env.admin, primitive.NewObjectID(), domain.LocaleSR)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.views.GetDashboard(ctx, env.admin, env.client.UserID, domain.LocaleSR)
	assert.Equal(t, OutcomeRetryable, Classify(err))
}

func TestListTemplatesLocalizesAndFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	threeDayTemplate(t, env)
	_, err := env.templates.CreateTemplate(ctx, env.admin, TemplateInput{
		Name: domain.LocalizedText{SR: "Ishrana", EN: "Meal plan"}, Type: domain.PlanNutrition, DurationWeeks: 2,
	})
	require.NoError(t, err)

	all, err := env.views.ListTemplates(ctx, env.admin, "", domain.LocaleEN)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	nutrition, err := env.views.ListTemplates(ctx, env.admin, domain.PlanNutrition, domain.LocaleEN)
	require.NoError(t, err)
	require.Len(t, nutrition, 1)
	assert.Equal(t, "Meal plan", nutrition[0].Name)

	training, err := env.views.ListTemplates(ctx, env.admin, domain.PlanTraining, domain.LocaleEN)
	require.NoError(t, err)
	require.Len(t, training, 1)
	assert.Equal(t, 3, training[0].DayCount)
	assert.Equal(t, 3, training[0].ItemCount)

	_, err = env.views.ListTemplates(ctx, env.client, "", domain.LocaleEN)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.views.ListTemplates(ctx, env.admin, "cardio", domain.LocaleEN)
	assert.Equal(t, OutcomeInvariant, Classify(err))
}

func TestPositionalDayLabelsMatchDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := createTemplate(t, env,
		domain.DayBlueprint{Items: []domain.ItemBlueprint{{Name: "Squat"}}},
		domain.DayBlueprint{Items: []domain.ItemBlueprint{{Name: "Bench press"}}},
		domain.DayBlueprint{Label: domain.LocalizedText{SR: "Odmor", EN: "Rest"}},
	)
	res, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	require.NoError(t, err)
	_, err = env.plans.ActivatePlan(ctx, env.admin, res.Plan.Plan.ID)
	require.NoError(t, err)

	dash, err := env.views.GetDashboard(ctx, env.client, env.client.UserID, domain.LocaleEN)
	require.NoError(t, err)
	require.Len(t, dash.Plans, 1)
	assert.Equal(t, "Tuesday", dash.Plans[0].FocusLabel)

	detail, err := env.views.GetPlanDetail(ctx, env.client, res.Plan.Plan.ID, domain.LocaleEN)
	require.NoError(t, err)
	require.Len(t, detail.Days, 3)
	assert.Equal(t, "Monday", detail.Days[0].Label)
	assert.True(t, detail.Days[1].IsToday)
	assert.Equal(t, dash.Plans[0].FocusLabel, detail.Days[1].Label)
	assert.Equal(t, "Rest", detail.Days[2].Label)
	assert.Empty(t, detail.Days[0].WeekdayName)
}
