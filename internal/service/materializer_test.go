package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"alcyxob/coaching-plans/internal/repository/memory"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func createTemplate(t *testing.T, env *testEnv, days ...domain.DayBlueprint) *domain.Template {
	t.Helper()
	tmpl, err := env.templates.CreateTemplate(context.Background(), env.admin, TemplateInput{
		Name:          sr("Početni program"),
		Type:          domain.PlanTraining,
		DurationWeeks: 4,
		Days:          days,
	})
	require.NoError(t, err)
	return tmpl
}

// threeDayTemplate has 2, 0 and 1 items on Monday, Tuesday and Thursday.
func threeDayTemplate(t *testing.T, env *testEnv) *domain.Template {
	return createTemplate(t, env,
		domain.DayBlueprint{Weekday: wd(domain.Monday), Label: sr("Noge"), Items: []domain.ItemBlueprint{
			{Name: "Squat", Sets: 4, Reps: "8-10"},
			{Name: "Lunge", Sets: 3, Reps: "12"},
		}},
		domain.DayBlueprint{Weekday: wd(domain.Tuesday)},
		domain.DayBlueprint{Weekday: wd(domain.Thursday), Items: []domain.ItemBlueprint{
			{Name: "Bench press", Sets: 5, Reps: "5"},
		}},
	)
}

func clientPlans(t *testing.T, env *testEnv) []domain.Plan {
	t.Helper()
	plans, err := env.store.PlanRepository().ListByClient(context.Background(), env.client.UserID, repository.PlanFilter{})
	require.NoError(t, err)
	return plans
}

func TestMaterializeCopiesTemplateIntoDraftPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := createTemplate(t, env,
		domain.DayBlueprint{Weekday: wd(domain.Monday), Items: []domain.ItemBlueprint{{Name: "Squat", Sets: 4, Reps: "8-10"}}},
		domain.DayBlueprint{Weekday: wd(domain.Tuesday), Items: []domain.ItemBlueprint{}},
	)

	res, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	require.NoError(t, err)

	plan := res.Plan.Plan
	assert.Equal(t, env.client.UserID, plan.ClientID)
	assert.Equal(t, domain.PlanDraft, plan.Status)
	assert.Equal(t, domain.PlanTraining, plan.Type)
	require.NotNil(t, plan.TemplateID)
	assert.Equal(t, tmpl.ID, *plan.TemplateID)

	require.Len(t, res.Plan.Days, 2)
	mon, tue := res.Plan.Days[0], res.Plan.Days[1]
	assert.Equal(t, domain.Monday, *mon.Weekday)
	require.Len(t, mon.Items, 1)
	assert.Equal(t, "Squat", mon.Items[0].Name)
	assert.Equal(t, 4, mon.Items[0].Sets)
	assert.Equal(t, "8-10", mon.Items[0].Reps)
	assert.Equal(t, domain.Tuesday, *tue.Weekday)
	assert.True(t, tue.IsRestDay())

	assert.Equal(t, domain.JobCompleted, res.Job.Status)
	assert.Equal(t, 1, res.Job.Attempts)
	assert.Equal(t, 2, res.Job.DaysWritten)
	assert.Equal(t, 1, res.Job.ItemsWritten)
}

func TestMaterializeAssignsPositionalSortOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)

	res, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	require.NoError(t, err)

	require.Len(t, res.Plan.Days, len(tmpl.Days))
	for i, d := range res.Plan.Days {
		assert.Equal(t, i+1, d.SortOrder)
		require.Len(t, d.Items, len(tmpl.Days[i].Items))
		for j, it := range d.Items {
			assert.Equal(t, j+1, it.SortOrder)
			assert.Equal(t, tmpl.Days[i].Items[j].Name, it.Name)
		}
	}

	// Later edits continue after the materialized positions.
	day, err := env.plans.AddDay(ctx, env.admin, res.Plan.Plan.ID, wd(domain.Saturday), domain.LocalizedText{})
	require.NoError(t, err)
	assert.Equal(t, 4, day.SortOrder)
	item, err := env.plans.AddItem(ctx, env.admin, res.Plan.Days[0].ID, domain.ItemBlueprint{Name: "Calf raise"})
	require.NoError(t, err)
	assert.Equal(t, 3, item.SortOrder)
}

func TestMaterializedPlanIsIndependentOfTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)
	res, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	require.NoError(t, err)

	_, err = env.templates.UpdateTemplate(ctx, env.admin, tmpl.ID, TemplateInput{
		Name: sr("Izmenjen"), Type: domain.PlanTraining, DurationWeeks: 1,
	})
	require.NoError(t, err)

	graph, err := env.plans.GetPlanGraph(ctx, env.admin, res.Plan.Plan.ID)
	require.NoError(t, err)
	assert.Len(t, graph.Days, 3)
	assert.Equal(t, "Početni program", graph.Plan.Name.SR)
}

func TestMaterializeFailureIsRecordedAndResumable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)

	env.store.FailWrites(memory.Items, 1, errStoreDown)
	_, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)

	var matErr *MaterializationError
	require.ErrorAs(t, err, &matErr)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, OutcomeRetryable, Classify(err))
	assert.Equal(t, 1, matErr.DaysWritten)
	assert.Equal(t, 1, matErr.ItemsWritten)
	require.NotNil(t, matErr.PlanID)

	job, err := env.mat.GetMaterializationJob(ctx, env.admin, matErr.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Contains(t, job.LastError, errStoreDown.Error())

	failed, err := env.mat.ListFailedJobs(ctx, env.admin)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, matErr.JobID, failed[0].ID)

	env.store.ClearFailures()
	res, err := env.mat.ResumeMaterialization(ctx, env.admin, matErr.JobID)
	require.NoError(t, err)
	assert.Equal(t, *matErr.PlanID, res.Plan.Plan.ID)
	assert.Equal(t, domain.JobCompleted, res.Job.Status)
	assert.Equal(t, 2, res.Job.Attempts)
	assert.Equal(t, 3, res.Job.DaysWritten)
	assert.Equal(t, 3, res.Job.ItemsWritten)

	require.Len(t, res.Plan.Days, 3)
	assert.Equal(t, []string{"Squat", "Lunge"}, []string{res.Plan.Days[0].Items[0].Name, res.Plan.Days[0].Items[1].Name})
	assert.Len(t, res.Plan.Days[1].Items, 0)
	assert.Len(t, res.Plan.Days[2].Items, 1)
	assert.Len(t, clientPlans(t, env), 1, "resume reuses the partial plan")

	failed, err = env.mat.ListFailedJobs(ctx, env.admin)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestMaterializeDoesNotOrphanPlanWhenJobCannotRecordIt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)

	// Job create and the attempt count succeed; recording the plan id fails.
	env.store.FailWrites(memory.Jobs, 2, errStoreDown)
	_, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	var matErr *MaterializationError
	require.ErrorAs(t, err, &matErr)
	assert.Nil(t, matErr.PlanID)
	assert.Empty(t, clientPlans(t, env))

	env.store.ClearFailures()
	res, err := env.mat.ResumeMaterialization(ctx, env.admin, matErr.JobID)
	require.NoError(t, err)
	assert.Len(t, res.Plan.Days, 3)
	assert.Len(t, clientPlans(t, env), 1)
}

func TestDiscardRemovesPartialPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)

	env.store.FailWrites(memory.Days, 2, errStoreDown)
	_, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	var matErr *MaterializationError
	require.ErrorAs(t, err, &matErr)
	assert.Equal(t, 2, matErr.DaysWritten)
	env.store.ClearFailures()

	job, err := env.mat.DiscardMaterialization(ctx, env.admin, matErr.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobDiscarded, job.Status)
	assert.Empty(t, clientPlans(t, env))
	days, err := env.store.DayRepository().ListByPlan(ctx, *matErr.PlanID)
	require.NoError(t, err)
	assert.Empty(t, days)
	items, err := env.store.ItemRepository().ListByPlan(ctx, *matErr.PlanID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = env.mat.ResumeMaterialization(ctx, env.admin, matErr.JobID)
	assert.Equal(t, OutcomeInvariant, Classify(err))
}

func TestCompletedJobCannotBeResumedOrDiscarded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)
	res, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	require.NoError(t, err)

	_, err = env.mat.ResumeMaterialization(ctx, env.admin, res.Job.ID)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "status", invErr.Field)
	_, err = env.mat.DiscardMaterialization(ctx, env.admin, res.Job.ID)
	assert.Equal(t, OutcomeInvariant, Classify(err))
	assert.Len(t, clientPlans(t, env), 1)
}

func TestMaterializeAccessAndLookupErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)

	_, err := env.mat.Materialize(ctx, env.client, tmpl.ID, env.client.UserID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.mat.Materialize(ctx, env.otherAdmin(t), tmpl.ID, env.client.UserID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.mat.Materialize(ctx, env.admin, primitive.NewObjectID(), env.client.UserID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = env.mat.Materialize(ctx, env.admin, tmpl.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrClientNotFound)
	_, err = env.mat.GetMaterializationJob(ctx, env.admin, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Empty(t, clientPlans(t, env))
}

func TestMaterializeSurvivesCallerCancellation(t *testing.T) {
	env := newTestEnv(t)
	tmpl := threeDayTemplate(t, env)
	ctx, cancel := context.WithCancel(context.Background())

	// The job row is created before cancellation; every later write is detached.
	job := &domain.MaterializationJob{
		TemplateID: tmpl.ID, ClientID: env.client.UserID, RequestedBy: env.admin.UserID,
		Status: domain.JobRunning, PlanType: tmpl.Type, PlanName: tmpl.Name,
		Blueprint: tmpl.Days, DaysTotal: len(tmpl.Days), ItemsTotal: tmpl.ItemCount(),
	}
	_, err := env.store.JobRepository().Create(context.Background(), job)
	require.NoError(t, err)
	cancel()

	res, err := env.mat.(*materializer).run(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, res.Job.Status)
	assert.Len(t, res.Plan.Days, 3)
}

func TestResumeAfterPartialPlanWasDeletedAsksForDiscard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)

	env.store.FailWrites(memory.Days, 1, errStoreDown)
	_, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	var matErr *MaterializationError
	require.ErrorAs(t, err, &matErr)
	require.NotNil(t, matErr.PlanID)
	env.store.ClearFailures()

	require.NoError(t, env.plans.DeletePlan(ctx, env.admin, *matErr.PlanID))

	_, err = env.mat.ResumeMaterialization(ctx, env.admin, matErr.JobID)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "planId", invErr.Field)
	assert.Equal(t, OutcomeInvariant, Classify(err))

	days, err := env.store.DayRepository().ListByPlan(ctx, *matErr.PlanID)
	require.NoError(t, err)
	assert.Empty(t, days, "no days written under the deleted plan")
	items, err := env.store.ItemRepository().ListByPlan(ctx, *matErr.PlanID)
	require.NoError(t, err)
	assert.Empty(t, items)

	job, err := env.mat.GetMaterializationJob(ctx, env.admin, matErr.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)

	job, err = env.mat.DiscardMaterialization(ctx, env.admin, matErr.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobDiscarded, job.Status)
	assert.Empty(t, clientPlans(t, env))
}

func TestRunningJobCannotBeResumedOrDiscarded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)
	job := &domain.MaterializationJob{
		TemplateID: tmpl.ID, ClientID: env.client.UserID, RequestedBy: env.admin.UserID,
		Status: domain.JobRunning, PlanType: tmpl.Type, Blueprint: tmpl.Days,
	}
	_, err := env.store.JobRepository().Create(ctx, job)
	require.NoError(t, err)

	_, err = env.mat.ResumeMaterialization(ctx, env.admin, job.ID)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "status", invErr.Field)
	_, err = env.mat.DiscardMaterialization(ctx, env.admin, job.ID)
	assert.Equal(t, OutcomeInvariant, Classify(err))

	stored, err := env.store.JobRepository().GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, stored.Status)
	assert.Empty(t, clientPlans(t, env))
}

func TestFailedDiscardReleasesJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tmpl := threeDayTemplate(t, env)

	env.store.FailWrites(memory.Items, 1, errStoreDown)
	_, err := env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	var matErr *MaterializationError
	require.ErrorAs(t, err, &matErr)

	_, err = env.mat.DiscardMaterialization(ctx, env.admin, matErr.JobID)
	assert.Equal(t, OutcomeRetryable, Classify(err))
	job, err := env.mat.GetMaterializationJob(ctx, env.admin, matErr.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)

	env.store.ClearFailures()
	job, err = env.mat.DiscardMaterialization(ctx, env.admin, matErr.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobDiscarded, job.Status)
	assert.Empty(t, clientPlans(t, env))
}

func TestMaterializeRejectsTemplateWithDuplicateWeekdays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	// Stored directly; the template service would refuse it.
	tmpl := &domain.Template{
		CreatedBy:     env.admin.UserID,
		Name:          sr("Stari program"),
		Type:          domain.PlanTraining,
		DurationWeeks: 4,
		Days: []domain.DayBlueprint{
			{Weekday: wd(domain.Monday), Items: []domain.ItemBlueprint{{Name: "Squat"}}},
			{Weekday: wd(domain.Monday), Items: []domain.ItemBlueprint{{Name: "Deadlift"}}},
		},
	}
	_, err := env.store.TemplateRepository().Create(ctx, tmpl)
	require.NoError(t, err)

	_, err = env.mat.Materialize(ctx, env.admin, tmpl.ID, env.client.UserID)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "days[1].weekday", invErr.Field)
	assert.Equal(t, 0, env.store.Writes(memory.Jobs), "no job is started")
	assert.Empty(t, clientPlans(t, env))
}
