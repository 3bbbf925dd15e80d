package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaterializationResult is a finished materialization and the plan it produced.
type MaterializationResult struct {
	Job  *domain.MaterializationJob `json:"job"`
	Plan *domain.PlanGraph          `json:"plan"`
}

// Materializer copies templates into client plans. Each run is tracked by a
// persisted job so that a run interrupted part way can be resumed or discarded.
type Materializer interface {
	Materialize(ctx context.Context, actor domain.Actor, templateID, clientID primitive.ObjectID) (*MaterializationResult, error)
	ResumeMaterialization(ctx context.Context, actor domain.Actor, jobID primitive.ObjectID) (*MaterializationResult, error)
	DiscardMaterialization(ctx context.Context, actor domain.Actor, jobID primitive.ObjectID) (*domain.MaterializationJob, error)
	GetMaterializationJob(ctx context.Context, actor domain.Actor, jobID primitive.ObjectID) (*domain.MaterializationJob, error)
	ListFailedJobs(ctx context.Context, actor domain.Actor) ([]domain.MaterializationJob, error)
}

type materializer struct {
	templateRepo repository.TemplateRepository
	jobRepo      repository.MaterializationJobRepository
	planRepo     repository.PlanRepository
	dayRepo      repository.DayRepository
	itemRepo     repository.ItemRepository
	guard        accessGuard
}

// NewMaterializer creates a new Materializer.
func NewMaterializer(
	userRepo repository.UserRepository,
	templateRepo repository.TemplateRepository,
	jobRepo repository.MaterializationJobRepository,
	planRepo repository.PlanRepository,
	dayRepo repository.DayRepository,
	itemRepo repository.ItemRepository,
) Materializer {
	return &materializer{
		templateRepo: templateRepo,
		jobRepo:      jobRepo,
		planRepo:     planRepo,
		dayRepo:      dayRepo,
		itemRepo:     itemRepo,
		guard:        accessGuard{userRepo: userRepo},
	}
}

// Materialize creates a draft plan for clientID from the template: one day per
// day blueprint and one item per item blueprint, each at its 1-based position.
// Catalog references are stored as ids; their names are resolved when displayed.
func (m *materializer) Materialize(ctx context.Context, actor domain.Actor, templateID, clientID primitive.ObjectID) (*MaterializationResult, error) {
	if err := m.guard.canManage(ctx, actor, clientID); err != nil {
		return nil, err
	}
	tmpl, err := m.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, storeError("load template", err, ErrTemplateNotFound)
	}
	if !tmpl.Type.Valid() {
		return nil, invalid("type", "template has an unknown plan type")
	}
	seen := map[domain.Weekday]bool{}
	for i, d := range tmpl.Days {
		if err := validateWeekday(d.Weekday); err != nil {
			return nil, prefixField(fmt.Sprintf("days[%d]", i), err)
		}
		if d.Weekday != nil {
			if seen[*d.Weekday] {
				return nil, invalid(fmt.Sprintf("days[%d].weekday", i), "template uses this weekday twice; fix the template before materializing it")
			}
			seen[*d.Weekday] = true
		}
	}

	job := &domain.MaterializationJob{
		TemplateID:  tmpl.ID,
		ClientID:    clientID,
		RequestedBy: actor.UserID,
		Status:      domain.JobRunning,
		PlanType:    tmpl.Type,
		PlanName:    tmpl.Name,
		Blueprint:   tmpl.Days,
		DaysTotal:   len(tmpl.Days),
		ItemsTotal:  tmpl.ItemCount(),
	}
	if _, err := m.jobRepo.Create(ctx, job); err != nil {
		return nil, storeError("create materialization job", err, nil)
	}
	log.Printf("INFO: Materializing template %s for client %s (job %s, %d days, %d items)",
		tmpl.ID.Hex(), clientID.Hex(), job.ID.Hex(), job.DaysTotal, job.ItemsTotal)
	return m.run(ctx, job)
}

// ResumeMaterialization re-runs a failed job. Days and items already written
// are recognized by their position and skipped.
func (m *materializer) ResumeMaterialization(ctx context.Context, actor domain.Actor, jobID primitive.ObjectID) (*MaterializationResult, error) {
	job, err := m.managedJob(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}
	if err := m.claim(ctx, job, "resumed"); err != nil {
		return nil, err
	}
	log.Printf("INFO: Resuming materialization job %s (attempt %d)", job.ID.Hex(), job.Attempts+1)
	return m.run(ctx, job)
}

// DiscardMaterialization deletes whatever part of the plan a failed job wrote.
// The job is held in the running state while its plan graph is deleted.
func (m *materializer) DiscardMaterialization(ctx context.Context, actor domain.Actor, jobID primitive.ObjectID) (*domain.MaterializationJob, error) {
	job, err := m.managedJob(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}
	if err := m.claim(ctx, job, "discarded"); err != nil {
		return nil, err
	}
	wctx := context.WithoutCancel(ctx)
	if job.PlanID != nil {
		err := deletePlanGraph(wctx, m.planRepo, m.dayRepo, m.itemRepo, *job.PlanID)
		if err != nil && !errors.Is(err, ErrPlanNotFound) {
			job.Status = domain.JobFailed
			job.LastError = err.Error()
			if uerr := m.jobRepo.Update(wctx, job); uerr != nil {
				log.Printf("ERROR: Failed to release materialization job %s after discard error: %v", job.ID.Hex(), uerr)
			}
			return nil, err
		}
	}
	job.Status = domain.JobDiscarded
	if err := m.jobRepo.Update(wctx, job); err != nil {
		return nil, storeError("update materialization job", err, ErrJobNotFound)
	}
	log.Printf("INFO: Discarded materialization job %s", job.ID.Hex())
	return job, nil
}

func (m *materializer) GetMaterializationJob(ctx context.Context, actor domain.Actor, jobID primitive.ObjectID) (*domain.MaterializationJob, error) {
	return m.managedJob(ctx, actor, jobID)
}

// ListFailedJobs returns the failed jobs the admin started, newest first.
func (m *materializer) ListFailedJobs(ctx context.Context, actor domain.Actor) ([]domain.MaterializationJob, error) {
	if err := m.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	jobs, err := m.jobRepo.ListByStatus(ctx, domain.JobFailed)
	if err != nil {
		return nil, storeError("list materialization jobs", err, nil)
	}
	own := []domain.MaterializationJob{}
	for _, j := range jobs {
		if j.RequestedBy == actor.UserID {
			own = append(own, j)
		}
	}
	return own, nil
}

// claim takes exclusive hold of a failed or abandoned job by moving it to
// running. verb names the caller's operation in the rejection message.
func (m *materializer) claim(ctx context.Context, job *domain.MaterializationJob, verb string) error {
	if !job.Resumable(time.Now()) {
		return invalid("status", "job is "+string(job.Status)+" and cannot be "+verb)
	}
	if err := m.jobRepo.Claim(ctx, job, domain.JobRunning); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return invalid("status", "job changed while it was being "+verb+"; reload it and try again")
		}
		return storeError("claim materialization job", err, ErrJobNotFound)
	}
	return nil
}

func (m *materializer) managedJob(ctx context.Context, actor domain.Actor, jobID primitive.ObjectID) (*domain.MaterializationJob, error) {
	if err := m.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	job, err := m.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, storeError("load materialization job", err, ErrJobNotFound)
	}
	if err := m.guard.canManage(ctx, actor, job.ClientID); err != nil {
		return nil, err
	}
	return job, nil
}

// run executes a job the caller holds in the running state, to completion or
// to a recorded failure. Writes are detached from ctx cancellation so an
// abandoned request still leaves the job in a consistent recorded state.
func (m *materializer) run(ctx context.Context, job *domain.MaterializationJob) (*MaterializationResult, error) {
	wctx := context.WithoutCancel(ctx)

	job.Attempts++
	if err := m.jobRepo.Update(wctx, job); err != nil {
		return nil, storeError("update materialization job", err, ErrJobNotFound)
	}

	graph, err := m.write(wctx, job)
	if err != nil {
		job.Status = domain.JobFailed
		job.LastError = err.Error()
		if uerr := m.jobRepo.Update(wctx, job); uerr != nil {
			log.Printf("ERROR: Failed to record failure of materialization job %s: %v", job.ID.Hex(), uerr)
		}
		log.Printf("WARN: Materialization job %s failed after %d/%d days, %d/%d items: %v",
			job.ID.Hex(), job.DaysWritten, job.DaysTotal, job.ItemsWritten, job.ItemsTotal, err)
		return nil, &MaterializationError{
			JobID:        job.ID,
			PlanID:       job.PlanID,
			DaysWritten:  job.DaysWritten,
			ItemsWritten: job.ItemsWritten,
			Err:          err,
		}
	}

	job.Status = domain.JobCompleted
	job.LastError = ""
	if err := m.jobRepo.Update(wctx, job); err != nil {
		// The plan is complete; only the bookkeeping is stale.
		log.Printf("ERROR: Failed to mark materialization job %s completed: %v", job.ID.Hex(), err)
	}
	log.Printf("INFO: Materialization job %s completed: plan %s", job.ID.Hex(), graph.Plan.ID.Hex())
	return &MaterializationResult{Job: job, Plan: graph}, nil
}

// write creates whatever part of the plan graph does not exist yet and
// returns the finished graph.
func (m *materializer) write(ctx context.Context, job *domain.MaterializationJob) (*domain.PlanGraph, error) {
	if err := m.writeGraph(ctx, job); err != nil {
		return nil, err
	}
	plan, err := m.planRepo.GetByID(ctx, *job.PlanID)
	if err != nil {
		return nil, storeError("load plan", err, ErrPlanNotFound)
	}
	return loadGraph(ctx, m.dayRepo, m.itemRepo, plan)
}

func (m *materializer) writeGraph(ctx context.Context, job *domain.MaterializationJob) error {
	if job.PlanID != nil {
		// The partial plan is an ordinary draft and may have been deleted since.
		if _, err := m.planRepo.GetByID(ctx, *job.PlanID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("planId", "the partial plan "+job.PlanID.Hex()+" was deleted; discard this job and materialize again")
			}
			return err
		}
	}
	if job.PlanID == nil {
		plan := &domain.Plan{
			ClientID:    job.ClientID,
			CreatedBy:   job.RequestedBy,
			Type:        job.PlanType,
			Status:      domain.PlanDraft,
			Name:        job.PlanName,
			TemplateID:  &job.TemplateID,
			NextDaySort: len(job.Blueprint),
		}
		planID, err := m.planRepo.Create(ctx, plan)
		if err != nil {
			return err
		}
		job.PlanID = &planID
		if err := m.jobRepo.Update(ctx, job); err != nil {
			// Without the recorded plan id a resume would create a second plan.
			if derr := m.planRepo.Delete(ctx, planID); derr != nil {
				log.Printf("ERROR: Orphaned plan %s for materialization job %s: %v", planID.Hex(), job.ID.Hex(), derr)
			}
			job.PlanID = nil
			return err
		}
	}
	planID := *job.PlanID

	existing, err := m.dayRepo.ListByPlan(ctx, planID)
	if err != nil {
		return err
	}
	daysBySort := make(map[int]domain.Day, len(existing))
	for _, d := range existing {
		daysBySort[d.SortOrder] = d
	}

	job.DaysWritten, job.ItemsWritten = 0, 0
	for i, bp := range job.Blueprint {
		sortOrder := i + 1
		if err := validateSortOrder(sortOrder); err != nil {
			return err
		}
		day, ok := daysBySort[sortOrder]
		if !ok {
			day = domain.Day{
				PlanID:       planID,
				Weekday:      bp.Weekday,
				SortOrder:    sortOrder,
				Label:        bp.Label,
				NextItemSort: len(bp.Items),
			}
			if _, err := m.dayRepo.Create(ctx, &day); err != nil {
				return err
			}
		}
		job.DaysWritten++
		if err := m.writeItems(ctx, job, planID, day.ID, bp.Items); err != nil {
			return err
		}
		if err := m.jobRepo.Update(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func (m *materializer) writeItems(ctx context.Context, job *domain.MaterializationJob, planID, dayID primitive.ObjectID, items []domain.ItemBlueprint) error {
	existing, err := m.itemRepo.ListByDay(ctx, dayID)
	if err != nil {
		return err
	}
	have := make(map[int]bool, len(existing))
	for _, it := range existing {
		have[it.SortOrder] = true
	}
	for j, bp := range items {
		sortOrder := j + 1
		if !have[sortOrder] {
			if _, err := m.itemRepo.Create(ctx, newItem(planID, dayID, sortOrder, bp)); err != nil {
				return err
			}
		}
		job.ItemsWritten++
	}
	return nil
}
