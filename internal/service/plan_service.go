package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanService is the mutation surface for client plans. Every call takes the
// acting user explicitly; nothing is read from request-global state.
type PlanService interface {
	CreatePlan(ctx context.Context, actor domain.Actor, clientID primitive.ObjectID, planType domain.PlanType, name domain.LocalizedText) (*domain.Plan, error)
	ListPlans(ctx context.Context, actor domain.Actor, clientID primitive.ObjectID, filter repository.PlanFilter) ([]domain.Plan, error)
	GetPlanGraph(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) (*domain.PlanGraph, error)
	RenamePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID, name domain.LocalizedText) (*domain.Plan, error)
	ActivatePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) (*domain.Plan, error)
	ArchivePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) (*domain.Plan, error)
	DeletePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) error

	AddDay(ctx context.Context, actor domain.Actor, planID primitive.ObjectID, weekday *domain.Weekday, label domain.LocalizedText) (*domain.Day, error)
	UpdateDay(ctx context.Context, actor domain.Actor, dayID primitive.ObjectID, patch domain.DayPatch) (*domain.Day, error)
	DeleteDay(ctx context.Context, actor domain.Actor, dayID primitive.ObjectID) error

	AddItem(ctx context.Context, actor domain.Actor, dayID primitive.ObjectID, payload domain.ItemBlueprint) (*domain.Item, error)
	UpdateItem(ctx context.Context, actor domain.Actor, itemID primitive.ObjectID, patch domain.ItemPatch) (*domain.Item, error)
	DeleteItem(ctx context.Context, actor domain.Actor, itemID primitive.ObjectID) error
}

// planService implements the PlanService interface.
type planService struct {
	planRepo repository.PlanRepository
	dayRepo  repository.DayRepository
	itemRepo repository.ItemRepository
	guard    accessGuard
	catalog  catalogRefs
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	dayRepo repository.DayRepository,
	itemRepo repository.ItemRepository,
	exerciseRepo repository.ExerciseRepository,
	foodRepo repository.FoodRepository,
) PlanService {
	return &planService{
		planRepo: planRepo,
		dayRepo:  dayRepo,
		itemRepo: itemRepo,
		guard:    accessGuard{userRepo: userRepo},
		catalog:  catalogRefs{exerciseRepo: exerciseRepo, foodRepo: foodRepo},
	}
}

// === Plans ===

func (s *planService) CreatePlan(ctx context.Context, actor domain.Actor, clientID primitive.ObjectID, planType domain.PlanType, name domain.LocalizedText) (*domain.Plan, error) {
	if !planType.Valid() {
		return nil, invalid("type", "must be training or nutrition")
	}
	if err := s.guard.canManage(ctx, actor, clientID); err != nil {
		return nil, err
	}
	plan := &domain.Plan{
		ClientID:  clientID,
		CreatedBy: actor.UserID,
		Type:      planType,
		Status:    domain.PlanDraft,
		Name:      name,
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, storeError("create plan", err, nil)
	}
	return plan, nil
}

func (s *planService) ListPlans(ctx context.Context, actor domain.Actor, clientID primitive.ObjectID, filter repository.PlanFilter) ([]domain.Plan, error) {
	if err := s.guard.canView(ctx, actor, clientID); err != nil {
		return nil, err
	}
	plans, err := s.planRepo.ListByClient(ctx, clientID, filter)
	if err != nil {
		return nil, storeError("list plans", err, nil)
	}
	return plans, nil
}

// GetPlanGraph loads a plan with its days and items in sort order.
func (s *planService) GetPlanGraph(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) (*domain.PlanGraph, error) {
	plan, err := s.viewablePlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	return loadGraph(ctx, s.dayRepo, s.itemRepo, plan)
}

func (s *planService) RenamePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID, name domain.LocalizedText) (*domain.Plan, error) {
	plan, err := s.managedPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if err := s.planRepo.UpdateName(ctx, planID, name); err != nil {
		return nil, storeError("rename plan", err, ErrPlanNotFound)
	}
	plan.Name = name
	return plan, nil
}

// ActivatePlan makes the plan the client's active plan of its type.
// Any other active plan of the same client and type is archived first and
// re-activated if the plan itself cannot be activated.
func (s *planService) ActivatePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.managedPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == domain.PlanActive {
		return plan, nil
	}
	active, err := s.planRepo.ListByClient(ctx, plan.ClientID, repository.PlanFilter{Type: plan.Type, Status: domain.PlanActive})
	if err != nil {
		return nil, storeError("list active plans", err, nil)
	}
	var archived []primitive.ObjectID
	for _, p := range active {
		if err := s.planRepo.SetStatus(ctx, p.ID, domain.PlanArchived); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			s.restoreActive(ctx, archived)
			return nil, storeError("archive previous plan", err, nil)
		}
		archived = append(archived, p.ID)
		log.Printf("INFO: Archived plan %s while activating %s", p.ID.Hex(), planID.Hex())
	}
	if err := s.planRepo.SetStatus(ctx, planID, domain.PlanActive); err != nil {
		s.restoreActive(ctx, archived)
		if errors.Is(err, repository.ErrConflict) {
			// Another activation won the race for this client and type.
			return nil, &RetryableError{Op: "activate plan", Err: err}
		}
		return nil, storeError("activate plan", err, ErrPlanNotFound)
	}
	plan.Status = domain.PlanActive
	return plan, nil
}

// restoreActive re-activates plans archived by a failed activation.
func (s *planService) restoreActive(ctx context.Context, planIDs []primitive.ObjectID) {
	wctx := context.WithoutCancel(ctx)
	for _, id := range planIDs {
		if err := s.planRepo.SetStatus(wctx, id, domain.PlanActive); err != nil {
			log.Printf("ERROR: Failed to re-activate plan %s after a failed activation: %v", id.Hex(), err)
			continue
		}
		log.Printf("INFO: Re-activated plan %s after a failed activation", id.Hex())
	}
}

func (s *planService) ArchivePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.managedPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if err := s.planRepo.SetStatus(ctx, planID, domain.PlanArchived); err != nil {
		return nil, storeError("archive plan", err, ErrPlanNotFound)
	}
	plan.Status = domain.PlanArchived
	return plan, nil
}

// DeletePlan removes the plan with all of its days and items. Children go
// first so a failure part way leaves the plan in place and the call can be repeated.
func (s *planService) DeletePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) error {
	if _, err := s.managedPlan(ctx, actor, planID); err != nil {
		return err
	}
	return deletePlanGraph(ctx, s.planRepo, s.dayRepo, s.itemRepo, planID)
}

// === Days ===

func (s *planService) AddDay(ctx context.Context, actor domain.Actor, planID primitive.ObjectID, weekday *domain.Weekday, label domain.LocalizedText) (*domain.Day, error) {
	if err := validateWeekday(weekday); err != nil {
		return nil, err
	}
	if _, err := s.managedPlan(ctx, actor, planID); err != nil {
		return nil, err
	}
	if weekday != nil {
		if err := s.ensureWeekdayFree(ctx, planID, primitive.NilObjectID, *weekday); err != nil {
			return nil, err
		}
	}
	sortOrder, err := s.planRepo.AllocateDaySort(ctx, planID)
	if err != nil {
		return nil, storeError("allocate day position", err, ErrPlanNotFound)
	}
	day := &domain.Day{
		PlanID:    planID,
		Weekday:   weekday,
		SortOrder: sortOrder,
		Label:     label,
	}
	if _, err := s.dayRepo.Create(ctx, day); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, invalid("weekday", "already used by another day of this plan")
		}
		return nil, storeError("create day", err, nil)
	}
	return day, nil
}

func (s *planService) UpdateDay(ctx context.Context, actor domain.Actor, dayID primitive.ObjectID, patch domain.DayPatch) (*domain.Day, error) {
	if err := validateWeekday(patch.Weekday); err != nil {
		return nil, err
	}
	day, _, err := s.managedDay(ctx, actor, dayID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return day, nil
	}
	if patch.Weekday != nil && !patch.ClearWeekday {
		if err := s.ensureWeekdayFree(ctx, day.PlanID, day.ID, *patch.Weekday); err != nil {
			return nil, err
		}
	}
	if err := s.dayRepo.Update(ctx, dayID, patch); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, invalid("weekday", "already used by another day of this plan")
		}
		return nil, storeError("update day", err, ErrDayNotFound)
	}
	updated, err := s.dayRepo.GetByID(ctx, dayID)
	if err != nil {
		return nil, storeError("reload day", err, ErrDayNotFound)
	}
	return updated, nil
}

// DeleteDay removes a day and its items. Sibling days keep their sortOrder.
func (s *planService) DeleteDay(ctx context.Context, actor domain.Actor, dayID primitive.ObjectID) error {
	if _, _, err := s.managedDay(ctx, actor, dayID); err != nil {
		return err
	}
	if _, err := s.itemRepo.DeleteByDay(ctx, dayID); err != nil {
		return storeError("delete day items", err, nil)
	}
	if err := s.dayRepo.Delete(ctx, dayID); err != nil {
		return storeError("delete day", err, ErrDayNotFound)
	}
	return nil
}

func (s *planService) ensureWeekdayFree(ctx context.Context, planID, exceptDay primitive.ObjectID, w domain.Weekday) error {
	days, err := s.dayRepo.ListByPlan(ctx, planID)
	if err != nil {
		return storeError("list days", err, nil)
	}
	for _, d := range days {
		if d.ID != exceptDay && d.Weekday != nil && *d.Weekday == w {
			return invalid("weekday", "already used by another day of this plan")
		}
	}
	return nil
}

// === Items ===

// AddItem appends an item to a day. Its sortOrder comes from the day's
// counter, so an index freed by a delete is never handed out again.
func (s *planService) AddItem(ctx context.Context, actor domain.Actor, dayID primitive.ObjectID, payload domain.ItemBlueprint) (*domain.Item, error) {
	day, plan, err := s.managedDay(ctx, actor, dayID)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.checkItem(ctx, plan.Type, &payload); err != nil {
		return nil, err
	}
	sortOrder, err := s.dayRepo.AllocateItemSort(ctx, dayID)
	if err != nil {
		return nil, storeError("allocate item position", err, ErrDayNotFound)
	}
	item := newItem(plan.ID, day.ID, sortOrder, payload)
	if _, err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, storeError("create item", err, nil)
	}
	return item, nil
}

// UpdateItem writes only the fields present in the patch.
func (s *planService) UpdateItem(ctx context.Context, actor domain.Actor, itemID primitive.ObjectID, patch domain.ItemPatch) (*domain.Item, error) {
	item, plan, err := s.managedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return item, nil
	}
	merged := applyPatch(*item, patch)
	if err := validateItem(plan.Type, blueprintOf(merged)); err != nil {
		return nil, err
	}
	if patch.ExerciseID != nil {
		if err := s.catalog.checkExercise(ctx, patch.ExerciseID.Value); err != nil {
			return nil, err
		}
	}
	if patch.Foods != nil {
		foods := append([]domain.FoodPortion(nil), (*patch.Foods)...)
		if err := s.catalog.resolveFoods(ctx, foods); err != nil {
			return nil, err
		}
		patch.Foods = &foods
	}
	if err := s.itemRepo.Update(ctx, itemID, patch); err != nil {
		return nil, storeError("update item", err, ErrItemNotFound)
	}
	updated, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, storeError("reload item", err, ErrItemNotFound)
	}
	return updated, nil
}

// DeleteItem removes one item. Siblings are not renumbered.
func (s *planService) DeleteItem(ctx context.Context, actor domain.Actor, itemID primitive.ObjectID) error {
	if _, _, err := s.managedItem(ctx, actor, itemID); err != nil {
		return err
	}
	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return storeError("delete item", err, ErrItemNotFound)
	}
	return nil
}

// === Helpers ===

func (s *planService) loadPlan(ctx context.Context, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, storeError("load plan", err, ErrPlanNotFound)
	}
	return plan, nil
}

func (s *planService) managedPlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) (*domain.Plan, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.canManage(ctx, actor, plan.ClientID); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) viewablePlan(ctx context.Context, actor domain.Actor, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.canView(ctx, actor, plan.ClientID); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) managedDay(ctx context.Context, actor domain.Actor, dayID primitive.ObjectID) (*domain.Day, *domain.Plan, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	day, err := s.dayRepo.GetByID(ctx, dayID)
	if err != nil {
		return nil, nil, storeError("load day", err, ErrDayNotFound)
	}
	plan, err := s.managedPlan(ctx, actor, day.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return day, plan, nil
}

func (s *planService) managedItem(ctx context.Context, actor domain.Actor, itemID primitive.ObjectID) (*domain.Item, *domain.Plan, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, storeError("load item", err, ErrItemNotFound)
	}
	plan, err := s.managedPlan(ctx, actor, item.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return item, plan, nil
}

func newItem(planID, dayID primitive.ObjectID, sortOrder int, bp domain.ItemBlueprint) *domain.Item {
	return &domain.Item{
		PlanID:      planID,
		DayID:       dayID,
		SortOrder:   sortOrder,
		ExerciseID:  bp.ExerciseID,
		Name:        bp.Name,
		Sets:        bp.Sets,
		Reps:        bp.Reps,
		RestSeconds: bp.RestSeconds,
		Notes:       bp.Notes,
		MealTime:    bp.MealTime,
		Macros:      bp.Macros,
		Foods:       bp.Foods,
	}
}

func blueprintOf(it domain.Item) domain.ItemBlueprint {
	return domain.ItemBlueprint{
		ExerciseID:  it.ExerciseID,
		Name:        it.Name,
		Sets:        it.Sets,
		Reps:        it.Reps,
		RestSeconds: it.RestSeconds,
		Notes:       it.Notes,
		MealTime:    it.MealTime,
		Macros:      it.Macros,
		Foods:       it.Foods,
	}
}

func applyPatch(it domain.Item, p domain.ItemPatch) domain.Item {
	if p.ExerciseID != nil {
		it.ExerciseID = p.ExerciseID.Value
	}
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Sets != nil {
		it.Sets = *p.Sets
	}
	if p.Reps != nil {
		it.Reps = *p.Reps
	}
	if p.RestSeconds != nil {
		it.RestSeconds = *p.RestSeconds
	}
	if p.Notes != nil {
		it.Notes = *p.Notes
	}
	if p.MealTime != nil {
		it.MealTime = *p.MealTime
	}
	if p.Macros != nil {
		it.Macros = *p.Macros
	}
	if p.Foods != nil {
		it.Foods = *p.Foods
	}
	return it
}

func loadGraph(ctx context.Context, dayRepo repository.DayRepository, itemRepo repository.ItemRepository, plan *domain.Plan) (*domain.PlanGraph, error) {
	days, err := dayRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, storeError("list days", err, nil)
	}
	items, err := itemRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, storeError("list items", err, nil)
	}
	graph := domain.AssembleGraph(*plan, days, items)
	return &graph, nil
}

func deletePlanGraph(ctx context.Context, planRepo repository.PlanRepository, dayRepo repository.DayRepository, itemRepo repository.ItemRepository, planID primitive.ObjectID) error {
	if _, err := itemRepo.DeleteByPlan(ctx, planID); err != nil {
		return storeError("delete plan items", err, nil)
	}
	if _, err := dayRepo.DeleteByPlan(ctx, planID); err != nil {
		return storeError("delete plan days", err, nil)
	}
	if err := planRepo.Delete(ctx, planID); err != nil {
		return storeError("delete plan", err, ErrPlanNotFound)
	}
	return nil
}
