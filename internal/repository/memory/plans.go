package memory

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planRepository struct{ s *Store }

func (s *Store) PlanRepository() repository.PlanRepository { return &planRepository{s} }

// activeConflict reports whether another plan already holds the active slot.
func (s *Store) activeConflict(p domain.Plan) bool {
	if p.Status != domain.PlanActive {
		return false
	}
	for id, other := range s.plans {
		if id != p.ID && other.Status == domain.PlanActive && other.ClientID == p.ClientID && other.Type == p.Type {
			return true
		}
	}
	return false
}

func (r *planRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.ClientID == primitive.NilObjectID || plan.CreatedBy == primitive.NilObjectID || !plan.Type.Valid() {
		return primitive.NilObjectID, errors.New("plan requires clientId, createdBy, and a valid type")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeConflict(*plan) {
		return primitive.NilObjectID, repository.ErrConflict
	}
	if err := r.s.write(ctx, Plans); err != nil {
		return primitive.NilObjectID, err
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.s.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *planRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	p, ok := r.s.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *planRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID, f repository.PlanFilter) ([]domain.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.Plan{}
	for _, p := range r.s.plans {
		if p.ClientID != clientID {
			continue
		}
		if (f.Type != "" && p.Type != f.Type) || (f.Status != "" && p.Status != f.Status) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r *planRepository) UpdateName(ctx context.Context, id primitive.ObjectID, name domain.LocalizedText) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Plans); err != nil {
		return err
	}
	p.Name = name
	p.UpdatedAt = time.Now().UTC()
	r.s.plans[id] = p
	return nil
}

func (r *planRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	if r.s.activeConflict(p) {
		return repository.ErrConflict
	}
	if err := r.s.write(ctx, Plans); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	r.s.plans[id] = p
	return nil
}

func (r *planRepository) AllocateDaySort(ctx context.Context, id primitive.ObjectID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if err := r.s.write(ctx, Plans); err != nil {
		return 0, err
	}
	p.NextDaySort++
	r.s.plans[id] = p
	return p.NextDaySort, nil
}

func (r *planRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plans[id]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Plans); err != nil {
		return err
	}
	delete(r.s.plans, id)
	return nil
}

type dayRepository struct{ s *Store }

func (s *Store) DayRepository() repository.DayRepository { return &dayRepository{s} }

// dayConflict reports whether d collides with a sibling on sortOrder or weekday.
func (s *Store) dayConflict(d domain.Day) bool {
	for id, other := range s.days {
		if id == d.ID || other.PlanID != d.PlanID {
			continue
		}
		if other.SortOrder == d.SortOrder {
			return true
		}
		if d.Weekday != nil && other.Weekday != nil && *d.Weekday == *other.Weekday {
			return true
		}
	}
	return false
}

func (r *dayRepository) Create(ctx context.Context, day *domain.Day) (primitive.ObjectID, error) {
	if day.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("day requires planId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.dayConflict(*day) {
		return primitive.NilObjectID, repository.ErrConflict
	}
	if err := r.s.write(ctx, Days); err != nil {
		return primitive.NilObjectID, err
	}
	day.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	day.CreatedAt = now
	day.UpdatedAt = now
	stored := *day
	if day.Weekday != nil {
		w := *day.Weekday
		stored.Weekday = &w
	}
	r.s.days[day.ID] = stored
	return day.ID, nil
}

func (r *dayRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Day, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	d, ok := r.s.days[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *dayRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Day, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.Day{}
	for _, d := range r.s.days {
		if d.PlanID == planID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *dayRepository) Update(ctx context.Context, id primitive.ObjectID, patch domain.DayPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.days[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Label != nil {
		d.Label = *patch.Label
	}
	if patch.ClearWeekday {
		d.Weekday = nil
	} else if patch.Weekday != nil {
		w := *patch.Weekday
		d.Weekday = &w
	}
	if r.s.dayConflict(d) {
		return repository.ErrConflict
	}
	if err := r.s.write(ctx, Days); err != nil {
		return err
	}
	d.UpdatedAt = time.Now().UTC()
	r.s.days[id] = d
	return nil
}

func (r *dayRepository) AllocateItemSort(ctx context.Context, id primitive.ObjectID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.days[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if err := r.s.write(ctx, Days); err != nil {
		return 0, err
	}
	d.NextItemSort++
	r.s.days[id] = d
	return d.NextItemSort, nil
}

func (r *dayRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.days[id]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Days); err != nil {
		return err
	}
	delete(r.s.days, id)
	return nil
}

func (r *dayRepository) DeleteByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(ctx, Days); err != nil {
		return 0, err
	}
	var n int64
	for id, d := range r.s.days {
		if d.PlanID == planID {
			delete(r.s.days, id)
			n++
		}
	}
	return n, nil
}

type itemRepository struct{ s *Store }

func (s *Store) ItemRepository() repository.ItemRepository { return &itemRepository{s} }

func cloneItem(it domain.Item) domain.Item {
	if it.Foods != nil {
		it.Foods = append([]domain.FoodPortion(nil), it.Foods...)
	}
	return it
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) (primitive.ObjectID, error) {
	if item.DayID == primitive.NilObjectID || item.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("item requires dayId and planId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.items {
		if other.DayID == item.DayID && other.SortOrder == item.SortOrder {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	if err := r.s.write(ctx, Items); err != nil {
		return primitive.NilObjectID, err
	}
	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.s.items[item.ID] = cloneItem(*item)
	return item.ID, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	it, ok := r.s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	it = cloneItem(it)
	return &it, nil
}

func (r *itemRepository) list(ctx context.Context, match func(domain.Item) bool) ([]domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.Item{}
	for _, it := range r.s.items {
		if match(it) {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayID != out[j].DayID {
			return out[i].DayID.Hex() < out[j].DayID.Hex()
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

func (r *itemRepository) ListByDay(ctx context.Context, dayID primitive.ObjectID) ([]domain.Item, error) {
	return r.list(ctx, func(it domain.Item) bool { return it.DayID == dayID })
}

func (r *itemRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Item, error) {
	return r.list(ctx, func(it domain.Item) bool { return it.PlanID == planID })
}

func (r *itemRepository) Update(ctx context.Context, id primitive.ObjectID, patch domain.ItemPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Items); err != nil {
		return err
	}
	if patch.ExerciseID != nil {
		if patch.ExerciseID.Value == nil {
			it.ExerciseID = nil
		} else {
			v := *patch.ExerciseID.Value
			it.ExerciseID = &v
		}
	}
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.Sets != nil {
		it.Sets = *patch.Sets
	}
	if patch.Reps != nil {
		it.Reps = *patch.Reps
	}
	if patch.RestSeconds != nil {
		it.RestSeconds = *patch.RestSeconds
	}
	if patch.Notes != nil {
		it.Notes = *patch.Notes
	}
	if patch.MealTime != nil {
		it.MealTime = *patch.MealTime
	}
	if patch.Macros != nil {
		it.Macros = *patch.Macros
	}
	if patch.Foods != nil {
		it.Foods = append([]domain.FoodPortion(nil), (*patch.Foods)...)
	}
	it.UpdatedAt = time.Now().UTC()
	r.s.items[id] = it
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Items); err != nil {
		return err
	}
	delete(r.s.items, id)
	return nil
}

func (r *itemRepository) deleteWhere(ctx context.Context, match func(domain.Item) bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(ctx, Items); err != nil {
		return 0, err
	}
	var n int64
	for id, it := range r.s.items {
		if match(it) {
			delete(r.s.items, id)
			n++
		}
	}
	return n, nil
}

func (r *itemRepository) DeleteByDay(ctx context.Context, dayID primitive.ObjectID) (int64, error) {
	return r.deleteWhere(ctx, func(it domain.Item) bool { return it.DayID == dayID })
}

func (r *itemRepository) DeleteByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	return r.deleteWhere(ctx, func(it domain.Item) bool { return it.PlanID == planID })
}
