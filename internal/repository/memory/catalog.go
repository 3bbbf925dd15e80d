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

type exerciseRepository struct{ s *Store }

func (s *Store) ExerciseRepository() repository.ExerciseRepository { return &exerciseRepository{s} }

func (r *exerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Slug == "" || !exercise.Name.Published() {
		return primitive.NilObjectID, errors.New("exercise slug and default-locale name are required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.exercises {
		if e.Slug == exercise.Slug {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	if err := r.s.write(ctx, Exercises); err != nil {
		return primitive.NilObjectID, err
	}
	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.s.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *exerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	e, ok := r.s.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *exerciseRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.Exercise{}
	for _, id := range ids {
		if e, ok := r.s.exercises[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *exerciseRepository) List(ctx context.Context, category string) ([]domain.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.Exercise{}
	for _, e := range r.s.exercises {
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *exerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.exercises[exercise.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, e := range r.s.exercises {
		if id != exercise.ID && e.Slug == exercise.Slug {
			return repository.ErrConflict
		}
	}
	if err := r.s.write(ctx, Exercises); err != nil {
		return err
	}
	exercise.UpdatedAt = time.Now().UTC()
	updated := *exercise
	updated.CreatedAt = current.CreatedAt
	updated.CreatedBy = current.CreatedBy
	updated.ImageKey = current.ImageKey
	r.s.exercises[exercise.ID] = updated
	return nil
}

func (r *exerciseRepository) SetImageKey(ctx context.Context, id primitive.ObjectID, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Exercises); err != nil {
		return err
	}
	e.ImageKey = key
	e.UpdatedAt = time.Now().UTC()
	r.s.exercises[id] = e
	return nil
}

func (r *exerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Exercises); err != nil {
		return err
	}
	delete(r.s.exercises, id)
	return nil
}

type foodRepository struct{ s *Store }

func (s *Store) FoodRepository() repository.FoodRepository { return &foodRepository{s} }

func (r *foodRepository) Create(ctx context.Context, food *domain.FoodItem) (primitive.ObjectID, error) {
	if food.Slug == "" || !food.Name.Published() {
		return primitive.NilObjectID, errors.New("food slug and default-locale name are required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.foods {
		if f.Slug == food.Slug {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	if err := r.s.write(ctx, Foods); err != nil {
		return primitive.NilObjectID, err
	}
	food.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	food.CreatedAt = now
	food.UpdatedAt = now
	r.s.foods[food.ID] = *food
	return food.ID, nil
}

func (r *foodRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FoodItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	f, ok := r.s.foods[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (r *foodRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.FoodItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.FoodItem{}
	for _, id := range ids {
		if f, ok := r.s.foods[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *foodRepository) List(ctx context.Context, category string) ([]domain.FoodItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.FoodItem{}
	for _, f := range r.s.foods {
		if category == "" || f.Category == category {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *foodRepository) Update(ctx context.Context, food *domain.FoodItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.foods[food.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, f := range r.s.foods {
		if id != food.ID && f.Slug == food.Slug {
			return repository.ErrConflict
		}
	}
	if err := r.s.write(ctx, Foods); err != nil {
		return err
	}
	food.UpdatedAt = time.Now().UTC()
	updated := *food
	updated.CreatedAt = current.CreatedAt
	updated.CreatedBy = current.CreatedBy
	updated.ImageKey = current.ImageKey
	r.s.foods[food.ID] = updated
	return nil
}

func (r *foodRepository) SetImageKey(ctx context.Context, id primitive.ObjectID, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.foods[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Foods); err != nil {
		return err
	}
	f.ImageKey = key
	f.UpdatedAt = time.Now().UTC()
	r.s.foods[id] = f
	return nil
}

func (r *foodRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.foods[id]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Foods); err != nil {
		return err
	}
	delete(r.s.foods, id)
	return nil
}
