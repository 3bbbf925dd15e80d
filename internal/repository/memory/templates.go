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

// cloneBlueprint deep-copies day blueprints so callers cannot alias stored state.
func cloneBlueprint(days []domain.DayBlueprint) []domain.DayBlueprint {
	if days == nil {
		return nil
	}
	out := make([]domain.DayBlueprint, len(days))
	for i, d := range days {
		out[i] = d
		out[i].Items = make([]domain.ItemBlueprint, len(d.Items))
		for j, it := range d.Items {
			if it.Foods != nil {
				it.Foods = append([]domain.FoodPortion(nil), it.Foods...)
			}
			out[i].Items[j] = it
		}
	}
	return out
}

type templateRepository struct{ s *Store }

func (s *Store) TemplateRepository() repository.TemplateRepository { return &templateRepository{s} }

func (r *templateRepository) Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.CreatedBy == primitive.NilObjectID || !template.Type.Valid() {
		return primitive.NilObjectID, errors.New("template requires createdBy and a valid type")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(ctx, Templates); err != nil {
		return primitive.NilObjectID, err
	}
	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	if template.Days == nil {
		template.Days = []domain.DayBlueprint{}
	}
	stored := *template
	stored.Days = cloneBlueprint(template.Days)
	r.s.templates[template.ID] = stored
	return template.ID, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	t, ok := r.s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.Days = cloneBlueprint(t.Days)
	return &t, nil
}

func (r *templateRepository) List(ctx context.Context, planType domain.PlanType) ([]domain.Template, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.Template{}
	for _, t := range r.s.templates {
		if planType == "" || t.Type == planType {
			t.Days = cloneBlueprint(t.Days)
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r *templateRepository) Update(ctx context.Context, template *domain.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.templates[template.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Templates); err != nil {
		return err
	}
	template.UpdatedAt = time.Now().UTC()
	stored := *template
	stored.CreatedAt = current.CreatedAt
	stored.CreatedBy = current.CreatedBy
	stored.Days = cloneBlueprint(template.Days)
	r.s.templates[template.ID] = stored
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[id]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.write(ctx, Templates); err != nil {
		return err
	}
	delete(r.s.templates, id)
	return nil
}

type jobRepository struct{ s *Store }

func (s *Store) JobRepository() repository.MaterializationJobRepository { return &jobRepository{s} }

func (r *jobRepository) Create(ctx context.Context, job *domain.MaterializationJob) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(ctx, Jobs); err != nil {
		return primitive.NilObjectID, err
	}
	job.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	stored := *job
	stored.Blueprint = cloneBlueprint(job.Blueprint)
	r.s.jobs[job.ID] = stored
	return job.ID, nil
}

func (r *jobRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MaterializationJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	j.Blueprint = cloneBlueprint(j.Blueprint)
	return &j, nil
}

func (r *jobRepository) Update(ctx context.Context, job *domain.MaterializationJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.jobs[job.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status == domain.JobDiscarded {
		return repository.ErrConflict
	}
	if err := r.s.write(ctx, Jobs); err != nil {
		return err
	}
	job.UpdatedAt = time.Now().UTC()
	current.PlanID = job.PlanID
	current.Status = job.Status
	current.DaysWritten = job.DaysWritten
	current.ItemsWritten = job.ItemsWritten
	current.Attempts = job.Attempts
	current.LastError = job.LastError
	current.UpdatedAt = job.UpdatedAt
	r.s.jobs[job.ID] = current
	return nil
}

func (r *jobRepository) Claim(ctx context.Context, job *domain.MaterializationJob, status domain.JobStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.jobs[job.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status != job.Status || !current.UpdatedAt.Equal(job.UpdatedAt) {
		return repository.ErrConflict
	}
	if err := r.s.write(ctx, Jobs); err != nil {
		return err
	}
	current.Status = status
	current.UpdatedAt = time.Now().UTC()
	r.s.jobs[job.ID] = current
	job.Status = current.Status
	job.UpdatedAt = current.UpdatedAt
	return nil
}

func (r *jobRepository) ListByStatus(ctx context.Context, status domain.JobStatus) ([]domain.MaterializationJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.read(ctx); err != nil {
		return nil, err
	}
	out := []domain.MaterializationJob{}
	for _, j := range r.s.jobs {
		if j.Status == status {
			j.Blueprint = nil
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}
