package repository

import (
	"alcyxob/coaching-plans/internal/domain" // Import our defined domain models
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
	ErrConflict = RepositoryError("conflicts with an existing record") // Unique index violation
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientIDToAdmin(ctx context.Context, adminID, clientID primitive.ObjectID) error
	GetClientsByAdminID(ctx context.Context, adminID primitive.ObjectID) ([]domain.User, error)
	SetAdminForClient(ctx context.Context, clientID, adminID primitive.ObjectID) error
}

// ExerciseRepository defines the interface for the shared exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	List(ctx context.Context, category string) ([]domain.Exercise, error) // Empty category lists all
	Update(ctx context.Context, exercise *domain.Exercise) error
	SetImageKey(ctx context.Context, id primitive.ObjectID, key string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// FoodRepository defines the interface for the shared food catalog.
type FoodRepository interface {
	Create(ctx context.Context, food *domain.FoodItem) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FoodItem, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.FoodItem, error)
	List(ctx context.Context, category string) ([]domain.FoodItem, error)
	Update(ctx context.Context, food *domain.FoodItem) error
	SetImageKey(ctx context.Context, id primitive.ObjectID, key string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanFilter narrows plan listings; zero fields are ignored.
type PlanFilter struct {
	Type   domain.PlanType
	Status domain.PlanStatus
}

// PlanRepository defines the interface for interacting with plan data.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID, filter PlanFilter) ([]domain.Plan, error)
	UpdateName(ctx context.Context, id primitive.ObjectID, name domain.LocalizedText) error
	// SetStatus returns ErrConflict if activating would create a second active plan.
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error
	// AllocateDaySort atomically reserves the next Day sortOrder.
	AllocateDaySort(ctx context.Context, id primitive.ObjectID) (int, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// DayRepository defines the interface for interacting with plan days.
type DayRepository interface {
	// Create returns ErrConflict on a duplicate weekday or sortOrder within the plan.
	Create(ctx context.Context, day *domain.Day) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Day, error)
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Day, error) // Sorted by sortOrder
	Update(ctx context.Context, id primitive.ObjectID, patch domain.DayPatch) error
	// AllocateItemSort atomically reserves the next Item sortOrder within the day.
	AllocateItemSort(ctx context.Context, id primitive.ObjectID) (int, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error)
}

// ItemRepository defines the interface for interacting with day items.
type ItemRepository interface {
	// Create returns ErrConflict on a duplicate sortOrder within the day.
	Create(ctx context.Context, item *domain.Item) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Item, error)
	ListByDay(ctx context.Context, dayID primitive.ObjectID) ([]domain.Item, error)   // Sorted by sortOrder
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Item, error) // Sorted by day, then sortOrder
	// Update sets only the fields present in the patch.
	Update(ctx context.Context, id primitive.ObjectID, patch domain.ItemPatch) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByDay(ctx context.Context, dayID primitive.ObjectID) (int64, error)
	DeleteByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error)
}

// TemplateRepository defines the interface for interacting with plan templates.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
	List(ctx context.Context, planType domain.PlanType) ([]domain.Template, error) // Empty type lists all
	Update(ctx context.Context, template *domain.Template) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// MaterializationJobRepository persists materialization progress.
type MaterializationJobRepository interface {
	Create(ctx context.Context, job *domain.MaterializationJob) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MaterializationJob, error)
	// Update returns ErrConflict once the job has been discarded.
	Update(ctx context.Context, job *domain.MaterializationJob) error
	// Claim moves the job to status only if its stored status and updatedAt
	// still match job. It returns ErrConflict when another caller got there first.
	Claim(ctx context.Context, job *domain.MaterializationJob, status domain.JobStatus) error
	ListByStatus(ctx context.Context, status domain.JobStatus) ([]domain.MaterializationJob, error) // Newest first
}
