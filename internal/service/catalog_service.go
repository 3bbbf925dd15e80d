package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"alcyxob/coaching-plans/internal/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid" // For generating unique identifiers for S3 keys
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrStorageNotConfigured = errors.New("object storage is not configured")

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// imageExtensions lists the accepted catalog image content types.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ExerciseInput carries the editable fields of a catalog exercise.
type ExerciseInput struct {
	Slug        string               `json:"slug"`
	Name        domain.LocalizedText `json:"name"`
	Description domain.LocalizedText `json:"description"`
	Category    string               `json:"category"`
	MuscleGroup string               `json:"muscleGroup"`
	Difficulty  string               `json:"difficulty"`
}

// FoodInput carries the editable fields of a catalog food.
type FoodInput struct {
	Slug     string               `json:"slug"`
	Name     domain.LocalizedText `json:"name"`
	Category string               `json:"category"`
	Per100g  domain.Macros        `json:"per100g"`
}

// ExerciseDetail is an exercise with a temporary image URL.
type ExerciseDetail struct {
	domain.Exercise
	ImageURL string `json:"imageUrl,omitempty"`
}

// FoodDetail is a food with a temporary image URL.
type FoodDetail struct {
	domain.FoodItem
	ImageURL string `json:"imageUrl,omitempty"`
}

// ImageUploadURL is returned to the admin before a direct-to-storage upload.
type ImageUploadURL struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"` // Reported back on confirm
	ExpiresAt time.Time `json:"expiresAt"`
}

// CatalogService manages the shared exercise and food catalogs.
type CatalogService interface {
	CatalogLookup

	CreateExercise(ctx context.Context, actor domain.Actor, in ExerciseInput) (*ExerciseDetail, error)
	GetExercise(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*ExerciseDetail, error)
	ListExercises(ctx context.Context, actor domain.Actor, category string) ([]ExerciseDetail, error)
	UpdateExercise(ctx context.Context, actor domain.Actor, id primitive.ObjectID, in ExerciseInput) (*ExerciseDetail, error)
	DeleteExercise(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error

	CreateFood(ctx context.Context, actor domain.Actor, in FoodInput) (*FoodDetail, error)
	GetFood(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*FoodDetail, error)
	ListFoods(ctx context.Context, actor domain.Actor, category string) ([]FoodDetail, error)
	UpdateFood(ctx context.Context, actor domain.Actor, id primitive.ObjectID, in FoodInput) (*FoodDetail, error)
	DeleteFood(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error

	RequestImageUploadURL(ctx context.Context, actor domain.Actor, kind domain.CatalogKind, id primitive.ObjectID, contentType string) (*ImageUploadURL, error)
	ConfirmImage(ctx context.Context, actor domain.Actor, kind domain.CatalogKind, id primitive.ObjectID, objectKey string) error
}

// catalogService implements the CatalogService interface.
type catalogService struct {
	exerciseRepo repository.ExerciseRepository
	foodRepo     repository.FoodRepository
	fileStorage  storage.FileStorage // nil disables image features
	guard        accessGuard
}

// NewCatalogService creates a new instance of catalogService. fileStorage may be nil.
func NewCatalogService(exerciseRepo repository.ExerciseRepository, foodRepo repository.FoodRepository, fileStorage storage.FileStorage) CatalogService {
	return &catalogService{
		exerciseRepo: exerciseRepo,
		foodRepo:     foodRepo,
		fileStorage:  fileStorage,
	}
}

func validateCatalogFields(slug string, name domain.LocalizedText) error {
	if !slugPattern.MatchString(slug) {
		return invalid("slug", "must be lowercase letters, digits and single dashes")
	}
	if !name.Published() {
		return invalid("name", "a "+string(domain.DefaultLocale)+" name is required")
	}
	return nil
}

// === Exercises ===

func (s *catalogService) CreateExercise(ctx context.Context, actor domain.Actor, in ExerciseInput) (*ExerciseDetail, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateCatalogFields(in.Slug, in.Name); err != nil {
		return nil, err
	}
	exercise := &domain.Exercise{
		Slug:        in.Slug,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		MuscleGroup: in.MuscleGroup,
		Difficulty:  in.Difficulty,
		CreatedBy:   actor.UserID,
	}
	if _, err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, invalid("slug", "already in use")
		}
		return nil, storeError("create exercise", err, nil)
	}
	return &ExerciseDetail{Exercise: *exercise}, nil
}

// GetExercise is readable by any signed-in user.
func (s *catalogService) GetExercise(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*ExerciseDetail, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load exercise", err, ErrExerciseNotFound)
	}
	return &ExerciseDetail{Exercise: *exercise, ImageURL: s.ImageURL(ctx, exercise.ImageKey)}, nil
}

func (s *catalogService) ListExercises(ctx context.Context, actor domain.Actor, category string) ([]ExerciseDetail, error) {
	exercises, err := s.exerciseRepo.List(ctx, category)
	if err != nil {
		return nil, storeError("list exercises", err, nil)
	}
	out := make([]ExerciseDetail, 0, len(exercises))
	for _, e := range exercises {
		out = append(out, ExerciseDetail{Exercise: e, ImageURL: s.ImageURL(ctx, e.ImageKey)})
	}
	return out, nil
}

func (s *catalogService) UpdateExercise(ctx context.Context, actor domain.Actor, id primitive.ObjectID, in ExerciseInput) (*ExerciseDetail, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateCatalogFields(in.Slug, in.Name); err != nil {
		return nil, err
	}
	existing, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load exercise", err, ErrExerciseNotFound)
	}
	existing.Slug = in.Slug
	existing.Name = in.Name
	existing.Description = in.Description
	existing.Category = in.Category
	existing.MuscleGroup = in.MuscleGroup
	existing.Difficulty = in.Difficulty
	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, invalid("slug", "already in use")
		}
		return nil, storeError("update exercise", err, ErrExerciseNotFound)
	}
	return &ExerciseDetail{Exercise: *existing, ImageURL: s.ImageURL(ctx, existing.ImageKey)}, nil
}

// DeleteExercise removes the catalog entry. Plan items that referenced it
// keep their id and fall back to their stored name when displayed.
func (s *catalogService) DeleteExercise(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error {
	if err := s.guard.requireAdmin(actor); err != nil {
		return err
	}
	existing, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return storeError("load exercise", err, ErrExerciseNotFound)
	}
	if err := s.exerciseRepo.Delete(ctx, id); err != nil {
		return storeError("delete exercise", err, ErrExerciseNotFound)
	}
	s.deleteImage(ctx, existing.ImageKey)
	return nil
}

// === Foods ===

func validateFood(in FoodInput) error {
	if err := validateCatalogFields(in.Slug, in.Name); err != nil {
		return err
	}
	return validateMacros("per100g", in.Per100g)
}

func (s *catalogService) CreateFood(ctx context.Context, actor domain.Actor, in FoodInput) (*FoodDetail, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateFood(in); err != nil {
		return nil, err
	}
	food := &domain.FoodItem{
		Slug:      in.Slug,
		Name:      in.Name,
		Category:  in.Category,
		Per100g:   in.Per100g,
		CreatedBy: actor.UserID,
	}
	if _, err := s.foodRepo.Create(ctx, food); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, invalid("slug", "already in use")
		}
		return nil, storeError("create food", err, nil)
	}
	return &FoodDetail{FoodItem: *food}, nil
}

func (s *catalogService) GetFood(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*FoodDetail, error) {
	food, err := s.foodRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load food", err, ErrFoodNotFound)
	}
	return &FoodDetail{FoodItem: *food, ImageURL: s.ImageURL(ctx, food.ImageKey)}, nil
}

func (s *catalogService) ListFoods(ctx context.Context, actor domain.Actor, category string) ([]FoodDetail, error) {
	foods, err := s.foodRepo.List(ctx, category)
	if err != nil {
		return nil, storeError("list foods", err, nil)
	}
	out := make([]FoodDetail, 0, len(foods))
	for _, f := range foods {
		out = append(out, FoodDetail{FoodItem: f, ImageURL: s.ImageURL(ctx, f.ImageKey)})
	}
	return out, nil
}

func (s *catalogService) UpdateFood(ctx context.Context, actor domain.Actor, id primitive.ObjectID, in FoodInput) (*FoodDetail, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateFood(in); err != nil {
		return nil, err
	}
	existing, err := s.foodRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load food", err, ErrFoodNotFound)
	}
	existing.Slug = in.Slug
	existing.Name = in.Name
	existing.Category = in.Category
	existing.Per100g = in.Per100g
	if err := s.foodRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, invalid("slug", "already in use")
		}
		return nil, storeError("update food", err, ErrFoodNotFound)
	}
	return &FoodDetail{FoodItem: *existing, ImageURL: s.ImageURL(ctx, existing.ImageKey)}, nil
}

func (s *catalogService) DeleteFood(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error {
	if err := s.guard.requireAdmin(actor); err != nil {
		return err
	}
	existing, err := s.foodRepo.GetByID(ctx, id)
	if err != nil {
		return storeError("load food", err, ErrFoodNotFound)
	}
	if err := s.foodRepo.Delete(ctx, id); err != nil {
		return storeError("delete food", err, ErrFoodNotFound)
	}
	s.deleteImage(ctx, existing.ImageKey)
	return nil
}

// === Images ===

func imagePrefix(kind domain.CatalogKind, id primitive.ObjectID) string {
	return path.Join("catalog", string(kind), id.Hex()) + "/"
}

// RequestImageUploadURL returns a presigned PUT URL for a new catalog image.
// The image is attached only once ConfirmImage is called with the returned key.
func (s *catalogService) RequestImageUploadURL(ctx context.Context, actor domain.Actor, kind domain.CatalogKind, id primitive.ObjectID, contentType string) (*ImageUploadURL, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	if s.fileStorage == nil {
		return nil, ErrStorageNotConfigured
	}
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, invalid("contentType", "must be image/jpeg, image/png or image/webp")
	}
	if err := s.catalogEntryExists(ctx, kind, id); err != nil {
		return nil, err
	}

	objectKey := imagePrefix(kind, id) + fmt.Sprintf("%s.%s", uuid.NewString(), ext)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, &RetryableError{Op: "presign image upload", Err: err}
	}
	return &ImageUploadURL{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().Add(storage.DefaultPresignedURLExpiry).UTC(),
	}, nil
}

// ConfirmImage attaches an uploaded object to the catalog entry and removes
// the image it replaces.
func (s *catalogService) ConfirmImage(ctx context.Context, actor domain.Actor, kind domain.CatalogKind, id primitive.ObjectID, objectKey string) error {
	if err := s.guard.requireAdmin(actor); err != nil {
		return err
	}
	if s.fileStorage == nil {
		return ErrStorageNotConfigured
	}
	if !strings.HasPrefix(objectKey, imagePrefix(kind, id)) {
		return invalid("objectKey", "does not belong to this catalog entry")
	}
	if _, err := s.fileStorage.StatObject(ctx, objectKey); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return invalid("objectKey", "no uploaded object at this key")
		}
		return &RetryableError{Op: "stat image", Err: err}
	}

	var previous string
	switch kind {
	case domain.CatalogExercise:
		e, err := s.exerciseRepo.GetByID(ctx, id)
		if err != nil {
			return storeError("load exercise", err, ErrExerciseNotFound)
		}
		previous = e.ImageKey
		if err := s.exerciseRepo.SetImageKey(ctx, id, objectKey); err != nil {
			return storeError("set exercise image", err, ErrExerciseNotFound)
		}
	case domain.CatalogFood:
		f, err := s.foodRepo.GetByID(ctx, id)
		if err != nil {
			return storeError("load food", err, ErrFoodNotFound)
		}
		previous = f.ImageKey
		if err := s.foodRepo.SetImageKey(ctx, id, objectKey); err != nil {
			return storeError("set food image", err, ErrFoodNotFound)
		}
	default:
		return invalid("kind", "must be exercise or food")
	}
	if previous != objectKey {
		s.deleteImage(ctx, previous)
	}
	return nil
}

func (s *catalogService) catalogEntryExists(ctx context.Context, kind domain.CatalogKind, id primitive.ObjectID) error {
	switch kind {
	case domain.CatalogExercise:
		_, err := s.exerciseRepo.GetByID(ctx, id)
		return storeError("load exercise", err, ErrExerciseNotFound)
	case domain.CatalogFood:
		_, err := s.foodRepo.GetByID(ctx, id)
		return storeError("load food", err, ErrFoodNotFound)
	}
	return invalid("kind", "must be exercise or food")
}

// deleteImage removes an object best-effort; a stale object only costs storage.
func (s *catalogService) deleteImage(ctx context.Context, key string) {
	if key == "" || s.fileStorage == nil {
		return
	}
	if err := s.fileStorage.DeleteObject(ctx, key); err != nil {
		log.Printf("WARN: Failed to delete catalog image '%s': %v", key, err)
	}
}

// ImageURL returns a temporary download URL for key, or "" when there is none.
func (s *catalogService) ImageURL(ctx context.Context, key string) string {
	if key == "" || s.fileStorage == nil {
		return ""
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return ""
	}
	return url
}

// LookupNames resolves catalog ids to their current entries in one batch per catalog.
func (s *catalogService) LookupNames(ctx context.Context, exerciseIDs, foodIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.CatalogEntry, error) {
	entries := make(map[primitive.ObjectID]domain.CatalogEntry, len(exerciseIDs)+len(foodIDs))
	if len(exerciseIDs) > 0 {
		exercises, err := s.exerciseRepo.GetByIDs(ctx, exerciseIDs)
		if err != nil {
			return nil, storeError("lookup exercises", err, nil)
		}
		for i := range exercises {
			entries[exercises[i].ID] = exercises[i].Entry()
		}
	}
	if len(foodIDs) > 0 {
		foods, err := s.foodRepo.GetByIDs(ctx, foodIDs)
		if err != nil {
			return nil, storeError("lookup foods", err, nil)
		}
		for i := range foods {
			entries[foods[i].ID] = foods[i].Entry()
		}
	}
	return entries, nil
}
