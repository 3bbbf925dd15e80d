package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository/memory"
	"alcyxob/coaching-plans/internal/schedule"
	"alcyxob/coaching-plans/internal/storage"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("connection reset by peer")

// tuesdayNoon is a Tuesday in the business timezone.
var tuesdayNoon = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store  *memory.Store
	files  *fakeStorage
	admin  domain.Actor
	client domain.Actor

	plans     PlanService
	mat       Materializer
	views     PlanViewService
	catalog   CatalogService
	templates TemplateService
	roster    RosterService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	files := newFakeStorage()
	ctx := context.Background()
	users := store.UserRepository()

	admin := &domain.User{Name: "Coach", Email: "coach@example.com", PasswordHash: "x", Role: domain.RoleAdmin}
	_, err := users.Create(ctx, admin)
	require.NoError(t, err)
	client := &domain.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: domain.RoleClient}
	_, err = users.Create(ctx, client)
	require.NoError(t, err)

	env := &testEnv{
		store:  store,
		files:  files,
		admin:  domain.Actor{UserID: admin.ID, Role: domain.RoleAdmin},
		client: domain.Actor{UserID: client.ID, Role: domain.RoleClient},
	}
	env.roster = NewRosterService(users)
	_, err = env.roster.AddClientByEmail(ctx, env.admin, client.Email)
	require.NoError(t, err)

	env.catalog = NewCatalogService(store.ExerciseRepository(), store.FoodRepository(), files)
	env.plans = NewPlanService(users, store.PlanRepository(), store.DayRepository(), store.ItemRepository(),
		store.ExerciseRepository(), store.FoodRepository())
	env.mat = NewMaterializer(users, store.TemplateRepository(), store.JobRepository(),
		store.PlanRepository(), store.DayRepository(), store.ItemRepository())
	env.views = NewPlanViewService(users, store.PlanRepository(), store.DayRepository(), store.ItemRepository(),
		store.TemplateRepository(), env.catalog, schedule.NewWeekdayResolver(schedule.FixedClock(tuesdayNoon)))
	env.templates = NewTemplateService(store.TemplateRepository(), store.ExerciseRepository(), store.FoodRepository())
	return env
}

// otherAdmin registers an admin with an empty roster.
func (e *testEnv) otherAdmin(t *testing.T) domain.Actor {
	t.Helper()
	u := &domain.User{Name: "Other", Email: primitive.NewObjectID().Hex() + "@example.com", PasswordHash: "x", Role: domain.RoleAdmin}
	_, err := e.store.UserRepository().Create(context.Background(), u)
	require.NoError(t, err)
	return domain.Actor{UserID: u.ID, Role: domain.RoleAdmin}
}

func wd(w domain.Weekday) *domain.Weekday { return &w }

func sr(s string) domain.LocalizedText { return domain.LocalizedText{SR: s} }

// fakeStorage is an in-memory storage.FileStorage.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]string // key -> content type
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]string{}}
}

// put simulates the browser completing a presigned upload.
func (f *fakeStorage) put(key, contentType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = contentType
}

func (f *fakeStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	return "https://storage.test/put/" + objectKey + "?ct=" + strings.ReplaceAll(contentType, "/", "%2F"), nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.test/get/" + objectKey, nil
}

func (f *fakeStorage) StatObject(ctx context.Context, objectKey string) (*storage.ObjectMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ct, ok := f.objects[objectKey]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectMetadata{ContentType: ct}, nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectKey)
	f.deleted = append(f.deleted, objectKey)
	return nil
}
