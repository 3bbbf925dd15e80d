// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same uniqueness rules as the MongoDB indexes
// and can be told to fail writes, which the service tests rely on.
package memory

import (
	"alcyxob/coaching-plans/internal/domain"
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names a group of records for failure injection.
type Collection string

const (
	Users     Collection = "users"
	Exercises Collection = "exercises"
	Foods     Collection = "foods"
	Plans     Collection = "plans"
	Days      Collection = "days"
	Items     Collection = "items"
	Templates Collection = "templates"
	Jobs      Collection = "jobs"
)

type failure struct {
	remaining int
	err       error
	once      bool
}

// Store holds every collection behind one mutex.
type Store struct {
	mu sync.Mutex

	users     map[primitive.ObjectID]domain.User
	exercises map[primitive.ObjectID]domain.Exercise
	foods     map[primitive.ObjectID]domain.FoodItem
	plans     map[primitive.ObjectID]domain.Plan
	days      map[primitive.ObjectID]domain.Day
	items     map[primitive.ObjectID]domain.Item
	templates map[primitive.ObjectID]domain.Template
	jobs      map[primitive.ObjectID]domain.MaterializationJob

	failures map[Collection]*failure
	writes   map[Collection]int
}

func NewStore() *Store {
	return &Store{
		users:     map[primitive.ObjectID]domain.User{},
		exercises: map[primitive.ObjectID]domain.Exercise{},
		foods:     map[primitive.ObjectID]domain.FoodItem{},
		plans:     map[primitive.ObjectID]domain.Plan{},
		days:      map[primitive.ObjectID]domain.Day{},
		items:     map[primitive.ObjectID]domain.Item{},
		templates: map[primitive.ObjectID]domain.Template{},
		jobs:      map[primitive.ObjectID]domain.MaterializationJob{},
		failures:  map[Collection]*failure{},
		writes:    map[Collection]int{},
	}
}

// FailWrites lets the next `after` writes to c succeed and fails every
// write after that with err, until ClearFailures is called.
func (s *Store) FailWrites(c Collection, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[c] = &failure{remaining: after, err: err}
}

// FailWrite is FailWrites for a single write: the one after `after`
// successes fails and later writes succeed again.
func (s *Store) FailWrite(c Collection, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[c] = &failure{remaining: after, err: err, once: true}
}

func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[Collection]*failure{}
}

// Writes returns how many successful writes c has seen.
func (s *Store) Writes(c Collection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[c]
}

// write must be called with s.mu held, before mutating c.
func (s *Store) write(ctx context.Context, c Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f, ok := s.failures[c]; ok {
		if f.remaining <= 0 {
			if f.once {
				delete(s.failures, c)
			}
			return f.err
		}
		f.remaining--
	}
	s.writes[c]++
	return nil
}

func (s *Store) read(ctx context.Context) error {
	return ctx.Err()
}
