package service

import (
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")

	ErrPlanNotFound     = fmt.Errorf("plan %w", ErrNotFound)
	ErrDayNotFound      = fmt.Errorf("day %w", ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("item %w", ErrNotFound)
	ErrTemplateNotFound = fmt.Errorf("template %w", ErrNotFound)
	ErrJobNotFound      = fmt.Errorf("materialization job %w", ErrNotFound)
	ErrClientNotFound   = fmt.Errorf("client user %w", ErrNotFound)
	ErrExerciseNotFound = fmt.Errorf("exercise %w", ErrNotFound)
	ErrFoodNotFound     = fmt.Errorf("food item %w", ErrNotFound)
)

// InvariantError rejects a mutation that would break a data rule
// (out-of-range weekday, duplicate weekday, negative count, and so on).
type InvariantError struct {
	Field  string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &InvariantError{Field: field, Reason: reason}
}

// RetryableError wraps a record store failure. The operation may be retried
// once the store is reachable again.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// MaterializationError reports a materialization that stopped part way.
// The job is left in the failed state and can be resumed or discarded.
type MaterializationError struct {
	JobID        primitive.ObjectID
	PlanID       *primitive.ObjectID
	DaysWritten  int
	ItemsWritten int
	Err          error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("materialization job %s failed after %d days and %d items: %v",
		e.JobID.Hex(), e.DaysWritten, e.ItemsWritten, e.Err)
}

func (e *MaterializationError) Unwrap() error { return e.Err }

// Outcome is the typed result handed back to callers of mutating operations.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeInvariant Outcome = "invariant-failure"
	OutcomeRetryable Outcome = "retryable-failure"
	OutcomeNotFound  Outcome = "not-found"
	OutcomeForbidden Outcome = "forbidden"
	OutcomeInternal  Outcome = "internal"
)

// Classify maps any error returned by this package to an Outcome.
func Classify(err error) Outcome {
	var invErr *InvariantError
	var retryErr *RetryableError
	var matErr *MaterializationError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &invErr):
		return OutcomeInvariant
	case errors.As(err, &matErr), errors.As(err, &retryErr):
		return OutcomeRetryable
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrAccessDenied):
		return OutcomeForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeRetryable
	}
	return OutcomeInternal
}

// storeError translates a repository error: ErrNotFound becomes notFound,
// anything else is wrapped as retryable.
func storeError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return &RetryableError{Op: op, Err: err}
}
