package service

import (
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"invariant", invalid("weekday", "out of range"), OutcomeInvariant},
		{"wrapped invariant", fmt.Errorf("add day: %w", invalid("weekday", "taken")), OutcomeInvariant},
		{"retryable", &RetryableError{Op: "create day", Err: errStoreDown}, OutcomeRetryable},
		{"materialization", &MaterializationError{JobID: primitive.NewObjectID(), Err: errStoreDown}, OutcomeRetryable},
		{"not found", ErrPlanNotFound, OutcomeNotFound},
		{"forbidden", ErrAccessDenied, OutcomeForbidden},
		{"deadline", context.DeadlineExceeded, OutcomeRetryable},
		{"unknown", errors.New("boom"), OutcomeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError("op", nil, ErrDayNotFound))
	assert.Equal(t, ErrDayNotFound, storeError("op", repository.ErrNotFound, ErrDayNotFound))

	err := storeError("op", repository.ErrNotFound, nil)
	assert.Equal(t, OutcomeRetryable, Classify(err))

	err = storeError("create day", errStoreDown, ErrDayNotFound)
	assert.ErrorIs(t, err, errStoreDown)
	assert.EqualError(t, err, "create day: connection reset by peer")
}

func TestNotFoundErrorsShareSentinel(t *testing.T) {
	for _, err := range []error{ErrPlanNotFound, ErrDayNotFound, ErrItemNotFound, ErrTemplateNotFound, ErrJobNotFound} {
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.EqualError(t, ErrJobNotFound, "materialization job not found")
}
