package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobResumable(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Minute)
	stale := now.Add(-JobStaleAfter - time.Second)

	tests := []struct {
		status    JobStatus
		updatedAt time.Time
		want      bool
	}{
		{JobFailed, fresh, true},
		{JobRunning, fresh, false},
		{JobRunning, stale, true},
		{JobPending, fresh, false},
		{JobPending, stale, true},
		{JobCompleted, stale, false},
		{JobDiscarded, stale, false},
	}
	for _, tt := range tests {
		job := MaterializationJob{Status: tt.status, UpdatedAt: tt.updatedAt}
		assert.Equal(t, tt.want, job.Resumable(now), "%s updated %s ago", tt.status, now.Sub(tt.updatedAt))
	}
}
