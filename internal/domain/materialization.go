package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobStatus type for materialization job lifecycle
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobFailed    JobStatus = "failed"    // Partial plan may exist; resume or discard
	JobCompleted JobStatus = "completed"
	JobDiscarded JobStatus = "discarded" // Partial plan graph was removed
)

// MaterializationJob tracks the expansion of one Template into one client's Plan.
// The blueprint is snapshotted so a resume writes exactly what the first attempt intended.
type MaterializationJob struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TemplateID   primitive.ObjectID  `bson:"templateId" json:"templateId"`
	ClientID     primitive.ObjectID  `bson:"clientId" json:"clientId"`
	RequestedBy  primitive.ObjectID  `bson:"requestedBy" json:"requestedBy"`
	PlanID       *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"` // Set once the Plan write succeeds
	Status       JobStatus           `bson:"status" json:"status"`
	PlanType     PlanType            `bson:"planType" json:"planType"`
	PlanName     LocalizedText       `bson:"planName,omitempty" json:"planName,omitempty"`
	Blueprint    []DayBlueprint      `bson:"blueprint" json:"-"`
	DaysTotal    int                 `bson:"daysTotal" json:"daysTotal"`
	ItemsTotal   int                 `bson:"itemsTotal" json:"itemsTotal"`
	DaysWritten  int                 `bson:"daysWritten" json:"daysWritten"`
	ItemsWritten int                 `bson:"itemsWritten" json:"itemsWritten"`
	Attempts     int                 `bson:"attempts" json:"attempts"`
	LastError    string              `bson:"lastError,omitempty" json:"lastError,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// JobStaleAfter is how long a running job may go without recording progress
// before it is assumed abandoned by a crashed process.
const JobStaleAfter = 10 * time.Minute

// Resumable reports whether the job can be resumed or discarded at now.
// A running job qualifies only once it has stopped recording progress.
func (j *MaterializationJob) Resumable(now time.Time) bool {
	switch j.Status {
	case JobFailed:
		return true
	case JobPending, JobRunning:
		return now.Sub(j.UpdatedAt) > JobStaleAfter
	}
	return false
}
