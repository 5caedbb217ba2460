// Package taskaudit tracks operator-visible progress for one import run.
//
// The orchestrator owns the record's lifecycle: created when the run
// starts, merge-updated as items land, never deleted (retained for
// operator review and replay of failed items).
package taskaudit

import (
	"time"
)

// Status values for a run.
const (
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
)

// ItemFailure describes one source item that could not be imported.
type ItemFailure struct {
	SourceItemID string `bson:"sourceItemId" json:"sourceItemId"`
	Message      string `bson:"message" json:"message"`
	Error        string `bson:"error" json:"error"`
}

// Record is the per-run progress object.
type Record struct {
	ID             string    `bson:"_id" json:"id"`
	Status         string    `bson:"status" json:"status"`
	DataSource     string    `bson:"dataSource" json:"dataSource"`
	ItemTotal      int       `bson:"itemTotal" json:"itemTotal"`
	ItemsProcessed int       `bson:"itemsProcessed" json:"itemsProcessed"`
	// IndividualRecordStatus is append-only; completion order of the
	// items that produced the entries is not meaningful.
	IndividualRecordStatus []ItemFailure `bson:"individualRecordStatus" json:"individualRecordStatus"`
	StartedAt              time.Time     `bson:"startedAt" json:"startedAt"`
	FinishedAt             *time.Time    `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`
	AddedBy                string        `bson:"addedBy" json:"addedBy"`
}

// Update is a partial-fields merge for a task record. Nil fields leave
// the stored value untouched; Failures are appended.
type Update struct {
	Status         *string
	DataSource     *string
	ItemTotal      *int
	ItemsProcessed *int
	Failures       []ItemFailure
	FinishedAt     *time.Time
	AddedBy        *string
}
