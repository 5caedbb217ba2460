package importer

import (
	"sync/atomic"

	"regsync/internal/taskaudit"
)

// StatusCompleted is the status of every RunResult Run returns; run
// failures propagate as errors and are stamped onto the task audit
// record by the caller.
const StatusCompleted = "Completed"

// TypeStatus reports the outcome of one record type within a run.
type TypeStatus struct {
	RecordType     string                  `json:"recordType"`
	Message        string                  `json:"message,omitempty"`
	Error          string                  `json:"error,omitempty"`
	ItemTotal      int                     `json:"itemTotal"`
	ItemsProcessed int                     `json:"itemsProcessed"`
	Failures       []taskaudit.ItemFailure `json:"failures,omitempty"`
}

// RunResult is the aggregate status the orchestrator always returns on
// its success path; per-type and per-item failures live inside it rather
// than being thrown.
type RunResult struct {
	TaskID         string       `json:"taskId"`
	Status         string       `json:"status"`
	ItemTotal      int          `json:"itemTotal"`
	ItemsProcessed int          `json:"itemsProcessed"`
	Types          []TypeStatus `json:"types"`
}

// runCounters are the only run-scoped shared state: append-only,
// order-independent counters pushed to the task audit record as items
// land. The authoritative totals come from folding per-type results.
type runCounters struct {
	itemTotal      atomic.Int64
	itemsProcessed atomic.Int64
}

func (c *runCounters) addTotal(n int) int {
	return int(c.itemTotal.Add(int64(n)))
}

func (c *runCounters) incProcessed() int {
	return int(c.itemsProcessed.Add(1))
}

// itemOutcome is the immutable per-item result folded into the type
// status after each batch completes.
type itemOutcome struct {
	ok      bool
	failure taskaudit.ItemFailure
}
