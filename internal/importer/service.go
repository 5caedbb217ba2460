package importer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"regsync/internal/importer/enrich"
	"regsync/internal/importer/metrics"
	"regsync/internal/importer/source"
	"regsync/internal/importer/strategy"
	"regsync/internal/platform/config"
	"regsync/internal/records/store"
	"regsync/internal/taskaudit"
	dErrors "regsync/pkg/domain-errors"
	"regsync/pkg/identity"
	"regsync/pkg/platform/events"
	"regsync/pkg/requestcontext"
)

// DataSourceName identifies this importer in task audit records and
// run events.
const DataSourceName = "inspection-enforcement"

// processRecordErrMessage is the message stamped on every per-item
// failure descriptor; the underlying cause lives in the Error field.
const processRecordErrMessage = "processRecord - unexpected error"

// RunOptions narrows a run to specific record types and passes
// operator-supplied filters through to the remote query.
type RunOptions struct {
	Filters     map[string]string
	RecordTypes []string
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Registry  *Registry
	Records   store.Store
	Source    *source.Client
	Enricher  *enrich.Service
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Events    *events.Publisher
	BatchSize int
}

// Service drives import runs. Per record type it fetches all matching
// source items, applies exclusion rules, and reconciles each item
// through the type's strategy with bounded concurrency. Item and type
// failures are folded into the returned status; Run itself only errors
// on control-flow problems in the orchestrator's own wiring.
type Service struct {
	registry  *Registry
	records   store.Store
	source    *source.Client
	enricher  *enrich.Service
	log       *zap.Logger
	metrics   *metrics.Metrics
	events    *events.Publisher
	batchSize int
}

// New creates the orchestrator.
func New(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	return &Service{
		registry:  cfg.Registry,
		records:   cfg.Records,
		source:    cfg.Source,
		enricher:  cfg.Enricher,
		log:       log,
		metrics:   cfg.Metrics,
		events:    cfg.Events,
		batchSize: batchSize,
	}
}

// Run executes one import run against the task audit handle. The
// returned RunResult is always structured status, never a thrown
// failure: per-type and per-item errors live inside it. Nothing is
// retried; re-invoking the run is safe because every write is an upsert
// keyed by external reference id.
func (s *Service) Run(ctx context.Context, task *taskaudit.Handle, caller identity.Identity, opts RunOptions) (*RunResult, error) {
	if s.registry == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "record type registry is not configured")
	}
	if s.records == nil || s.source == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "importer collaborators are not configured")
	}
	if task == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "task audit handle is required")
	}

	// Pin the run's evaluation time so every record written in this run
	// carries consistent timestamps and anonymity decisions.
	start := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, start)

	s.metrics.IncRunsTotal()

	addedBy := caller.Name()
	dataSource := DataSourceName
	running := taskaudit.StatusRunning
	if _, err := task.Update(ctx, taskaudit.Update{
		Status:     &running,
		DataSource: &dataSource,
		AddedBy:    &addedBy,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "initialize task audit record")
	}

	s.emit(ctx, events.RunEvent{Type: events.TypeRunStarted, TaskID: task.ID(), DataSource: dataSource, AddedBy: addedBy})

	configs := s.registry.All()
	if len(opts.RecordTypes) > 0 {
		configs = s.registry.Some(opts.RecordTypes)
	}

	counters := &runCounters{}
	results := make([]TypeStatus, len(configs))

	// One remote query per type, all types in parallel. Each slot of
	// results belongs to exactly one goroutine, so the fold below reads
	// race-free immutable values.
	g := new(errgroup.Group)
	for i := range configs {
		g.Go(func() error {
			results[i] = s.updateRecordType(ctx, configs[i], caller, opts.Filters, counters, task)
			return nil
		})
	}
	_ = g.Wait()

	result := &RunResult{TaskID: task.ID(), Status: StatusCompleted, Types: results}
	for _, ts := range results {
		result.ItemTotal += ts.ItemTotal
		result.ItemsProcessed += ts.ItemsProcessed
	}

	finished := time.Now().UTC()
	completed := taskaudit.StatusCompleted
	if _, err := task.Update(ctx, taskaudit.Update{
		Status:         &completed,
		ItemTotal:      &result.ItemTotal,
		ItemsProcessed: &result.ItemsProcessed,
		FinishedAt:     &finished,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "finalize task audit record")
	}

	s.metrics.ObserveRunDuration(finished.Sub(start))
	s.emit(ctx, events.RunEvent{
		Type:           events.TypeRunCompleted,
		TaskID:         task.ID(),
		DataSource:     dataSource,
		AddedBy:        addedBy,
		ItemTotal:      result.ItemTotal,
		ItemsProcessed: result.ItemsProcessed,
		FailureCount:   result.ItemTotal - result.ItemsProcessed,
	})

	s.log.Info("import run finished",
		zap.String("taskId", task.ID()),
		zap.Int("itemTotal", result.ItemTotal),
		zap.Int("itemsProcessed", result.ItemsProcessed))

	return result, nil
}

// updateRecordType fetches and reconciles one record type. Every failure
// is folded into the returned status; nothing escapes to abort sibling
// types.
func (s *Service) updateRecordType(ctx context.Context, cfg RecordTypeConfig, caller identity.Identity, extra map[string]string, counters *runCounters, task *taskaudit.Handle) TypeStatus {
	log := s.log.With(zap.String("recordType", cfg.Name))

	items, err := s.source.Search(ctx, source.Query{
		Type:      cfg.SourceType,
		Milestone: cfg.SourceMilestone,
		Projects:  cfg.Projects,
		Extra:     extra,
	})
	if err != nil {
		s.metrics.IncFetchFailures(cfg.Name)
		log.Error("source fetch failed", zap.Error(err))
		return TypeStatus{RecordType: cfg.Name, Message: "fetch failed", Error: err.Error()}
	}
	if len(items) == 0 {
		// An empty page is a normal outcome, not an error.
		return TypeStatus{RecordType: cfg.Name, Message: "no records found"}
	}

	strat := cfg.NewStrategy(s.records, caller)
	if strat == nil {
		log.Error("record type has no strategy")
		return TypeStatus{RecordType: cfg.Name, Message: "configuration error", Error: fmt.Sprintf("no strategy for record type %q", cfg.Name)}
	}

	items = applyExclusions(strat, items)
	if len(items) == 0 {
		return TypeStatus{RecordType: cfg.Name, Message: "no records to import after exclusions"}
	}

	total := counters.addTotal(len(items))
	if _, err := task.Update(ctx, taskaudit.Update{ItemTotal: &total}); err != nil {
		log.Warn("task record update failed", zap.Error(err))
	}

	processed, failures := s.batchProcess(ctx, cfg.Name, strat, items, counters, task)

	return TypeStatus{
		RecordType:     cfg.Name,
		Message:        "processed",
		ItemTotal:      len(items),
		ItemsProcessed: processed,
		Failures:       failures,
	}
}

// batchProcess reconciles the type's items with at most batchSize calls
// in flight, the single knob protecting the downstream source's rate
// limits. Outcomes are immutable per-item results folded after the pool
// drains.
func (s *Service) batchProcess(ctx context.Context, recordType string, strat strategy.Strategy, items []source.Item, counters *runCounters, task *taskaudit.Handle) (int, []taskaudit.ItemFailure) {
	outcomes := make([]itemOutcome, len(items))

	g := new(errgroup.Group)
	g.SetLimit(s.batchSize)
	for i := range items {
		g.Go(func() error {
			outcomes[i] = s.processRecord(ctx, recordType, strat, &items[i], counters, task)
			return nil
		})
	}
	_ = g.Wait()

	processed := 0
	var failures []taskaudit.ItemFailure
	for _, outcome := range outcomes {
		if outcome.ok {
			processed++
		} else {
			failures = append(failures, outcome.failure)
		}
	}
	if len(failures) > 0 {
		if _, err := task.Update(ctx, taskaudit.Update{Failures: failures}); err != nil {
			s.log.Warn("task record update failed", zap.Error(err))
		}
	}
	return processed, failures
}

// processRecord runs one item through enrichment, transform, and
// reconcile. Failures never propagate: each becomes a failure outcome
// referencing the source item, and the run moves on. This per-item
// isolation is the central failure-handling property of the pipeline.
func (s *Service) processRecord(ctx context.Context, recordType string, strat strategy.Strategy, item *source.Item, counters *runCounters, task *taskaudit.Handle) (outcome itemOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncRecordFailures(recordType)
			s.log.Error("panic while processing record",
				zap.String("recordType", recordType),
				zap.String("sourceItemId", item.ID),
				zap.Any("panic", r))
			outcome = itemOutcome{failure: taskaudit.ItemFailure{
				SourceItemID: item.ID,
				Message:      processRecordErrMessage,
				Error:        fmt.Sprintf("panic: %v", r),
			}}
		}
	}()

	fail := func(err error) itemOutcome {
		s.metrics.IncRecordFailures(recordType)
		s.log.Warn("record import failed",
			zap.String("recordType", recordType),
			zap.String("sourceItemId", item.ID),
			zap.Error(err))
		return itemOutcome{failure: taskaudit.ItemFailure{
			SourceItemID: item.ID,
			Message:      processRecordErrMessage,
			Error:        err.Error(),
		}}
	}

	var project *source.Project
	if s.enricher != nil && item.ProjectID != "" {
		resolved, err := s.enricher.Resolve(ctx, item.ProjectID)
		if err != nil {
			return fail(err)
		}
		project = resolved
	}

	rec, err := strat.Transform(item, project)
	if err != nil {
		return fail(err)
	}

	existing, err := strat.FindExisting(ctx, rec)
	if err != nil {
		return fail(err)
	}

	if existing == nil {
		if _, err := strat.Create(ctx, rec); err != nil {
			return fail(err)
		}
	} else {
		if _, err := strat.Update(ctx, rec, existing); err != nil {
			return fail(err)
		}
	}

	s.metrics.IncRecordsProcessed(recordType)
	processed := counters.incProcessed()
	if _, err := task.Update(ctx, taskaudit.Update{ItemsProcessed: &processed}); err != nil {
		s.log.Warn("task record update failed", zap.Error(err))
	}
	return itemOutcome{ok: true}
}

func (s *Service) emit(ctx context.Context, evt events.RunEvent) {
	if err := s.events.Emit(ctx, evt); err != nil {
		s.log.Warn("run event publish failed", zap.Error(err))
	}
}
