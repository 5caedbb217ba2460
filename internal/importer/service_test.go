package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"regsync/internal/importer/source"
	"regsync/internal/importer/strategy"
	"regsync/internal/records/models"
	"regsync/internal/records/store"
	"regsync/internal/taskaudit"
	"regsync/pkg/identity"
)

// typeFetcher serves canned item pages keyed by the recordType query
// parameter, emulating the remote source.
type typeFetcher struct {
	items map[string][]source.Item
	errs  map[string]error
}

func (f *typeFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	recordType := parsed.Query().Get("recordType")
	if err, ok := f.errs[recordType]; ok {
		return nil, err
	}
	page := parsed.Query().Get("pageNum")
	if page != "1" {
		return []byte("[]"), nil
	}
	return json.Marshal(f.items[recordType])
}

// scriptedStrategy wraps a real strategy to inject failures and observe
// concurrency.
type scriptedStrategy struct {
	strategy.Strategy

	failCreate  map[string]bool
	panicCreate map[string]bool

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (t *scriptedStrategy) Create(ctx context.Context, rec *models.Record) (*strategy.Result, error) {
	cur := t.inFlight.Add(1)
	defer t.inFlight.Add(-1)
	for {
		max := t.maxInFlight.Load()
		if cur <= max || t.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	if t.panicCreate[rec.SourceRefID] {
		panic("scripted panic for " + rec.SourceRefID)
	}
	if t.failCreate[rec.SourceRefID] {
		return nil, errors.New("scripted create failure for " + rec.SourceRefID)
	}
	return t.Strategy.Create(ctx, rec)
}

type ServiceSuite struct {
	suite.Suite
	records *store.InMemory
	fetcher *typeFetcher
	caller  identity.Identity
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.records = store.NewInMemory()
	s.fetcher = &typeFetcher{items: map[string][]source.Item{}, errs: map[string]error{}}
	s.caller = identity.Identity{DisplayName: "operator", Roles: []string{models.RoleSysadmin}}
	s.ctx = context.Background()
}

func (s *ServiceSuite) orderItems(n int) []source.Item {
	items := make([]source.Item, n)
	for i := range items {
		items[i] = source.Item{
			ID:   fmt.Sprintf("EXT-%d", i),
			Name: fmt.Sprintf("Stop Work Order %d", i),
		}
	}
	return items
}

func (s *ServiceSuite) newService(registry *Registry, batchSize int) *Service {
	return New(Config{
		Registry:  registry,
		Records:   s.records,
		Source:    source.NewClient("https://source.test", s.fetcher),
		BatchSize: batchSize,
	})
}

func (s *ServiceSuite) orderRegistry(scripted *scriptedStrategy) *Registry {
	registry, err := NewRegistry([]RecordTypeConfig{{
		Name:       "Order",
		SourceType: "Order",
		NewStrategy: func(st store.Store, caller identity.Identity) strategy.Strategy {
			if scripted != nil {
				scripted.Strategy = strategy.NewOrder(st, caller)
				return scripted
			}
			return strategy.NewOrder(st, caller)
		},
	}})
	s.Require().NoError(err)
	return registry
}

func (s *ServiceSuite) TestRun() {
	s.Run("imports every fetched item", func() {
		s.fetcher.items["Order"] = s.orderItems(5)
		svc := s.newService(s.orderRegistry(nil), 10)
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
		s.Require().NoError(err)

		s.Equal(StatusCompleted, result.Status)
		s.Equal(5, result.ItemTotal)
		s.Equal(5, result.ItemsProcessed)
		s.Require().Len(result.Types, 1)
		s.Empty(result.Types[0].Failures)

		// master plus public flavour per item
		stored, err := s.records.Find(s.ctx, store.Filter{"schema": models.SchemaOrder})
		s.Require().NoError(err)
		s.Len(stored, 10)
	})

	s.Run("stamps the caller on the audit record", func() {
		s.SetupTest()
		s.fetcher.items["Order"] = s.orderItems(1)
		svc := s.newService(s.orderRegistry(nil), 10)
		tasks := taskaudit.NewInMemory()
		task := taskaudit.NewHandle(tasks)

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
		s.Require().NoError(err)

		rec, err := tasks.Get(s.ctx, result.TaskID)
		s.Require().NoError(err)
		s.Equal(taskaudit.StatusCompleted, rec.Status)
		s.Equal(DataSourceName, rec.DataSource)
		s.Equal("operator", rec.AddedBy)
		s.Equal(1, rec.ItemTotal)
		s.Equal(1, rec.ItemsProcessed)
		s.NotNil(rec.FinishedAt)
	})

	s.Run("one failing item does not abort the rest", func() {
		s.SetupTest()
		s.fetcher.items["Order"] = s.orderItems(5)
		scripted := &scriptedStrategy{failCreate: map[string]bool{"EXT-2": true}}
		svc := s.newService(s.orderRegistry(scripted), 10)
		tasks := taskaudit.NewInMemory()
		task := taskaudit.NewHandle(tasks)

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
		s.Require().NoError(err)

		s.Equal(5, result.ItemTotal)
		s.Equal(4, result.ItemsProcessed)
		s.Require().Len(result.Types[0].Failures, 1)

		failure := result.Types[0].Failures[0]
		s.Equal("EXT-2", failure.SourceItemID)
		s.Equal("processRecord - unexpected error", failure.Message)
		s.Contains(failure.Error, "scripted create failure")

		rec, err := tasks.Get(s.ctx, result.TaskID)
		s.Require().NoError(err)
		s.Len(rec.IndividualRecordStatus, 1)
	})

	s.Run("a panicking item is contained", func() {
		s.SetupTest()
		s.fetcher.items["Order"] = s.orderItems(3)
		scripted := &scriptedStrategy{panicCreate: map[string]bool{"EXT-1": true}}
		svc := s.newService(s.orderRegistry(scripted), 10)
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
		s.Require().NoError(err)

		s.Equal(2, result.ItemsProcessed)
		s.Require().Len(result.Types[0].Failures, 1)
		s.Contains(result.Types[0].Failures[0].Error, "panic")
	})

	s.Run("concurrency never exceeds the batch size", func() {
		s.SetupTest()
		s.fetcher.items["Order"] = s.orderItems(137)
		scripted := &scriptedStrategy{}
		const batchSize = 5
		svc := s.newService(s.orderRegistry(scripted), batchSize)
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
		s.Require().NoError(err)

		s.Equal(137, result.ItemsProcessed)
		s.LessOrEqual(scripted.maxInFlight.Load(), int64(batchSize))
		s.Greater(scripted.maxInFlight.Load(), int64(1))
	})

	s.Run("fetch failure is a type status not a run error", func() {
		s.SetupTest()
		s.fetcher.errs["Order"] = &source.StatusError{Code: 503, URL: "https://source.test/records"}
		svc := s.newService(s.orderRegistry(nil), 10)
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
		s.Require().NoError(err)

		s.Require().Len(result.Types, 1)
		s.Equal("fetch failed", result.Types[0].Message)
		s.Contains(result.Types[0].Error, "503")
		s.Zero(result.ItemTotal)
	})

	s.Run("empty source page reports no records found", func() {
		s.SetupTest()
		svc := s.newService(s.orderRegistry(nil), 10)
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
		s.Require().NoError(err)
		s.Equal("no records found", result.Types[0].Message)
	})

	s.Run("fee orders are excluded before processing", func() {
		s.SetupTest()
		items := s.orderItems(3)
		items[1].Name = "Administrative Fee Order"
		s.fetcher.items["Order"] = items
		svc := s.newService(s.orderRegistry(nil), 10)
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
		s.Require().NoError(err)
		s.Equal(2, result.ItemTotal)
		s.Equal(2, result.ItemsProcessed)
	})

	s.Run("unknown record type names are skipped", func() {
		s.SetupTest()
		s.fetcher.items["Order"] = s.orderItems(2)
		svc := s.newService(s.orderRegistry(nil), 10)
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{RecordTypes: []string{"Permit"}})
		s.Require().NoError(err)
		s.Empty(result.Types)
		s.Zero(result.ItemTotal)
	})

	s.Run("record type filter narrows the run", func() {
		s.SetupTest()
		s.fetcher.items["Order"] = s.orderItems(2)
		s.fetcher.items["Inspection"] = []source.Item{{ID: "INS-1", Name: "Site Inspection"}}
		svc := s.newService(DefaultRegistry(), 10)
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		result, err := svc.Run(s.ctx, task, s.caller, RunOptions{RecordTypes: []string{"Inspection"}})
		s.Require().NoError(err)
		s.Require().Len(result.Types, 1)
		s.Equal("Inspection", result.Types[0].RecordType)
		s.Equal(1, result.ItemsProcessed)
	})

	s.Run("operator filters pass through to the source query", func() {
		s.SetupTest()
		captured := &capturingFetcher{inner: s.fetcher}
		s.fetcher.items["Order"] = s.orderItems(1)
		svc := New(Config{
			Registry:  s.orderRegistry(nil),
			Records:   s.records,
			Source:    source.NewClient("https://source.test", captured),
			BatchSize: 10,
		})
		task := taskaudit.NewHandle(taskaudit.NewInMemory())

		_, err := svc.Run(s.ctx, task, s.caller, RunOptions{Filters: map[string]string{"region": "north"}})
		s.Require().NoError(err)
		s.Require().NotEmpty(captured.urls)
		s.True(strings.Contains(captured.urls[0], "region=north"))
	})

	s.Run("missing registry is a run error", func() {
		svc := New(Config{Records: s.records, Source: source.NewClient("x", s.fetcher)})
		_, err := svc.Run(s.ctx, taskaudit.NewHandle(taskaudit.NewInMemory()), s.caller, RunOptions{})
		s.Require().Error(err)
	})

	s.Run("missing task handle is a run error", func() {
		svc := s.newService(s.orderRegistry(nil), 10)
		_, err := svc.Run(s.ctx, nil, s.caller, RunOptions{})
		s.Require().Error(err)
	})
}

func (s *ServiceSuite) TestRunIsolatesTypes() {
	s.fetcher.items["Order"] = s.orderItems(2)
	s.fetcher.errs["Inspection"] = errors.New("inspection endpoint down")
	s.fetcher.items["Certificate"] = []source.Item{{ID: "CERT-1", Name: "Operating Certificate"}}

	svc := s.newService(DefaultRegistry(), 10)
	task := taskaudit.NewHandle(taskaudit.NewInMemory())

	result, err := svc.Run(s.ctx, task, s.caller, RunOptions{})
	s.Require().NoError(err)

	byType := map[string]TypeStatus{}
	for _, ts := range result.Types {
		byType[ts.RecordType] = ts
	}
	s.Equal(2, byType["Order"].ItemsProcessed)
	s.Equal("fetch failed", byType["Inspection"].Message)
	s.Equal(1, byType["Certificate"].ItemsProcessed)
	s.Equal(3, result.ItemsProcessed)
}

// capturingFetcher records every URL before delegating.
type capturingFetcher struct {
	inner source.Fetcher
	urls  []string
}

func (c *capturingFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	c.urls = append(c.urls, rawURL)
	return c.inner.Fetch(ctx, rawURL)
}
