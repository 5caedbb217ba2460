// Package events publishes run-lifecycle events to Kafka so downstream
// consumers (dashboards, alerting) can follow import activity without
// polling the task collection.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Event types.
const (
	TypeRunStarted   = "run_started"
	TypeRunCompleted = "run_completed"
	TypeRunFailed    = "run_failed"
)

// RunEvent describes one import-run lifecycle transition.
type RunEvent struct {
	Type           string    `json:"type"`
	TaskID         string    `json:"taskId"`
	DataSource     string    `json:"dataSource"`
	AddedBy        string    `json:"addedBy"`
	ItemTotal      int       `json:"itemTotal"`
	ItemsProcessed int       `json:"itemsProcessed"`
	FailureCount   int       `json:"failureCount"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher emits run events to a Kafka topic. A nil Publisher is valid
// and drops every event, so callers never branch on configuration.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher connects to the brokers. Returns (nil, nil) when no
// brokers are configured (publishing disabled).
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Emit publishes one event, keyed by task id so a run's events stay in
// partition order.
func (p *Publisher) Emit(ctx context.Context, evt RunEvent) error {
	if p == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(evt.TaskID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	return nil
}

// Close flushes and closes the Kafka client.
func (p *Publisher) Close() {
	if p != nil {
		p.client.Close()
	}
}
