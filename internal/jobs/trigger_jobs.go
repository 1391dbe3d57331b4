package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sitespark/backend/internal/queue"
	"github.com/sitespark/backend/internal/services/viral"
)

// TriggerJobs consumes the ingestor's notifications and routes them to the
// dispatcher. Handlers are idempotent end to end, so redelivery and retry
// are both safe.
type TriggerJobs struct {
	dispatcher *viral.Dispatcher
}

// NewTriggerJobs creates the notification consumers
func NewTriggerJobs(dispatcher *viral.Dispatcher) *TriggerJobs {
	return &TriggerJobs{dispatcher: dispatcher}
}

// RegisterTriggerJobHandlers registers the notification consumers on the queue
func RegisterTriggerJobHandlers(q queue.QueueInterface, dispatcher *viral.Dispatcher) *TriggerJobs {
	handler := NewTriggerJobs(dispatcher)
	q.RegisterHandler(queue.JobTypeShareRecorded, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return nil, handler.ProcessShareRecorded(ctx, &job)
	})
	q.RegisterHandler(queue.JobTypeReferralConverted, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return nil, handler.ProcessReferralConverted(ctx, &job)
	})
	q.RegisterHandler(queue.JobTypeReconcileTriggers, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return nil, handler.ProcessReconcile(ctx, &job)
	})
	return handler
}

// ProcessShareRecorded evaluates the featuring trigger for the notified site
func (t *TriggerJobs) ProcessShareRecorded(ctx context.Context, job *queue.Job) error {
	var payload viral.SharePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal share notification: %w", err)
	}
	return t.dispatcher.HandleShareRecorded(payload.SiteID, time.Now())
}

// ProcessReferralConverted evaluates the milestone for the notified referrer
func (t *TriggerJobs) ProcessReferralConverted(ctx context.Context, job *queue.Job) error {
	var payload viral.ConversionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal conversion notification: %w", err)
	}
	return t.dispatcher.HandleReferralConverted(payload.ReferrerID, time.Now())
}

// ProcessReconcile runs the sweep that re-derives triggers from counters,
// healing any notifications lost between ingestor and dispatcher.
func (t *TriggerJobs) ProcessReconcile(ctx context.Context, job *queue.Job) error {
	return t.dispatcher.Reconcile(time.Now())
}
