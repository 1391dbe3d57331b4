package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sitespark/backend/internal/queue"
	"github.com/sitespark/backend/internal/services/showcase"
)

// ShowcaseRankJobPayload represents the payload for a showcase rank job
type ShowcaseRankJobPayload struct {
	RequestedAt time.Time `json:"requested_at"`
	// OnDemand marks runs triggered through the API rather than the schedule.
	OnDemand bool `json:"on_demand"`
}

// ShowcaseRankJob rebuilds the showcase ranking
type ShowcaseRankJob struct {
	queue  queue.QueueInterface
	ranker *showcase.Ranker
}

// NewShowcaseRankJob creates a new showcase rank job handler
func NewShowcaseRankJob(q queue.QueueInterface, ranker *showcase.Ranker) *ShowcaseRankJob {
	return &ShowcaseRankJob{queue: q, ranker: ranker}
}

// RegisterShowcaseRankJobHandlers registers the showcase rank job handlers
func RegisterShowcaseRankJobHandlers(q queue.QueueInterface, ranker *showcase.Ranker) *ShowcaseRankJob {
	handler := NewShowcaseRankJob(q, ranker)
	q.RegisterHandler(queue.JobTypeRankShowcase, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return handler.ProcessRankShowcase(ctx, &job)
	})
	return handler
}

// EnqueueRankJob enqueues an on-demand showcase rebuild
func (j *ShowcaseRankJob) EnqueueRankJob(onDemand bool) error {
	payload := ShowcaseRankJobPayload{
		RequestedAt: time.Now(),
		OnDemand:    onDemand,
	}
	if _, err := j.queue.EnqueueJob(queue.JobTypeRankShowcase, payload); err != nil {
		return fmt.Errorf("failed to enqueue showcase rank job: %w", err)
	}
	return nil
}

// ProcessRankShowcase rebuilds the showcase. "now" is the job start time
// so every score in one generation shares a clock value.
func (j *ShowcaseRankJob) ProcessRankShowcase(ctx context.Context, job *queue.Job) (interface{}, error) {
	var payload ShowcaseRankJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal showcase rank job payload: %w", err)
	}

	count, err := j.ranker.Run(time.Now())
	if err != nil {
		// Previous ranking stays in place; the retry handler or the next
		// scheduled run picks it up.
		return nil, fmt.Errorf("showcase rank run failed: %w", err)
	}

	log.Printf("Showcase rank job completed with %d entries (on_demand=%v)", count, payload.OnDemand)
	return map[string]interface{}{"entries": count}, nil
}
