package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sitespark/backend/internal/queue"
	"github.com/sitespark/backend/internal/services/commission"
	"github.com/sitespark/backend/internal/services/showcase"
	"github.com/sitespark/backend/internal/services/viral"
	"gorm.io/gorm"
)

// Handlers bundles the registered job handlers for callers that also
// enqueue on demand (e.g. the admin showcase rebuild endpoint).
type Handlers struct {
	ShowcaseRank *ShowcaseRankJob
	Settlement   *SettlementJob
	Triggers     *TriggerJobs
}

// RegisterAllJobHandlers registers all job handlers with the queue
func RegisterAllJobHandlers(
	q queue.QueueInterface,
	db *gorm.DB,
	dispatcher *viral.Dispatcher,
	ranker *showcase.Ranker,
	commissionSvc *commission.Service,
) *Handlers {
	return &Handlers{
		ShowcaseRank: RegisterShowcaseRankJobHandlers(q, ranker),
		Settlement:   RegisterSettlementJobHandlers(q, db, commissionSvc),
		Triggers:     RegisterTriggerJobHandlers(q, dispatcher),
	}
}

// ScheduleRecurringJobs starts the gocron scheduler for the periodic
// engine jobs: the daily showcase rebuild, the hourly trigger
// reconciliation sweep and the monthly commission settlement.
func ScheduleRecurringJobs(q queue.QueueInterface, handlers *Handlers) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)

	if _, err := scheduler.Every(1).Day().At("03:00").Do(func() {
		if err := handlers.ShowcaseRank.EnqueueRankJob(false); err != nil {
			log.Printf("Failed to enqueue scheduled showcase rank: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule showcase rank job: %w", err)
	}

	if _, err := scheduler.Every(1).Hour().Do(func() {
		if _, err := q.EnqueueJob(queue.JobTypeReconcileTriggers, struct{}{}); err != nil {
			log.Printf("Failed to enqueue reconciliation sweep: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule reconciliation sweep: %w", err)
	}

	if _, err := scheduler.Every(1).MonthLastDay().At("04:00").Do(func() {
		if err := handlers.Settlement.EnqueueSettlement(""); err != nil {
			log.Printf("Failed to enqueue settlement sweep: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule settlement sweep: %w", err)
	}

	scheduler.StartAsync()
	return scheduler, nil
}
