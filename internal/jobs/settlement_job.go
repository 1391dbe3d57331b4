package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sitespark/backend/internal/models"
	"github.com/sitespark/backend/internal/queue"
	"github.com/sitespark/backend/internal/services/commission"
	"gorm.io/gorm"
)

// SettlementJobPayload represents the payload for a settlement sweep
type SettlementJobPayload struct {
	// Period is the billing cycle to settle, "YYYY-MM". Empty means the
	// previous calendar month.
	Period string `json:"period"`
}

// SettlementJob walks every active referral edge and appends the
// commission entry for one billing period. The (edge, period) uniqueness
// at the store makes the sweep safe to re-run after a partial failure:
// already-settled pairs come back as duplicates and are skipped.
type SettlementJob struct {
	db            *gorm.DB
	queue         queue.QueueInterface
	commissionSvc *commission.Service
}

// NewSettlementJob creates a new settlement job handler
func NewSettlementJob(db *gorm.DB, q queue.QueueInterface, commissionSvc *commission.Service) *SettlementJob {
	return &SettlementJob{db: db, queue: q, commissionSvc: commissionSvc}
}

// RegisterSettlementJobHandlers registers the settlement job handlers
func RegisterSettlementJobHandlers(q queue.QueueInterface, db *gorm.DB, commissionSvc *commission.Service) *SettlementJob {
	handler := NewSettlementJob(db, q, commissionSvc)
	q.RegisterHandler(queue.JobTypeSettleCommissions, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return handler.ProcessSettlement(ctx, &job)
	})
	return handler
}

// EnqueueSettlement enqueues a settlement sweep for a period
func (j *SettlementJob) EnqueueSettlement(period string) error {
	if _, err := j.queue.EnqueueJob(queue.JobTypeSettleCommissions, SettlementJobPayload{Period: period}); err != nil {
		return fmt.Errorf("failed to enqueue settlement job: %w", err)
	}
	return nil
}

// ProcessSettlement settles one period for all active edges
func (j *SettlementJob) ProcessSettlement(ctx context.Context, job *queue.Job) (interface{}, error) {
	var payload SettlementJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settlement job payload: %w", err)
	}

	now := time.Now()
	period := payload.Period
	if period == "" {
		period = now.AddDate(0, -1, 0).Format("2006-01")
	}

	var edges []models.ReferralEdge
	err := j.db.
		Where("status = ?", models.ReferralActive).
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active referral edges: %w", err)
	}

	var settled, skipped, missing int
	for i := range edges {
		var revenue models.PeriodRevenue
		err := j.db.
			Where("user_id = ? AND period = ?", edges[i].RefereeID, period).
			First(&revenue).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				missing++
				continue
			}
			return nil, fmt.Errorf("failed to load period revenue: %w", err)
		}

		_, err = j.commissionSvc.SettlePeriod(edges[i].ID, period, revenue.AmountMinor, now)
		switch {
		case err == nil:
			settled++
		case errors.Is(err, commission.ErrDuplicatePeriod):
			skipped++
		case errors.Is(err, commission.ErrInvariantViolation):
			// A bug, not bad data: stop the sweep so it gets looked at
			// instead of being retried into the ledger.
			return nil, err
		default:
			log.Printf("Settlement failed for edge %s period %s: %v", edges[i].ID, period, err)
		}
	}

	log.Printf("Settlement sweep for %s: %d settled, %d already settled, %d without revenue", period, settled, skipped, missing)
	return map[string]interface{}{"period": period, "settled": settled, "skipped": skipped}, nil
}
