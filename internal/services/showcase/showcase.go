package showcase

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sitespark/backend/internal/cache"
	"github.com/sitespark/backend/internal/models"
	"github.com/sitespark/backend/internal/services/scoring"
	"gorm.io/gorm"
)

// Service serves showcase pages and on-demand scores
type Service struct {
	db    *gorm.DB
	calc  *scoring.Calculator
	cache *cache.ScoreCache
}

// NewService creates a new showcase read service. cache may be nil, in
// which case every score is computed from the ledger.
func NewService(db *gorm.DB, calc *scoring.Calculator, scoreCache *cache.ScoreCache) *Service {
	return &Service{db: db, calc: calc, cache: scoreCache}
}

// GetShowcase returns one page of the current ranking. Entries all belong
// to the latest generation because the ranker replaces the set atomically.
func (s *Service) GetShowcase(limit, offset int) ([]models.ShowcaseEntry, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var entries []models.ShowcaseEntry
	var total int64
	// The count and the page must see the same generation: the ranker
	// replaces the whole set in one transaction, and a replace committing
	// between two separate reads would mix generations.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ShowcaseEntry{}).Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count showcase entries: %w", err)
		}
		if err := tx.Preload("Site").
			Order("rank asc").
			Offset(offset).
			Limit(limit).
			Find(&entries).Error; err != nil {
			return fmt.Errorf("failed to load showcase entries: %w", err)
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GetScore computes a site's current viral score from the ledger. Recent
// results are served from the cache; the cached value is derived only and
// expires on its own.
func (s *Service) GetScore(ctx context.Context, siteID uuid.UUID, now time.Time) (float64, error) {
	if s.cache != nil {
		if score, ok := s.cache.Get(ctx, siteID.String()); ok {
			return score, nil
		}
	}

	var site models.Site
	if err := s.db.Preload("Owner").First(&site, "id = ?", siteID).Error; err != nil {
		return 0, fmt.Errorf("failed to get site: %w", err)
	}

	var events []models.ShareEvent
	if err := s.db.Where("site_id = ?", siteID).Find(&events).Error; err != nil {
		return 0, fmt.Errorf("failed to load share events: %w", err)
	}

	score := s.calc.Score(&site, events, now)

	if s.cache != nil {
		s.cache.Set(ctx, siteID.String(), score)
	}

	return score, nil
}
