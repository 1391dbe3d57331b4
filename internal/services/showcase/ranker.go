package showcase

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sitespark/backend/internal/models"
	"github.com/sitespark/backend/internal/services/scoring"
	"gorm.io/gorm"
)

// Ranker is the periodic batch job that recomputes scores for every
// eligible site and republishes the showcase. Each run reads one snapshot
// of the ledger, computes with a single "now", and replaces the entire
// entry set in one transaction; a failed run leaves the previous ranking
// in place.
type Ranker struct {
	db   *gorm.DB
	calc *scoring.Calculator
}

// NewRanker creates a new showcase ranker
func NewRanker(db *gorm.DB, calc *scoring.Calculator) *Ranker {
	return &Ranker{db: db, calc: calc}
}

type rankedSite struct {
	site  models.Site
	score float64
}

// Run recomputes the showcase. Returns the number of entries published.
func (r *Ranker) Run(now time.Time) (int, error) {
	started := time.Now()

	var sites []models.Site
	err := r.db.Preload("Owner").
		Where("showcase_eligible = ? AND retired_at IS NULL", true).
		Find(&sites).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load eligible sites: %w", err)
	}

	// The flag alone can be stale: a milestone pro grant that expired
	// leaves showcase_eligible set until the sweep clears it, and those
	// sites must not be ranked in the meantime.
	eligible := sites[:0]
	for i := range sites {
		if sites[i].EligibleForShowcase(now) {
			eligible = append(eligible, sites[i])
		}
	}
	sites = eligible

	if len(sites) == 0 {
		// Still replace: an empty eligible set means an empty showcase.
		if err := r.replaceEntries(nil); err != nil {
			return 0, err
		}
		return 0, nil
	}

	// One batched event read for all eligible sites; per-site round trips
	// would blow the latency budget at thousands of sites.
	siteIDs := make([]uuid.UUID, len(sites))
	for i := range sites {
		siteIDs[i] = sites[i].ID
	}
	var events []models.ShareEvent
	err = r.db.
		Where("site_id IN ?", siteIDs).
		Order("occurred_at asc").
		Find(&events).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load share events: %w", err)
	}

	eventsBySite := make(map[uuid.UUID][]models.ShareEvent, len(sites))
	for _, ev := range events {
		eventsBySite[ev.SiteID] = append(eventsBySite[ev.SiteID], ev)
	}

	ranked := make([]rankedSite, len(sites))
	for i := range sites {
		ranked[i] = rankedSite{
			site:  sites[i],
			score: r.calc.Score(&sites[i], eventsBySite[sites[i].ID], now),
		}
	}

	sortRanked(ranked)

	generationID := uuid.New()
	entries := make([]models.ShowcaseEntry, len(ranked))
	for i := range ranked {
		entries[i] = models.ShowcaseEntry{
			GenerationID: generationID,
			SiteID:       ranked[i].site.ID,
			Rank:         i + 1,
			Score:        ranked[i].score,
			GeneratedAt:  now,
		}
	}

	if err := r.replaceEntries(entries); err != nil {
		return 0, err
	}

	log.Printf("Showcase rebuilt: %d entries in %v (generation %s)", len(entries), time.Since(started), generationID)
	return len(entries), nil
}

// sortRanked orders sites by score descending, with older sites first and
// the site ID as the final tie-break. The order is total, so two runs over
// the same ledger snapshot publish the same ranking.
func sortRanked(ranked []rankedSite) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].site.CreatedAt.Equal(ranked[j].site.CreatedAt) {
			return ranked[i].site.CreatedAt.Before(ranked[j].site.CreatedAt)
		}
		return ranked[i].site.ID.String() < ranked[j].site.ID.String()
	})
}

// replaceEntries swaps the whole showcase in one transaction so readers
// never observe a half-updated ranking.
func (r *Ranker) replaceEntries(entries []models.ShowcaseEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM showcase_entries").Error; err != nil {
			return fmt.Errorf("failed to discard previous showcase: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(entries, 500).Error; err != nil {
			return fmt.Errorf("failed to publish showcase entries: %w", err)
		}
		return nil
	})
}
