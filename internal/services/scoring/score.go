package scoring

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sitespark/backend/internal/config"
	"github.com/sitespark/backend/internal/models"
)

// Calculator computes viral scores. It is pure: given the same site state,
// event set and clock value it always produces the same score, which is
// what makes ranker output reproducible.
type Calculator struct {
	cfg config.ViralConfig
}

// NewCalculator creates a new score calculator
func NewCalculator(cfg config.ViralConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Score combines decayed share value, a diminishing-returns pageview
// baseline and the tier multiplier. A site with no events scores 0; the
// result is never negative.
func (c *Calculator) Score(site *models.Site, events []models.ShareEvent, now time.Time) float64 {
	lambda := math.Ln2 / c.cfg.DecayHalfLifeHours

	var shareValue float64
	for i := range events {
		weight, ok := c.cfg.PlatformWeights[string(events[i].Platform)]
		if !ok {
			continue
		}
		ageHours := now.Sub(events[i].OccurredAt).Hours()
		if ageHours < 0 {
			// Clock skew from the reporting client; treat as fresh.
			ageHours = 0
		}
		shareValue += weight * math.Exp(-lambda*ageHours)
	}

	score := shareValue + c.cfg.PageviewWeight*math.Log1p(float64(site.Views))

	if c.tierOf(site, now) == models.TierPro {
		score *= c.cfg.TierMultiplierPro
	}

	if score < 0 {
		return 0
	}
	return score
}

func (c *Calculator) tierOf(site *models.Site, now time.Time) models.Tier {
	if site.Tier == models.TierPro {
		return models.TierPro
	}
	if site.Owner.ID != uuid.Nil {
		return site.Owner.EffectiveTier(now)
	}
	return site.Tier
}
