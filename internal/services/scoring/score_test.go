package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sitespark/backend/internal/config"
	"github.com/sitespark/backend/internal/models"
)

func testViralConfig() config.ViralConfig {
	return config.ViralConfig{
		ShareThreshold:      5,
		FeatureDurationFree: 48 * time.Hour,
		FeatureDurationPro:  168 * time.Hour,
		MilestoneReferrals:  10,
		DecayHalfLifeHours:  240,
		TierMultiplierPro:   1.5,
		PageviewWeight:      1.0,
		PlatformWeights: map[string]float64{
			"twitter":  3.0,
			"facebook": 2.0,
			"linkedin": 2.5,
			"reddit":   3.5,
			"whatsapp": 1.5,
		},
	}
}

func shareAt(platform models.SharePlatform, occurredAt time.Time) models.ShareEvent {
	return models.ShareEvent{
		SiteID:         uuid.New(),
		Platform:       platform,
		IdempotencyKey: uuid.New().String(),
		OccurredAt:     occurredAt,
	}
}

func TestScoreZeroWithNoActivity(t *testing.T) {
	calc := NewCalculator(testViralConfig())
	site := models.Site{Tier: models.TierFree}

	score := calc.Score(&site, nil, time.Now())
	assert.Zero(t, score, "site with no events and no views should score 0")
}

func TestScoreIsDeterministic(t *testing.T) {
	calc := NewCalculator(testViralConfig())
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	site := models.Site{Tier: models.TierFree, Views: 150}
	events := []models.ShareEvent{
		shareAt(models.PlatformTwitter, now.Add(-3*time.Hour)),
		shareAt(models.PlatformReddit, now.Add(-100*time.Hour)),
	}

	first := calc.Score(&site, events, now)
	second := calc.Score(&site, events, now)
	assert.Equal(t, first, second, "same site, events and clock must produce the same score")
}

func TestScoreFreshShareContributesFullWeight(t *testing.T) {
	cfg := testViralConfig()
	calc := NewCalculator(cfg)
	now := time.Now()

	site := models.Site{Tier: models.TierFree}
	events := []models.ShareEvent{shareAt(models.PlatformReddit, now)}

	score := calc.Score(&site, events, now)
	assert.InDelta(t, cfg.PlatformWeights["reddit"], score, 1e-9, "a share at age zero contributes its full platform weight")
}

func TestScoreDecaysWithAge(t *testing.T) {
	cfg := testViralConfig()
	calc := NewCalculator(cfg)
	now := time.Now()

	site := models.Site{Tier: models.TierFree}
	fresh := calc.Score(&site, []models.ShareEvent{shareAt(models.PlatformTwitter, now)}, now)
	aged := calc.Score(&site, []models.ShareEvent{shareAt(models.PlatformTwitter, now.Add(-72*time.Hour))}, now)

	assert.Greater(t, fresh, aged, "an older share must be worth less than a fresh one")
	assert.Greater(t, aged, 0.0, "decay approaches zero but never reaches it")
}

func TestScoreHalfLife(t *testing.T) {
	cfg := testViralConfig()
	calc := NewCalculator(cfg)
	now := time.Now()

	site := models.Site{Tier: models.TierFree}
	halfLifeAgo := now.Add(-time.Duration(cfg.DecayHalfLifeHours * float64(time.Hour)))
	score := calc.Score(&site, []models.ShareEvent{shareAt(models.PlatformFacebook, halfLifeAgo)}, now)

	assert.InDelta(t, cfg.PlatformWeights["facebook"]/2, score, 1e-9, "a share exactly one half-life old is worth half its weight")
}

func TestScoreFutureShareTreatedAsFresh(t *testing.T) {
	cfg := testViralConfig()
	calc := NewCalculator(cfg)
	now := time.Now()

	site := models.Site{Tier: models.TierFree}
	// Client clock skew can report occurred_at slightly in the future.
	score := calc.Score(&site, []models.ShareEvent{shareAt(models.PlatformTwitter, now.Add(10*time.Minute))}, now)

	assert.InDelta(t, cfg.PlatformWeights["twitter"], score, 1e-9, "future-dated shares are clamped to age zero, never amplified")
}

func TestScorePageviewBaseline(t *testing.T) {
	cfg := testViralConfig()
	calc := NewCalculator(cfg)
	now := time.Now()

	site := models.Site{Tier: models.TierFree, Views: 1000}
	score := calc.Score(&site, nil, now)

	assert.InDelta(t, cfg.PageviewWeight*math.Log1p(1000), score, 1e-9, "views contribute log1p, not linearly")

	bigger := models.Site{Tier: models.TierFree, Views: 1000000}
	biggerScore := calc.Score(&bigger, nil, now)
	assert.Greater(t, biggerScore, score)
	assert.Less(t, biggerScore, 20.0, "pageview term grows logarithmically")
}

func TestScoreProTierMultiplier(t *testing.T) {
	cfg := testViralConfig()
	calc := NewCalculator(cfg)
	now := time.Now()
	events := []models.ShareEvent{shareAt(models.PlatformLinkedIn, now.Add(-time.Hour))}

	free := models.Site{Tier: models.TierFree, Views: 50}
	pro := models.Site{Tier: models.TierPro, Views: 50}

	freeScore := calc.Score(&free, events, now)
	proScore := calc.Score(&pro, events, now)
	assert.InDelta(t, freeScore*cfg.TierMultiplierPro, proScore, 1e-9, "pro sites score the free score times the multiplier")
}

func TestScoreOwnerProGrantApplies(t *testing.T) {
	cfg := testViralConfig()
	calc := NewCalculator(cfg)
	now := time.Now()
	events := []models.ShareEvent{shareAt(models.PlatformTwitter, now)}

	until := now.Add(30 * 24 * time.Hour)
	granted := models.Site{
		Tier:  models.TierFree,
		Owner: models.User{Base: models.Base{ID: uuid.New()}, Tier: models.TierFree, ProUntil: &until},
	}
	plain := models.Site{Tier: models.TierFree}

	grantedScore := calc.Score(&granted, events, now)
	plainScore := calc.Score(&plain, events, now)
	assert.InDelta(t, plainScore*cfg.TierMultiplierPro, grantedScore, 1e-9, "a milestone pro grant boosts the owner's sites while it lasts")
}

func TestScoreIgnoresUnknownPlatform(t *testing.T) {
	calc := NewCalculator(testViralConfig())
	now := time.Now()

	site := models.Site{Tier: models.TierFree}
	events := []models.ShareEvent{shareAt(models.SharePlatform("myspace"), now)}

	assert.Zero(t, calc.Score(&site, events, now), "platforms outside the weight table contribute nothing")
}
