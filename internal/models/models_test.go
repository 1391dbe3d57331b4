package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveTierResolvesProGrant(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	free := User{Tier: TierFree}
	assert.Equal(t, TierFree, free.EffectiveTier(now))

	pro := User{Tier: TierPro}
	assert.Equal(t, TierPro, pro.EffectiveTier(now))

	granted := User{Tier: TierFree, ProUntil: &future}
	assert.Equal(t, TierPro, granted.EffectiveTier(now), "a live pro grant upgrades a free user")

	expired := User{Tier: TierFree, ProUntil: &past}
	assert.Equal(t, TierFree, expired.EffectiveTier(now), "an expired grant carries no weight")
}

func TestSiteEligibleForShowcase(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	proSite := Site{Tier: TierPro, ShowcaseEligible: true}
	assert.True(t, proSite.EligibleForShowcase(now))

	proOwner := Site{Tier: TierFree, ShowcaseEligible: true, Owner: User{Tier: TierPro}}
	assert.True(t, proOwner.EligibleForShowcase(now))

	granted := Site{Tier: TierFree, ShowcaseEligible: true, Owner: User{Tier: TierFree, ProUntil: &future}}
	assert.True(t, granted.EligibleForShowcase(now), "a live milestone grant keeps the owner's sites eligible")

	lapsed := Site{Tier: TierFree, ShowcaseEligible: true, Owner: User{Tier: TierFree, ProUntil: &past}}
	assert.False(t, lapsed.EligibleForShowcase(now), "the stored flag must not outrank an expired pro grant")

	unflagged := Site{Tier: TierPro}
	assert.False(t, unflagged.EligibleForShowcase(now), "the flag is still required")

	retired := Site{Tier: TierPro, ShowcaseEligible: true, RetiredAt: &past}
	assert.False(t, retired.EligibleForShowcase(now))
}

func TestSiteIsFeatured(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	assert.False(t, (&Site{}).IsFeatured(now), "no window means not featured")
	assert.True(t, (&Site{AutoFeaturedUntil: &future}).IsFeatured(now))
	assert.False(t, (&Site{AutoFeaturedUntil: &past}).IsFeatured(now), "featuring ends when the window closes")
}

func TestSitePlatformShares(t *testing.T) {
	site := Site{ShareCounts: JSON{"twitter": float64(7)}}
	assert.Equal(t, int64(7), site.PlatformShares(PlatformTwitter), "jsonb numbers round-trip as float64")
	assert.Equal(t, int64(0), site.PlatformShares(PlatformReddit))

	var empty Site
	assert.Equal(t, int64(0), empty.PlatformShares(PlatformTwitter), "nil counts read as zero")
}

func TestSharePlatformValid(t *testing.T) {
	for _, p := range KnownPlatforms {
		assert.True(t, p.Valid(), "%s should be a known platform", p)
	}
	assert.False(t, SharePlatform("myspace").Valid())
	assert.False(t, SharePlatform("").Valid())
}

func TestReferralEdgeAgeYears(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	fresh := ReferralEdge{ConvertedAt: now}
	assert.Zero(t, fresh.AgeYears(now))

	oneYear := ReferralEdge{ConvertedAt: now.AddDate(-1, 0, 0)}
	assert.InDelta(t, 1.0, oneYear.AgeYears(now), 0.01)

	fourYears := ReferralEdge{ConvertedAt: now.AddDate(-4, 0, 0)}
	assert.InDelta(t, 4.0, fourYears.AgeYears(now), 0.01)

	// A conversion timestamp ahead of the clock clamps to zero.
	futureEdge := ReferralEdge{ConvertedAt: now.Add(time.Hour)}
	assert.Zero(t, futureEdge.AgeYears(now))
}
