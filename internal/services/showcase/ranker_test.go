package showcase

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sitespark/backend/internal/models"
)

func siteAt(id uuid.UUID, createdAt time.Time) models.Site {
	return models.Site{Base: models.Base{ID: id, CreatedAt: createdAt}}
}

func TestSortRankedByScoreDescending(t *testing.T) {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	ranked := []rankedSite{
		{site: siteAt(uuid.New(), base), score: 1.5},
		{site: siteAt(uuid.New(), base.Add(time.Hour)), score: 9.2},
		{site: siteAt(uuid.New(), base.Add(2*time.Hour)), score: 4.0},
	}

	sortRanked(ranked)

	assert.Equal(t, 9.2, ranked[0].score)
	assert.Equal(t, 4.0, ranked[1].score)
	assert.Equal(t, 1.5, ranked[2].score)
}

func TestSortRankedTieBreaksByCreationThenID(t *testing.T) {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	older := siteAt(uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000"), base)
	newer := siteAt(uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000"), base.Add(time.Hour))

	ranked := []rankedSite{
		{site: newer, score: 3.0},
		{site: older, score: 3.0},
	}
	sortRanked(ranked)
	assert.Equal(t, older.ID, ranked[0].site.ID, "equal scores rank the older site first")

	// Same score and same creation time: the ID is the final tie-break.
	idA := uuid.MustParse("11111111-0000-0000-0000-000000000000")
	idB := uuid.MustParse("22222222-0000-0000-0000-000000000000")
	ranked = []rankedSite{
		{site: siteAt(idB, base), score: 3.0},
		{site: siteAt(idA, base), score: 3.0},
	}
	sortRanked(ranked)
	assert.Equal(t, idA, ranked[0].site.ID, "full ties fall back to ID order")
}

func TestSortRankedIsStableAcrossRuns(t *testing.T) {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	sites := make([]rankedSite, 0, 6)
	for i := 0; i < 6; i++ {
		sites = append(sites, rankedSite{
			site:  siteAt(uuid.New(), base.Add(time.Duration(i%3)*time.Minute)),
			score: float64(i % 2), // plenty of ties
		})
	}

	first := make([]rankedSite, len(sites))
	second := make([]rankedSite, len(sites))
	copy(first, sites)
	copy(second, sites)
	// Feed the second run in reverse to prove the order is total.
	for i, j := 0, len(second)-1; i < j; i, j = i+1, j-1 {
		second[i], second[j] = second[j], second[i]
	}

	sortRanked(first)
	sortRanked(second)

	for i := range first {
		assert.Equal(t, first[i].site.ID, second[i].site.ID, "rank %d must not depend on input order", i+1)
	}
}
