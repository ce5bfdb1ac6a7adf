package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

func TestFilterAllEqualsExplicitDistinct(t *testing.T) {
	a, b := exampleTables()

	allA := FilterActivations(a, models.AllCampaigns())
	allB := FilterBroadcast(b, models.AllCampaigns())
	expA := FilterActivations(a, models.Campaigns(DistinctOffers(a)...))
	expB := FilterBroadcast(b, models.Campaigns("A", "B"))

	assert.Equal(t, allA, expA)
	assert.Equal(t, allB, expB)
	assert.Equal(t, SummaryFigures(allA, allB), SummaryFigures(expA, expB))
	assert.Equal(t, ActivationsByDate(allA), ActivationsByDate(expA))
	assert.Equal(t, ActivationCountByCampaign(allA, allB), ActivationCountByCampaign(expA, expB))
	assert.Equal(t, ActivationShareByCampaign(allA, allB), ActivationShareByCampaign(expA, expB))
}

func TestFilterAllTracksCurrentKeys(t *testing.T) {
	a, _ := exampleTables()
	a.Rows = append(a.Rows, act("New", "2022-02-05"))
	got := FilterActivations(a, models.AllCampaigns())
	assert.Len(t, got.Rows, 4)
}

func TestFilterExplicit(t *testing.T) {
	a, b := exampleTables()
	fa := FilterActivations(a, models.Campaigns("B"))
	fb := FilterBroadcast(b, models.Campaigns("B"))
	assert.Len(t, fa.Rows, 1)
	assert.Len(t, fb.Rows, 2)
	assert.Equal(t, models.Summary{Broadcasted: 2, Responders: 1, Rate: 50}, SummaryFigures(fa, fb))
}

func TestFilterEmptySelection(t *testing.T) {
	a, b := exampleTables()
	fa := FilterActivations(a, models.Selection{})
	fb := FilterBroadcast(b, models.Selection{})
	assert.Empty(t, fa.Rows)
	assert.Empty(t, fb.Rows)
	assert.Equal(t, models.Summary{}, SummaryFigures(fa, fb))
}

func TestFilterDoesNotMutate(t *testing.T) {
	a, _ := exampleTables()
	before := append([]models.Activation(nil), a.Rows...)
	_ = FilterActivations(a, models.Campaigns("A"))
	assert.Equal(t, before, a.Rows)
}

func TestDistinctOffersAppearanceOrder(t *testing.T) {
	a := models.ActivationTable{Rows: []models.Activation{act("Z", "2022-02-01"), act("A", "2022-02-01"), act("Z", "2022-02-02")}}
	assert.Equal(t, []string{"Z", "A"}, DistinctOffers(a))
}
