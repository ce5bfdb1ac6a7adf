package metrics

import (
	"math"
	"sort"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

// SummaryFigures returns the headline numbers. The rate is a percentage
// rounded to 2 decimals, 0 when nothing was broadcast.
func SummaryFigures(responders models.ActivationTable, bulk models.BroadcastTable) models.Summary {
	s := models.Summary{
		Broadcasted: len(bulk.Rows),
		Responders:  len(responders.Rows),
	}
	if s.Broadcasted > 0 {
		s.Rate = round2(float64(s.Responders) / float64(s.Broadcasted) * 100)
	}
	return s
}

// ActivationsByDate counts activations per day, ascending. Rows without a
// parseable time_id are not bucketed.
func ActivationsByDate(responders models.ActivationTable) []models.DateCount {
	counts := map[string]int{}
	for _, a := range responders.Rows {
		if a.Day == "" {
			continue
		}
		counts[a.Day]++
	}
	out := make([]models.DateCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, models.DateCount{Day: d, Activations: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// ActivationCountByCampaign joins activation and broadcast counts per
// campaign key. Keys missing from either side are dropped; see
// CampaignMismatch.
func ActivationCountByCampaign(responders models.ActivationTable, bulk models.BroadcastTable) []models.CampaignCount {
	act := countBy(responders.Rows, activationOffer)
	bc := countBy(bulk.Rows, broadcastOffer)
	out := make([]models.CampaignCount, 0, len(act))
	for _, k := range sortedKeys(act) {
		n, ok := bc[k]
		if !ok {
			continue
		}
		out = append(out, models.CampaignCount{Offer: k, Activations: act[k], Broadcasted: n})
	}
	return out
}

// ActivationShareByCampaign is activations / broadcasts per campaign key,
// rounded to 4 decimals. Same inner-join rule as ActivationCountByCampaign.
func ActivationShareByCampaign(responders models.ActivationTable, bulk models.BroadcastTable) []models.CampaignShare {
	counts := ActivationCountByCampaign(responders, bulk)
	out := make([]models.CampaignShare, 0, len(counts))
	for _, c := range counts {
		if c.Broadcasted == 0 {
			continue
		}
		r := round4(float64(c.Activations) / float64(c.Broadcasted))
		out = append(out, models.CampaignShare{Offer: c.Offer, Rate: r, Percent: round2(r * 100)})
	}
	return out
}

// CampaignMismatch reports the campaign keys that the per-campaign join
// excludes, sorted.
func CampaignMismatch(responders models.ActivationTable, bulk models.BroadcastTable) models.KeyMismatch {
	act := countBy(responders.Rows, activationOffer)
	bc := countBy(bulk.Rows, broadcastOffer)
	m := models.KeyMismatch{ActivationOnly: []string{}, BroadcastOnly: []string{}}
	for _, k := range sortedKeys(act) {
		if _, ok := bc[k]; !ok {
			m.ActivationOnly = append(m.ActivationOnly, k)
		}
	}
	for _, k := range sortedKeys(bc) {
		if _, ok := act[k]; !ok {
			m.BroadcastOnly = append(m.BroadcastOnly, k)
		}
	}
	return m
}

// CampaignPeriod reads the offer window from the first loaded row.
func CampaignPeriod(t models.ActivationTable) models.Period {
	var p models.Period
	if len(t.Rows) == 0 {
		return p
	}
	first := t.Rows[0]
	if first.OfferStartDate != nil {
		p.Start = first.OfferStartDate.Format("2006-01-02")
	}
	if first.OfferEndDate != nil {
		p.End = first.OfferEndDate.Format("2006-01-02")
	}
	return p
}

func countBy[T any](rows []T, key func(T) string) map[string]int {
	out := map[string]int{}
	for _, r := range rows {
		out[key(r)]++
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ties round to even.
func round2(f float64) float64 { return math.RoundToEven(f*100) / 100 }
func round4(f float64) float64 { return math.RoundToEven(f*10000) / 10000 }
