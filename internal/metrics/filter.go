package metrics

import (
	"github.com/AngelCh415/campaign-dash/internal/models"
)

// Filter keeps the rows whose key is in sel. With sel.All the key set is
// taken from rows itself, so newly loaded campaigns are always included.
// rows is never modified.
func Filter[T any](rows []T, key func(T) string, sel models.Selection) []T {
	offers := sel.Offers
	if sel.All {
		offers = distinct(rows, key)
	}
	set := make(map[string]struct{}, len(offers))
	for _, o := range offers {
		set[o] = struct{}{}
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if _, ok := set[key(r)]; ok {
			out = append(out, r)
		}
	}
	return out
}

func FilterActivations(t models.ActivationTable, sel models.Selection) models.ActivationTable {
	return models.ActivationTable{
		Header: t.Header,
		Rows:   Filter(t.Rows, activationOffer, sel),
	}
}

func FilterBroadcast(t models.BroadcastTable, sel models.Selection) models.BroadcastTable {
	return models.BroadcastTable{Rows: Filter(t.Rows, broadcastOffer, sel)}
}

// DistinctOffers lists the activation offers in order of first appearance.
func DistinctOffers(t models.ActivationTable) []string {
	return distinct(t.Rows, activationOffer)
}

func distinct[T any](rows []T, key func(T) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func activationOffer(a models.Activation) string { return a.Offer }
func broadcastOffer(b models.Broadcast) string   { return b.Offer }
