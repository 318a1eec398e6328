package feed

import (
	"sort"

	"driza/models"
)

// NormalRowCount is how many horizontal rows the normal tier is spread over.
const NormalRowCount = 3

// NoOrganization is the tag carried by listings without an affiliation.
const NoOrganization = "NO"

// Compose partitions listings into display tiers and distributes the normal
// tier over three round-robin rows. It is a pure function over an
// already-fetched snapshot: no listing appears twice, every input listing
// lands in exactly one group of its tier, and the output is deterministic
// for a given input set.
//
// With orgOnly set, unaffiliated listings are dropped from the normal tier
// before partitioning; the promoted tiers are never filtered.
func Compose(listings []models.Listing, orgOnly bool) models.FeedView {
	var superPromoted, promoted, normal []models.Listing
	for _, l := range listings {
		switch l.Tier() {
		case models.EstadoSuperPromoted:
			superPromoted = append(superPromoted, l)
		case models.EstadoPromoted:
			promoted = append(promoted, l)
		default:
			if orgOnly && l.Organization == NoOrganization {
				continue
			}
			normal = append(normal, l)
		}
	}

	sortTier(superPromoted)
	sortTier(promoted)
	sortTier(normal)

	rows := make([][]models.Listing, NormalRowCount)
	for i := range rows {
		rows[i] = []models.Listing{}
	}
	for i, l := range normal {
		rows[i%NormalRowCount] = append(rows[i%NormalRowCount], l)
	}

	if superPromoted == nil {
		superPromoted = []models.Listing{}
	}
	if promoted == nil {
		promoted = []models.Listing{}
	}

	return models.FeedView{
		SuperPromoted: superPromoted,
		Promoted:      promoted,
		NormalRows:    rows,
	}
}

// sortTier orders newest first; ties fall back to id so that concurrent
// inserts with equal timestamps keep a stable order.
func sortTier(tier []models.Listing) {
	sort.Slice(tier, func(i, j int) bool {
		if tier[i].CreatedAt != tier[j].CreatedAt {
			return tier[i].CreatedAt > tier[j].CreatedAt
		}
		return tier[i].ID < tier[j].ID
	})
}
