// Package analysis derives the dashboard projections from a market snapshot:
// text filtering, movers ranking, idea screens, favorites and the combined view.
// Every function here is pure.
package analysis

import (
	"strings"

	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// NormalizeQuery trims and lower-cases a filter query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// FilterCoins keeps coins whose id, symbol or name contains the query,
// case-insensitively. An empty query returns coins unchanged.
func FilterCoins(coins []models.Coin, query string) []models.Coin {
	q := NormalizeQuery(query)
	if q == "" {
		return coins
	}
	out := make([]models.Coin, 0, len(coins))
	for _, c := range coins {
		if strings.Contains(c.ID, q) ||
			strings.Contains(c.LowerSymbol(), q) ||
			strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
