package analysis

import (
	"sort"

	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// DefaultMoversLimit is the number of gainers and losers shown.
const DefaultMoversLimit = 5

// RankMovers returns the top gainers (24h change descending) and top losers
// (ascending), limit each. Coins without a 24h change sort after every coin
// that has one, in both lists. Ties keep listing order.
func RankMovers(coins []models.Coin, limit int, favs FavoriteSet) models.Movers {
	if limit <= 0 {
		limit = DefaultMoversLimit
	}

	gainers := sortBy24h(coins, func(a, b float64) bool { return a > b })
	losers := sortBy24h(coins, func(a, b float64) bool { return a < b })

	return models.Movers{
		Gainers:  toRows(head(gainers, limit), favs),
		Losers:   toRows(head(losers, limit), favs),
		Universe: len(coins),
	}
}

func sortBy24h(coins []models.Coin, before func(a, b float64) bool) []models.Coin {
	sorted := make([]models.Coin, len(coins))
	copy(sorted, coins)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aok := sorted[i].Change24h()
		b, bok := sorted[j].Change24h()
		switch {
		case aok && bok:
			return before(a, b)
		case aok:
			return true
		default:
			return false
		}
	})
	return sorted
}

func head(coins []models.Coin, n int) []models.Coin {
	if len(coins) > n {
		return coins[:n]
	}
	return coins
}

func toRows(coins []models.Coin, favs FavoriteSet) []models.CoinRow {
	rows := make([]models.CoinRow, len(coins))
	for i, c := range coins {
		rows[i] = models.CoinRow{Coin: c, IsFavorite: favs.Has(c.ID)}
	}
	return rows
}
