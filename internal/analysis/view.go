package analysis

import (
	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// FavoriteSet is a lookup of favorite coin ids.
type FavoriteSet map[string]struct{}

// NewFavoriteSet builds a set from coin ids.
func NewFavoriteSet(ids []string) FavoriteSet {
	s := make(FavoriteSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set has nothing.
func (s FavoriteSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// FavoriteCoins returns the coins whose id is a favorite, in listing order.
// It returns nil when none match.
func FavoriteCoins(coins []models.Coin, favs FavoriteSet) []models.CoinRow {
	if len(favs) == 0 {
		return nil
	}
	var rows []models.CoinRow
	for _, c := range coins {
		if favs.Has(c.ID) {
			rows = append(rows, models.CoinRow{Coin: c, IsFavorite: true})
		}
	}
	return rows
}

// TrendingRows numbers the trending list from 1 and flags favorites.
func TrendingRows(items []models.TrendingItem, favs FavoriteSet) []models.TrendingRow {
	rows := make([]models.TrendingRow, len(items))
	for i, it := range items {
		rows[i] = models.TrendingRow{
			TrendingItem: it,
			Position:     i + 1,
			IsFavorite:   favs.Has(it.ID),
		}
	}
	return rows
}

// Summarize resolves global stats for fiat.
func Summarize(g models.GlobalStats, fiat string) models.GlobalSummary {
	return models.GlobalSummary{
		MarketCap:              g.MarketCap(fiat),
		Volume24h:              g.Volume(fiat),
		BTCDominance:           g.BTCDominance(),
		ActiveCryptocurrencies: g.ActiveCryptocurrencies,
	}
}

// Limits caps the projected lists.
type Limits struct {
	Movers int
	Ideas  int
}

// BuildView assembles the dashboard view. Movers and ideas use the filtered
// coin list; favorites always use the full list.
func BuildView(snap *models.Snapshot, filter string, favorites []string, tradable models.TradableSet, limits Limits) models.DashboardView {
	favs := NewFavoriteSet(favorites)
	filtered := FilterCoins(snap.Coins, filter)

	return models.DashboardView{
		Fiat:      snap.Fiat,
		Filter:    NormalizeQuery(filter),
		Global:    Summarize(snap.Global, snap.Fiat),
		Movers:    RankMovers(filtered, limits.Movers, favs),
		Trending:  TrendingRows(snap.Trending, favs),
		Ideas:     ScreenIdeas(filtered, tradable, limits.Ideas),
		Favorites: FavoriteCoins(snap.Coins, favs),
		FetchedAt: snap.FetchedAt,
	}
}
