package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

func f(v float64) *float64 { return &v }

func coin(id, sym string, price float64, h1, h24, d7 *float64) models.Coin {
	return models.Coin{
		ID:                id,
		Symbol:            sym,
		Name:              id,
		CurrentPrice:      price,
		PriceChangePct1h:  h1,
		PriceChangePct24h: h24,
		PriceChangePct7d:  d7,
	}
}

func ids(rows []models.CoinRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ── Filter ──

func TestFilterCoins(t *testing.T) {
	coins := []models.Coin{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
		{ID: "wrapped-bitcoin", Symbol: "WBTC", Name: "Wrapped Bitcoin"},
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
		{ID: "tether", Symbol: "USDT", Name: "Tether"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"bitcoin", "wrapped-bitcoin", "ethereum", "tether"}},
		{"   ", []string{"bitcoin", "wrapped-bitcoin", "ethereum", "tether"}},
		{"btc", []string{"bitcoin", "wrapped-bitcoin"}},
		{"  ETH ", []string{"ethereum"}},
		{"wrapped", []string{"wrapped-bitcoin"}},
		{"eth", []string{"ethereum", "tether"}},
		{"doge", []string{}},
	}
	for _, tt := range tests {
		got := FilterCoins(coins, tt.query)
		var gotIDs []string
		for _, c := range got {
			gotIDs = append(gotIDs, c.ID)
		}
		if len(gotIDs) == 0 && len(tt.want) == 0 {
			continue
		}
		if !equalStrings(gotIDs, tt.want) {
			t.Errorf("FilterCoins(%q) = %v, want %v", tt.query, gotIDs, tt.want)
		}
	}
}

// ── Movers ──

func TestRankMovers(t *testing.T) {
	coins := []models.Coin{
		coin("a", "a", 1, nil, f(3), nil),
		coin("b", "b", 1, nil, nil, nil),
		coin("c", "c", 1, nil, f(-8), nil),
		coin("d", "d", 1, nil, f(12), nil),
		coin("e", "e", 1, nil, f(0), nil),
		coin("f", "f", 1, nil, f(-1), nil),
		coin("g", "g", 1, nil, f(5), nil),
		coin("h", "h", 1, nil, f(-20), nil),
	}

	m := RankMovers(coins, 5, NewFavoriteSet([]string{"d"}))

	if got, want := ids(m.Gainers), []string{"d", "g", "a", "e", "f"}; !equalStrings(got, want) {
		t.Errorf("Gainers = %v, want %v", got, want)
	}
	if got, want := ids(m.Losers), []string{"h", "c", "f", "e", "a"}; !equalStrings(got, want) {
		t.Errorf("Losers = %v, want %v", got, want)
	}
	if m.Universe != 8 {
		t.Errorf("Universe = %d, want 8", m.Universe)
	}
	if !m.Gainers[0].IsFavorite || m.Gainers[1].IsFavorite {
		t.Error("favorite flag not applied")
	}
}

func TestRankMoversNilLast(t *testing.T) {
	coins := []models.Coin{
		coin("nil1", "x", 1, nil, nil, nil),
		coin("pos", "p", 1, nil, f(2), nil),
		coin("neg", "n", 1, nil, f(-2), nil),
		coin("nil2", "y", 1, nil, nil, nil),
	}
	m := RankMovers(coins, 5, nil)

	if got, want := ids(m.Gainers), []string{"pos", "neg", "nil1", "nil2"}; !equalStrings(got, want) {
		t.Errorf("Gainers = %v, want %v", got, want)
	}
	if got, want := ids(m.Losers), []string{"neg", "pos", "nil1", "nil2"}; !equalStrings(got, want) {
		t.Errorf("Losers = %v, want %v", got, want)
	}
}

func TestRankMoversDoesNotMutateInput(t *testing.T) {
	coins := []models.Coin{
		coin("a", "a", 1, nil, f(1), nil),
		coin("b", "b", 1, nil, f(9), nil),
	}
	RankMovers(coins, 5, nil)
	if coins[0].ID != "a" || coins[1].ID != "b" {
		t.Error("input slice reordered")
	}
}

func TestRankMoversEmpty(t *testing.T) {
	m := RankMovers(nil, 5, nil)
	if len(m.Gainers) != 0 || len(m.Losers) != 0 || m.Universe != 0 {
		t.Errorf("unexpected movers for empty input: %+v", m)
	}
}

// ── Ideas ──

func TestScreenMembership(t *testing.T) {
	tests := []struct {
		name          string
		h1, h24, d7   *float64
		mom, dip, rev bool
	}{
		{"momentum", f(0.5), f(6), f(12), true, false, false},
		{"momentum boundary", f(0.01), f(5), f(10), true, false, false},
		{"flat 1h is not momentum", f(0), f(6), f(12), false, false, false},
		{"missing 1h is not momentum", nil, f(6), f(12), false, false, false},
		{"dip", nil, f(-7), f(-0.1), false, true, false},
		{"dip needs negative 7d", nil, f(-9), f(0), false, false, false},
		{"reversal", f(1), f(-0.5), f(-2.9), false, false, true},
		{"reversal 7d boundary", f(1), f(-0.5), f(-3), false, false, false},
		{"dip and reversal overlap", f(2), f(-8), f(-1), false, true, true},
		{"legacy 7d", f(0.5), f(6), nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := coin("x", "x", 10, tt.h1, tt.h24, tt.d7)
			if got := IsMomentum(c); got != tt.mom {
				t.Errorf("IsMomentum = %v, want %v", got, tt.mom)
			}
			if got := IsDip(c); got != tt.dip {
				t.Errorf("IsDip = %v, want %v", got, tt.dip)
			}
			if got := IsReversal(c); got != tt.rev {
				t.Errorf("IsReversal = %v, want %v", got, tt.rev)
			}
		})
	}
}

func TestMomentumUsesLegacy7d(t *testing.T) {
	c := coin("x", "x", 10, f(0.5), f(6), nil)
	c.LegacyChangePct7d = f(12)
	if !IsMomentum(c) {
		t.Error("legacy 7d field should be used when in-currency 7d is missing")
	}
}

func TestScreenIdeasTradableOnly(t *testing.T) {
	coins := []models.Coin{
		coin("listed", "LST", 100, f(0.5), f(6), f(12)),
		coin("unlisted", "UNL", 100, f(0.5), f(6), f(12)),
		coin("dipper", "DIP", 100, nil, f(-10), f(-5)),
	}
	board := ScreenIdeas(coins, models.NewTradableSet("lst", "DIP"), 8)

	if len(board.Momentum) != 1 || board.Momentum[0].Coin.ID != "listed" {
		t.Errorf("Momentum = %+v", board.Momentum)
	}
	if len(board.Dip) != 1 || board.Dip[0].Coin.ID != "dipper" {
		t.Errorf("Dip = %+v", board.Dip)
	}
	for _, list := range [][]models.Idea{board.Momentum, board.Dip, board.Reversal} {
		for _, idea := range list {
			if idea.Coin.ID == "unlisted" {
				t.Error("non-tradable coin in idea screen")
			}
		}
	}
}

func TestScreenIdeasEmptyTradable(t *testing.T) {
	coins := []models.Coin{coin("a", "A", 1, f(0.5), f(6), f(12))}
	board := ScreenIdeas(coins, nil, 8)
	if len(board.Momentum)+len(board.Dip)+len(board.Reversal) != 0 {
		t.Errorf("expected no ideas without a tradable set, got %+v", board)
	}
}

func TestScreenIdeasCap(t *testing.T) {
	var coins []models.Coin
	var syms []string
	for i := 0; i < 12; i++ {
		sym := string(rune('a' + i))
		coins = append(coins, coin(sym, sym, 1, f(1), f(10), f(20)))
		syms = append(syms, sym)
	}
	board := ScreenIdeas(coins, models.NewTradableSet(syms...), 8)
	if len(board.Momentum) != 8 {
		t.Fatalf("Momentum len = %d, want 8", len(board.Momentum))
	}
	if board.Momentum[0].Coin.ID != "a" || board.Momentum[7].Coin.ID != "h" {
		t.Error("cap should keep listing order")
	}
}

func TestNewIdeaPricing(t *testing.T) {
	tests := []struct {
		screen models.Screen
		action models.Action
		tp, sl string
	}{
		{models.ScreenMomentum, models.ActionLong, "110", "95"},
		{models.ScreenDip, models.ActionShort, "90", "105"},
	}
	for _, tt := range tests {
		idea := NewIdea(tt.screen, coin("x", "x", 100, f(1.5), f(-2), nil))
		if idea.Action != tt.action {
			t.Errorf("%s action = %s, want %s", tt.screen, idea.Action, tt.action)
		}
		if idea.TakeProfit == nil || !idea.TakeProfit.Equal(decimal.RequireFromString(tt.tp)) {
			t.Errorf("%s TP = %v, want %s", tt.screen, idea.TakeProfit, tt.tp)
		}
		if idea.StopLoss == nil || !idea.StopLoss.Equal(decimal.RequireFromString(tt.sl)) {
			t.Errorf("%s SL = %v, want %s", tt.screen, idea.StopLoss, tt.sl)
		}
		if idea.RewardRisk == nil || idea.RewardRisk.String() != "2" {
			t.Errorf("%s R/R = %v, want 2", tt.screen, idea.RewardRisk)
		}
		if idea.Change1h != 1.5 || idea.Change24h != -2 {
			t.Errorf("changes: %v / %v", idea.Change1h, idea.Change24h)
		}
	}
}

func TestNewIdeaWait(t *testing.T) {
	idea := NewIdea(models.ScreenReversal, coin("x", "x", 100, nil, nil, nil))
	if idea.Action != models.ActionWait {
		t.Errorf("action = %s", idea.Action)
	}
	if idea.TakeProfit != nil || idea.StopLoss != nil || idea.RewardRisk != nil {
		t.Error("Wait ideas carry no TP/SL/R:R")
	}
}

func TestNewIdeaZeroPrice(t *testing.T) {
	idea := NewIdea(models.ScreenMomentum, coin("x", "x", 0, nil, nil, nil))
	if idea.RewardRisk != nil {
		t.Errorf("zero stop distance should give nil R/R, got %v", idea.RewardRisk)
	}
}

func TestRewardRiskRounding(t *testing.T) {
	price := decimal.NewFromInt(100)
	rr := RewardRisk(price, decimal.NewFromInt(110), decimal.NewFromInt(97))
	if rr == nil || rr.String() != "3.33" {
		t.Errorf("R/R = %v, want 3.33", rr)
	}
}

// ── Favorites / view ──

func TestFavoriteCoins(t *testing.T) {
	coins := []models.Coin{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	if got := FavoriteCoins(coins, nil); got != nil {
		t.Errorf("no favorites should yield nil, got %v", got)
	}
	if got := FavoriteCoins(coins, NewFavoriteSet([]string{"zzz"})); got != nil {
		t.Errorf("no matches should yield nil, got %v", got)
	}
	got := FavoriteCoins(coins, NewFavoriteSet([]string{"c", "a"}))
	if want := []string{"a", "c"}; !equalStrings(ids(got), want) {
		t.Errorf("FavoriteCoins = %v, want %v (listing order)", ids(got), want)
	}
}

func TestBuildView(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := &models.Snapshot{
		Fiat: "eur",
		Global: models.GlobalStats{
			ActiveCryptocurrencies: 10,
			TotalMarketCap:         map[string]float64{"eur": 2e12, "usd": 2.2e12},
			TotalVolume:            map[string]float64{"eur": 5e10},
			MarketCapPercentage:    map[string]float64{"btc": 51},
		},
		Coins: []models.Coin{
			coin("bitcoin", "BTC", 60000, f(0.5), f(6), f(12)),
			coin("ethereum", "ETH", 3000, f(0.1), f(-1), f(2)),
			coin("solana", "SOL", 150, f(1.2), f(-0.5), f(-1)),
		},
		Trending:  []models.TrendingItem{{ID: "solana"}, {ID: "pepe"}},
		FetchedAt: now,
	}

	v := BuildView(snap, " BTC ", []string{"ethereum", "solana"}, models.NewTradableSet("btc", "sol"), Limits{Movers: 5, Ideas: 8})

	if v.Fiat != "eur" || v.Filter != "btc" || !v.FetchedAt.Equal(now) {
		t.Errorf("header: %+v", v)
	}
	if v.Global.MarketCap != 2e12 || v.Global.Volume24h != 5e10 || v.Global.BTCDominance == nil || *v.Global.BTCDominance != 51 {
		t.Errorf("Global = %+v", v.Global)
	}
	if v.Movers.Universe != 1 || len(v.Movers.Gainers) != 1 {
		t.Errorf("movers should use filtered list: %+v", v.Movers)
	}
	if len(v.Ideas.Momentum) != 1 || len(v.Ideas.Reversal) != 0 {
		t.Errorf("ideas should use filtered list: %+v", v.Ideas)
	}
	if want := []string{"ethereum", "solana"}; !equalStrings(ids(v.Favorites), want) {
		t.Errorf("favorites should use full list: %v", ids(v.Favorites))
	}
	if len(v.Trending) != 2 || v.Trending[0].Position != 1 || !v.Trending[0].IsFavorite || v.Trending[1].IsFavorite {
		t.Errorf("Trending = %+v", v.Trending)
	}
}
