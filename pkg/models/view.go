package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Screen names a heuristic idea screen.
type Screen string

const (
	ScreenMomentum Screen = "momentum"
	ScreenDip      Screen = "dip"
	ScreenReversal Screen = "reversal"
)

// Action is the trade direction suggested by a screen.
type Action string

const (
	ActionLong  Action = "Long"
	ActionShort Action = "Short"
	ActionWait  Action = "Wait"
)

// Idea is a coin selected by an idea screen. TakeProfit, StopLoss and
// RewardRisk are nil for Wait ideas.
type Idea struct {
	Screen     Screen           `json:"screen"`
	Action     Action           `json:"action"`
	Coin       Coin             `json:"coin"`
	TakeProfit *decimal.Decimal `json:"take_profit,omitempty"`
	StopLoss   *decimal.Decimal `json:"stop_loss,omitempty"`
	RewardRisk *decimal.Decimal `json:"reward_risk,omitempty"`
	Change1h   float64          `json:"change_1h"`
	Change24h  float64          `json:"change_24h"`
}

// IdeaBoard groups the three screens.
type IdeaBoard struct {
	Momentum []Idea `json:"momentum"`
	Dip      []Idea `json:"dip"`
	Reversal []Idea `json:"reversal"`
}

// CoinRow is a coin annotated for display.
type CoinRow struct {
	Coin
	IsFavorite bool `json:"is_favorite"`
}

// Movers holds the top gainers and losers by 24h change.
type Movers struct {
	Gainers  []CoinRow `json:"gainers"`
	Losers   []CoinRow `json:"losers"`
	Universe int       `json:"universe"` // number of coins ranked
}

// TrendingRow is a trending item with its 1-based position.
type TrendingRow struct {
	TrendingItem
	Position   int  `json:"position"`
	IsFavorite bool `json:"is_favorite"`
}

// GlobalSummary is the global stats resolved for one fiat.
type GlobalSummary struct {
	MarketCap              float64  `json:"market_cap"`
	Volume24h              float64  `json:"volume_24h"`
	BTCDominance           *float64 `json:"btc_dominance"`
	ActiveCryptocurrencies int      `json:"active_cryptocurrencies"`
}

// DashboardView is everything a client needs to render the dashboard.
type DashboardView struct {
	Fiat      string        `json:"fiat"`
	Filter    string        `json:"filter,omitempty"`
	Global    GlobalSummary `json:"global"`
	Movers    Movers        `json:"movers"`
	Trending  []TrendingRow `json:"trending"`
	Ideas     IdeaBoard     `json:"ideas"`
	Favorites []CoinRow     `json:"favorites,omitempty"` // nil when there are none
	FetchedAt time.Time     `json:"fetched_at"`
}

// NewsArticle represents a single news headline.
type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Consent is the stored cookie-consent record.
type Consent struct {
	Necessary bool       `json:"necessary"`
	Analytics bool       `json:"analytics"`
	Marketing bool       `json:"marketing"`
	Timestamp *time.Time `json:"timestamp"`
	Version   int        `json:"version"`
}
