// Package models defines the core data structures used throughout FhatalX.
package models

import (
	"strings"
	"time"
)

// Coin is one row of the provider's market listing, priced in the fiat the
// listing was requested in. Percentage fields are nil when the provider omits them.
type Coin struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	CurrentPrice  float64 `json:"current_price"`
	MarketCap     float64 `json:"market_cap"`
	MarketCapRank *int    `json:"market_cap_rank"`
	TotalVolume   float64 `json:"total_volume"`

	PriceChangePct1h  *float64 `json:"price_change_percentage_1h_in_currency"`
	PriceChangePct24h *float64 `json:"price_change_percentage_24h"`
	PriceChangePct7d  *float64 `json:"price_change_percentage_7d_in_currency"`
	PriceChangePct30d *float64 `json:"price_change_percentage_30d_in_currency"`

	// Legacy 7d field, only consulted when the in-currency variant is absent.
	LegacyChangePct7d *float64 `json:"price_change_percentage_7d,omitempty"`
}

// Change1h returns the 1h change and whether the provider supplied it.
func (c Coin) Change1h() (float64, bool) { return deref(c.PriceChangePct1h) }

// Change24h returns the 24h change and whether the provider supplied it.
func (c Coin) Change24h() (float64, bool) { return deref(c.PriceChangePct24h) }

// Change7d returns the 7d change, falling back to the legacy field.
func (c Coin) Change7d() (float64, bool) {
	if c.PriceChangePct7d != nil {
		return *c.PriceChangePct7d, true
	}
	return deref(c.LegacyChangePct7d)
}

// Change30d returns the 30d change and whether the provider supplied it.
func (c Coin) Change30d() (float64, bool) { return deref(c.PriceChangePct30d) }

// LowerSymbol returns the symbol lower-cased, as used for exchange lookups.
func (c Coin) LowerSymbol() string { return strings.ToLower(c.Symbol) }

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// GlobalStats is the provider's market-wide summary. Monetary maps are keyed
// by lower-case fiat code.
type GlobalStats struct {
	ActiveCryptocurrencies int                `json:"active_cryptocurrencies"`
	TotalMarketCap         map[string]float64 `json:"total_market_cap"`
	TotalVolume            map[string]float64 `json:"total_volume"`
	MarketCapPercentage    map[string]float64 `json:"market_cap_percentage"`
}

// MarketCap returns the total market cap in the given fiat, or 0.
func (g GlobalStats) MarketCap(fiat string) float64 {
	return g.TotalMarketCap[strings.ToLower(fiat)]
}

// Volume returns the total 24h volume in the given fiat, or 0.
func (g GlobalStats) Volume(fiat string) float64 {
	return g.TotalVolume[strings.ToLower(fiat)]
}

// BTCDominance returns BTC's share of total market cap in percent, or nil.
func (g GlobalStats) BTCDominance() *float64 {
	v, ok := g.MarketCapPercentage["btc"]
	if !ok {
		return nil
	}
	return &v
}

// TrendingItem is one entry of the provider's trending list. Order is significant.
type TrendingItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Small         string `json:"small"`
	MarketCapRank *int   `json:"market_cap_rank"`
}

// TradableSet is the set of lower-cased base assets tradable on the exchange.
type TradableSet map[string]struct{}

// NewTradableSet builds a set from base-asset symbols in any case.
func NewTradableSet(symbols ...string) TradableSet {
	s := make(TradableSet, len(symbols))
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		s[strings.ToLower(sym)] = struct{}{}
	}
	return s
}

// Has reports whether symbol is tradable, case-insensitively. A nil set has nothing.
func (s TradableSet) Has(symbol string) bool {
	_, ok := s[strings.ToLower(symbol)]
	return ok
}

// Len returns the number of tradable base assets.
func (s TradableSet) Len() int { return len(s) }

// Snapshot is the most recent successfully fetched bundle of global stats,
// coin list, and trending list. It is never mutated after being committed.
type Snapshot struct {
	Fiat      string         `json:"fiat"`
	Global    GlobalStats    `json:"global"`
	Coins     []Coin         `json:"coins"`
	Trending  []TrendingItem `json:"trending"`
	FetchedAt time.Time      `json:"fetched_at"`
}
