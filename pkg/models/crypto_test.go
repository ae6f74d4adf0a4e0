package models

import (
	"encoding/json"
	"testing"
)

func TestCoinDecodeMissingChanges(t *testing.T) {
	raw := `{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":63000.5,
		"price_change_percentage_24h":2.5,
		"price_change_percentage_7d":9.1}`
	var c Coin
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Change1h(); ok {
		t.Error("1h change should be absent")
	}
	if v, ok := c.Change24h(); !ok || v != 2.5 {
		t.Errorf("Change24h = %v, %v", v, ok)
	}
	if v, ok := c.Change7d(); !ok || v != 9.1 {
		t.Errorf("Change7d should fall back to the legacy field, got %v, %v", v, ok)
	}
}

func TestCoinChange7dPrefersInCurrency(t *testing.T) {
	in, legacy := 4.0, 9.0
	c := Coin{PriceChangePct7d: &in, LegacyChangePct7d: &legacy}
	if v, _ := c.Change7d(); v != 4 {
		t.Errorf("Change7d = %v, want 4", v)
	}
}

func TestGlobalStatsLookups(t *testing.T) {
	g := GlobalStats{
		TotalMarketCap:      map[string]float64{"usd": 100},
		TotalVolume:         map[string]float64{"usd": 7},
		MarketCapPercentage: map[string]float64{"btc": 52.1},
	}
	if g.MarketCap("USD") != 100 || g.Volume("usd") != 7 {
		t.Error("fiat lookups should be case-insensitive")
	}
	if g.MarketCap("eur") != 0 {
		t.Error("missing fiat should be 0")
	}
	if d := g.BTCDominance(); d == nil || *d != 52.1 {
		t.Errorf("BTCDominance = %v", d)
	}
	if (GlobalStats{}).BTCDominance() != nil {
		t.Error("BTCDominance should be nil when absent")
	}
}

func TestTradableSet(t *testing.T) {
	s := NewTradableSet("BTC", "eth", "")
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	if !s.Has("btc") || !s.Has("ETH") || s.Has("sol") {
		t.Error("Has should be case-insensitive membership")
	}
	var empty TradableSet
	if empty.Has("btc") || empty.Len() != 0 {
		t.Error("nil set should be empty")
	}
}
