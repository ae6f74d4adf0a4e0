package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fhatal-Studios/FhatalX/internal/config"
	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// Binance resolves the set of base assets listed on the exchange.
type Binance struct {
	client  *Client
	baseURL string
}

// NewBinance creates a Binance source. Every call hits the exchange; the
// dashboard keeps the session's set.
func NewBinance(client *Client, cfg config.ExchangeConfig) *Binance {
	return &Binance{
		client:  client,
		baseURL: strings.TrimRight(cfg.BinanceURL, "/"),
	}
}

// Name returns the data source name.
func (b *Binance) Name() string { return "Binance" }

type exchangeInfo struct {
	Symbols []struct {
		Symbol    string `json:"symbol"`
		BaseAsset string `json:"baseAsset"`
	} `json:"symbols"`
}

// TradableSymbols returns every base asset appearing in exchangeInfo,
// lower-cased. A failed fetch returns an empty set with the error.
func (b *Binance) TradableSymbols(ctx context.Context) (models.TradableSet, error) {
	var info exchangeInfo
	if err := b.client.getJSON(ctx, b.baseURL+"/api/v3/exchangeInfo", nil, &info); err != nil {
		return models.TradableSet{}, fmt.Errorf("binance exchangeInfo: %w", err)
	}

	set := make(models.TradableSet, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.BaseAsset != "" {
			set[strings.ToLower(s.BaseAsset)] = struct{}{}
		}
	}
	return set, nil
}
