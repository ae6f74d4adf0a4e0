package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Fhatal-Studios/FhatalX/internal/config"
	"github.com/Fhatal-Studios/FhatalX/internal/infra"
	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// CoinGecko fetches market listings, global stats and the trending list.
type CoinGecko struct {
	client  *Client
	baseURL string
	apiKey  string
	perPage int
	limiter *infra.RateLimiter
}

// NewCoinGecko creates a CoinGecko source from the market configuration.
func NewCoinGecko(client *Client, cfg config.MarketConfig) *CoinGecko {
	g := &CoinGecko{
		client:  client,
		baseURL: strings.TrimRight(cfg.CoinGeckoURL, "/"),
		apiKey:  cfg.APIKey,
		perPage: cfg.PerPage,
	}
	if cfg.RateLimit > 0 {
		g.limiter = infra.NewRateLimiter(cfg.RateLimit, time.Second/time.Duration(cfg.RateLimit))
	}
	if g.perPage <= 0 {
		g.perPage = 200
	}
	return g
}

// Name returns the data source name.
func (g *CoinGecko) Name() string { return "CoinGecko" }

func (g *CoinGecko) headers() map[string]string {
	if g.apiKey == "" {
		return nil
	}
	return map[string]string{"x-cg-demo-api-key": g.apiKey}
}

func (g *CoinGecko) get(ctx context.Context, path string, q url.Values, v any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	u := g.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return g.client.getJSON(ctx, u, g.headers(), v)
}

// Markets returns the first page of coins by market cap, priced in fiat,
// with 1h/24h/7d/30d change percentages.
func (g *CoinGecko) Markets(ctx context.Context, fiat string) ([]models.Coin, error) {
	q := url.Values{}
	q.Set("vs_currency", strings.ToLower(fiat))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(g.perPage))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	q.Set("price_change_percentage", "1h,24h,7d,30d")

	var coins []models.Coin
	if err := g.get(ctx, "/coins/markets", q, &coins); err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}
	return coins, nil
}

type globalResponse struct {
	Data models.GlobalStats `json:"data"`
}

// Global returns the market-wide summary.
func (g *CoinGecko) Global(ctx context.Context) (*models.GlobalStats, error) {
	var resp globalResponse
	if err := g.get(ctx, "/global", nil, &resp); err != nil {
		return nil, fmt.Errorf("coingecko global: %w", err)
	}
	return &resp.Data, nil
}

type trendingResponse struct {
	Coins []struct {
		Item models.TrendingItem `json:"item"`
	} `json:"coins"`
}

// Trending returns the trending coins in provider order.
func (g *CoinGecko) Trending(ctx context.Context) ([]models.TrendingItem, error) {
	var resp trendingResponse
	if err := g.get(ctx, "/search/trending", nil, &resp); err != nil {
		return nil, fmt.Errorf("coingecko trending: %w", err)
	}
	items := make([]models.TrendingItem, 0, len(resp.Coins))
	for _, c := range resp.Coins {
		items = append(items, c.Item)
	}
	return items, nil
}
