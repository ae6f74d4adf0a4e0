// Package dashboard holds the market snapshot for the selected fiat and
// derives the dashboard views from it.
//
// A refresh fetches global stats, the market listing and the trending list
// concurrently. It commits all three as one snapshot or nothing at all, so
// readers always see the last complete snapshot.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Fhatal-Studios/FhatalX/internal/analysis"
	"github.com/Fhatal-Studios/FhatalX/internal/observability"
	"github.com/Fhatal-Studios/FhatalX/internal/preferences"
	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

var (
	// ErrRefreshFailed wraps any failure of a primary fetch.
	ErrRefreshFailed = errors.New("market data refresh failed")

	// ErrUnsupportedFiat is returned by SetFiat for unknown currency codes.
	ErrUnsupportedFiat = errors.New("unsupported fiat currency")

	// ErrNoSnapshot is returned by readers before the first successful refresh.
	ErrNoSnapshot = errors.New("no market snapshot yet")
)

// MarketSource provides the three primary datasets.
type MarketSource interface {
	Markets(ctx context.Context, fiat string) ([]models.Coin, error)
	Global(ctx context.Context) (*models.GlobalStats, error)
	Trending(ctx context.Context) ([]models.TrendingItem, error)
}

// TradableSource resolves the exchange's tradable base assets.
type TradableSource interface {
	TradableSymbols(ctx context.Context) (models.TradableSet, error)
}

// NewsSource provides the aggregated headlines.
type NewsSource interface {
	LoadOnce(ctx context.Context) []models.NewsArticle
}

// Listener is called after each committed snapshot.
type Listener func(*models.Snapshot)

// Options configures a Dashboard.
type Options struct {
	DefaultFiat    string
	SupportedFiats []string
	Limits         analysis.Limits
}

// Dashboard is the market data aggregator. It is safe for concurrent use.
type Dashboard struct {
	market    MarketSource
	exchange  TradableSource
	news      NewsSource
	favorites *preferences.Favorites

	supported map[string]struct{}
	limits    analysis.Limits

	mu        sync.RWMutex
	fiat      string
	snapshot  *models.Snapshot
	tradable  models.TradableSet
	listeners []Listener
}

// New creates a Dashboard. No data is fetched until Refresh is called.
func New(market MarketSource, exchange TradableSource, news NewsSource, favorites *preferences.Favorites, opts Options) *Dashboard {
	supported := make(map[string]struct{}, len(opts.SupportedFiats))
	for _, f := range opts.SupportedFiats {
		supported[normalizeFiat(f)] = struct{}{}
	}
	fiat := normalizeFiat(opts.DefaultFiat)
	if fiat == "" {
		fiat = "usd"
	}
	supported[fiat] = struct{}{}

	return &Dashboard{
		market:    market,
		exchange:  exchange,
		news:      news,
		favorites: favorites,
		supported: supported,
		limits:    opts.Limits,
		fiat:      fiat,
	}
}

func normalizeFiat(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// OnRefresh registers fn to run after every committed snapshot.
func (d *Dashboard) OnRefresh(fn Listener) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// Fiat returns the selected fiat code.
func (d *Dashboard) Fiat() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fiat
}

// Snapshot returns the current snapshot or ErrNoSnapshot.
func (d *Dashboard) Snapshot() (*models.Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return d.snapshot, nil
}

// Tradable returns the known tradable set, empty until fetched.
func (d *Dashboard) Tradable() models.TradableSet {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tradable
}

// SupportsFiat reports whether code can be selected.
func (d *Dashboard) SupportsFiat(code string) bool {
	_, ok := d.supported[normalizeFiat(code)]
	return ok
}

// SetFiat selects a new fiat and refreshes. The selection sticks even when
// the refresh fails; the previous snapshot then stays in place.
func (d *Dashboard) SetFiat(ctx context.Context, code string) (*models.Snapshot, error) {
	fiat := normalizeFiat(code)
	if !d.SupportsFiat(fiat) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFiat, code)
	}
	d.mu.Lock()
	d.fiat = fiat
	d.mu.Unlock()

	return d.Refresh(ctx)
}

func timed[T any](ctx context.Context, call string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := fn(ctx)
	observability.RecordUpstream(call, time.Since(start).Seconds(), err)
	return v, err
}

// Refresh fetches a new snapshot for the selected fiat and commits it.
// Any primary failure aborts the refresh with ErrRefreshFailed and leaves
// the previous snapshot untouched. The tradable set is fetched while it is
// still empty; its failure only logs.
func (d *Dashboard) Refresh(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()
	fiat := d.Fiat()
	needTradable := d.Tradable().Len() == 0

	var (
		global   *models.GlobalStats
		coins    []models.Coin
		trending []models.TrendingItem
		tradable models.TradableSet
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		global, err = timed(gctx, "global", d.market.Global)
		return err
	})
	g.Go(func() error {
		var err error
		coins, err = timed(gctx, "markets", func(ctx context.Context) ([]models.Coin, error) {
			return d.market.Markets(ctx, fiat)
		})
		return err
	})
	g.Go(func() error {
		var err error
		trending, err = timed(gctx, "trending", d.market.Trending)
		return err
	})
	if needTradable && d.exchange != nil {
		g.Go(func() error {
			set, err := timed(gctx, "exchange_info", d.exchange.TradableSymbols)
			if err != nil {
				slog.Warn("tradable symbols unavailable", "error", err)
			}
			tradable = set
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		observability.RecordRefresh(time.Since(start).Seconds(), err, 0, 0, 0)
		slog.Error("refresh failed", "fiat", fiat, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if global == nil {
		global = &models.GlobalStats{}
	}

	snap := &models.Snapshot{
		Fiat:      fiat,
		Global:    *global,
		Coins:     coins,
		Trending:  trending,
		FetchedAt: time.Now().UTC(),
	}

	d.mu.Lock()
	d.snapshot = snap
	if tradable.Len() > 0 {
		d.tradable = tradable
	}
	tradableCount := d.tradable.Len()
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.Unlock()

	observability.RecordRefresh(time.Since(start).Seconds(), nil, len(coins), len(trending), snap.FetchedAt.Unix())
	observability.UpdateTradableSymbols(tradableCount)
	slog.Info("snapshot refreshed",
		"fiat", fiat,
		"coins", len(coins),
		"trending", len(trending),
		"tradable", tradableCount,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

// RunPeriodic refreshes every interval until ctx is done. Failures are
// logged and the next tick tries again.
func (d *Dashboard) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("periodic refresh failed", "error", err)
			}
		}
	}
}

// --- Views ---

func (d *Dashboard) favoriteIDs() []string {
	if d.favorites == nil {
		return nil
	}
	ids, err := d.favorites.List()
	if err != nil {
		slog.Warn("favorites unavailable", "error", err)
		return nil
	}
	return ids
}

// View builds the full dashboard view for the text filter.
func (d *Dashboard) View(filter string) (models.DashboardView, error) {
	snap, err := d.Snapshot()
	if err != nil {
		return models.DashboardView{}, err
	}
	return analysis.BuildView(snap, filter, d.favoriteIDs(), d.Tradable(), d.limits), nil
}

// Coins returns the snapshot's coins matching filter.
func (d *Dashboard) Coins(filter string) ([]models.Coin, error) {
	snap, err := d.Snapshot()
	if err != nil {
		return nil, err
	}
	return analysis.FilterCoins(snap.Coins, filter), nil
}

// Movers ranks the filtered coins by 24h change.
func (d *Dashboard) Movers(filter string) (models.Movers, error) {
	coins, err := d.Coins(filter)
	if err != nil {
		return models.Movers{}, err
	}
	return analysis.RankMovers(coins, d.limits.Movers, analysis.NewFavoriteSet(d.favoriteIDs())), nil
}

// Ideas runs the idea screens over the filtered coins.
func (d *Dashboard) Ideas(filter string) (models.IdeaBoard, error) {
	coins, err := d.Coins(filter)
	if err != nil {
		return models.IdeaBoard{}, err
	}
	return analysis.ScreenIdeas(coins, d.Tradable(), d.limits.Ideas), nil
}

// Trending returns the numbered trending list.
func (d *Dashboard) Trending() ([]models.TrendingRow, error) {
	snap, err := d.Snapshot()
	if err != nil {
		return nil, err
	}
	return analysis.TrendingRows(snap.Trending, analysis.NewFavoriteSet(d.favoriteIDs())), nil
}

// Favorites returns favorite coins from the unfiltered listing.
func (d *Dashboard) Favorites() ([]models.CoinRow, error) {
	snap, err := d.Snapshot()
	if err != nil {
		return nil, err
	}
	return analysis.FavoriteCoins(snap.Coins, analysis.NewFavoriteSet(d.favoriteIDs())), nil
}

// FavoritesRepo returns the favorites repository, nil when not configured.
func (d *Dashboard) FavoritesRepo() *preferences.Favorites {
	return d.favorites
}

// ToggleFavorite flips id in the favorite set and returns the new membership.
func (d *Dashboard) ToggleFavorite(id string) (bool, []string, error) {
	if d.favorites == nil {
		return false, nil, errors.New("favorites not configured")
	}
	added, ids, err := d.favorites.Toggle(id)
	if err != nil {
		return false, nil, err
	}
	observability.RecordFavoriteToggle(added)
	return added, ids, nil
}

// News returns the aggregated headlines, loading them on first use.
func (d *Dashboard) News(ctx context.Context) []models.NewsArticle {
	if d.news == nil {
		return nil
	}
	articles := d.news.LoadOnce(ctx)
	observability.UpdateNewsArticles(len(articles))
	return articles
}

// Status summarises the aggregator state.
type Status struct {
	Fiat        string    `json:"fiat"`
	HasSnapshot bool      `json:"has_snapshot"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
	Coins       int       `json:"coins"`
	Trending    int       `json:"trending"`
	Tradable    int       `json:"tradable"`
}

// Status returns a point-in-time summary.
func (d *Dashboard) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st := Status{Fiat: d.fiat, Tradable: d.tradable.Len()}
	if d.snapshot != nil {
		st.HasSnapshot = true
		st.FetchedAt = d.snapshot.FetchedAt
		st.Coins = len(d.snapshot.Coins)
		st.Trending = len(d.snapshot.Trending)
	}
	return st
}
