package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/Fhatal-Studios/FhatalX/internal/config"
	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// Feed formats.
const (
	FormatRSS2JSON = "rss2json"
	FormatRSS      = "rss"
)

const defaultNewsSource = "News"

// News aggregates headlines from the configured feeds.
type News struct {
	client  *Client
	sources []config.NewsSourceConfig
	limit   int
	parser  *gofeed.Parser

	mu       sync.Mutex
	loaded   bool
	articles []models.NewsArticle
}

// NewNews creates a news source from the news configuration.
func NewNews(client *Client, cfg config.NewsConfig) *News {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	return &News{
		client:  client,
		sources: cfg.Sources,
		limit:   limit,
		parser:  gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (n *News) Name() string { return "News" }

// LoadOnce fetches the feeds on the first call and returns the stored
// result on every later call. Concurrent first callers wait for the one fetch.
// A fetch cut short by ctx is returned but not stored, so the next caller retries.
func (n *News) LoadOnce(ctx context.Context) []models.NewsArticle {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loaded {
		return n.articles
	}

	articles := n.Fetch(ctx)
	if ctx.Err() != nil {
		slog.Debug("news load interrupted, will retry", "error", ctx.Err())
		return articles
	}
	n.articles = articles
	n.loaded = true
	return n.articles
}

// Loaded reports whether LoadOnce has completed.
func (n *News) Loaded() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loaded
}

// Fetch retrieves every feed, then deduplicates by title, sorts newest first
// and truncates to the configured limit. A feed that fails contributes nothing.
func (n *News) Fetch(ctx context.Context) []models.NewsArticle {
	var all []models.NewsArticle
	for _, src := range n.sources {
		var (
			articles []models.NewsArticle
			err      error
		)
		switch src.Format {
		case FormatRSS:
			articles, err = n.fetchRSS(ctx, src)
		default:
			articles, err = n.fetchRSS2JSON(ctx, src)
		}
		if err != nil {
			slog.Debug("news feed skipped", "source", src.Name, "error", err)
			continue
		}
		all = append(all, articles...)
	}
	return MergeArticles(all, n.limit)
}

// MergeArticles drops repeated titles (first occurrence wins), orders by
// publish date descending and keeps at most limit items.
func MergeArticles(articles []models.NewsArticle, limit int) []models.NewsArticle {
	seen := make(map[string]struct{}, len(articles))
	out := make([]models.NewsArticle, 0, len(articles))
	for _, a := range articles {
		if _, dup := seen[a.Title]; dup {
			continue
		}
		seen[a.Title] = struct{}{}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// --- rss2json ---

type rss2jsonItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	GUID        string `json:"guid"`
	PubDate     string `json:"pubDate"`
	Published   string `json:"published"`
	Date        string `json:"date"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

type rss2jsonFeed struct {
	Feed struct {
		Title string `json:"title"`
	} `json:"feed"`
	Items []rss2jsonItem `json:"items"`
}

func (n *News) fetchRSS2JSON(ctx context.Context, src config.NewsSourceConfig) ([]models.NewsArticle, error) {
	body, _, err := n.client.doGet(ctx, src.URL, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name, err)
	}
	feed, err := decodeRSS2JSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, it := range feed.Items {
		link := it.Link
		if link == "" {
			link = it.GUID
		}
		articles = append(articles, models.NewsArticle{
			Title:       it.Title,
			URL:         link,
			Source:      firstNonEmpty(it.Author, feed.Feed.Title, defaultNewsSource),
			Summary:     cleanHTML(it.Description),
			PublishedAt: parseNewsDate(firstNonEmpty(it.PubDate, it.Published, it.Date)),
		})
	}
	return articles, nil
}

// decodeRSS2JSON accepts either the {feed, items} envelope or a bare item array.
func decodeRSS2JSON(raw []byte) (*rss2jsonFeed, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []rss2jsonItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return &rss2jsonFeed{Items: items}, nil
	}
	var feed rss2jsonFeed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

// --- RSS / Atom ---

func (n *News) fetchRSS(ctx context.Context, src config.NewsSourceConfig) ([]models.NewsArticle, error) {
	body, _, err := n.client.doGet(ctx, src.URL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := n.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		var author string
		if item.Author != nil {
			author = item.Author.Name
		}
		a := models.NewsArticle{
			Title:   item.Title,
			URL:     link,
			Source:  firstNonEmpty(author, feed.Title, defaultNewsSource),
			Summary: cleanHTML(item.Description),
		}
		switch {
		case item.PublishedParsed != nil:
			a.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			a.PublishedAt = *item.UpdatedParsed
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// --- Internal helpers ---

var newsDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02",
}

// parseNewsDate parses the date formats seen in feed proxies. Unparseable
// dates yield the zero time, which sorts last.
func parseNewsDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range newsDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
