package wikipedia

import (
	"context"
	"fmt"
	"sort"
	"time"

	"WikiSeer/internal/domain/models"
	drepo "WikiSeer/internal/domain/repository"
	svccache "WikiSeer/internal/service/cache"
	pkghttp "WikiSeer/pkg/http"
	applogger "WikiSeer/pkg/logger"
	"WikiSeer/pkg/util"
)

// Client fetches daily page-view counts from the MediaWiki Action API.
// Results are cached per title for a short TTL so queue workers retrying a
// title do not hammer the upstream API.
type Client struct {
	http     *pkghttp.Client
	apiURL   string
	cache    *svccache.TTLCache
	cacheTTL time.Duration
	l        *applogger.Logger
}

type Option func(*Client)

// WithAPIURL overrides the MediaWiki API endpoint.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = pkghttp.NewClient(pkghttp.WithTimeout(d))
		}
	}
}

// WithCacheTTL sets how long fetched counts are reused before re-fetching.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = d
	}
}

// New creates a Wikipedia page-view source.
func New(opts ...Option) *Client {
	c := &Client{
		http:     pkghttp.NewClient(pkghttp.WithTimeout(15 * time.Second)),
		apiURL:   "https://en.wikipedia.org/w/api.php",
		cache:    svccache.NewTTLCache(),
		cacheTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

// pageViewsResponse mirrors the Action API query result. Counts can be null
// for days the API has no data; those entries carry no information and are
// skipped rather than stored as zero.
type pageViewsResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string            `json:"title"`
			Missing   string            `json:"missing"`
			PageViews map[string]*int64 `json:"pageviews"`
		} `json:"pages"`
	} `json:"query"`
}

// Fetch returns the title's daily counts sorted ascending by date.
func (c *Client) Fetch(ctx context.Context, title string) ([]models.SeriesPoint, error) {
	cacheKey := "wikipedia:" + title
	if v, ok := c.cache.Get(cacheKey); ok {
		if points, ok := v.([]models.SeriesPoint); ok {
			return points, nil
		}
	}

	var resp pageViewsResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.apiURL,
		QueryParams: map[string][]string{
			"action": {"query"},
			"format": {"json"},
			"titles": {title},
			"prop":   {"pageviews"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch pageviews for %q: %w", title, err)
	}

	points := make([]models.SeriesPoint, 0, 64)
	for _, page := range resp.Query.Pages {
		for day, count := range page.PageViews {
			if count == nil {
				continue
			}
			date, ok := util.ParseDate(day)
			if !ok {
				if c.l != nil {
					c.l.Warn("skipping unparseable date",
						applogger.String("title", title),
						applogger.String("date", day))
				}
				continue
			}
			points = append(points, models.SeriesPoint{
				Title: title,
				Date:  date,
				Views: *count,
			})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	if c.cacheTTL > 0 {
		c.cache.Set(cacheKey, points, c.cacheTTL)
	}
	if c.l != nil {
		c.l.Debug("fetched pageviews",
			applogger.String("title", title),
			applogger.Int("points", len(points)))
	}
	return points, nil
}

var _ drepo.PageViewSource = (*Client)(nil)
