package manticore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lectio-dev/lectio/pkg/domain/interfaces"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/lectio-dev/lectio/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/patrickmn/go-cache"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 16 << 20
)

var (
	// ErrUnavailable covers transport failures, timeouts, non-2xx status and unparsable bodies
	ErrUnavailable = goerr.New("search backend unavailable")

	// ErrNotConfigured is returned when no backend URL was given
	ErrNotConfigured = goerr.New("search backend URL is not configured")
)

// Client queries a Manticore search API. The endpoint takes the query as the "text"
// parameter and answers with a JSON array of passages, possibly surrounded by other text.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	cache      *cache.Cache
}

var _ interfaces.SearchClient = &Client{}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each backend request
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCache keeps results of identical searches for ttl. A zero ttl disables caching.
func WithCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// New creates a client for the given endpoint URL
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, goerr.Wrap(err, "invalid search backend URL", goerr.V("url", endpoint))
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func cacheKey(query string, filter model.SearchFilter) string {
	return strings.Join([]string{
		query,
		strings.Join(filter.Authors, ","),
		strings.Join(filter.Works, ","),
	}, "\x00")
}

// Search implements interfaces.SearchClient
func (c *Client) Search(ctx context.Context, query string, topK int, filter model.SearchFilter) ([]*model.Record, error) {
	key := cacheKey(query, filter)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			logging.From(ctx).Debug("search cache hit", "query", query)
			return truncate(cached.([]*model.Record), topK), nil
		}
	}

	records, err := c.fetch(ctx, query, filter)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(key, records, cache.DefaultExpiration)
	}

	logging.From(ctx).Info("search completed",
		"query", query,
		"returned", len(records),
		"top_k", topK,
	)
	return truncate(records, topK), nil
}

func truncate(records []*model.Record, topK int) []*model.Record {
	if topK > 0 && len(records) > topK {
		records = records[:topK]
	}
	out := make([]*model.Record, len(records))
	copy(out, records)
	return out
}

func (c *Client) fetch(ctx context.Context, query string, filter model.SearchFilter) ([]*model.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("text", query)
	if len(filter.Authors) > 0 {
		params.Set("authors", strings.Join(filter.Authors, ","))
	}
	if len(filter.Works) > 0 {
		params.Set("works", strings.Join(filter.Works, ","))
	}

	reqURL := c.endpoint
	if strings.Contains(reqURL, "?") {
		reqURL += "&" + params.Encode()
	} else {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build search request", goerr.V("url", c.endpoint))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(ErrUnavailable, "search request failed",
			goerr.V("query", query), goerr.V("cause", err.Error()))
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, goerr.Wrap(ErrUnavailable, "failed to read search response",
			goerr.V("query", query), goerr.V("cause", err.Error()))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.Wrap(ErrUnavailable, "search backend returned error status",
			goerr.V("status", resp.StatusCode), goerr.V("body", preview(body)))
	}

	return parseRecords(body)
}

// parseRecords extracts the JSON array between the first '[' and the last ']' of the body
// and drops items without text.
func parseRecords(body []byte) ([]*model.Record, error) {
	text := string(body)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, goerr.Wrap(ErrUnavailable, "search response does not contain a JSON array",
			goerr.V("body", preview(body)))
	}

	var items []*model.Record
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil, goerr.Wrap(ErrUnavailable, "failed to parse search response",
			goerr.V("cause", err.Error()), goerr.V("body", preview(body)))
	}

	records := make([]*model.Record, 0, len(items))
	for _, item := range items {
		if item == nil || item.Text == "" {
			continue
		}
		records = append(records, item)
	}
	return records, nil
}

func preview(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
