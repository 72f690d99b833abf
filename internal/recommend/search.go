package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resourcehub/internal/cache"
	"resourcehub/internal/models"
	"resourcehub/internal/observability"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Suggestion is one external search hit used to pre-fill the catalog form.
type Suggestion struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// SearchClient queries an external search provider.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]Suggestion, error)
}

// HTTPSearchClient talks to a Custom Search style JSON API.
type HTTPSearchClient struct {
	client   *resty.Client
	url      string
	key      string
	engineID string
}

// NewHTTPSearchClient builds a client against url authenticated with key and engine id cx.
func NewHTTPSearchClient(url, key, cx string) *HTTPSearchClient {
	return &HTTPSearchClient{
		client:   resty.New().SetTimeout(10 * time.Second),
		url:      url,
		key:      key,
		engineID: cx,
	}
}

type searchResponse struct {
	Items []Suggestion `json:"items"`
}

func (c *HTTPSearchClient) Search(ctx context.Context, query string) ([]Suggestion, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": c.key,
			"cx":  c.engineID,
			"q":   query,
		}).
		Get(c.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode())
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if body.Items == nil {
		body.Items = []Suggestion{}
	}
	return body.Items, nil
}

// Lookup answers suggestion queries, caching results in Redis when configured.
type Lookup struct {
	client SearchClient
	rdb    *redis.Client
	ttl    time.Duration
}

// NewLookup wires a search client to an optional Redis cache.
func NewLookup(client SearchClient, rdb *redis.Client, ttl time.Duration) *Lookup {
	return &Lookup{client: client, rdb: rdb, ttl: ttl}
}

// Suggest returns suggestions for query. Blank queries are rejected.
func (l *Lookup) Suggest(ctx context.Context, query string) (out []Suggestion, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("search query is required")
	}

	span, ctx := observability.StartClientSpan(ctx, "recommend.Suggest",
		attribute.String("search.query", query))
	defer span.Finish(&err)

	observability.LogServiceCall(ctx, "recommend", "Suggest", map[string]interface{}{
		"query": query,
	})

	err = cache.CacheAside(ctx, l.rdb, cache.SuggestionKey(query), &out, l.ttl, func() error {
		var fetchErr error
		out, fetchErr = l.client.Search(ctx, query)
		return fetchErr
	})
	if err != nil {
		return nil, models.NewUpstreamError("search provider", err)
	}
	return out, nil
}

// Forget drops the cached result for query so the next Suggest asks the provider.
func (l *Lookup) Forget(ctx context.Context, query string) {
	cache.InvalidateSuggestion(ctx, l.rdb, query)
}
