package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/ArchIntel/internal/config"
	"github.com/turtacn/ArchIntel/internal/infrastructure/database/redis"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// WebSearchOracle resolves office headquarters through an HTTP search
// endpoint.  Answers are cached; the cache is optional.
type WebSearchOracle struct {
	endpoint string
	apiKey   string
	cacheTTL time.Duration
	client   *http.Client
	cache    redis.Cache
	logger   logging.Logger
}

var _ SearchOracle = (*WebSearchOracle)(nil)

// NewWebSearchOracle builds the search oracle.  cache may be nil.
func NewWebSearchOracle(cfg config.WebSearchConfig, cache redis.Cache, log logging.Logger) *WebSearchOracle {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	return &WebSearchOracle{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		cacheTTL: cacheTTL,
		client:   &http.Client{Timeout: timeout},
		cache:    cache,
		logger:   log.Named("oracle.websearch"),
	}
}

// SearchOfficeLocation looks up the headquarters of the named office.
// An empty result is a valid answer, not an error.
func (o *WebSearchOracle) SearchOfficeLocation(ctx context.Context, name string) (*LocationResult, error) {
	if o.endpoint == "" {
		return &LocationResult{}, nil
	}
	key := "websearch:office:" + strings.ToLower(strings.TrimSpace(name))

	if o.cache == nil {
		return o.fetch(ctx, name)
	}

	var result LocationResult
	err := o.cache.GetOrSet(ctx, key, &result, o.cacheTTL, func(ctx context.Context) (interface{}, error) {
		return o.fetch(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (o *WebSearchOracle) fetch(ctx context.Context, name string) (*LocationResult, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s architecture firm headquarters", name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to build search request")
	}
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &LocationResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeSearchUnavailable, "search endpoint returned status %d", resp.StatusCode)
	}

	var result LocationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to decode search answer")
	}
	o.logger.Debug("office location searched",
		logging.String("name", name),
		logging.String("city", result.City),
		logging.String("country", result.Country),
	)
	return &result, nil
}
