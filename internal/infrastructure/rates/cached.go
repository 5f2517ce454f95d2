package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/comercio/backend/internal/infrastructure/cache"
	"github.com/comercio/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const cacheKey = "rates:bcv"

// CachedProvider decorates a Provider with a read-through cache.
// A fetch failure falls back to the last cached value even when it is
// stale: an old official rate beats no rate at all.
type CachedProvider struct {
	provider Provider
	cache    cache.Cache
	ttl      time.Duration
}

// NewCachedProvider wraps a provider with the given cache and TTL.
func NewCachedProvider(provider Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{provider: provider, cache: c, ttl: ttl}
}

// FetchRates returns cached rates while fresh, refreshing from the
// underlying provider on a miss.
func (p *CachedProvider) FetchRates(ctx context.Context) (*Rates, error) {
	if cached, err := p.cache.Get(ctx, cacheKey); err == nil {
		var rates Rates
		if err := json.Unmarshal(cached, &rates); err == nil {
			return &rates, nil
		}
	}

	rates, err := p.provider.FetchRates(ctx)
	if err != nil {
		// Serve stale on upstream failure. The fresh-path Get above
		// already missed, so look again without the freshness bound.
		if stale := p.staleRates(ctx); stale != nil {
			logger.L(ctx).Warn("serving stale exchange rates",
				zap.Error(err),
				zap.Time("fetched_at", stale.FetchedAt))
			return stale, nil
		}
		return nil, err
	}

	if encoded, err := json.Marshal(rates); err == nil {
		if err := p.cache.Set(ctx, cacheKey, encoded, p.ttl); err != nil {
			logger.L(ctx).Warn("failed to cache exchange rates", zap.Error(err))
		}
		// Keep a long-lived copy for the stale fallback.
		_ = p.cache.Set(ctx, cacheKey+":stale", encoded, 7*24*time.Hour)
	}
	return rates, nil
}

func (p *CachedProvider) staleRates(ctx context.Context) *Rates {
	cached, err := p.cache.Get(ctx, cacheKey+":stale")
	if err != nil {
		return nil
	}
	var rates Rates
	if err := json.Unmarshal(cached, &rates); err != nil {
		return nil
	}
	return &rates
}

var _ Provider = (*CachedProvider)(nil)
