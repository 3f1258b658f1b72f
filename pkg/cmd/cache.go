package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/flowdraft/pkg/cache"
)

// NewCache returns a Redis cache for redis:// and rediss:// URLs, a memory
// cache for an empty URL and a cache that stores nothing for "none".
func NewCache(ctx context.Context, url string, ttl time.Duration) (cache.Cache, error) {
	switch {
	case url == "":
		return cache.NewMemory(ttl), nil
	case url == "none":
		return cache.NewNull(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		c, err := cache.NewRedis(ctx, url, "flowdraft:")
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}

		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache url: %s", url)
	}
}
