// Package cache stores raw wiki API page bodies in Redis.
//
// Pages for a closed time window do not change between runs, so a rerun over
// the same window can be served from Redis instead of the public API. The
// cache is optional: the client works without it and treats every cache
// failure as a miss.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, 24*time.Hour)
//
//	key := cache.PageKey{
//		Endpoint: "https://en.wikipedia.org/w/api.php",
//		Params:   url.Values{"list": {"recentchanges"}, "rcstart": {"2024-10-31T23:59:59Z"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then manager.Set(ctx, key, cache.NewPageEntry(body))
//	}
//
// # Metrics
//
//   - wikiload_cache_hits_total - cache hits
//   - wikiload_cache_misses_total - cache misses
//   - wikiload_cache_errors_total{operation} - Redis or decoding failures
package cache
