package cache

import (
	"context"
	"encoding/json"

	"github.com/getsentry/sentry-go"
)

// UnmarshalCacheValue converts a cache value to the requested type. The
// in-memory backend stores live objects; the Redis backend stores JSON
// strings, so both representations are handled.
func UnmarshalCacheValue[T any](value interface{}) (*T, bool) {
	if value == nil {
		return nil, false
	}

	if typed, ok := value.(*T); ok {
		return typed, true
	}

	if str, ok := value.(string); ok {
		var result T
		if err := json.Unmarshal([]byte(str), &result); err == nil {
			return &result, true
		}
	}

	return nil, false
}

// StartCacheSpan creates a sentry span for a cache operation, or nil when
// no hub is bound to the context.
func StartCacheSpan(ctx context.Context, cacheName, operation string, params map[string]interface{}) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "cache."+cacheName+"."+operation)
	span.Op = "db.cache"
	span.SetData("cache", cacheName)
	span.SetData("operation", operation)
	for k, v := range params {
		span.SetData(k, v)
	}
	return span
}

// FinishSpan safely finishes a span, handling nil spans.
func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}
