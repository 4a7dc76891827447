package cache

import "context"

// Loader produces the value for a missing key.
type Loader func(ctx context.Context) ([]byte, error)

// Cache holds serialized read models that are dropped all at once by
// Invalidate.
//
// Values loaded while an Invalidate is in flight are never served after that
// Invalidate returns.
type Cache interface {
	// Fetch returns the cached value for key, calling load on a miss and
	// storing its result. Backend failures fall through to load.
	Fetch(ctx context.Context, key string, load Loader) ([]byte, error)

	// Invalidate drops every cached value.
	Invalidate(ctx context.Context) error
}
