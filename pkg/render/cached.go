package render

import (
	"context"

	"github.com/matzehuels/riglink/pkg/cache"
)

// RenderCached is Render backed by c. It reports whether the artifact came
// from the cache. DOT output is never cached.
func RenderCached(ctx context.Context, c cache.Cache, dot string, format string) ([]byte, bool, error) {
	if format == FormatDOT {
		return []byte(dot), false, nil
	}
	key := cache.ArtifactKey(dot, format)
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}
	out, err := Render(ctx, dot, format)
	if err != nil {
		return nil, false, err
	}
	// A failed write only costs the next render.
	_ = c.Set(ctx, key, out, cache.DefaultTTL)
	return out, false, nil
}
