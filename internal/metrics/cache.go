package metrics

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InstrumentedCache は go-cache をラップし、参照結果を Collector に記録します。
// generator.ImageCacher を満たします。
type InstrumentedCache struct {
	cache     *gocache.Cache
	collector *Collector
}

// NewInstrumentedCache は既定の有効期限 ttl で説明文キャッシュを作成します。
func NewInstrumentedCache(ttl time.Duration, collector *Collector) *InstrumentedCache {
	return &InstrumentedCache{
		cache:     gocache.New(ttl, 2*ttl),
		collector: collector,
	}
}

func (c *InstrumentedCache) Get(key string) (any, bool) {
	v, ok := c.cache.Get(key)
	if c.collector != nil {
		c.collector.CacheLookup(ok)
	}
	return v, ok
}

func (c *InstrumentedCache) Set(key string, value any, d time.Duration) {
	c.cache.Set(key, value, d)
}

// ItemCount はキャッシュ中の件数を返します。
func (c *InstrumentedCache) ItemCount() int {
	return c.cache.ItemCount()
}
