package server

import (
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"
)

// resultCache holds emitted declarations keyed by request content.
type resultCache struct {
	cache *lru.Cache[string, string]
}

func newResultCache(maxItems int) (*resultCache, error) {
	c, err := lru.New[string, string](maxItems)
	if err != nil {
		return nil, err
	}
	return &resultCache{cache: c}, nil
}

func (c *resultCache) Get(key string) (string, bool) {
	return c.cache.Get(key)
}

func (c *resultCache) Put(key, code string) {
	c.cache.Add(key, code)
}

func (c *resultCache) Len() int {
	return c.cache.Len()
}

// cacheKey hashes the root name and body. The NUL separator keeps
// ("ab", "c") and ("a", "bc") apart.
func cacheKey(rootName string, body []byte) string {
	h := blake3.New()
	_, _ = h.Write([]byte(rootName))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
