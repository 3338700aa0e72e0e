package generator

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache は expirable LRU による ImageCacher の実装です。
// 有効期限はキャッシュ全体で共通のため、Set の d は使いません。
type LRUCache struct {
	lru *expirable.LRU[string, any]
}

// NewLRUCache は最大 size 件、ttl で失効するキャッシュを生成します。
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

func (c *LRUCache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

func (c *LRUCache) Set(key string, value any, _ time.Duration) {
	c.lru.Add(key, value)
}

// Len は保持しているアイテム数を返します。
func (c *LRUCache) Len() int {
	return c.lru.Len()
}
