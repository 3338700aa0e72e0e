package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache(t *testing.T) {
	cache := NewLRUCache(2, time.Hour)

	cache.Set("a", []byte("1"), time.Minute)
	cache.Set("b", []byte("2"), time.Minute)
	cache.Set("c", []byte("3"), time.Minute)

	_, ok := cache.Get("a")
	assert.False(t, ok, "最も古いアイテムは追い出されるのだ")

	v, ok := cache.Get("c")
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), v)
	assert.Equal(t, 2, cache.Len())
}

func TestLRUCache_Expiration(t *testing.T) {
	cache := NewLRUCache(4, 10*time.Millisecond)
	cache.Set("a", "x", 0)

	assert.Eventually(t, func() bool {
		_, ok := cache.Get("a")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
