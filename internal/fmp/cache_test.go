package fmp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	cache := NewCache(time.Minute)

	cache.Set("stable:/quote?symbol=NVDA", json.RawMessage(`[{"price":131.28}]`))

	data, ok := cache.Get("stable:/quote?symbol=NVDA")
	assert.True(t, ok)
	assert.JSONEq(t, `[{"price":131.28}]`, string(data))

	_, ok = cache.Get("stable:/quote?symbol=AMD")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	cache := NewCache(20 * time.Millisecond)

	cache.Set("key", json.RawMessage(`{}`))

	_, ok := cache.Get("key")
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	_, ok = cache.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entry should be evicted on read")
}

func TestCache_LastWriterWins(t *testing.T) {
	cache := NewCache(time.Minute)

	cache.Set("key", json.RawMessage(`1`))
	cache.Set("key", json.RawMessage(`2`))

	data, ok := cache.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "2", string(data))
}
