package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is an in-process memo bounded by entry count. Safe for concurrent use.
type LRU struct {
	entries *lru.Cache[string, []byte]
}

// NewLRU creates an LRU memo holding at most size entries.
func NewLRU(size int) (*LRU, error) {
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("cache: lru: %w", err)
	}
	return &LRU{entries: entries}, nil
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.entries.Get(key)
	return v, ok, nil
}

func (c *LRU) Set(_ context.Context, key string, value []byte) error {
	c.entries.Add(key, value)
	return nil
}

// Len returns the number of stored entries.
func (c *LRU) Len() int {
	return c.entries.Len()
}
