// internal/balance/cache.go
package balance

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Key identifies a cached account balance as of a calendar date.
type Key struct {
	AccountName string
	Date        string // YYYY-MM-DD
}

// NewKey builds a Key from an account and any instant on the wanted date.
func NewKey(accountName string, date time.Time) Key {
	return Key{AccountName: accountName, Date: date.Format(time.DateOnly)}
}

func (k Key) String() string {
	return k.AccountName + "_" + k.Date
}

// ComputeFunc produces the balance for a key on a cache miss.
type ComputeFunc func(ctx context.Context) (decimal.Decimal, error)

// Cache memoizes account-as-of-date balances until the next Clear.
// There is no TTL: any successful mutation is expected to call Clear.
type Cache struct {
	mu         sync.RWMutex
	entries    map[Key]decimal.Decimal
	generation uint64
	group      singleflight.Group
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]decimal.Decimal)}
}

// Get returns the cached balance for key, if any.
func (c *Cache) Get(key Key) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a balance for key.
func (c *Cache) Set(key Key, value decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Clear evicts every entry. Values computed before the call are not stored afterwards.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]decimal.Decimal)
	c.generation++
}

// Size returns the current number of cached balances.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrCompute is a read-through lookup. Concurrent misses for the same key
// within one cache generation share a single compute call; a caller arriving
// after Clear never joins a computation started before it. Errors are
// returned to every waiter and never cached.
//
// The shared compute runs detached from any one caller's cancellation. Each
// caller stops waiting when its own ctx is done.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (decimal.Decimal, error) {
	c.mu.RLock()
	cached, ok := c.entries[key]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	flight := key.String() + "#" + strconv.FormatUint(gen, 10)
	computeCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (interface{}, error) {
		value, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = value
		}
		c.mu.Unlock()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return decimal.Zero, res.Err
		}
		return res.Val.(decimal.Decimal), nil
	}
}
