package calendar

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache holds the last fetched events. Concurrent refreshes share one fetch.
type Cache struct {
	fetcher *Fetcher

	group singleflight.Group

	mu        sync.RWMutex
	events    []Event
	errs      []error
	fetchedAt time.Time
}

func NewCache(f *Fetcher) *Cache {
	return &Cache{fetcher: f}
}

type fetchResult struct {
	events []Event
	errs   []error
}

// Refresh fetches urls and stores the result.
func (c *Cache) Refresh(ctx context.Context, urls []string) ([]Event, []error) {
	v, _, _ := c.group.Do("fetch", func() (any, error) {
		events, errs := c.fetcher.Fetch(ctx, urls)
		c.mu.Lock()
		c.events, c.errs, c.fetchedAt = events, errs, time.Now()
		c.mu.Unlock()
		return fetchResult{events: events, errs: errs}, nil
	})
	res := v.(fetchResult)
	return res.events, res.errs
}

// Events returns the cached events and whether a fetch has completed.
func (c *Cache) Events() ([]Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Event(nil), c.events...), !c.fetchedAt.IsZero()
}

func (c *Cache) Errors() []error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]error(nil), c.errs...)
}

// InRange returns cached events overlapping [from, to). Zero-length events
// count when they start inside the range.
func (c *Cache) InRange(from, to time.Time) []Event {
	events, _ := c.Events()
	var out []Event
	for _, e := range events {
		if e.Start.Before(to) && (e.End.After(from) || (e.End.Equal(e.Start) && !e.Start.Before(from))) {
			out = append(out, e)
		}
	}
	return out
}
