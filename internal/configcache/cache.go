// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package configcache is the read-through cache in front of document loads.
//
// One Cache is built at startup and handed to every registry; it lives for
// the whole process. Entries are keyed by document path and expire a fixed
// TTL after they were loaded (hits do not extend the lifetime). Saves call
// Invalidate so the next read in this process goes back to disk. The cache
// is advisory: the file on the shared filesystem is always authoritative.
package configcache

import (
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const DefaultTTL = 60 * time.Second

type Cache struct {
	cache *ttlcache.Cache[string, any]
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	// Start is never called: expired entries are skipped on Get, so the
	// cache runs no goroutine of its own.
	cache := ttlcache.New(
		ttlcache.WithTTL[string, any](ttl),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)
	return &Cache{cache: cache}
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.cache.Delete(key)
}

// GetOrLoad returns the cached value for key while it is younger than the
// TTL, otherwise it calls load and caches the result. Cached values are
// returned as-is, so repeated calls inside the window share one value;
// callers that mutate must copy first. Load errors are not cached.
func GetOrLoad[V any](c *Cache, key string, load func() (V, error)) (V, error) {
	var loadErr error
	loader := ttlcache.LoaderFunc[string, any](
		func(cache *ttlcache.Cache[string, any], k string) *ttlcache.Item[string, any] {
			v, err := load()
			if err != nil {
				loadErr = err
				return nil
			}
			return cache.Set(k, v, ttlcache.DefaultTTL)
		},
	)

	var zero V
	item := c.cache.Get(key, ttlcache.WithLoader[string, any](loader))
	if item == nil {
		if loadErr == nil {
			loadErr = errors.New("configcache: loader produced no value")
		}
		return zero, loadErr
	}

	v, ok := item.Value().(V)
	if !ok {
		return zero, fmt.Errorf("configcache: entry %s holds %T", key, item.Value())
	}
	return v, nil
}
