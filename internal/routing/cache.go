package routing

import (
	"slices"
	"sync/atomic"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/puzpuzpuz/xsync/v3"
)

// routeKey is an unordered node pair, stored with a <= b
type routeKey struct {
	a, b models.Location
}

// cachedRoute holds both directions of a pair; each is filled on first request
type cachedRoute struct {
	forward     []*Node
	backward    []*Node
	hasForward  bool
	hasBackward bool
}

// CachedPathCalculator memoizes the wrapped calculator per node pair.
type CachedPathCalculator struct {
	inner  PathCalculator
	routes *xsync.MapOf[routeKey, cachedRoute]
	region atomic.Pointer[Region]
	hits   atomic.Int64
	misses atomic.Int64
}

func NewCachedPathCalculator(inner PathCalculator) *CachedPathCalculator {
	return &CachedPathCalculator{
		inner:  inner,
		routes: xsync.NewMapOf[routeKey, cachedRoute](),
	}
}

func (c *CachedPathCalculator) Path(start, end *Node) ([]*Node, error) {
	if err := checkEndpoints(start, end); err != nil {
		return nil, err
	}
	c.bindRegion(start.Region())

	key, forward := routeKey{a: start.location, b: end.location}, true
	if key.a.Compare(key.b) > 0 {
		key, forward = routeKey{a: end.location, b: start.location}, false
	}

	if route, ok := c.routes.Load(key); ok {
		if forward && route.hasForward {
			c.hits.Add(1)
			return slices.Clone(route.forward), nil
		}
		if !forward && route.hasBackward {
			c.hits.Add(1)
			return slices.Clone(route.backward), nil
		}
	}

	c.misses.Add(1)
	path, err := c.inner.Path(start, end)
	if err != nil {
		return nil, err
	}
	stored := slices.Clone(path)
	c.routes.Compute(key, func(route cachedRoute, _ bool) (cachedRoute, bool) {
		if forward {
			route.forward, route.hasForward = stored, true
		} else {
			route.backward, route.hasBackward = stored, true
		}
		return route, false
	})
	return path, nil
}

// bindRegion drops every entry once paths of another region are requested.
func (c *CachedPathCalculator) bindRegion(region *Region) {
	previous := c.region.Swap(region)
	if previous != nil && previous != region {
		c.routes.Clear()
	}
}

// Clear drops every memoized path.
func (c *CachedPathCalculator) Clear() {
	c.routes.Clear()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats reports cache hits and misses since the last Clear.
func (c *CachedPathCalculator) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedPathCalculator) Len() int {
	return c.routes.Size()
}
