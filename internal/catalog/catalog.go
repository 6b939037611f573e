// Package catalog registers bookable units and serves availability reads,
// optionally through the availability cache.
package catalog

import (
	"context"
	"sync"

	"github.com/Youmanvi/venuereserve/internal/allocation"
	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/cache"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// Cache lookup outcomes reported to OnCacheLookup
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Options configure the catalog. A nil Cache disables caching.
type Options struct {
	Cache         cache.AvailabilityCache
	OnCacheLookup func(result string)
}

// Catalog is the inventory read view
type Catalog struct {
	store    *store.Store
	cache    cache.AvailabilityCache
	onLookup func(string)

	mu          sync.Mutex
	generations map[string]uint64
}

// New creates a catalog over s
func New(s *store.Store, opts Options) *Catalog {
	c := &Catalog{
		store:       s,
		cache:       opts.Cache,
		onLookup:    opts.OnCacheLookup,
		generations: make(map[string]uint64),
	}
	if c.cache == nil {
		c.cache = cache.NopCache{}
	}
	if c.onLookup == nil {
		c.onLookup = func(string) {}
	}
	return c
}

// AddNamedUnit registers a named unit
func (c *Catalog) AddNamedUnit(ctx context.Context, u domain.NamedUnit) (*domain.NamedUnit, error) {
	unit, err := domain.NewNamedUnit(u.ID, u.Group, u.Name, u.Code, u.Capacity, u.Status)
	if err != nil {
		return nil, err
	}
	if err := c.store.Queries().InsertNamedUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// AddFungibleUnit registers one unit of a product pool
func (c *Catalog) AddFungibleUnit(ctx context.Context, u domain.FungibleUnit) (*domain.FungibleUnit, error) {
	unit, err := domain.NewFungibleUnit(u.ID, u.ProductID, u.Code, u.Status)
	if err != nil {
		return nil, err
	}
	if err := c.store.Queries().InsertFungibleUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unit, c.Invalidate(ctx, unit.ProductID)
}

// SetNamedUnitStatus changes whether a named unit can be booked
func (c *Catalog) SetNamedUnitStatus(ctx context.Context, id string, status domain.UnitStatus) error {
	if !status.Valid() {
		return errors.Validation("unknown unit status %q", status)
	}
	return c.store.Queries().SetNamedUnitStatus(ctx, id, status)
}

// SetFungibleUnitStatus changes whether a pool unit can be booked and drops
// the cached counts of its product.
func (c *Catalog) SetFungibleUnitStatus(ctx context.Context, id string, status domain.UnitStatus) error {
	if !status.Valid() {
		return errors.Validation("unknown unit status %q", status)
	}
	q := c.store.Queries()
	unit, err := q.FungibleUnit(ctx, id)
	if err != nil {
		return err
	}
	if err := q.SetFungibleUnitStatus(ctx, id, status); err != nil {
		return err
	}
	return c.Invalidate(ctx, unit.ProductID)
}

// NamedUnit reads one named unit
func (c *Catalog) NamedUnit(ctx context.Context, id string) (*domain.NamedUnit, error) {
	return c.store.Queries().NamedUnit(ctx, id)
}

// ListNamedUnits lists named units, all of them when group is empty
func (c *Catalog) ListNamedUnits(ctx context.Context, group string) ([]domain.NamedUnit, error) {
	return c.store.Queries().ListNamedUnits(ctx, group)
}

// FungibleUnits lists a product pool in code order
func (c *Catalog) FungibleUnits(ctx context.Context, productID string) ([]domain.FungibleUnit, error) {
	return c.store.Queries().FungibleUnitsByProduct(ctx, productID)
}

// Availability answers checkAvailability outside any write transaction.
// Fungible counts may come from the cache and lag the latest commit.
func (c *Catalog) Availability(ctx context.Context, ref domain.ResourceRef, r domain.DateRange, quantity int) (domain.Availability, error) {
	r, err := domain.NewDateRange(r.CheckIn, r.CheckOut)
	if err != nil {
		return domain.Availability{}, err
	}
	alloc := allocation.New(c.store.Queries())
	if ref.Kind != domain.ResourceFungible || ref.Validate() != nil || quantity <= 0 {
		return alloc.Check(ctx, ref, r, quantity)
	}

	n, ok, err := c.cache.Count(ctx, ref.ID, r)
	switch {
	case err != nil:
		c.onLookup(CacheError)
	case ok:
		c.onLookup(CacheHit)
		return domain.Availability{Feasible: n >= quantity, AvailableCount: n}, nil
	default:
		c.onLookup(CacheMiss)
	}

	gen := c.generation(ref.ID)
	avail, err := alloc.Check(ctx, ref, r, quantity)
	if err != nil {
		return domain.Availability{}, err
	}
	if err := c.cache.SetCount(ctx, ref.ID, r, avail.AvailableCount); err != nil {
		c.onLookup(CacheError)
		return avail, nil
	}
	// A commit invalidated the product while the count was computed, so
	// the count just written may predate it.
	if c.generation(ref.ID) != gen {
		if err := c.cache.Invalidate(ctx, ref.ID); err != nil {
			c.onLookup(CacheError)
		}
	}
	return avail, nil
}

// Invalidate drops cached counts of the products after a commit
func (c *Catalog) Invalidate(ctx context.Context, productIDs ...string) error {
	c.mu.Lock()
	for _, id := range productIDs {
		c.generations[id]++
	}
	c.mu.Unlock()
	return c.cache.Invalidate(ctx, productIDs...)
}

func (c *Catalog) generation(productID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[productID]
}
