package resolve

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/planaxis/planaxis/internal/ir"
)

// ZoneClient looks up the zoning classification of a point. The layer
// identifier is discovered once from the service's catalogue; it is
// stable for the life of the service deployment.
type ZoneClient interface {
	ResolveLayerID(ctx context.Context) (string, error)
	ZoneAt(ctx context.Context, layerID string, lat, lng float64) (string, error)
}

// LayerCache memoizes a successfully resolved layer identifier for the
// lifetime of the process. Failed resolutions are not cached; the next
// caller retries.
type LayerCache struct {
	mu sync.Mutex
	id string
}

// Get returns the cached identifier, calling resolveFn at most once
// per successful resolution.
func (c *LayerCache) Get(ctx context.Context, resolveFn func(context.Context) (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id != "" {
		return c.id, nil
	}
	id, err := resolveFn(ctx)
	if err != nil {
		return "", err
	}
	c.id = id
	return id, nil
}

// ZoneService annotates candidates with their zoning classification.
// Annotation is best effort: a failed lookup leaves the zone empty and
// never fails the resolution that requested it.
type ZoneService struct {
	Client ZoneClient
	Log    zerolog.Logger

	cache LayerCache
}

// Annotate sets c.Zone when the candidate has coordinates and the
// lookup succeeds.
func (z *ZoneService) Annotate(ctx context.Context, c *ir.SiteCandidate) {
	if c.Lat == nil || c.Lng == nil {
		return
	}
	layerID, err := z.cache.Get(ctx, z.Client.ResolveLayerID)
	if err != nil {
		z.Log.Warn().Err(err).Msg("zoning layer discovery failed")
		return
	}
	zone, err := z.Client.ZoneAt(ctx, layerID, *c.Lat, *c.Lng)
	if err != nil {
		z.Log.Warn().Err(err).Msg("zone lookup failed")
		return
	}
	c.Zone = zone
}
