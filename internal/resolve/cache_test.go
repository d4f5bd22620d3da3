package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planaxis/planaxis/internal/ir"
)

func TestLayerCacheMemoizesSuccess(t *testing.T) {
	var cache LayerCache
	calls := 0
	resolveFn := func(ctx context.Context) (string, error) {
		calls++
		return "layer-7", nil
	}

	for i := 0; i < 3; i++ {
		id, err := cache.Get(context.Background(), resolveFn)
		require.NoError(t, err)
		assert.Equal(t, "layer-7", id)
	}
	assert.Equal(t, 1, calls)
}

func TestLayerCacheRetriesAfterFailure(t *testing.T) {
	var cache LayerCache
	calls := 0
	resolveFn := func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("catalogue unavailable")
		}
		return "layer-7", nil
	}

	_, err := cache.Get(context.Background(), resolveFn)
	require.Error(t, err)

	id, err := cache.Get(context.Background(), resolveFn)
	require.NoError(t, err)
	assert.Equal(t, "layer-7", id)
	assert.Equal(t, 2, calls)
}

type stubZoneClient struct {
	layerErr error
	zoneErr  error
	zone     string
	layers   int
}

func (c *stubZoneClient) ResolveLayerID(ctx context.Context) (string, error) {
	c.layers++
	if c.layerErr != nil {
		return "", c.layerErr
	}
	return "layer-7", nil
}

func (c *stubZoneClient) ZoneAt(ctx context.Context, layerID string, lat, lng float64) (string, error) {
	if c.zoneErr != nil {
		return "", c.zoneErr
	}
	return c.zone, nil
}

func TestZoneServiceAnnotates(t *testing.T) {
	lat, lng := -33.655, 151.32
	z := &ZoneService{Client: &stubZoneClient{zone: "R2"}}

	c := ir.SiteCandidate{Lat: &lat, Lng: &lng}
	z.Annotate(context.Background(), &c)
	assert.Equal(t, "R2", c.Zone)

	// Layer discovery only happens once across candidates.
	d := ir.SiteCandidate{Lat: &lat, Lng: &lng}
	z.Annotate(context.Background(), &d)
	assert.Equal(t, 1, z.Client.(*stubZoneClient).layers)
}

func TestZoneServiceBestEffort(t *testing.T) {
	lat, lng := -33.655, 151.32

	z := &ZoneService{Client: &stubZoneClient{layerErr: errors.New("down")}}
	c := ir.SiteCandidate{Lat: &lat, Lng: &lng}
	z.Annotate(context.Background(), &c)
	assert.Empty(t, c.Zone, "a failed lookup leaves the zone unset")

	// Candidates without coordinates are skipped entirely.
	z = &ZoneService{Client: &stubZoneClient{zone: "R2"}}
	text := ir.SiteCandidate{FormattedAddress: "6 Myola Road, Newport"}
	z.Annotate(context.Background(), &text)
	assert.Empty(t, text.Zone)
	assert.Equal(t, 0, z.Client.(*stubZoneClient).layers)
}
