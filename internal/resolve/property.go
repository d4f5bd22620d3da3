package resolve

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/planaxis/planaxis/internal/ir"
)

// fuzzyFloor is the minimum street-name similarity a widened-search
// candidate must reach to survive the fallback filter.
const fuzzyFloor = 0.6

// PropertyProvider resolves addresses through the jurisdiction's
// property search API. When the exact query returns nothing it retries
// with the locality segment alone and filters the widened results by
// street-name similarity, which recovers misspelled localities.
type PropertyProvider struct {
	Client    PropertyClient
	Limit     int
	WideLimit int
	Zones     *ZoneService
	Log       zerolog.Logger
}

func (p *PropertyProvider) Name() string { return "property" }

func (p *PropertyProvider) Lookup(ctx context.Context, query string) Outcome {
	limit := p.Limit
	if limit <= 0 {
		limit = 5
	}

	records, err := p.Client.Search(ctx, query, limit)
	if err != nil {
		return Failure(classify(p.Name(), err))
	}
	if len(records) == 0 {
		return p.fuzzyLookup(ctx, query)
	}
	return Success(p.candidates(ctx, records))
}

// fuzzyLookup widens the search to the locality segment of the query
// and keeps only records whose street name is close to the input's.
func (p *PropertyProvider) fuzzyLookup(ctx context.Context, query string) Outcome {
	tokens := tokenize(query)
	street, locality := splitStreetLocality(tokens)
	if len(street) == 0 || len(locality) == 0 {
		return ZeroResults()
	}

	wide := p.WideLimit
	if wide <= 0 {
		wide = 25
	}
	records, err := p.Client.Search(ctx, strings.Join(locality, " "), wide)
	if err != nil {
		return Failure(classify(p.Name(), err))
	}

	name := strings.Join(streetName(street), " ")
	kept := records[:0]
	for _, r := range records {
		candStreet, _ := splitStreetLocality(tokenize(r.Address))
		if similarity(name, strings.Join(streetName(candStreet), " ")) >= fuzzyFloor {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return ZeroResults()
	}
	p.Log.Debug().
		Str("provider", p.Name()).
		Int("matches", len(kept)).
		Msg("fuzzy locality fallback recovered candidates")
	return Success(p.candidates(ctx, kept))
}

func (p *PropertyProvider) candidates(ctx context.Context, records []PropertyRecord) []ir.SiteCandidate {
	out := make([]ir.SiteCandidate, 0, len(records))
	for _, r := range records {
		c := ir.SiteCandidate{
			ID:               candidateID(r.ID),
			FormattedAddress: r.Address,
			LGAName:          r.LGAName,
			LGACode:          r.LGACode,
			Lot:              r.Lot,
			PlanNumber:       r.Plan,
			Lat:              r.Lat,
			Lng:              r.Lng,
			Provider:         p.Name(),
		}
		if p.Zones != nil {
			p.Zones.Annotate(ctx, &c)
		}
		out = append(out, c)
	}
	return out
}
