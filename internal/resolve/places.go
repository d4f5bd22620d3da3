package resolve

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/planaxis/planaxis/internal/ir"
)

// PlacesProvider resolves addresses through an autocomplete service
// followed by sequential per-suggestion detail lookups. A failed detail
// lookup degrades that suggestion to a text-only candidate rather than
// failing the attempt; the suggestion text still carries enough signal
// to score.
type PlacesProvider struct {
	Client PlacesClient
	Limit  int
	Log    zerolog.Logger
}

func (p *PlacesProvider) Name() string { return "places" }

func (p *PlacesProvider) Lookup(ctx context.Context, query string) Outcome {
	limit := p.Limit
	if limit <= 0 {
		limit = 5
	}

	suggestions, err := p.Client.Suggest(ctx, query, limit)
	if err != nil {
		return Failure(classify(p.Name(), err))
	}
	if len(suggestions) == 0 {
		return ZeroResults()
	}

	candidates := make([]ir.SiteCandidate, 0, len(suggestions))
	for _, s := range suggestions {
		place, err := p.Client.Details(ctx, s.ID)
		if err != nil {
			p.Log.Warn().
				Str("provider", p.Name()).
				Str("suggestion_id", s.ID).
				Err(err).
				Msg("detail lookup failed, keeping text-only candidate")
			candidates = append(candidates, ir.SiteCandidate{
				ID:               candidateID(s.ID),
				FormattedAddress: s.Text,
				Provider:         p.Name(),
			})
			continue
		}
		candidates = append(candidates, ir.SiteCandidate{
			ID:               candidateID(place.ID),
			FormattedAddress: place.FormattedAddress,
			LGAName:          place.LGAName,
			Lat:              place.Lat,
			Lng:              place.Lng,
			Provider:         p.Name(),
		})
	}
	return Success(candidates)
}

// candidateID keeps the upstream identifier when present and mints a
// fresh one otherwise.
func candidateID(upstream string) string {
	if upstream != "" {
		return upstream
	}
	return uuid.Must(uuid.NewV7()).String()
}
