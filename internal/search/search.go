// Package search ranks current clauses against free-text queries.
//
// Relevance is intentionally simple: a clause scores one point per
// distinct query token appearing as a substring of its body text.
// Results keep a stable order so repeated searches paginate
// consistently.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/planaxis/planaxis/internal/ir"
	"github.com/planaxis/planaxis/internal/store"
)

const (
	// snippetLead is how much snippet text precedes the first match.
	snippetLead = 80
	// snippetTail is how much snippet text follows the first match.
	snippetTail = 120
	// snippetPlain is the snippet length when there is no query to
	// anchor on.
	snippetPlain = 280
)

// Query filters and ranks the current clause corpus.
type Query struct {
	// Text is the free-text query. Empty text matches everything and
	// returns clauses in storage order.
	Text string
	// Slugs restricts results to the named instruments.
	Slugs []string
	// Kinds restricts results to instrument kinds.
	Kinds []ir.InstrumentKind
	// Limit caps the number of hits. Zero means no cap.
	Limit int
}

// Searcher runs clause searches over the store.
type Searcher struct {
	store *store.Store
}

// New builds a searcher over st.
func New(st *store.Store) *Searcher {
	return &Searcher{store: st}
}

// Search returns summaries of the current clauses matching q, most
// relevant first. Only current versions are searched; superseded and
// retired clauses never appear.
func (s *Searcher) Search(ctx context.Context, q Query) ([]ir.ClauseSummary, error) {
	clauses, err := s.store.CurrentClausesFiltered(ctx, q.Slugs, q.Kinds)
	if err != nil {
		return nil, fmt.Errorf("search clauses: %w", err)
	}

	tokens := queryTokens(q.Text)

	type hit struct {
		clause store.ClauseWithInstrument
		score  int
	}
	hits := make([]hit, 0, len(clauses))
	for _, c := range clauses {
		score := relevance(c, tokens)
		if len(tokens) > 0 && score == 0 {
			continue
		}
		hits = append(hits, hit{clause: c, score: score})
	}

	// Stable keeps the store's slug-then-key order among equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]ir.ClauseSummary, 0, len(hits))
	for _, h := range hits {
		out = append(out, ir.ClauseSummary{
			ClauseKey:      h.clause.ClauseKey,
			InstrumentSlug: h.clause.InstrumentSlug,
			Title:          h.clause.Title,
			HierarchyPath:  h.clause.HierarchyPath,
			Snippet:        snippet(h.clause.BodyText, tokens),
			Version:        h.clause.Version,
		})
	}
	return out, nil
}

// queryTokens lowercases, splits and dedupes the query. Tokens shorter
// than two runes are dropped; they match everything and only add noise.
func queryTokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// relevance counts distinct query tokens found in the clause body.
func relevance(c store.ClauseWithInstrument, tokens []string) int {
	if len(tokens) == 0 {
		return 0
	}
	body := strings.ToLower(c.BodyText)

	score := 0
	for _, tok := range tokens {
		if strings.Contains(body, tok) {
			score++
		}
	}
	return score
}

// snippet extracts the display excerpt for a hit. Without a query it
// is simply the head of the body. With one, it is a window around the
// first token occurrence with ellipses marking truncation.
func snippet(body string, tokens []string) string {
	runes := []rune(body)
	if len(tokens) == 0 {
		if len(runes) <= snippetPlain {
			return body
		}
		return string(runes[:snippetPlain]) + "…"
	}

	idx := firstMatch(body, tokens)
	if idx < 0 {
		if len(runes) <= snippetPlain {
			return body
		}
		return string(runes[:snippetPlain]) + "…"
	}

	start := idx - snippetLead
	if start < 0 {
		start = 0
	}
	end := idx + snippetTail
	if end > len(runes) {
		end = len(runes)
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}

// firstMatch returns the rune index of the earliest token occurrence
// in body, or -1 when none occurs.
func firstMatch(body string, tokens []string) int {
	lower := strings.ToLower(body)
	best := -1
	for _, tok := range tokens {
		if byteIdx := strings.Index(lower, tok); byteIdx >= 0 {
			runeIdx := len([]rune(lower[:byteIdx]))
			if best < 0 || runeIdx < best {
				best = runeIdx
			}
		}
	}
	return best
}
