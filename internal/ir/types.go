package ir

import "time"

// InstrumentKind distinguishes statewide policies from local plans.
type InstrumentKind string

const (
	// KindStatewidePolicy marks an instrument that applies everywhere in
	// the jurisdiction (e.g. a SEPP).
	KindStatewidePolicy InstrumentKind = "statewide_policy"

	// KindLocalPlan marks an instrument scoped to one local government
	// area (e.g. an LEP).
	KindLocalPlan InstrumentKind = "local_plan"
)

// Valid reports whether k is a known instrument kind.
func (k InstrumentKind) Valid() bool {
	return k == KindStatewidePolicy || k == KindLocalPlan
}

// InstrumentConfig describes one regulatory instrument. Configs are
// loaded once per process from the CUE registry and are immutable at
// runtime.
type InstrumentConfig struct {
	// Slug uniquely identifies the instrument (e.g. "sepp-housing-2021").
	Slug string `json:"slug"`

	// Name is the full display name.
	Name string `json:"name"`

	// ShortName is the abbreviated display name (e.g. "Housing SEPP").
	ShortName string `json:"short_name"`

	// Kind is statewide_policy or local_plan.
	Kind InstrumentKind `json:"kind"`

	// Jurisdiction is the publishing jurisdiction (e.g. "NSW").
	Jurisdiction string `json:"jurisdiction"`

	// SourceURL is where the authoritative document is published.
	SourceURL string `json:"source_url"`

	// ClausePrefix overrides the prefix used in clause key derivation.
	// Empty means derive from Slug.
	ClausePrefix string `json:"clause_prefix,omitempty"`

	// Topics tags the instrument for search filtering.
	Topics []string `json:"topics,omitempty"`

	// AlwaysApplicable marks statewide instruments included in every
	// site resolution regardless of location.
	AlwaysApplicable bool `json:"always_applicable,omitempty"`
}

// KeyPrefix returns the prefix used for clause key derivation: the
// explicit ClausePrefix when set, otherwise the slug.
func (c InstrumentConfig) KeyPrefix() string {
	if c.ClausePrefix != "" {
		return c.ClausePrefix
	}
	return c.Slug
}

// ParsedClause is one addressable clause produced by a parse run.
// It is ephemeral: the synchronizer diffs parsed clauses against the
// persisted set and discards them.
type ParsedClause struct {
	// ClauseKey is the stable derived identity. See ClauseKey() in hash.go.
	ClauseKey string `json:"clause_key"`

	// Number is the clause number as written ("5.2A"), empty when the
	// clause was keyed by title.
	Number string `json:"number,omitempty"`

	// Title is the normalized heading text.
	Title string `json:"title"`

	// BodyHTML is the concatenated serialized markup of the body nodes.
	BodyHTML string `json:"body_html"`

	// BodyText is the visible text of the body, whitespace-normalized
	// and NFC-normalized. May be empty: a clause can consist of its
	// heading alone.
	BodyText string `json:"body_text"`

	// HierarchyPath is the ordered structural ancestry plus the clause's
	// own label, e.g. ["Part 3", "Division 2", "Clause 5.2"].
	HierarchyPath []string `json:"hierarchy_path"`

	// ContentHash is the SHA-256 hex digest of BodyText.
	ContentHash string `json:"content_hash"`
}

// Clause is the persisted, versioned form of a parsed clause.
//
// Lifecycle: created at version 1 on first sighting of a clause key;
// superseded (IsCurrent=false, EffectiveTo set, new row at version+1)
// when a later sync sees a different content hash; retired
// (IsCurrent=false, EffectiveTo set, no successor) when a later sync no
// longer produces the key. Non-current rows are history and are never
// deleted.
type Clause struct {
	ParsedClause

	// ID is the store row id.
	ID int64 `json:"id"`

	// InstrumentID is the owning instrument's row id.
	InstrumentID int64 `json:"instrument_id"`

	// Version starts at 1 and increments by exactly 1 on each content
	// change for the same clause key.
	Version int `json:"version"`

	// IsCurrent is true for exactly one row per (instrument, clause key).
	IsCurrent bool `json:"is_current"`

	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`

	// RetrievedAt records when the source document for this version was
	// fetched.
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Instrument is the persisted registration of an instrument config.
type Instrument struct {
	ID           int64          `json:"id"`
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	ShortName    string         `json:"short_name"`
	Kind         InstrumentKind `json:"kind"`
	Jurisdiction string         `json:"jurisdiction"`
	SourceURL    string         `json:"source_url"`
	LastSyncedAt *time.Time     `json:"last_synced_at,omitempty"`
}

// SiteCandidate is one possible match for a free-text address query.
// Candidates are ephemeral: the caller decides whether to persist one.
type SiteCandidate struct {
	// ID is the provider's identifier when it supplies one, otherwise a
	// generated UUIDv7.
	ID string `json:"id"`

	FormattedAddress string `json:"formatted_address"`

	LGAName string `json:"lga_name,omitempty"`
	LGACode string `json:"lga_code,omitempty"`

	// Lot and PlanNumber identify the cadastral parcel when known.
	Lot        string `json:"lot,omitempty"`
	PlanNumber string `json:"plan_number,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	// Zone is the planning zone label (e.g. "R2") when known.
	Zone string `json:"zone,omitempty"`

	// Confidence is the match score in [0,1].
	Confidence float64 `json:"confidence"`

	// Provider names the provider that produced this candidate.
	Provider string `json:"provider,omitempty"`
}

// SiteResolution maps a site to its applicable instruments. Recomputed
// on demand, never persisted independently of the chosen site.
type SiteResolution struct {
	Address  string `json:"address"`
	ParcelID string `json:"parcel_id,omitempty"`

	// LGA is the inferred or supplied local government area, empty when
	// none could be determined.
	LGA string `json:"lga,omitempty"`

	// InstrumentSlugs lists applicable instruments in inclusion order.
	InstrumentSlugs []string `json:"instrument_slugs"`

	// Rationale is an ordered human-readable audit trail explaining each
	// inclusion. Not used by any downstream logic.
	Rationale []string `json:"rationale"`
}

// ClauseSummary is a search hit. The relevance score used for ordering
// is not part of the payload.
type ClauseSummary struct {
	ClauseKey      string   `json:"clause_key"`
	InstrumentSlug string   `json:"instrument_slug"`
	Title          string   `json:"title"`
	HierarchyPath  []string `json:"hierarchy_path"`
	Snippet        string   `json:"snippet"`
	Version        int      `json:"version"`
}
