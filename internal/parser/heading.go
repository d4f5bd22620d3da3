package parser

import (
	"regexp"
	"strings"
)

// tier identifies one slot of the structural hierarchy context.
type tier int

const (
	tierChapter tier = iota
	tierPart
	tierDivision
	tierSubdivision
	tierSchedule
)

var tierNames = map[tier]string{
	tierChapter:     "chapter",
	tierPart:        "part",
	tierDivision:    "division",
	tierSubdivision: "subdivision",
	tierSchedule:    "schedule",
}

// tierByName maps the XML type attribute values to tiers.
var tierByName = map[string]tier{
	"chapter":     tierChapter,
	"part":        tierPart,
	"division":    tierDivision,
	"subdivision": tierSubdivision,
	"schedule":    tierSchedule,
}

// tierPattern matches tier marker headings like "Part 3", "Division A",
// "Schedule 1". The label may be numeric, alphabetic, or dotted.
var tierPattern = regexp.MustCompile(`(?i)^(chapter|part|division|subdivision|schedule)\s+([0-9A-Za-z]+(?:\.[0-9A-Za-z]+)*)\b`)

// clauseExplicitPattern matches "Clause 5.2 Height of buildings" and
// "Section 12A Exempt development".
var clauseExplicitPattern = regexp.MustCompile(`(?i)^(?:clause|section)\s+(\d+(?:\.\d+)*[A-Za-z]?)\s*(.*)$`)

// clauseBarePattern matches a bare leading numeral with dotted
// sub-numbering and an optional trailing letter, e.g. "5.2A Height of
// buildings". The numeral must be followed by title text so that bare
// page numbers and list markers are not mistaken for clauses.
var clauseBarePattern = regexp.MustCompile(`^(\d+(?:\.\d+)*[A-Za-z]?)\s+(\S.*)$`)

// tierContext tracks the five optional hierarchy slots while walking
// headings in document order.
type tierContext struct {
	slots [5]string // indexed by tier; empty means unset
}

// set records a tier label and clears everything below it. Schedules
// are a parallel hierarchy: setting a schedule clears the other four
// slots, and setting any of the four clears the schedule.
func (c *tierContext) set(t tier, label string) {
	if t == tierSchedule {
		*c = tierContext{}
		c.slots[tierSchedule] = label
		return
	}
	c.slots[tierSchedule] = ""
	c.slots[t] = label
	for lower := t + 1; lower < tierSchedule; lower++ {
		c.slots[lower] = ""
	}
}

// path returns the active hierarchy labels in chapter→part→division→
// subdivision order, or just the schedule label when one is active.
func (c *tierContext) path() []string {
	if s := c.slots[tierSchedule]; s != "" {
		return []string{s}
	}
	var out []string
	for t := tierChapter; t < tierSchedule; t++ {
		if c.slots[t] != "" {
			out = append(out, c.slots[t])
		}
	}
	return out
}

// matchTier attempts to classify normalized heading text as a tier
// marker. Returns the tier, a canonical label ("Part 3"), and whether
// the text matched.
func matchTier(text string) (tier, string, bool) {
	m := tierPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	t, ok := tierByName[strings.ToLower(m[1])]
	if !ok {
		return 0, "", false
	}
	label := canonicalTierWord(m[1]) + " " + m[2]
	return t, label, true
}

// canonicalTierWord title-cases the tier keyword regardless of source
// casing ("PART" → "Part").
func canonicalTierWord(w string) string {
	w = strings.ToLower(w)
	return strings.ToUpper(w[:1]) + w[1:]
}

// clauseHeading is a successfully classified clause heading.
type clauseHeading struct {
	Number string // "5.2A"
	Title  string // full normalized heading text
	Label  string // hierarchy label, "Clause 5.2A"
}

// matchClause attempts to classify normalized heading text as a clause
// heading: the explicit "Clause N"/"Section N" form first, then a bare
// leading numeral. Returns false for headings that are neither clause
// headings nor tier markers; those are ignored.
func matchClause(text string) (clauseHeading, bool) {
	if m := clauseExplicitPattern.FindStringSubmatch(text); m != nil {
		return clauseHeading{
			Number: m[1],
			Title:  text,
			Label:  "Clause " + m[1],
		}, true
	}
	if m := clauseBarePattern.FindStringSubmatch(text); m != nil {
		return clauseHeading{
			Number: m[1],
			Title:  text,
			Label:  "Clause " + m[1],
		}, true
	}
	return clauseHeading{}, false
}
