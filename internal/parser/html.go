package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/planaxis/planaxis/internal/ir"
)

// headingTags are the element names treated as headings outright.
var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// headingClassPattern recognizes heading-like class names used by
// legislation publishing sites that render headings as styled divs.
var headingClassPattern = regexp.MustCompile(`(?i)(^|[\s_-])(heading|clause-?title|section-?title|part-?title)([\s_-]|$)`)

// contentSelector locates a content root by tag and optional attribute
// substring match.
type contentSelector struct {
	tag     string
	attrKey string
	attrVal string // substring match, case-insensitive
}

// contentSelectors are tried in order; the first match becomes the
// content root. Falls back to the whole document.
var contentSelectors = []contentSelector{
	{tag: "main"},
	{tag: "article"},
	{tag: "div", attrKey: "id", attrVal: "content"},
	{tag: "div", attrKey: "class", attrVal: "content"},
	{tag: "div", attrKey: "id", attrVal: "document"},
	{tag: "body"},
}

// parseHTML parses an HTML planning instrument into clauses.
func parseHTML(cfg ir.InstrumentConfig, doc []byte) ([]ir.ParsedClause, error) {
	root, err := xhtml.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := fromHTML(root)
	content := findContentRoot(tree)

	w := &htmlWalker{prefix: cfg.KeyPrefix()}
	w.walk(content)
	return w.clauses, nil
}

// findContentRoot tries the selector list in order and returns the
// first matching element, or the whole tree when nothing matches.
func findContentRoot(tree *Node) *Node {
	for _, sel := range contentSelectors {
		if n := findFirst(tree, sel); n != nil {
			return n
		}
	}
	return tree
}

func findFirst(n *Node, sel contentSelector) *Node {
	if n.Type == ElementNode && n.Tag == sel.tag {
		if sel.attrKey == "" {
			return n
		}
		if strings.Contains(strings.ToLower(n.Attr(sel.attrKey)), sel.attrVal) {
			return n
		}
	}
	for _, c := range n.Children {
		if found := findFirst(c, sel); found != nil {
			return found
		}
	}
	return nil
}

// isHeadingLike reports whether an element is treated as a heading:
// a heading tag, an ARIA heading role, or a heading-keyword class.
func isHeadingLike(n *Node) bool {
	if n.Type != ElementNode {
		return false
	}
	if headingTags[n.Tag] {
		return true
	}
	if strings.EqualFold(n.Attr("role"), "heading") {
		return true
	}
	return headingClassPattern.MatchString(n.Attr("class"))
}

// containsHeading reports whether the subtree holds any heading-like
// node. Used as the clause body boundary: a sibling that nests a
// heading belongs to the next structural unit, not to this body.
func containsHeading(n *Node) bool {
	if isHeadingLike(n) {
		return true
	}
	for _, c := range n.Children {
		if containsHeading(c) {
			return true
		}
	}
	return false
}

// htmlWalker accumulates clauses while tracking the tier context in
// document order.
type htmlWalker struct {
	prefix  string
	ctx     tierContext
	clauses []ir.ParsedClause
}

// walk processes the children of n. Heading-like children update the
// tier context or emit a clause; anything else is recursed into so
// headings nested in unrecognized containers are still seen.
func (w *htmlWalker) walk(n *Node) {
	children := n.Children
	i := 0
	for i < len(children) {
		c := children[i]
		if !isHeadingLike(c) {
			w.walk(c)
			i++
			continue
		}

		text := ir.NormalizeText(c.Text())
		if t, label, ok := matchTier(text); ok {
			w.ctx.set(t, label)
			i++
			continue
		}

		h, ok := matchClause(text)
		if !ok {
			// Neither a tier marker nor a clause heading: ignored.
			i++
			continue
		}

		// Body: every following sibling up to the next heading-like
		// node (or a sibling that nests one).
		j := i + 1
		for j < len(children) && !containsHeading(children[j]) {
			j++
		}
		w.emit(h, children[i+1:j])
		i = j
	}
}

func (w *htmlWalker) emit(h clauseHeading, body []*Node) {
	var markup, text strings.Builder
	for _, n := range body {
		markup.WriteString(n.Markup())
		text.WriteString(n.Text())
		text.WriteByte(' ')
	}

	bodyText := ir.NormalizeText(text.String())
	w.clauses = append(w.clauses, ir.ParsedClause{
		ClauseKey:     ir.ClauseKey(w.prefix, h.Number),
		Number:        h.Number,
		Title:         h.Title,
		BodyHTML:      markup.String(),
		BodyText:      bodyText,
		HierarchyPath: append(w.ctx.path(), h.Label),
		ContentHash:   ir.ContentHash(bodyText),
	})
}
