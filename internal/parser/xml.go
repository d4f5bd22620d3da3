package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/planaxis/planaxis/internal/ir"
)

// clauseTags are tag names that emit a clause regardless of the type
// attribute.
var clauseTags = map[string]bool{
	"clause":  true,
	"section": true,
	"rule":    true,
}

// headingChildTags name the child elements that carry a level or
// clause heading.
var headingChildTags = map[string]bool{
	"heading": true,
	"title":   true,
	"name":    true,
}

// numberChildTags name the child elements that carry a clause number.
var numberChildTags = map[string]bool{
	"number": true,
	"no":     true,
}

// parseXML parses an XML planning instrument into clauses.
func parseXML(cfg ir.InstrumentConfig, doc []byte) ([]ir.ParsedClause, error) {
	root, err := fromXML(doc)
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	w := &xmlWalker{prefix: cfg.KeyPrefix()}
	w.walk(root, nil)
	return w.clauses, nil
}

// fromXML builds the closed node tree from XML bytes. Comments,
// directives and processing instructions are dropped.
func fromXML(doc []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = false

	root := newElement("#document", nil)
	stack := []*Node{root}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tokenize: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make([][2]string, 0, len(t.Attr))
			for _, a := range t.Attr {
				attrs = append(attrs, [2]string{a.Name.Local, a.Value})
			}
			n := newElement(t.Name.Local, attrs)
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Type: TextNode, Data: string(t)})
		}
	}

	return root, nil
}

// xmlWalker recursively classifies elements by tag name and type
// attribute, carrying the tier label stack down the tree.
type xmlWalker struct {
	prefix  string
	clauses []ir.ParsedClause
}

func (w *xmlWalker) walk(n *Node, tiers []string) {
	for _, c := range n.Children {
		if c.Type != ElementNode {
			// Text nodes carry no classification and have no element
			// children to visit.
			continue
		}

		typeAttr := strings.ToLower(c.Attr("type"))

		if c.Tag == "level" {
			if t, ok := tierByName[typeAttr]; ok {
				label := xmlTierLabel(c, t)
				w.walk(c, append(tiers, label))
				continue
			}
			if typeAttr == "clause" {
				w.emit(c, tiers)
				continue
			}
			// Unknown level type: recurse unchanged.
			w.walk(c, tiers)
			continue
		}

		if clauseTags[c.Tag] {
			w.emit(c, tiers)
			continue
		}

		// Unrecognized element: fail closed, recurse into children.
		w.walk(c, tiers)
	}
}

// xmlTierLabel builds the hierarchy label for a tier level from its
// attributes or heading child: "Part 3", "Schedule 1".
func xmlTierLabel(n *Node, t tier) string {
	word := canonicalTierWord(tierNames[t])
	if num := levelNumber(n); num != "" {
		return word + " " + num
	}
	if h := headingChild(n); h != nil {
		if text := ir.NormalizeText(h.Text()); text != "" {
			return text
		}
	}
	return word
}

// levelNumber extracts a level or clause number from attributes first,
// then from a dedicated child element.
func levelNumber(n *Node) string {
	for _, key := range []string{"number", "no", "id"} {
		if v := strings.TrimSpace(n.Attr(key)); v != "" {
			return v
		}
	}
	for _, c := range n.Children {
		if c.Type == ElementNode && numberChildTags[c.Tag] {
			return ir.NormalizeText(c.Text())
		}
	}
	return ""
}

// headingChild returns the first heading-carrying child element.
func headingChild(n *Node) *Node {
	for _, c := range n.Children {
		if c.Type == ElementNode && headingChildTags[c.Tag] {
			return c
		}
	}
	return nil
}

// emit extracts a clause from a clause-like element. The heading and
// number children are stripped from the body.
func (w *xmlWalker) emit(n *Node, tiers []string) {
	number := levelNumber(n)
	var headingText string
	if h := headingChild(n); h != nil {
		headingText = ir.NormalizeText(h.Text())
	}

	title := headingText
	if number != "" {
		title = strings.TrimSpace(number + " " + headingText)
	}

	keyPart := number
	if keyPart == "" {
		keyPart = title
	}

	label := title
	if number != "" {
		label = "Clause " + number
	}

	var markup, text strings.Builder
	for _, c := range n.Children {
		if c.Type == ElementNode && (headingChildTags[c.Tag] || numberChildTags[c.Tag]) {
			continue
		}
		markup.WriteString(c.Markup())
		text.WriteString(c.Text())
		text.WriteByte(' ')
	}

	bodyText := ir.NormalizeText(text.String())
	path := make([]string, 0, len(tiers)+1)
	path = append(path, tiers...)
	path = append(path, label)

	w.clauses = append(w.clauses, ir.ParsedClause{
		ClauseKey:     ir.ClauseKey(w.prefix, keyPart),
		Number:        number,
		Title:         title,
		BodyHTML:      markup.String(),
		BodyText:      bodyText,
		HierarchyPath: path,
		ContentHash:   ir.ContentHash(bodyText),
	})
}
