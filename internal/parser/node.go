package parser

import (
	"strings"

	xhtml "golang.org/x/net/html"
)

// NodeType discriminates the two node variants.
type NodeType int

const (
	// ElementNode is a tag with attributes and children.
	ElementNode NodeType = iota
	// TextNode is character data.
	TextNode
)

// Node is one node in the closed document tree. Comments, processing
// instructions and doctypes are dropped at construction; anything the
// walkers do not recognize is treated as a plain container.
type Node struct {
	Type     NodeType
	Tag      string            // lowercase tag name, element nodes only
	Attrs    map[string]string // lowercase keys, element nodes only
	Data     string            // text content, text nodes only
	Children []*Node

	// attrOrder preserves source attribute order for stable serialization.
	attrOrder []string
}

// Attr returns the attribute value for key, or "".
func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Text returns the concatenated character data of the subtree.
func (n *Node) Text() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.Type == TextNode {
		b.WriteString(n.Data)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
		// A space between block children prevents words from adjacent
		// elements running together; normalization collapses extras.
		b.WriteByte(' ')
	}
}

// Markup serializes the subtree back to markup. Attributes are written
// in source order so serialization is stable across runs.
func (n *Node) Markup() string {
	var b strings.Builder
	n.writeMarkup(&b)
	return b.String()
}

func (n *Node) writeMarkup(b *strings.Builder) {
	if n.Type == TextNode {
		b.WriteString(escapeText(n.Data))
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, k := range n.attrOrder {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(n.Attrs[k]))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	for _, c := range n.Children {
		c.writeMarkup(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// newElement constructs an element node with ordered attributes.
func newElement(tag string, attrs [][2]string) *Node {
	n := &Node{Type: ElementNode, Tag: strings.ToLower(tag)}
	if len(attrs) > 0 {
		n.Attrs = make(map[string]string, len(attrs))
		for _, kv := range attrs {
			k := strings.ToLower(kv[0])
			if _, dup := n.Attrs[k]; dup {
				continue
			}
			n.Attrs[k] = kv[1]
			n.attrOrder = append(n.attrOrder, k)
		}
	}
	return n
}

// fromHTML converts an x/net/html tree into the closed node tree.
// Comment and doctype nodes are dropped; their children (none, per the
// HTML parser) need no visit.
func fromHTML(src *xhtml.Node) *Node {
	switch src.Type {
	case xhtml.TextNode:
		return &Node{Type: TextNode, Data: src.Data}
	case xhtml.DocumentNode, xhtml.ElementNode:
		var n *Node
		if src.Type == xhtml.DocumentNode {
			n = newElement("#document", nil)
		} else {
			attrs := make([][2]string, 0, len(src.Attr))
			for _, a := range src.Attr {
				attrs = append(attrs, [2]string{a.Key, a.Val})
			}
			n = newElement(src.Data, attrs)
		}
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				n.Children = append(n.Children, child)
			}
		}
		return n
	default:
		return nil
	}
}
