package parser

import (
	"bytes"
	"fmt"

	"github.com/planaxis/planaxis/internal/ir"
)

// Format selects the document mode.
type Format string

const (
	// FormatAuto sniffs the document for XML or HTML markers.
	FormatAuto Format = ""
	// FormatHTML forces HTML mode.
	FormatHTML Format = "html"
	// FormatXML forces XML mode.
	FormatXML Format = "xml"
)

// Parse converts a raw planning instrument document into an ordered
// list of parsed clauses. The format is auto-detected unless hint is
// FormatHTML or FormatXML.
//
// A result of zero clauses is not an error: the caller is expected to
// log it for operator visibility. Clauses with empty bodies are
// retained, since a clause may consist of its heading alone.
func Parse(cfg ir.InstrumentConfig, doc []byte, hint Format) ([]ir.ParsedClause, error) {
	format := hint
	if format == FormatAuto {
		format = Sniff(doc)
	}

	switch format {
	case FormatHTML:
		return parseHTML(cfg, doc)
	case FormatXML:
		return parseXML(cfg, doc)
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}

// Sniff detects the document format. An XML declaration or a leading
// non-HTML root element means XML; everything else is treated as HTML,
// which is the safe default since the HTML parser accepts any bytes.
func Sniff(doc []byte) Format {
	trimmed := bytes.TrimLeft(doc, " \t\r\n\uFEFF")

	if bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return FormatXML
	}

	lower := bytes.ToLower(trimmed)
	if bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html")) {
		return FormatHTML
	}

	// Legislation XML feeds begin with a bare root element carrying
	// level markup.
	if bytes.Contains(lower, []byte("<level")) || bytes.HasPrefix(lower, []byte("<legislation")) || bytes.HasPrefix(lower, []byte("<instrument")) {
		return FormatXML
	}

	return FormatHTML
}
