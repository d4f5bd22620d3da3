// Package parser converts planning instrument documents (HTML or XML)
// into ordered lists of addressable clauses.
//
// Both modes operate over a closed node tree (Element | Text) so that
// classification of tier markers and clause headings is exhaustive:
// unrecognized structure fails closed as "recurse into children" and
// never aborts a parse.
//
// The parser only recognizes the heading and clause conventions of
// planning instruments. It is not a general-purpose HTML/XML parser.
package parser
