// Package resolve maps free-text addresses to site candidates and
// sites to their applicable planning instruments.
//
// Address resolution runs an ordered chain of provider strategies.
// Each attempt produces a sum outcome (success, zero results, or
// failure); the chain advances on zero results or failure and
// short-circuits on success. Zero results from every provider is not
// an error: the resolver returns a typed "none" decision. A hard error
// occurs only when every configured provider failed for a reason other
// than zero results, or when no provider is configured at all.
package resolve
