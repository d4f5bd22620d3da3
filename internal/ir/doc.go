// Package ir provides the canonical record types for the planning
// instrument engine.
//
// This package contains type definitions and content-hashing only. All
// other internal packages import ir; ir imports nothing internal. This
// keeps it the foundational layer with no circular dependencies.
//
// Key conventions:
//   - Clause identity is a derived key, stable across parse runs
//   - Content identity is a SHA-256 digest of normalized body text
//   - Timestamps are UTC; nullable timestamps use *time.Time
//   - All JSON tags use snake_case
package ir
