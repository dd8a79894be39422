// Package ir provides the wire and record types shared by every marginalia
// package, plus the canonical JSON used to hash and journal them.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key constraints:
//   - NO float types anywhere - positions and versions are integers
//   - Comment identifiers are opaque strings chosen by the client
//   - JSON tags follow the authority's wire format (kind, id, from, to,
//     text, version, events, sentCount, comments)
//   - Canonical JSON (RFC 8785) is the only encoding used for hashing
package ir
