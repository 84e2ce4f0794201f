// Package header owns the fixed application datagram header.
//
// Ownership boundary:
// - handle ranges (none, predefined, negotiated)
// - message type variants
// - header peek/parse/encode primitives
package header
