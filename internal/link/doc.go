// Package link carries application datagrams over a byte stream.
//
// Ownership boundary:
// - datagram and error-report framing on an io.ReadWriter
// - receive buffer ownership and release
// - the app.Transport implementation used by the daemon and the ctl tool
package link
