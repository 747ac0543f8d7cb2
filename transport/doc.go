// Package transport adapts quic-go's raw QUIC connections and
// quic-go/webtransport-go's WebTransport sessions to one common
// Connection interface, so package session never has to know which
// underlying transport a given peer is using. A MoQ Transport endpoint
// accepts both: `moqt://` URLs dial raw QUIC directly, `https://` URLs
// upgrade an HTTP/3 request to WebTransport first.
package transport
