// Package moq implements the wire-protocol codec for MoQ Transport
// (draft-ietf-moq-transport-12): variable-length integers, tuples,
// parameter maps, control messages, and data-stream headers.
//
// This package contains no session or relay logic; those higher-level
// concerns live in [github.com/coaxial-labs/moqtransport/session] and
// [github.com/coaxial-labs/moqtransport/relay].
package moq
