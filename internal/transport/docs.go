// package transport contains implementations to requirements on *message syntaxes*
// defined by the ICAP RFC (RFC3507), which borrows its framing from HTTP/1.1:
//
//	request line / status line
//	header lines, folded lines allowed in responses
//	blank line
//	body, always chunked on requests, framed per Encapsulated on responses
//
// message semantics (header store, status classification) live in the
// internal/icap package and are reused here.

package transport
