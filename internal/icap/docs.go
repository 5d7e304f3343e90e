// package icap contains the message types of the ICAP/1.0 protocol (RFC3507):
// the header store shared by requests and responses, the request and response
// models, response classification and the error taxonomy. They are meant to be
// exported through the top level package.
//
// wire formatting and parsing lives in the transport package, this package
// performs no I/O by itself, except for [Response.ReadBody], which pulls from a
// body source installed by the transport.
package icap

// DefaultPort is the port assumed for icap:// addresses without an explicit one.
const DefaultPort = 1344

// Version is the protocol token used on request and status lines.
const Version = "ICAP/1.0"
