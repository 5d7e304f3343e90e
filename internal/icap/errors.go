package icap

import (
	"errors"
	"net"
	"strconv"
)

// ValidationError reports misuse detected while constructing a request,
// before any I/O happened.
type ValidationError struct {
	msg string
	error
}

func (e ValidationError) Error() string { return joinMsg("icap: invalid request: "+e.msg, e.error) }
func (e ValidationError) Unwrap() error { return e.error }

// Wrap returns a copy of e carrying err as its cause.
func (e ValidationError) Wrap(err error) ValidationError { return ValidationError{e.msg, err} }

// Is matches another ValidationError with the same message, a zero
// ValidationError matches any.
func (e ValidationError) Is(err error) bool {
	t, ok := err.(ValidationError)
	return ok && (t.msg == "" || t.msg == e.msg)
}

// ProtocolSyntaxError reports bytes received from the server that are not
// valid ICAP. The connection the bytes came from must not be used again.
type ProtocolSyntaxError struct {
	msg  string
	Line string // offending input, if any
	error
}

func (e ProtocolSyntaxError) Error() string {
	msg := "icap: malformed response: " + e.msg
	if e.Line != "" {
		msg += " " + strconv.Quote(e.Line)
	}
	return joinMsg(msg, e.error)
}

func (e ProtocolSyntaxError) Unwrap() error { return e.error }

// At returns a copy of e annotated with the offending line.
func (e ProtocolSyntaxError) At(line string) ProtocolSyntaxError {
	return ProtocolSyntaxError{e.msg, line, e.error}
}

// Wrap returns a copy of e carrying err as its cause.
func (e ProtocolSyntaxError) Wrap(err error) ProtocolSyntaxError {
	return ProtocolSyntaxError{e.msg, e.Line, err}
}

func (e ProtocolSyntaxError) Is(err error) bool {
	t, ok := err.(ProtocolSyntaxError)
	return ok && (t.msg == "" || t.msg == e.msg)
}

// SessionStateError reports an operation invoked in a lifecycle state that
// does not allow it. No I/O is performed when it is returned.
type SessionStateError struct {
	msg string
}

func (e SessionStateError) Error() string { return "icap: " + e.msg }

func (e SessionStateError) Is(err error) bool {
	t, ok := err.(SessionStateError)
	return ok && (t.msg == "" || t.msg == e.msg)
}

// ConnectionError reports a failure to establish the connection to the
// ICAP server at Addr:Port.
type ConnectionError struct {
	Addr string
	Port int
	error
}

func (e ConnectionError) Error() string {
	return joinMsg("icap: failed to open TCP connection to "+net.JoinHostPort(e.Addr, strconv.Itoa(e.Port)), e.error)
}

func (e ConnectionError) Unwrap() error { return e.error }

// Timeout reports whether the connection attempt ran out of time.
func (e ConnectionError) Timeout() bool {
	var ne net.Error
	return errors.Is(e.error, ErrOpenTimeout) || errors.As(e.error, &ne) && ne.Timeout()
}

func (e ConnectionError) Is(err error) bool {
	_, ok := err.(ConnectionError)
	return ok
}

// NewConnectionError wraps a dial failure for addr:port.
func NewConnectionError(addr string, port int, err error) ConnectionError {
	return ConnectionError{addr, port, err}
}

// valueError names the offending value wrapped by a ValidationError.
type valueError struct{ what, v string }

func (e valueError) Error() string { return e.what + " " + strconv.Quote(e.v) }

func joinMsg(msg string, err error) string {
	if err != nil {
		return msg + " (" + err.Error() + ")"
	}
	return msg
}

// ErrOpenTimeout is the cause of a [ConnectionError] raised when the open
// timeout elapsed before the connection was established.
var ErrOpenTimeout = errors.New("open timeout")

var (
	ErrEmptyPath       = ValidationError{msg: "no ICAP resource path given"}
	ErrNegativePreview = ValidationError{msg: "preview must be >= 0"}
	ErrPreviewFormat   = ValidationError{msg: "wrong Preview format"}
	ErrUnknownMethod   = ValidationError{msg: "unsupported method"}
	ErrInvalidTarget   = ValidationError{msg: "invalid target address"}
	ErrInvalidHeader   = ValidationError{msg: "invalid header field"}

	ErrStatusLine   = ProtocolSyntaxError{msg: "wrong status line"}
	ErrHeaderLine   = ProtocolSyntaxError{msg: "wrong header line format"}
	ErrChunkSize    = ProtocolSyntaxError{msg: "wrong chunk size line"}
	ErrChunkData    = ProtocolSyntaxError{msg: "malformed chunked encoding"}
	ErrLineTooLong  = ProtocolSyntaxError{msg: "line too long"}
	ErrEncapsulated = ProtocolSyntaxError{msg: "wrong Encapsulated format"}

	ErrAlreadyStarted  = SessionStateError{"ICAP session already opened"}
	ErrNotStarted      = SessionStateError{"ICAP session not yet started"}
	ErrBodyReadTwice   = SessionStateError{"read_body called twice"}
	ErrBodyReadOutside = SessionStateError{"attempt to read body out of exchange"}
	ErrInExchange      = SessionStateError{"an exchange is already in flight"}
	ErrRequestConsumed = SessionStateError{"request already sent"}
)
