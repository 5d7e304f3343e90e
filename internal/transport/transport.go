package transport

import (
	"io"
	"time"

	"github.com/frankli0324/go-icap/internal/icap"
)

// Conn is the stream a transport talks over, see internal/stream.
type Conn interface {
	io.Reader
	io.Writer
	ReadLine() (string, error)
	ReadFull(n int64, w io.Writer) error
	ReadAll(w io.Writer) (int64, error)
	WaitReadable(d time.Duration) (bool, error)
}

type Transport interface {
	// RoundTrip sends req, negotiating its preview if any, and returns the
	// final response. The response body is read lazily through c.
	RoundTrip(c Conn, req *icap.Request) (*icap.Response, error)
}
