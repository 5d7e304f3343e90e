package chunked

import (
	"fmt"
	"io"
)

// NewWriter is adapted from golang src/net/http/internal/chunked.go. Each
// Write call becomes exactly one chunk, Close writes the last chunk.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w}
}

type Writer struct {
	Wire io.Writer
}

func (cw *Writer) Write(data []byte) (n int, err error) {

	// Don't send 0-length data. It looks like EOF for chunked encoding.
	if len(data) == 0 {
		return 0, nil
	}

	if _, err = fmt.Fprintf(cw.Wire, "%x\r\n", len(data)); err != nil {
		return 0, err
	}
	if n, err = cw.Wire.Write(data); err != nil {
		return
	}
	if n != len(data) {
		err = io.ErrShortWrite
		return
	}
	if _, err = io.WriteString(cw.Wire, "\r\n"); err != nil {
		return
	}
	return n, cw.flush()
}

// Close terminates the chunked section with a zero length chunk. No
// trailers are ever written.
func (cw *Writer) Close() error {
	return cw.close("0\r\n\r\n")
}

// CloseEOF is like Close, with the ieof chunk extension telling an ICAP
// server that the preview it got is the whole body (RFC3507 section 4.5).
func (cw *Writer) CloseEOF() error {
	return cw.close("0; ieof\r\n\r\n")
}

func (cw *Writer) close(last string) error {
	n, err := io.WriteString(cw.Wire, last)
	if err == nil && n != len(last) {
		return io.ErrShortWrite
	}
	if err != nil {
		return err
	}
	return cw.flush()
}

func (cw *Writer) flush() error {
	if f, ok := cw.Wire.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
