// package stream wraps the connection to an ICAP server into the
// line-oriented, length-bounded stream the transport reads responses from and
// writes requests to. A Stream is owned by exactly one session.
package stream

import (
	"bufio"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/frankli0324/go-icap/internal/icap"
)

// MaxLineLength bounds status lines, header lines and chunk size lines.
const MaxLineLength = 64 << 10

type deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

type Stream struct {
	conn   io.ReadWriteCloser
	br     *bufio.Reader
	closed atomic.Bool
	logger *log.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New wraps conn. logger may be nil.
func New(conn io.ReadWriteCloser, logger *log.Logger) *Stream {
	return &Stream{conn: conn, br: bufio.NewReader(conn), logger: logger}
}

// Raw returns the underlying [net.Conn], nil if conn is not one.
func (s *Stream) Raw() net.Conn {
	c, _ := s.conn.(net.Conn)
	return c
}

func (s *Stream) logf(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

func (s *Stream) readDeadline() {
	if d, ok := s.conn.(deadliner); ok && s.ReadTimeout > 0 {
		d.SetReadDeadline(time.Now().Add(s.ReadTimeout))
	}
}

func (s *Stream) fail(op string, err error) error {
	if err != io.EOF {
		s.logf("stream: error on %s. %v", op, err)
		s.Close()
	}
	return err
}

// Read reads buffered bytes first, then from the connection.
func (s *Stream) Read(p []byte) (int, error) {
	s.readDeadline()
	n, err := s.br.Read(p)
	if err != nil {
		return n, s.fail("read", err)
	}
	return n, nil
}

// Reader exposes the buffered reader, for decoders working on it directly.
func (s *Stream) Reader() *bufio.Reader { return s.br }

// ReadLine reads one line and strips the line terminator (CRLF or a bare
// LF). A final line without terminator is returned as is; io.EOF is only
// returned when no byte was left.
func (s *Stream) ReadLine() (string, error) {
	s.readDeadline()
	var line []byte
	for {
		frag, err := s.br.ReadSlice('\n')
		if len(line)+len(frag) > MaxLineLength {
			return "", s.fail("read", icap.ErrLineTooLong)
		}
		line = append(line, frag...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && len(line) > 0 {
			break
		}
		if err != nil {
			return "", s.fail("read", err)
		}
		break
	}
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
		if n > 0 && line[n-1] == '\r' {
			n--
		}
	}
	return string(line[:n]), nil
}

// ReadFull copies exactly n bytes to w.
func (s *Stream) ReadFull(n int64, w io.Writer) error {
	s.readDeadline()
	if _, err := io.CopyN(w, s.br, n); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return s.fail("read", err)
	}
	return nil
}

// Discard skips exactly n bytes.
func (s *Stream) Discard(n int) error {
	return s.ReadFull(int64(n), io.Discard)
}

// ReadAll copies everything up to the end of the connection to w.
func (s *Stream) ReadAll(w io.Writer) (int64, error) {
	s.readDeadline()
	n, err := io.Copy(w, s.br)
	if err != nil {
		return n, s.fail("read", err)
	}
	return n, nil
}

// WaitReadable waits at most d for the peer to send something. It reports
// false without error when d elapsed first.
func (s *Stream) WaitReadable(d time.Duration) (bool, error) {
	dl, ok := s.conn.(deadliner)
	if !ok || d <= 0 {
		return true, nil
	}
	dl.SetReadDeadline(time.Now().Add(d))
	_, err := s.br.Peek(1)
	dl.SetReadDeadline(time.Time{})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return false, nil
	}
	return false, s.fail("read", err)
}

// Write writes p to the connection as is.
func (s *Stream) Write(p []byte) (int, error) {
	if d, ok := s.conn.(deadliner); ok && s.WriteTimeout > 0 {
		d.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	n, err := s.conn.Write(p)
	if err != nil {
		return n, s.fail("write", err)
	}
	return n, nil
}

// Close closes the connection. It is safe to call more than once, and
// concurrently with a blocked Read, which then fails.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

func (s *Stream) Closed() bool { return s.closed.Load() }
