package chunked

import (
	"bufio"
	"io"
	"strings"

	"github.com/frankli0324/go-icap/internal/icap"
)

type lineReader interface {
	io.Reader
	ReadLine() (string, error)
}

// bufLines adapts a plain reader, the stream used by the transport already
// is a lineReader.
type bufLines struct {
	*bufio.Reader
}

func (b bufLines) ReadLine() (string, error) {
	var sb strings.Builder
	for isPref := true; isPref; {
		var line []byte
		var err error
		line, isPref, err = b.Reader.ReadLine()
		if err != nil {
			return "", err
		}
		sb.Write(line)
	}
	return sb.String(), nil
}

// NewReader decodes a chunked section read from r. It returns io.EOF after
// the last chunk and its (discarded) trailer lines were consumed, leaving r
// positioned right after the section.
func NewReader(r io.Reader) io.Reader {
	lr, ok := r.(lineReader)
	if !ok {
		br, ok := r.(*bufio.Reader)
		if !ok {
			br = bufio.NewReader(r)
		}
		lr = bufLines{br}
	}
	return &chunkedReader{r: lr}
}

type chunkedReader struct {
	r                              lineReader
	currentChunk                   io.Reader
	currentCount, currentChunkSize int64
	done                           bool
}

// readChunkHeader parses a chunk size line, chunk extensions are ignored.
func (c *chunkedReader) readChunkHeader() (n uint64, err error) {
	line, err := c.r.ReadLine()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	size, _, _ := strings.Cut(line, ";")
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, icap.ErrChunkSize.At(line)
	}
	digits := strings.TrimLeft(size, "0")
	if len(digits) >= 16 {
		return 0, icap.ErrChunkSize.At(line)
	}
	for _, b := range []byte(digits) {
		switch {
		case '0' <= b && b <= '9':
			b = b - '0'
		case 'a' <= b && b <= 'f':
			b = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			b = b - 'A' + 10
		default:
			return 0, icap.ErrChunkSize.At(line)
		}
		n <<= 4
		n |= uint64(b)
	}
	return n, nil
}

// skipTrailer consumes trailer lines up to and including the blank line
// ending the section.
func (c *chunkedReader) skipTrailer() error {
	for {
		line, err := c.r.ReadLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func (c *chunkedReader) Read(p []byte) (n int, err error) {
	if c.done {
		return 0, io.EOF
	}
	if c.currentChunk == nil {
		l, err := c.readChunkHeader()
		if err != nil {
			return n, err
		}
		if l == 0 {
			if err := c.skipTrailer(); err != nil {
				return 0, err
			}
			c.done = true
			return 0, io.EOF
		}
		c.currentChunk = io.LimitReader(c.r, int64(l))
		c.currentChunkSize = int64(l)
	}
	n, err = c.currentChunk.Read(p)
	c.currentCount += int64(n)
	if err == io.EOF || c.currentCount == c.currentChunkSize {
		if c.currentCount != c.currentChunkSize {
			return n, io.ErrUnexpectedEOF
		}
		err = nil
		// the chunk data is followed by CRLF
		var crlf [2]byte
		if _, rerr := io.ReadFull(c.r, crlf[:]); rerr != nil {
			if rerr == io.EOF {
				rerr = io.ErrUnexpectedEOF
			}
			return n, rerr
		}
		if crlf[0] != '\r' || crlf[1] != '\n' {
			return n, icap.ErrChunkData
		}
		c.currentChunk = nil
		c.currentCount = 0
	}
	return
}
