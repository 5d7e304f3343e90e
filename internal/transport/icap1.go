package transport

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"strings"
	"time"

	"github.com/frankli0324/go-icap/internal/icap"
	"github.com/frankli0324/go-icap/internal/transport/chunked"
)

// ICAP1 implements ICAP/1.0 message framing.
type ICAP1 struct {
	// ContinueTimeout bounds the wait for an answer to a preview. When it
	// elapses the rest of the body is sent as if 100 Continue was received.
	// Zero waits for the server indefinitely.
	ContinueTimeout time.Duration

	Logger *log.Logger
}

func (t *ICAP1) logf(format string, v ...interface{}) {
	if t.Logger != nil {
		t.Logger.Printf(format, v...)
	}
}

func (t *ICAP1) RoundTrip(c Conn, req *icap.Request) (*icap.Response, error) {
	pending, err := t.Write(c, req)
	if err != nil {
		return nil, err
	}
	if pending {
		readable := true
		if t.ContinueTimeout > 0 {
			if readable, err = c.WaitReadable(t.ContinueTimeout); err != nil {
				return nil, err
			}
		}
		if readable {
			res, err := t.Read(c, req)
			if err != nil {
				return nil, err
			}
			if res.Kind != icap.KindContinue {
				t.logf("transport: preview answered with %s %s", res.Code, res.Reason)
				return res, nil
			}
		} else {
			t.logf("transport: no answer to preview within %s, continuing", t.ContinueTimeout)
		}
		if err := t.Continue(c, req); err != nil {
			return nil, err
		}
	}
	return t.readFinal(c, req)
}

// readFinal reads responses until one that is not 100 Continue.
func (t *ICAP1) readFinal(c Conn, req *icap.Request) (*icap.Response, error) {
	for {
		res, err := t.Read(c, req)
		if err != nil {
			return nil, err
		}
		if res.Kind != icap.KindContinue {
			return res, nil
		}
		t.logf("transport: skipping interim 100 Continue")
	}
}

// Write sends the head of req and its body. When req negotiates a preview,
// only the preview section is sent and pending is true: the caller must read
// a response and call Continue if it is a 100 Continue.
func (t *ICAP1) Write(w io.Writer, req *icap.Request) (pending bool, err error) {
	bw := bufio.NewWriter(w) // default bufsize is 4096
	if err := t.writeHeader(bw, req); err != nil {
		return false, err
	}
	if req.Body == nil {
		return false, bw.Flush()
	}
	cw := chunked.NewWriter(bw)
	if req.Previewing() {
		n, _ := req.Preview()
		if _, err := cw.Write(req.Body[:n]); err != nil {
			return false, err
		}
		return true, cw.Close()
	}
	if _, err := cw.Write(req.Body); err != nil {
		return false, err
	}
	if _, ok := req.Preview(); ok {
		return false, cw.CloseEOF()
	}
	return false, cw.Close()
}

// Continue sends the body bytes following the preview of req as one more
// chunked section.
func (t *ICAP1) Continue(w io.Writer, req *icap.Request) error {
	n, _ := req.Preview()
	if n > len(req.Body) {
		n = len(req.Body)
	}
	cw := chunked.NewWriter(bufio.NewWriter(w))
	if _, err := cw.Write(req.Body[n:]); err != nil {
		return err
	}
	return cw.Close()
}

// writeHeader writes the request line and header part of an ICAP request
// e.g.:
//
//	OPTIONS icap://icap.example.net:1344/echo ICAP/1.0\r\n
//	Host: icap.example.net\r\n
//	User-Agent: go-icap\r\n
//	\r\n
func (t *ICAP1) writeHeader(w *bufio.Writer, req *icap.Request) error {
	w.WriteString(string(req.Method))
	w.WriteByte(' ')
	w.WriteString(req.URL.String())
	w.WriteByte(' ')
	w.WriteString(icap.Version)
	w.WriteString("\r\n")
	for _, f := range req.Header.Fields() {
		w.WriteString(f.Name)
		w.WriteString(": ")
		w.WriteString(f.Value)
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

// Read parses a status line and the header block following it. The body is
// left on c, attached to the response for [icap.Response.ReadBody].
func (t *ICAP1) Read(c Conn, req *icap.Request) (*icap.Response, error) {
	line, err := c.ReadLine()
	if err != nil {
		return nil, unexpectedEOF(err)
	}
	proto, code, reason, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}
	res := icap.NewResponse(code, reason)
	res.Proto = proto
	if err := readHeader(c, &res.Header); err != nil {
		return nil, err
	}
	res.URL = req.URL
	res.Attach(bodySource(c), req.Method.ResponseBodyPermitted())
	return res, nil
}

// parseStatusLine splits "ICAP/1.0 200 OK". The protocol token is matched
// case-insensitively, the code must be exactly three digits and the reason
// phrase may be missing.
func parseStatusLine(line string) (proto, code, reason string, err error) {
	i := strings.IndexAny(line, " \t")
	if i < 0 || !strings.EqualFold(line[:i], icap.Version) {
		return "", "", "", icap.ErrStatusLine.At(line)
	}
	proto, rest := line[:i], strings.TrimLeft(line[i:], " \t")
	if len(rest) < 3 {
		return "", "", "", icap.ErrStatusLine.At(line)
	}
	for j := 0; j < 3; j++ {
		if rest[j] < '0' || rest[j] > '9' {
			return "", "", "", icap.ErrStatusLine.At(line)
		}
	}
	code, rest = rest[:3], rest[3:]
	if rest != "" && !isSpace(rest[0]) {
		return "", "", "", icap.ErrStatusLine.At(line)
	}
	return proto, code, strings.TrimLeft(rest, " \t"), nil
}

// readHeader reads header lines up to the blank line. Lines starting with a
// space or a tab continue the previous value.
func readHeader(c Conn, h *icap.Header) error {
	var key, value string
	have := false
	for {
		line, err := c.ReadLine()
		if err != nil {
			return unexpectedEOF(err)
		}
		line = strings.TrimRight(line, " \t")
		if line == "" {
			break
		}
		if isSpace(line[0]) {
			if !have {
				return icap.ErrHeaderLine.At(line)
			}
			if value != "" {
				value += " "
			}
			value += trimSpace(line)
			continue
		}
		if have {
			h.Add(key, value)
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return icap.ErrHeaderLine.At(line)
		}
		key, value, have = trimSpace(k), trimSpace(v), true
	}
	if have {
		h.Add(key, value)
	}
	return nil
}

// bodySource reads the body per the Encapsulated header: the embedded
// header bytes up to the body offset are kept aside and the body itself is
// chunked. Without a body offset, everything up to the end of the
// connection is the body.
func bodySource(c Conn) icap.BodySource {
	return func(res *icap.Response, w io.Writer) error {
		enc, err := res.Encapsulated()
		if err != nil {
			return err
		}
		ent, ok := enc.Body()
		if !ok {
			_, err := c.ReadAll(w)
			return err
		}
		hdr := &bytes.Buffer{}
		if err := c.ReadFull(int64(ent.Offset), hdr); err != nil {
			return err
		}
		res.EncapsulatedHeader = hdr.Bytes()
		if ent.Name == "null-body" {
			return nil
		}
		_, err = io.Copy(w, chunked.NewReader(c))
		return err
	}
}
