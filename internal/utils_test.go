package internal_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/frankli0324/go-icap/internal"
	"github.com/stretchr/testify/require"
)

type TestDialer struct {
	net.Conn
}

// Dial implements internal.Dialer.
func (t *TestDialer) Dial(ctx context.Context, host string, port int) (net.Conn, error) {
	return t.Conn, nil
}

// Unwrap implements internal.Dialer.
func (t *TestDialer) Unwrap() internal.Dialer {
	return nil
}

// blockingDialer never connects before ctx is done.
type blockingDialer struct{}

func (blockingDialer) Dial(ctx context.Context, host string, port int) (net.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingDialer) Unwrap() internal.Dialer { return nil }

// readHead reads a request line and header block, returning the raw text and
// the headers keyed by lower-cased name.
func readHead(br *bufio.Reader) (raw string, hdr map[string]string, err error) {
	var sb strings.Builder
	hdr = map[string]string{}
	first := true
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return sb.String(), hdr, err
		}
		sb.WriteString(line)
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return sb.String(), hdr, nil
		}
		if first {
			first = false
			continue
		}
		k, v, _ := strings.Cut(line, ":")
		hdr[strings.ToLower(k)] = strings.TrimSpace(v)
	}
}

// readChunks reads one chunked section, reporting whether it ended with the
// ieof extension.
func readChunks(br *bufio.Reader) (data string, ieof bool, err error) {
	var sb strings.Builder
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return sb.String(), false, err
		}
		line = strings.TrimRight(line, "\r\n")
		size, ext, _ := strings.Cut(line, ";")
		n, err := strconv.ParseInt(strings.TrimSpace(size), 16, 64)
		if err != nil {
			return sb.String(), false, err
		}
		if n == 0 {
			if _, err := br.ReadString('\n'); err != nil {
				return sb.String(), false, err
			}
			return sb.String(), strings.TrimSpace(ext) == "ieof", nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(br, buf); err != nil {
			return sb.String(), false, err
		}
		sb.Write(buf[:n])
	}
}

func chunk(s string) string {
	if s == "" {
		return "0\r\n\r\n"
	}
	return strconv.FormatInt(int64(len(s)), 16) + "\r\n" + s + "\r\n0\r\n\r\n"
}

// serveICAP is a small adaptation service. OPTIONS advertises the service,
// bodies are answered upper-cased, an empty body yields 204 and a preview
// containing "VIRUS" is blocked without asking for the rest.
func serveICAP(c net.Conn) {
	defer c.Close()
	br := bufio.NewReader(c)
	raw, hdr, err := readHead(br)
	if err != nil {
		return
	}
	method := strings.Fields(raw)[0]
	var body string
	if enc := hdr["encapsulated"]; strings.Contains(enc, "-body=") && !strings.Contains(enc, "null-body") {
		data, ieof, err := readChunks(br)
		if err != nil {
			return
		}
		body = data
		if _, ok := hdr["preview"]; ok && !ieof {
			if strings.Contains(data, "VIRUS") {
				io.WriteString(c, "ICAP/1.0 200 OK\r\nEncapsulated: res-body=0\r\n\r\n"+chunk("BLOCKED"))
				return
			}
			io.WriteString(c, "ICAP/1.0 100 Continue\r\n\r\n")
			rest, _, err := readChunks(br)
			if err != nil {
				return
			}
			body += rest
		}
	}
	switch {
	case method == "OPTIONS":
		io.WriteString(c, "ICAP/1.0 200 OK\r\nMethods: RESPMOD, REQMOD\r\nISTag: \"go-icap-test\"\r\nPreview: 1024\r\nEncapsulated: null-body=0\r\n\r\n")
	case body == "":
		io.WriteString(c, "ICAP/1.0 204 No Content\r\nISTag: \"go-icap-test\"\r\n\r\n")
	default:
		io.WriteString(c, "ICAP/1.0 200 OK\r\nISTag: \"go-icap-test\"\r\nEncapsulated: res-body=0\r\n\r\n"+chunk(strings.ToUpper(body)))
	}
}

type testServer struct {
	Host     string
	Port     int
	accepted atomic.Int32
}

func (s *testServer) Accepted() int { return int(s.accepted.Load()) }

// startServer serves every accepted connection with handle until the test
// ends.
func startServer(t *testing.T, handle func(n int, c net.Conn)) *testServer {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	addr := l.Addr().(*net.TCPAddr)
	s := &testServer{Host: addr.IP.String(), Port: addr.Port}
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			n := int(s.accepted.Add(1))
			go handle(n, c)
		}
	}()
	return s
}

func echoServer(t *testing.T) *testServer {
	return startServer(t, func(_ int, c net.Conn) { serveICAP(c) })
}

// SendSingleRequest runs req through a Client connected to an in-memory
// pipe and returns what was written on the wire.
func SendSingleRequest(t *testing.T, c *internal.Client, req *internal.Request) io.Reader {
	client, server := net.Pipe()
	c.UseDialer(func(internal.Dialer) internal.Dialer {
		return &TestDialer{client}
	})
	wire := make(chan string, 1)
	go func() {
		defer server.Close()
		raw, _, err := readHead(bufio.NewReader(server))
		wire <- raw
		if err == nil {
			io.WriteString(server, "ICAP/1.0 204 No Content\r\n\r\n")
		}
	}()
	require.NoError(t, c.Do(context.Background(), req, nil))
	return strings.NewReader(<-wire)
}

func bufioReader(c net.Conn) *bufio.Reader { return bufio.NewReader(c) }
