package dialer

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/net/proxy"
)

type ProxyConfig struct {
	ResolveLocally bool
	ResolveConfig  *ResolveConfig // overrides the resolver config for dialer for proxy
}

func (c *ProxyConfig) Clone() *ProxyConfig {
	if c == nil {
		return nil
	}
	return &ProxyConfig{
		ResolveLocally: c.ResolveLocally,
		ResolveConfig:  c.ResolveConfig.Clone(),
	}
}

var schemes = map[string]string{
	"http": "80", "socks5": "1080", "socks5h": "1080",
}

func (d *CoreDialer) tryDialProxy(ctx context.Context, host string, port int) (net.Conn, error) {
	if d.GetProxy == nil {
		return nil, nil
	}
	p, err := d.GetProxy(ctx, host, port)
	if err != nil || p == "" {
		return nil, err
	}
	proxyU, err := url.Parse(p)
	if err != nil {
		return nil, err
	}
	return d.DialContextOverProxy(ctx, host, port, proxyU)
}

// forwardDialer reaches the proxy server itself with the resolver settings
// of the CoreDialer.
type forwardDialer struct{ d *CoreDialer }

func (f forwardDialer) Dial(network, addr string) (net.Conn, error) {
	return f.DialContext(context.Background(), network, addr)
}

func (f forwardDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	return f.d.dialDirect(ctx, f.d.ResolveConfig, host, port)
}

// DialContextOverProxy creates a connection to host:port over a socks5 or
// http CONNECT proxy. This part of logic may be reused when wrapping
// *[CoreDialer] into a new custom [Dialer]
func (d *CoreDialer) DialContextOverProxy(ctx context.Context, host string, port int, proxyU *url.URL) (net.Conn, error) {
	def, ok := schemes[proxyU.Scheme]
	if !ok {
		return nil, errors.New("unsupported proxy scheme: " + proxyU.Scheme)
	}
	if proxyU.Port() == "" {
		u := *proxyU
		u.Host = net.JoinHostPort(proxyU.Hostname(), def)
		proxyU = &u
	}

	addr := host
	if d.ProxyConfig != nil && d.ProxyConfig.ResolveLocally {
		var err error
		if addr, err = d.resolve(ctx, d.ProxyConfig.ResolveConfig.Merge(d.ResolveConfig), host); err != nil {
			return nil, err
		}
	}
	target := net.JoinHostPort(addr, strconv.Itoa(port))

	if proxyU.Scheme == "http" {
		return d.dialConnect(ctx, proxyU, target)
	}
	pd, err := proxy.FromURL(proxyU, forwardDialer{d})
	if err != nil {
		return nil, err
	}
	if cd, ok := pd.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", target)
	}
	return pd.Dial("tcp", target)
}

// bufferedConn keeps bytes the proxy sent right after its response.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }

func (d *CoreDialer) dialConnect(ctx context.Context, proxyU *url.URL, target string) (net.Conn, error) {
	conn, err := d.dialDirect(ctx, d.ResolveConfig, proxyU.Hostname(), proxyU.Port())
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
		defer conn.SetDeadline(noDeadline)
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: target},
		Host:   target,
		Header: http.Header{},
	}
	if u := proxyU.User; u != nil {
		pass, _ := u.Password()
		auth := base64.StdEncoding.EncodeToString([]byte(u.Username() + ":" + pass))
		req.Header.Set("Proxy-Authorization", "Basic "+auth)
	}
	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}
	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if resp.StatusCode != 200 {
		s, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		conn.Close()
		return nil, fmt.Errorf("proxy server returned error. status:%d, body:%s", resp.StatusCode, string(s))
	}
	if br.Buffered() > 0 {
		return &bufferedConn{conn, br}, nil
	}
	return conn, nil
}
