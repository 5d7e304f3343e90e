package dialer

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer answers every accepted connection with the first line it reads.
func echoServer(t *testing.T) (host string, port int) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				line, _ := bufio.NewReader(c).ReadString('\n')
				c.Write([]byte(line))
			}()
		}
	}()
	addr := l.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func roundTrip(t *testing.T, c net.Conn) {
	defer c.Close()
	_, err := c.Write([]byte("OPTIONS icap://x/echo ICAP/1.0\n"))
	require.NoError(t, err)
	line, err := bufio.NewReader(c).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "OPTIONS icap://x/echo ICAP/1.0\n", line)
}

// socksServer is a minimal no-auth SOCKS5 server recording the requested
// destination.
func socksServer(t *testing.T) (addr string, dst chan string) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	dst = make(chan string, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		br := bufio.NewReader(c)
		hdr := make([]byte, 2)
		io.ReadFull(br, hdr)
		io.ReadFull(br, make([]byte, hdr[1]))
		c.Write([]byte{5, 0})

		req := make([]byte, 4)
		io.ReadFull(br, req)
		var host string
		switch req[3] {
		case 1:
			ip := make([]byte, 4)
			io.ReadFull(br, ip)
			host = net.IP(ip).String()
		case 3:
			n, _ := br.ReadByte()
			name := make([]byte, n)
			io.ReadFull(br, name)
			host = string(name)
		}
		p := make([]byte, 2)
		io.ReadFull(br, p)
		port := strconv.Itoa(int(binary.BigEndian.Uint16(p)))
		dst <- net.JoinHostPort(host, port)

		up, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", port))
		if err != nil {
			c.Write([]byte{5, 5, 0, 1, 0, 0, 0, 0, 0, 0})
			return
		}
		defer up.Close()
		c.Write([]byte{5, 0, 0, 1, 127, 0, 0, 1, 0, 0})
		go io.Copy(up, br)
		io.Copy(c, up)
	}()
	return l.Addr().String(), dst
}

// connectServer is a minimal http CONNECT proxy.
func connectServer(t *testing.T, status int) (addr string, auth chan string) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	auth = make(chan string, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		br := bufio.NewReader(c)
		req, err := http.ReadRequest(br)
		if err != nil {
			return
		}
		auth <- req.Header.Get("Proxy-Authorization")
		if status != 200 {
			c.Write([]byte("HTTP/1.1 " + strconv.Itoa(status) + " Nope\r\nContent-Length: 4\r\n\r\nnope"))
			return
		}
		up, err := net.Dial("tcp", req.Host)
		if err != nil {
			return
		}
		defer up.Close()
		c.Write([]byte("HTTP/1.1 200 Connection established\r\n\r\n"))
		go io.Copy(up, br)
		io.Copy(c, up)
	}()
	return l.Addr().String(), auth
}

func TestDialDirect(t *testing.T) {
	_, port := echoServer(t)
	d := &CoreDialer{ResolveConfig: &ResolveConfig{
		Network:     "ip4",
		StaticHosts: map[string]string{"icap.test": "127.0.0.1"},
	}}
	c, err := d.Dial(context.Background(), "icap.test", port)
	require.NoError(t, err)
	roundTrip(t, c)
}

func TestDialRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	_, err = (&CoreDialer{}).Dial(context.Background(), "127.0.0.1", port)
	require.Error(t, err)
}

func TestDialSocks5(t *testing.T) {
	_, port := echoServer(t)
	proxyAddr, dst := socksServer(t)
	d := &CoreDialer{
		GetProxy: func(ctx context.Context, host string, port int) (string, error) {
			return "socks5://" + proxyAddr, nil
		},
		ProxyConfig: &ProxyConfig{
			ResolveLocally: true,
			ResolveConfig:  &ResolveConfig{StaticHosts: map[string]string{"icap.test": "127.0.0.1"}},
		},
	}
	c, err := d.Dial(context.Background(), "icap.test", port)
	require.NoError(t, err)
	assert.Equal(t, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), <-dst)
	roundTrip(t, c)
}

func TestDialConnect(t *testing.T) {
	host, port := echoServer(t)
	proxyAddr, auth := connectServer(t, 200)
	d := &CoreDialer{GetProxy: func(ctx context.Context, host string, port int) (string, error) {
		return "http://user:pass@" + proxyAddr, nil
	}}
	c, err := d.Dial(context.Background(), host, port)
	require.NoError(t, err)
	assert.Equal(t, "Basic dXNlcjpwYXNz", <-auth)
	roundTrip(t, c)
}

func TestDialConnectRejected(t *testing.T) {
	proxyAddr, _ := connectServer(t, 407)
	d := &CoreDialer{GetProxy: func(ctx context.Context, host string, port int) (string, error) {
		return "http://" + proxyAddr, nil
	}}
	_, err := d.Dial(context.Background(), "127.0.0.1", 1344)
	require.ErrorContains(t, err, "status:407")
}

func TestUnsupportedProxy(t *testing.T) {
	d := &CoreDialer{GetProxy: func(ctx context.Context, host string, port int) (string, error) {
		return "ftp://127.0.0.1", nil
	}}
	_, err := d.Dial(context.Background(), "127.0.0.1", 1344)
	require.ErrorContains(t, err, "unsupported proxy scheme")
}

func TestResolveConfigMerge(t *testing.T) {
	def := &ResolveConfig{
		CustomDNSServer: "1.1.1.1:53",
		Network:         "ip6",
		StaticHosts:     map[string]string{"a": "1", "b": "2"},
	}
	c := &ResolveConfig{Network: "ip4", StaticHosts: map[string]string{"b": "3"}}
	m := c.Merge(def)
	assert.Equal(t, "1.1.1.1:53", m.CustomDNSServer)
	assert.Equal(t, "ip4", m.Network)
	assert.Equal(t, map[string]string{"a": "1", "b": "3"}, m.StaticHosts)
	assert.Equal(t, map[string]string{"b": "3"}, c.StaticHosts)

	var none *ResolveConfig
	assert.Nil(t, none.Merge(nil))
	assert.Equal(t, def, none.Merge(def))
}

func TestClone(t *testing.T) {
	d := &CoreDialer{
		ResolveConfig: &ResolveConfig{Network: "ip4"},
		ProxyConfig:   &ProxyConfig{ResolveLocally: true},
	}
	c := d.Clone()
	c.ResolveConfig.Network = "ip6"
	c.ProxyConfig.ResolveLocally = false
	assert.Equal(t, "ip4", d.ResolveConfig.Network)
	assert.True(t, d.ProxyConfig.ResolveLocally)
	assert.Nil(t, c.Unwrap())
}

func TestResolve(t *testing.T) {
	d := &CoreDialer{}
	cfg := &ResolveConfig{StaticHosts: map[string]string{"icap.test": "10.1.2.3"}}

	addr, err := d.resolve(context.Background(), cfg, "icap.test")
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", addr)

	addr, err = d.resolve(context.Background(), nil, "192.0.2.1")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", addr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = d.resolve(ctx, &ResolveConfig{CustomDNSServer: "127.0.0.1:1"}, "icap.example.invalid")
	assert.Error(t, err)
}
