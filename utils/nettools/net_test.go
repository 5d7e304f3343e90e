package nettools

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcpPair(t *testing.T) (client, server net.Conn) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := l.Accept()
		accepted <- c
	}()
	client, err = net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	server = <-accepted
	require.NotNil(t, server)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func TestProbeModes(t *testing.T) {
	if len(supported) == 0 {
		t.Skip("no probe on this platform")
	}
	for mode, fn := range supported {
		fn := fn
		t.Run("hangup", func(t *testing.T) {
			client, server := tcpPair(t)
			assert.False(t, probe(client, fn), "mode %d", mode)
			server.Close()
			assert.Eventually(t, func() bool { return probe(client, fn) }, time.Second, 5*time.Millisecond)
		})
		t.Run("unsolicited data", func(t *testing.T) {
			client, server := tcpPair(t)
			server.Write([]byte("ICAP/1.0 408 Request timeout\r\n\r\n"))
			assert.Eventually(t, func() bool { return probe(client, fn) }, time.Second, 5*time.Millisecond)
		})
	}
}

func TestPeerClosed(t *testing.T) {
	client, server := tcpPair(t)
	assert.False(t, PeerClosed(client))
	if picked == nil {
		return
	}
	server.Close()
	assert.Eventually(t, func() bool { return PeerClosed(client) }, time.Second, 5*time.Millisecond)

	client.Close()
	assert.True(t, PeerClosed(client))
}

func TestPeerClosedWithoutDescriptor(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	b.Close()
	assert.False(t, PeerClosed(a))
}
