// package nettools probes the kernel state of idle connections, which the
// standard library only exposes through a blocking read.
package nettools

import (
	"net"
	"syscall"
)

type Mode int

const (
	ModePoll Mode = iota
	ModeSelect
)

var (
	// probes report whether fd has pending input or a hangup, without
	// blocking.
	supported = map[Mode]func(fd int) (bool, error){}
	picked    func(fd int) (bool, error)
)

func init() {
	for _, mode := range []Mode{ModePoll, ModeSelect} {
		if supported[mode] != nil {
			picked = supported[mode]
			break
		}
	}
}

// PeerClosed reports whether an idle connection became unusable: the peer
// hung up, reset it, or sent bytes nobody asked for. Connections that don't
// expose a file descriptor are never reported.
func PeerClosed(c net.Conn) bool {
	return probe(c, picked)
}

func probe(c net.Conn, fn func(fd int) (bool, error)) bool {
	if fn == nil {
		return false
	}
	rc := connsToFD(c)
	if rc == nil {
		return false
	}
	var ready bool
	var perr error
	// errors would only happen before the control action, that is when the
	// descriptor is already closed
	if err := rc.Control(func(fd uintptr) {
		ready, perr = fn(int(fd))
	}); err != nil {
		return true
	}
	return ready && perr == nil
}

func connsToFD(raw net.Conn) syscall.RawConn {
	if t, ok := raw.(interface{ NetConn() net.Conn }); ok {
		// is *tls.Conn or polyfilled TLS Connection
		raw = t.NetConn()
	}
	if c, ok := raw.(syscall.Conn); ok {
		if c, err := c.SyscallConn(); err == nil {
			return c
		}
	}
	return nil
}
