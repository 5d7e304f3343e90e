package dialer

import (
	"context"
	"net"
	"strconv"
	"time"
)

var zeroDialer net.Dialer
var noDeadline time.Time
var customDnsDialer = net.Dialer{
	Resolver: &customServerResolver,
}

func (d *CoreDialer) Dial(ctx context.Context, host string, port int) (net.Conn, error) {
	conn, err := d.tryDialProxy(ctx, host, port)
	if err != nil || conn != nil {
		return conn, err
	}
	return d.dialDirect(ctx, d.ResolveConfig, host, strconv.Itoa(port))
}

// dialDirect opens a TCP connection honoring cfg, which may be nil.
func (d *CoreDialer) dialDirect(ctx context.Context, cfg *ResolveConfig, host, port string) (net.Conn, error) {
	network, dialer, dialctx, dst := "tcp", &zeroDialer, ctx, net.JoinHostPort(host, port)
	if cfg != nil {
		if cfg.Network == "ip4" {
			network = "tcp4"
		} else if cfg.Network == "ip6" {
			network = "tcp6"
		}
		if static, ok := cfg.StaticHosts[host]; ok {
			dst = net.JoinHostPort(static, port)
		}
		if dns := cfg.CustomDNSServer; dns != "" {
			dialctx = dnsServerCtx{dialctx, dns}
			dialer = &customDnsDialer
		}
	}
	return dialer.DialContext(dialctx, network, dst)
}
